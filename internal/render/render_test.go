package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/glamour"

	"github.com/diogo/compliancegen/internal/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Width != 100 {
		t.Errorf("expected Width=100, got %d", opts.Width)
	}
	if opts.Style != "dark" {
		t.Errorf("expected Style='dark', got %s", opts.Style)
	}
	if !opts.TableWrap {
		t.Error("expected TableWrap=true")
	}
}

func TestOptionsWith(t *testing.T) {
	opts := DefaultOptions().WithWidth(120).WithStyle("light")
	if opts.Width != 120 || opts.Style != "light" {
		t.Errorf("opts = %+v", opts)
	}

	// Zero values keep the current setting
	same := opts.WithWidth(0).WithStyle("")
	if same != opts {
		t.Errorf("zero values changed options: %+v", same)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "")
	md := config.MarkdownConfig{Style: "notty", TableWrap: false, InlineTableLinks: true}

	opts := FromConfig(md, 72)
	if opts.Style != "notty" || opts.Width != 72 || opts.TableWrap || !opts.InlineTableLinks {
		t.Errorf("opts = %+v", opts)
	}

	t.Setenv("GLAMOUR_STYLE", "ascii")
	if got := FromConfig(md, 72).Style; got != "ascii" {
		t.Errorf("GLAMOUR_STYLE not applied, style = %s", got)
	}
}

func TestIsBuiltinStyle(t *testing.T) {
	for _, s := range StyleNames() {
		if !IsBuiltinStyle(s) {
			t.Errorf("IsBuiltinStyle(%q) = false", s)
		}
	}
	if IsBuiltinStyle("/tmp/theme.json") {
		t.Error("a path is not a builtin style")
	}
}

func TestMarkdown(t *testing.T) {
	ResetPool()
	defer ResetPool()

	opts := DefaultOptions().WithStyle("notty").WithWidth(60)
	out, err := Markdown("### 1/ Testing Requirements\n\n| a | b |\n| :--- | :--- |\n| EN 71-3 | toys |\n", opts)
	if err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}
	if !strings.Contains(out, "Testing Requirements") || !strings.Contains(out, "EN 71-3") {
		t.Errorf("rendered output missing content:\n%s", out)
	}
	if PooledConfigs() != 1 {
		t.Errorf("expected 1 pooled config, got %d", PooledConfigs())
	}
}

func TestMarkdown_InvalidStyle(t *testing.T) {
	ResetPool()
	defer ResetPool()

	opts := DefaultOptions().WithStyle("/nonexistent/style.json")
	if _, err := Markdown("# x", opts); err == nil {
		t.Error("expected error for missing style file")
	}
	if got := Document("# raw", opts); got != "# raw" {
		t.Errorf("Document() = %q, want raw text fallback", got)
	}
}

func TestPool_KeyedByOptions(t *testing.T) {
	ResetPool()
	defer ResetPool()

	base := DefaultOptions().WithStyle("notty")
	for _, opts := range []Options{base, base.WithWidth(40), DefaultOptions().WithStyle("notty")} {
		if _, err := Markdown("# x", opts); err != nil {
			t.Fatalf("Markdown() returned error: %v", err)
		}
	}
	if got := PooledConfigs(); got != 2 {
		t.Errorf("PooledConfigs() = %d, want 2", got)
	}
}

func TestPool_IdleBounded(t *testing.T) {
	p := &pool{idle: make(map[Options][]*glamour.TermRenderer)}
	opts := DefaultOptions().WithStyle("notty")

	taken := make([]*glamour.TermRenderer, 0, maxIdle+2)
	for i := 0; i < maxIdle+2; i++ {
		r, err := p.take(opts)
		if err != nil {
			t.Fatalf("take() returned error: %v", err)
		}
		taken = append(taken, r)
	}
	for _, r := range taken {
		p.give(opts, r)
	}
	if got := len(p.idle[opts]); got != maxIdle {
		t.Errorf("idle = %d, want %d", got, maxIdle)
	}

	r, _ := p.take(opts)
	if r != taken[maxIdle-1] {
		t.Error("take should reuse the most recently returned renderer")
	}
}

func TestMarkdown_Concurrent(t *testing.T) {
	ResetPool()
	defer ResetPool()

	opts := DefaultOptions().WithStyle("notty")
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("**bold** text", opts); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent render failed: %v", err)
	}
}

func TestSources(t *testing.T) {
	if Sources(nil) != "" {
		t.Error("expected empty string for no sources")
	}
	got := Sources([]string{"https://a", "https://b"})
	if !strings.Contains(got, "- https://a\n- https://b\n") {
		t.Errorf("Sources() = %q", got)
	}
}
