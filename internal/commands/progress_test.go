package commands

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diogo/compliancegen/internal/models"
)

// syncBuffer guards a buffer shared with the animation goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgress_Succeed(t *testing.T) {
	var out syncBuffer
	p := newProgress(&out, "Preparing")
	p.start()
	time.Sleep(250 * time.Millisecond)
	p.succeed("done")

	got := out.String()
	if !strings.Contains(got, "Preparing") {
		t.Errorf("expected animation frames, got %q", got)
	}
	if !strings.Contains(got, "✓") || !strings.Contains(got, "done") {
		t.Errorf("expected success line, got %q", got)
	}
	if !strings.Contains(got, "\033[?25h") {
		t.Error("cursor should be restored")
	}
}

func TestProgress_StopTwice(t *testing.T) {
	var out syncBuffer
	p := newProgress(&out, "Preparing")
	p.start()
	p.stop()
	p.stop()

	if strings.Contains(out.String(), "✓") {
		t.Error("no success mark expected")
	}
}

func TestProgress_Attempt(t *testing.T) {
	tests := []struct {
		cand      models.CandidateEndpoint
		retrieval bool
		n, total  int
		want      string
	}{
		{models.NewCandidate("models/gemini-1.5-flash", 1), false, 2, 3, "trying models/gemini-1.5-flash (2/3)"},
		{models.NewCandidate("gemini-2.0-flash", 0, models.CapabilityRetrieval), true, 1, 4, "trying gemini-2.0-flash+retrieval (1/4)"},
	}

	for _, tt := range tests {
		var out syncBuffer
		p := newProgress(&out, "Preparing")
		p.attempt(tt.cand, tt.retrieval, tt.n, tt.total)
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("line = %q, want it to contain %q", out.String(), tt.want)
		}
	}
}
