package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/diogo/compliancegen/internal/config"
	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/prompt"
)

func TestRootCommand_Version(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("-v"); err != nil {
		t.Fatalf("root returned error: %v", err)
	}
	if !strings.HasPrefix(env.stdout.String(), "compliancegen "+Version) {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	if env.tuiOpts != nil {
		t.Error("--version should not start the TUI")
	}
}

func TestRootCommand_StartsTUI(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(); err != nil {
		t.Fatalf("root returned error: %v", err)
	}
	if env.tuiOpts == nil {
		t.Fatal("TUI was not started")
	}
	if env.tuiOpts.Subtitle != "gemini-1.5-flash-latest +2 fallback" {
		t.Errorf("Subtitle = %q", env.tuiOpts.Subtitle)
	}

	result, err := env.tuiOpts.Generate(context.Background(), prompt.Product{Name: "Bottle", HSCode: "392410"})
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if result.Model != "gemini-1.5-flash-latest" {
		t.Errorf("Model = %q", result.Model)
	}
	if len(env.records()) != 1 {
		t.Error("TUI generations should be saved to history")
	}
}

func TestRootCommand_TUIRequiresKey(t *testing.T) {
	env := newTestEnv(t)
	env.withoutKey()

	err := env.run()
	if !errors.Is(err, apierrors.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if env.tuiOpts != nil {
		t.Error("TUI should not start without a key")
	}
}

func TestRootCommand_BrokenConfig(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(env.home, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("generate", "-n", "Lamp", "--hs", "940520"); err == nil {
		t.Error("generate should fail with a broken config")
	}

	// init can still repair it
	if err := env.run("config", "init", "--force"); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	if _, err := config.LoadConfig(); err != nil {
		t.Errorf("config should load after init: %v", err)
	}
}

func TestRootCommand_FlagOverrides(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("--backend", "REST", "--timeout", "7", "--no-retrieval",
		"--candidate", "m9+retrieval", "generate", "-n", "Lamp", "--hs", "940520")
	if err != nil {
		t.Fatalf("generate returned error: %v", err)
	}

	if env.factoryOpts.Backend != "rest" {
		t.Errorf("Backend = %q", env.factoryOpts.Backend)
	}
	if env.factoryOpts.Timeout.Seconds() != 7 {
		t.Errorf("Timeout = %s", env.factoryOpts.Timeout)
	}
	calls := env.factory.Calls()
	if len(calls) == 0 || calls[0].Identifier != "m9" || calls[0].Retrieval {
		t.Errorf("calls = %+v", calls)
	}
}

func TestParseCandidateFlags(t *testing.T) {
	got := parseCandidateFlags([]string{"m1", " models/m2 + retrieval ", "m3+"})
	want := []config.CandidateConfig{
		{ID: "m1"},
		{ID: "models/m2", Capabilities: []string{"retrieval"}},
		{ID: "m3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseCandidateFlags() mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidateSubtitle(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("--candidate", "models/m1"); err != nil {
		t.Fatal(err)
	}
	if env.tuiOpts.Subtitle != "m1" {
		t.Errorf("Subtitle = %q", env.tuiOpts.Subtitle)
	}
}

func TestCandidatesCommand(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("candidates", "--candidate", "m1+retrieval", "--candidate", "m2", "--timeout", "30")
	if err != nil {
		t.Fatalf("candidates returned error: %v", err)
	}

	out := env.stdout.String()
	for _, want := range []string{"Backend: sdk", "Timeout: 30s", "m1", "retrieval, plain", "m2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if env.keyRequested {
		t.Error("listing candidates should not need a key")
	}
}

func TestCandidatesCommand_NoRetrieval(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("candidates", "--candidate", "m1+retrieval", "--no-retrieval"); err != nil {
		t.Fatalf("candidates returned error: %v", err)
	}
	if strings.Contains(env.stdout.String(), "retrieval, plain") {
		t.Errorf("retrieval attempts listed although disabled:\n%s", env.stdout.String())
	}
}

func TestCandidatesCommand_InvalidCapability(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("candidates", "--candidate", "m1+telepathy"); err == nil {
		t.Error("expected error for unknown capability")
	}
}

func TestExecuteWrapperSuccess(t *testing.T) {
	old := rootCmd
	rootCmd = &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	rootCmd.SetArgs([]string{})
	defer func() { rootCmd = old }()

	// Should not call os.Exit for successful execution
	Execute()
}
