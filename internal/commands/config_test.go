package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/compliancegen/internal/config"
	apierrors "github.com/diogo/compliancegen/internal/errors"
)

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("config", "--candidate", "m1+retrieval"); err != nil {
		t.Fatalf("config returned error: %v", err)
	}

	out := env.stdout.String()
	for _, want := range []string{
		filepath.Join(env.home, "config.json"),
		"not created yet",
		"*********1234",
		`"id": "m1"`,
		`"retrieval"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "test-key-1234") {
		t.Error("the API key must be masked")
	}
}

func TestConfigShow_NoKey(t *testing.T) {
	env := newTestEnv(t)
	env.withoutKey()

	if err := env.run("config", "show"); err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "not set") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("config", "init"); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if len(cfg.CandidateList) != len(config.DefaultConfig().CandidateList) {
		t.Errorf("candidates = %+v", cfg.CandidateList)
	}

	if err := env.run("config", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
	if err := env.run("config", "init", "--force"); err != nil {
		t.Errorf("init --force returned error: %v", err)
	}
}

func TestConfigSetKey(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		tty   bool
		want  string
	}{
		{"argument", []string{"config", "set-key", "  arg-key-0001  "}, "", false, "arg-key-0001"},
		{"stdin", []string{"config", "set-key"}, "piped-key-0002\n", false, "piped-key-0002"},
		{"terminal", []string{"config", "set-key"}, "", true, "tty-secret-9876"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.deps.Stdin = strings.NewReader(tt.stdin)
			env.tty = tt.tty

			if err := env.run(tt.args...); err != nil {
				t.Fatalf("set-key returned error: %v", err)
			}

			key, err := config.LoadAPIKey()
			if err != nil {
				t.Fatalf("LoadAPIKey() returned error: %v", err)
			}
			if key != tt.want {
				t.Errorf("stored key = %q, want %q", key, tt.want)
			}
			if strings.Contains(env.stdout.String(), tt.want) {
				t.Error("the saved key should be masked in output")
			}
		})
	}
}

func TestConfigSetKey_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Stdin = strings.NewReader("\n")

	err := env.run("config", "set-key")
	if !errors.Is(err, apierrors.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("config", "validate"); err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Configuration is valid") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	bad := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(bad.home, "config.json"), []byte(`{"backend":"pigeon"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := bad.run("config", "validate"); err == nil || !strings.Contains(err.Error(), "pigeon") {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestConfigValidate_NoKey(t *testing.T) {
	env := newTestEnv(t)
	env.withoutKey()

	if err := env.run("config", "validate"); !errors.Is(err, apierrors.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
