package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	t.Setenv(APIKeyEnv, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendSDK {
		t.Errorf("Backend = %s, want %s", cfg.Backend, BackendSDK)
	}
	if len(cfg.CandidateList) != len(models.DefaultCandidateIDs) {
		t.Errorf("expected %d default candidates, got %d", len(models.DefaultCandidateIDs), len(cfg.CandidateList))
	}
	if cfg.TimeoutSeconds != 0 {
		t.Errorf("TimeoutSeconds = %d, want 0", cfg.TimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Candidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CandidateList = []CandidateConfig{
		{ID: "m1"},
		{ID: "m2", Capabilities: []string{" Retrieval "}},
	}

	cands := cfg.Candidates()
	if len(cands) != 2 {
		t.Fatalf("len = %d, want 2", len(cands))
	}
	if cands[0].Identifier != "m1" || cands[0].Priority != 0 || cands[0].Has(models.CapabilityRetrieval) {
		t.Errorf("unexpected first candidate: %+v", cands[0])
	}
	if cands[1].Priority != 1 || !cands[1].Has(models.CapabilityRetrieval) {
		t.Errorf("unexpected second candidate: %+v", cands[1])
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"rest backend", func(c *Config) { c.Backend = BackendREST }, false},
		{"unknown backend", func(c *Config) { c.Backend = "grpc" }, true},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -1 }, true},
		{"no candidates", func(c *Config) { c.CandidateList = nil }, true},
		{"blank candidate", func(c *Config) { c.CandidateList = []CandidateConfig{{ID: "  "}} }, true},
		{"bad capability", func(c *Config) {
			c.CandidateList = []CandidateConfig{{ID: "m", Capabilities: []string{"vision"}}}
		}, true},
		{"bad threshold", func(c *Config) { c.Safety = map[string]string{"HARM_CATEGORY_HARASSMENT": "MAYBE"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SafetyPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Safety = nil
	if p := cfg.SafetyPolicy(); len(p) != 4 {
		t.Errorf("nil safety should fall back to default, got %v", p)
	}

	cfg.Safety = map[string]string{"HARM_CATEGORY_HATE_SPEECH": "BLOCK_ONLY_HIGH"}
	p := cfg.SafetyPolicy()
	if len(p) != 1 || p[models.SafetyCategoryHateSpeech] != models.SafetyThresholdBlockHighAndUp {
		t.Errorf("SafetyPolicy() = %v", p)
	}
}

func TestConfig_RequestTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RequestTimeout() != 0 {
		t.Errorf("default timeout = %v, want 0", cfg.RequestTimeout())
	}
	cfg.TimeoutSeconds = 30
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.RequestTimeout())
	}
}

func TestGetConfigDir_Override(t *testing.T) {
	dir := withTempHome(t)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %s, want %s", got, dir)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	withTempHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Backend != BackendSDK {
		t.Errorf("expected defaults, got backend %s", cfg.Backend)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := withTempHome(t)

	cfg := DefaultConfig()
	cfg.Backend = BackendREST
	cfg.TimeoutSeconds = 45
	cfg.CandidateList = []CandidateConfig{{ID: "gemini-2.0-flash", Capabilities: []string{"retrieval"}}}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config perms = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if loaded.Backend != BackendREST || loaded.TimeoutSeconds != 45 {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.CandidateList) != 1 || loaded.CandidateList[0].ID != "gemini-2.0-flash" {
		t.Errorf("loaded candidates = %+v", loaded.CandidateList)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := withTempHome(t)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.Backend != BackendSDK {
		t.Error("expected defaults on parse error")
	}
}

func TestLoadAPIKey_Env(t *testing.T) {
	withTempHome(t)
	t.Setenv(APIKeyEnv, "  env-key ")

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() returned error: %v", err)
	}
	if key != "env-key" {
		t.Errorf("key = %q, want env-key", key)
	}
}

func TestLoadAPIKey_Missing(t *testing.T) {
	withTempHome(t)

	_, err := LoadAPIKey()
	if !errors.Is(err, apierrors.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSaveAndLoadAPIKey(t *testing.T) {
	dir := withTempHome(t)

	if err := SaveAPIKey("file-key-1234"); err != nil {
		t.Fatalf("SaveAPIKey() returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("credentials perms = %o, want 600", info.Mode().Perm())
	}

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() returned error: %v", err)
	}
	if key != "file-key-1234" {
		t.Errorf("key = %q", key)
	}

	if err := SaveAPIKey("  "); !errors.Is(err, apierrors.ErrMissingAPIKey) {
		t.Errorf("empty key should be rejected, got %v", err)
	}
}

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"api_key", `{"api_key":"a"}`, "a", false},
		{"env name", `{"GEMINI_API_KEY":"b"}`, "b", false},
		{"empty", `{"api_key":""}`, "", true},
		{"garbage", `[1,2]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCredentials([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("abcdefgh"); got != "****efgh" {
		t.Errorf("MaskKey() = %q", got)
	}
	if got := MaskKey("abc"); got != "***" {
		t.Errorf("MaskKey(short) = %q", got)
	}
}
