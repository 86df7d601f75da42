// Package config handles configuration and credential loading for compliancegen.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/compliancegen/internal/models"
)

// Backends for the generation client
const (
	BackendSDK  = "sdk"  // google.golang.org/genai
	BackendREST = "rest" // direct generateContent calls over tls-client
)

// HomeEnv overrides the configuration directory
const HomeEnv = "COMPLIANCEGEN_HOME"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// CandidateConfig is one entry of the configured candidate list
type CandidateConfig struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Config represents the user configuration
type Config struct {
	Backend string `json:"backend"`
	// BaseURL overrides the service endpoint (used by tests and proxies)
	BaseURL       string            `json:"base_url,omitempty"`
	CandidateList []CandidateConfig `json:"candidates"`
	// EnableRetrieval allows search grounding on candidates that declare it
	EnableRetrieval bool              `json:"enable_retrieval"`
	Safety          map[string]string `json:"safety,omitempty"`
	// TimeoutSeconds bounds each attempt. Zero leaves the transport default.
	TimeoutSeconds  int            `json:"timeout_seconds,omitempty"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	SaveHistory     bool           `json:"save_history"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	candidates := make([]CandidateConfig, 0, len(models.DefaultCandidateIDs))
	for _, id := range models.DefaultCandidateIDs {
		candidates = append(candidates, CandidateConfig{ID: id})
	}

	safety := make(map[string]string)
	for cat, th := range models.DefaultSafetyPolicy() {
		safety[string(cat)] = string(th)
	}

	return Config{
		Backend:         BackendSDK,
		CandidateList:   candidates,
		EnableRetrieval: true,
		Safety:          safety,
		Verbose:         false,
		CopyToClipboard: false,
		SaveHistory:     true,
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Candidates converts the configured list into candidate endpoints.
// Priority follows list position.
func (c Config) Candidates() []models.CandidateEndpoint {
	out := make([]models.CandidateEndpoint, 0, len(c.CandidateList))
	for i, cc := range c.CandidateList {
		caps := make([]models.Capability, 0, len(cc.Capabilities))
		for _, name := range cc.Capabilities {
			caps = append(caps, models.Capability(strings.ToLower(strings.TrimSpace(name))))
		}
		out = append(out, models.NewCandidate(cc.ID, i, caps...))
	}
	return out
}

// SafetyPolicy returns the configured safety policy, or the default when unset
func (c Config) SafetyPolicy() models.SafetyPolicy {
	if len(c.Safety) == 0 {
		return models.DefaultSafetyPolicy()
	}
	p := make(models.SafetyPolicy, len(c.Safety))
	for cat, th := range c.Safety {
		p[models.SafetyCategory(cat)] = models.SafetyThreshold(th)
	}
	return p
}

// RequestTimeout returns the per-attempt timeout, zero meaning none
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for values the resolver cannot use
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSDK, BackendREST:
	default:
		return fmt.Errorf("unknown backend %q (expected %q or %q)", c.Backend, BackendSDK, BackendREST)
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}

	if len(c.CandidateList) == 0 {
		return fmt.Errorf("at least one candidate is required")
	}
	for i, cc := range c.CandidateList {
		if strings.TrimSpace(cc.ID) == "" {
			return fmt.Errorf("candidate %d has an empty id", i)
		}
		for _, name := range cc.Capabilities {
			if !knownCapability(name) {
				return fmt.Errorf("candidate %s: unknown capability %q", cc.ID, name)
			}
		}
	}

	for cat, th := range c.Safety {
		if !models.ValidThreshold(models.SafetyThreshold(th)) {
			return fmt.Errorf("safety %s: unknown threshold %q", cat, th)
		}
	}

	return nil
}

func knownCapability(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, cp := range models.KnownCapabilities() {
		if string(cp) == name {
			return true
		}
	}
	return false
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".compliancegen"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "compliancegen.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
