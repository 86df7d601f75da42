package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/diogo/compliancegen/internal/errors"
)

// APIKeyEnv is the environment variable holding the API key
const APIKeyEnv = "GEMINI_API_KEY"

// Credentials represents the stored credential file
type Credentials struct {
	APIKey string `json:"api_key"`
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "credentials.json"), nil
}

// LoadAPIKey returns the API key from the environment or the credentials file.
// The environment takes precedence.
func LoadAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		return key, nil
	}

	path, err := GetCredentialsPath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: set %s or run 'compliancegen config set-key'", apierrors.ErrMissingAPIKey, APIKeyEnv)
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	return parseCredentials(data)
}

// parseCredentials accepts {"api_key": "..."} or {"GEMINI_API_KEY": "..."}
func parseCredentials(data []byte) (string, error) {
	var dict map[string]string
	if err := json.Unmarshal(data, &dict); err != nil {
		return "", fmt.Errorf("invalid credentials format: %w", err)
	}

	for _, name := range []string{"api_key", APIKeyEnv} {
		if key := strings.TrimSpace(dict[name]); key != "" {
			return key, nil
		}
	}

	return "", fmt.Errorf("%w: credentials file has no api_key", apierrors.ErrMissingAPIKey)
}

// SaveAPIKey writes the API key to the credentials file
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apierrors.ErrMissingAPIKey
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(Credentials{APIKey: key}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(filepath.Join(configDir, "credentials.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// MaskKey hides all but the last four characters of a key
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
