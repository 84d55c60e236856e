package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

//go:embed sources.json
var bundledSources []byte

// RateLimitConfig caps calls to one source inside a rolling window
type RateLimitConfig struct {
	MaxPerWindow int `json:"max_per_window"`
	WindowMs     int `json:"window_ms"`
}

// Window returns the rolling window as a duration
func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// SourceConfig declares one external capability source. Credentials are
// resolved from the environment variable named by CredentialEnv, never
// stored in the registry itself.
type SourceConfig struct {
	Name          string           `json:"name"`
	URL           string           `json:"url"`
	CredentialEnv string           `json:"credential_env,omitempty"`
	TimeoutMs     int              `json:"timeout_ms"`
	Priority      int              `json:"priority"` // ascending: lower tries first
	Capabilities  []string         `json:"capabilities"`
	RateLimit     *RateLimitConfig `json:"rate_limit,omitempty"`
}

// Timeout returns the per-source timeout as a duration
func (s *SourceConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Credential resolves the source credential from the environment
func (s *SourceConfig) Credential() string {
	if s.CredentialEnv == "" {
		return ""
	}
	return os.Getenv(s.CredentialEnv)
}

// SourceRegistry is the full declared set of capability sources
type SourceRegistry struct {
	Sources []SourceConfig `json:"sources"`
}

// LoadSources loads the source registry from a JSON file, falling back to
// the bundled registry when no path is given
func LoadSources(filePath string) (*SourceRegistry, error) {
	data := bundledSources
	if filePath != "" {
		fileData, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources file: %w", err)
		}
		data = fileData
	}

	var registry SourceRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse sources JSON: %w", err)
	}

	return &registry, nil
}
