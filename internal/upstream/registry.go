package upstream

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/endpoints.yaml
var endpointsYAML embed.FS

// Registry holds the upstream endpoint configuration.
type Registry struct {
	BaseURL          string            `yaml:"base_url"`
	SentimentBaseURL string            `yaml:"sentiment_base_url"`
	Fetch            FetchConfig       `yaml:"fetch"`
	Endpoints        map[string]string `yaml:"endpoints"`
}

// FetchConfig governs the HTTP client and the staleness window.
type FetchConfig struct {
	TimeoutSeconds  int `yaml:"timeout_seconds"`  // Default: 30
	MaxRetries      int `yaml:"max_retries"`      // Default: 3
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"` // Default: 5
}

// LoadRegistry reads the embedded endpoints.yaml, expanding environment
// variables within it. The path parameter allows a filesystem override; an
// override that cannot be read is an error, never a silent fallback to the
// embedded defaults.
func LoadRegistry(path string) (*Registry, error) {
	data, err := endpointsYAML.ReadFile("config/endpoints.yaml")
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints config: %w", err)
	}

	if reg.BaseURL == "" {
		reg.BaseURL = "http://localhost:8090"
	}
	if reg.SentimentBaseURL == "" {
		reg.SentimentBaseURL = reg.BaseURL
	}
	if reg.Fetch.TimeoutSeconds == 0 {
		reg.Fetch.TimeoutSeconds = 30
	}
	if reg.Fetch.MaxRetries == 0 {
		reg.Fetch.MaxRetries = 3
	}
	if reg.Fetch.CacheTTLMinutes == 0 {
		reg.Fetch.CacheTTLMinutes = 5
	}
	if len(reg.Endpoints) == 0 {
		return nil, fmt.Errorf("endpoints config defines no endpoints")
	}

	return &reg, nil
}

// URL builds the absolute URL for a named endpoint, expanding {placeholder}
// segments from params.
func (r *Registry) URL(name string, params map[string]string) (string, error) {
	path, ok := r.Endpoints[name]
	if !ok {
		return "", fmt.Errorf("unknown endpoint %q", name)
	}
	for key, value := range params {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(value))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("endpoint %q has unexpanded parameters: %s", name, path)
	}

	base := r.BaseURL
	if name == "sentiment" {
		base = r.SentimentBaseURL
	}
	return strings.TrimRight(base, "/") + path, nil
}
