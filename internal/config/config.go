// Package config loads the DNS client configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/yuriy-kovalchuk/yk-dns-client/retry"
)

// Config holds connection settings for the managed-DNS API.
type Config struct {
	Endpoint string      `yaml:"endpoint"`
	Project  string      `yaml:"project"`
	Token    string      `yaml:"token"`
	Retry    RetryConfig `yaml:"retry"`
}

// RetryConfig overrides parts of the default retry policy. Unset fields
// keep the defaults.
type RetryConfig struct {
	MaxRetries *int    `yaml:"max_retries"`
	BaseDelay  string  `yaml:"base_delay"` // Go duration syntax, e.g. "500ms"
	Multiplier float64 `yaml:"multiplier"`
	Jitter     *bool   `yaml:"jitter"`
}

// Load reads the client configuration from the path specified by the
// DNS_CLIENT_CONFIG environment variable, defaulting to
// "configs/dns-client.yaml".
func Load() (*Config, error) {
	path := os.Getenv("DNS_CLIENT_CONFIG")
	if path == "" {
		path = "configs/dns-client.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the client configuration from the given file path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading client config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config file: %w", err)
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("client config: missing required field 'endpoint'")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("client config: missing required field 'project'")
	}

	// Expand ${ENV_VAR} references so tokens stay out of the file.
	cfg.Token = os.ExpandEnv(cfg.Token)

	return &cfg, nil
}

// RetryPolicy builds the retry policy from the defaults plus any overrides.
func (c *Config) RetryPolicy() (retry.Policy, error) {
	p := retry.DefaultPolicy()
	if c.Retry.MaxRetries != nil {
		if *c.Retry.MaxRetries < 0 {
			return retry.Policy{}, fmt.Errorf("client config: max_retries must not be negative")
		}
		p.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.BaseDelay != "" {
		d, err := time.ParseDuration(c.Retry.BaseDelay)
		if err != nil {
			return retry.Policy{}, fmt.Errorf("client config: invalid base_delay %q: %w", c.Retry.BaseDelay, err)
		}
		p.BaseDelay = d
	}
	if c.Retry.Multiplier != 0 {
		p.Multiplier = c.Retry.Multiplier
	}
	if c.Retry.Jitter != nil {
		p.Jitter = *c.Retry.Jitter
	}
	return p, nil
}
