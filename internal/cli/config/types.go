// Package config provides configuration management for the dbassist CLI.
//
// Configuration is layered with koanf: built-in defaults, then the
// dbassist.yaml file, then DBASSIST_ environment variables, then flags that
// were set explicitly on the command line.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	BaseURL       string               `koanf:"base_url" yaml:"base_url" json:"base_url"`
	APIKey        string               `koanf:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Timeout       time.Duration        `koanf:"timeout" yaml:"timeout" json:"timeout"`
	Environment   string               `koanf:"env" yaml:"env,omitempty" json:"env,omitempty"`
	Verbose       bool                 `koanf:"verbose" yaml:"verbose" json:"verbose"`
	OutputFormat  string               `koanf:"output" yaml:"output" json:"output"`
	HistoryFile   string               `koanf:"history_file" yaml:"history_file,omitempty" json:"history_file,omitempty"`
	HistoryDB     string               `koanf:"history_db" yaml:"history_db,omitempty" json:"history_db,omitempty"`
	RecordHistory bool                 `koanf:"record_history" yaml:"record_history" json:"record_history"`
	Environments  map[string]EnvConfig `koanf:"environments" yaml:"environments,omitempty" json:"environments,omitempty"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	BaseURL string        `koanf:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey  string        `koanf:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Default configuration values.
const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 30 * time.Second
	DefaultOutput  = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	EnvPrefix      = "DBASSIST_"
)

// ConfigFileNames are searched in order in each directory.
var ConfigFileNames = []string{"dbassist.yaml", "dbassist.yml"}

// Redacted returns a copy safe for printing, with API keys masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.APIKey = mask(c.APIKey)
	if c.Environments != nil {
		out.Environments = make(map[string]EnvConfig, len(c.Environments))
		for name, env := range c.Environments {
			env.APIKey = mask(env.APIKey)
			out.Environments[name] = env
		}
	}
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
