package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dbassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", "", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.RecordHistory)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), `base_url: https://assist.example.com/
timeout: 5s
output: json
history_file: /tmp/history
history_db: /tmp/history.db
record_history: false
`)

	cfg, err := LoadConfig(path, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://assist.example.com", cfg.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "/tmp/history", cfg.HistoryPath())
	assert.Equal(t, "/tmp/history.db", cfg.HistoryDBPath())
	assert.False(t, cfg.RecordHistory)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "base_url: http://found.example:9000\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://found.example:9000", cfg.BaseURL)
	assert.Equal(t, "dbassist.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "base_url: http://from-file\ntimeout: 5s\n")
	t.Setenv("DBASSIST_BASE_URL", "http://from-env")
	t.Setenv("DBASSIST_TIMEOUT", "45s")

	cfg, err := LoadConfig(path, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.BaseURL, "env var should override config file")
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "base_url: http://from-file\n")
	t.Setenv("DBASSIST_BASE_URL", "http://from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", "", "service URL")
	flags.Duration("timeout", 0, "timeout")
	require.NoError(t, flags.Set("base-url", "http://from-flag"))
	require.NoError(t, flags.Set("timeout", "2s"))

	cfg, err := LoadConfig(path, "", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://from-flag", cfg.BaseURL, "flag value should override config file and env var")
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "base_url: http://from-file\n")
	t.Setenv("DBASSIST_BASE_URL", "http://from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", "", "service URL")

	cfg, err := LoadConfig(path, "", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.BaseURL, "env var should be used when flag is not set")
}

func TestLoadConfig_Environments(t *testing.T) {
	content := `base_url: http://localhost:8000
api_key: ${DBASSIST_TEST_KEY}
environments:
  staging:
    base_url: https://staging.example.com
    timeout: 10s
  prod:
    base_url: https://prod.example.com
    api_key: prod-key
`
	t.Setenv("DBASSIST_TEST_KEY", "local-key")

	t.Run("no environment", func(t *testing.T) {
		ResetConfig()
		cfg, err := LoadConfig(writeConfig(t, t.TempDir(), content), "", nil)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
		assert.Equal(t, "local-key", cfg.APIKey)
		assert.Equal(t, DefaultTimeout, cfg.Timeout)
	})

	t.Run("staging keeps base api key", func(t *testing.T) {
		ResetConfig()
		cfg, err := LoadConfig(writeConfig(t, t.TempDir(), content), "staging", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://staging.example.com", cfg.BaseURL)
		assert.Equal(t, "local-key", cfg.APIKey)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
	})

	t.Run("prod", func(t *testing.T) {
		ResetConfig()
		cfg, err := LoadConfig(writeConfig(t, t.TempDir(), content), "prod", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://prod.example.com", cfg.BaseURL)
		assert.Equal(t, "prod-key", cfg.APIKey)
	})

	t.Run("flag beats environment", func(t *testing.T) {
		ResetConfig()
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("base-url", "", "service URL")
		require.NoError(t, flags.Set("base-url", "http://override"))

		cfg, err := LoadConfig(writeConfig(t, t.TempDir(), content), "prod", flags)
		require.NoError(t, err)
		assert.Equal(t, "http://override", cfg.BaseURL)
		assert.Equal(t, "prod-key", cfg.APIKey)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		_, err := LoadConfig(writeConfig(t, t.TempDir(), content), "qa", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown environment "qa"`)
		assert.Contains(t, err.Error(), "available environments: prod, staging")
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DBASSIST_TEST_VAR", "value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no vars", "plain", "plain"},
		{"single var", "${DBASSIST_TEST_VAR}", "value"},
		{"embedded", "pre-${DBASSIST_TEST_VAR}-post", "pre-value-post"},
		{"unset var kept", "${DBASSIST_UNSET_VAR}", "${DBASSIST_UNSET_VAR}"},
		{"bare dollar", "$DBASSIST_TEST_VAR", "$DBASSIST_TEST_VAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{BaseURL: DefaultBaseURL, Timeout: time.Second, OutputFormat: "auto"}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "base_url is required"},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://x" }, "http(s) URL"},
		{"no host", func(c *Config) { c.BaseURL = "http://" }, "http(s) URL"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Redacted(t *testing.T) {
	cfg := &Config{
		APIKey: "secret",
		Environments: map[string]EnvConfig{
			"prod": {APIKey: "prod-secret", BaseURL: "https://prod"},
			"dev":  {BaseURL: "http://dev"},
		},
	}

	red := cfg.Redacted()
	assert.Equal(t, "********", red.APIKey)
	assert.Equal(t, "********", red.Environments["prod"].APIKey)
	assert.Empty(t, red.Environments["dev"].APIKey)
	assert.Equal(t, "secret", cfg.APIKey, "original is untouched")
	assert.Equal(t, "prod-secret", cfg.Environments["prod"].APIKey)
}

func TestGetLogger_Fallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)
	logger.Info("discarded")
}

func TestGetConfig(t *testing.T) {
	assert.Equal(t, Default(), GetConfig(context.Background()))

	cfg := &Config{BaseURL: "http://x"}
	ctx := context.WithValue(context.Background(), ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}

func TestHistoryDBPath_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	assert.Equal(t, filepath.Join(home, ".dbassist", "history.db"), cfg.HistoryDBPath())
}
