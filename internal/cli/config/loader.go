package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	envVarPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// configIn returns the config file inside dir, or "".
func configIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a dbassist config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// findConfigFile picks the explicit path if given, otherwise searches upward
// from the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findConfigUpward(cwd)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// envOverride, when set, selects the entry of environments to apply.
func LoadConfig(cfgFile, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"base_url":       DefaultBaseURL,
		"timeout":        DefaultTimeout.String(),
		"verbose":        false,
		"output":         DefaultOutput,
		"record_history": true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// DBASSIST_BASE_URL -> base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if envOverride != "" {
		cfg.Environment = envOverride
	}
	if err := applyEnvironment(&cfg, flags); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(expandEnvVars(cfg.BaseURL), "/")
	cfg.APIKey = expandEnvVars(cfg.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvironment merges the selected environment's overrides into cfg.
// Values given explicitly as flags keep priority.
func applyEnvironment(cfg *Config, flags *pflag.FlagSet) error {
	if cfg.Environment == "" {
		return nil
	}
	envCfg, ok := cfg.Environments[cfg.Environment]
	if !ok {
		available := slices.Sorted(maps.Keys(cfg.Environments))
		if len(available) == 0 {
			return fmt.Errorf("unknown environment %q: no environments are configured", cfg.Environment)
		}
		return fmt.Errorf("unknown environment %q\nHint: available environments: %s", cfg.Environment, strings.Join(available, ", "))
	}
	changed := func(name string) bool {
		return flags != nil && flags.Changed(name)
	}
	if envCfg.BaseURL != "" && !changed("base-url") {
		cfg.BaseURL = envCfg.BaseURL
	}
	if envCfg.APIKey != "" && !changed("api-key") {
		cfg.APIKey = envCfg.APIKey
	}
	if envCfg.Timeout > 0 && !changed("timeout") {
		cfg.Timeout = envCfg.Timeout
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the loaded config.
func ConfigKey() interface{} {
	return configKey{}
}

// GetConfig retrieves the config from the command context, falling back to
// defaults when none was loaded.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		OutputFormat:  DefaultOutput,
		RecordHistory: true,
	}
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// HistoryPath returns the REPL history file, defaulting to
// ~/.dbassist_history.
func (c *Config) HistoryPath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dbassist_history")
}

// HistoryDBPath returns the question and record log database, defaulting to
// ~/.dbassist/history.db.
func (c *Config) HistoryDBPath() string {
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dbassist", "history.db")
}
