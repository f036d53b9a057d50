package config

import (
	"fmt"
	"net/url"
	"slices"
)

// OutputModes lists the accepted values of the output key.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output %q\nHint: use one of auto, text, markdown, json", c.OutputFormat)
	}
	return nil
}
