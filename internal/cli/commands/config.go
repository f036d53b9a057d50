package commands

import (
	"github.com/leapstack-labs/dbassist/internal/cli/config"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, the config file, DBASSIST_
environment variables and flags have been merged, and the selected
environment applied. API keys are masked unless --show-secrets is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutClient(cmd)
			cfg := cmdCtx.Cfg
			if !showSecrets {
				cfg = cfg.Redacted()
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(cfg)
			}

			if file := config.GetConfigFileUsed(); file != "" {
				r.Muted("# " + file)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			r.Printf("%s", data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print API keys unmasked")
	return cmd
}
