package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/cli/config"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/schema"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *api.Client
	Renderer *output.Renderer
}

// NewCommandContext builds the API client and renderer from the config the
// root command stored in the context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutClient(cmd)

	client, err := api.New(api.Options{
		BaseURL: cmdCtx.Cfg.BaseURL,
		APIKey:  cmdCtx.Cfg.APIKey,
		Timeout: cmdCtx.Cfg.Timeout,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	cmdCtx.Client = client
	return cmdCtx, nil
}

// NewCommandContextWithoutClient creates a CommandContext without an API
// client. Useful for commands that never reach the service.
func NewCommandContextWithoutClient(cmd *cobra.Command) *CommandContext {
	ctx := commandContext(cmd)
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// LoadCatalog fetches the schema into a fresh catalog.
func (c *CommandContext) LoadCatalog(ctx context.Context) (*schema.Catalog, error) {
	catalog := schema.NewCatalog(c.Client, nil, c.Logger)
	if _, err := catalog.Load(ctx); err != nil {
		return nil, schemaError(err)
	}
	return catalog, nil
}

// commandContext returns the command's context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func schemaError(err error) error {
	return &userError{msg: schema.FetchErrorText + ": " + api.Message(err), err: err}
}

// userError carries the user-facing text of an api failure while keeping
// the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func failure(err error) error {
	return &userError{msg: api.Message(err), err: err}
}
