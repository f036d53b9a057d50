package commands

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/cli/config"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	clitest "github.com/leapstack-labs/dbassist/internal/cli/testutil"
	"github.com/leapstack-labs/dbassist/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const shopSchema = `{"tables":{"orders":["customer_id","product_id","quantity"],"customers":["customer_name","email"]}}`

// newTestCommandContext wires a CommandContext to fake with captured output.
func newTestCommandContext(t *testing.T, fake *testutil.FakeAPI, mode output.OutputMode) (*CommandContext, *clitest.TestRenderer) {
	t.Helper()
	cfg := clitest.TestConfig(t, fake.URL)
	logger := testutil.NewTestLogger(t)

	client, err := api.New(api.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	require.NoError(t, err)

	tr := clitest.NewTestRenderer(mode, false)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Client:   client,
		Renderer: tr.Renderer,
	}, tr
}

// executeCommand runs cmd with args in a context prepared like the root
// command does, and returns stdout and stderr.
func executeCommand(t *testing.T, cmd *cobra.Command, fake *testutil.FakeAPI, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWithOutput(t, cmd, fake, "auto", args...)
}

// executeCommandWithOutput is executeCommand with an explicit output mode.
func executeCommandWithOutput(t *testing.T, cmd *cobra.Command, fake *testutil.FakeAPI, mode string, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWith(t, cmd, fake, mode, nil, args...)
}

// executeCommandWith lets prepare adjust the config before cmd runs.
func executeCommandWith(t *testing.T, cmd *cobra.Command, fake *testutil.FakeAPI, mode string, prepare func(cfg *config.Config), args ...string) (string, string, error) {
	t.Helper()
	cfg := clitest.TestConfig(t, fake.URL)
	cfg.OutputFormat = mode
	if prepare != nil {
		prepare(cfg)
	}
	cmd.SetContext(clitest.CommandContext(t, cfg))

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
