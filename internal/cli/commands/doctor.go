package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/cli/config"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/schema"
	"github.com/spf13/cobra"
)

// Check groups.
const (
	groupConfig  = "configuration"
	groupService = "service"
	groupSchema  = "schema"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration and the connection to the assistant service",
		Long: `Check that dbassist can work against the configured assistant service.

The doctor command reports:
- Which config file and environment are in effect
- Whether the service answers the schema endpoint, and how fast
- Whether the schema lists tables and columns forms can be built from
- A health score (0-100) and what to fix first

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  dbassist doctor

  # Against another environment
  dbassist doctor --env staging

  # Output as JSON
  dbassist doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ServiceSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ServiceSummary describes what was checked.
type ServiceSummary struct {
	BaseURL        string `json:"base_url"`
	ConfigFile     string `json:"config_file,omitempty"`
	Environment    string `json:"environment,omitempty"`
	LatencyMS      int64  `json:"latency_ms"`
	Tables         int    `json:"tables"`
	Columns        int    `json:"columns"`
	NumericColumns int    `json:"numeric_columns"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	catalog := schema.NewCatalog(cmdCtx.Client, nil, cmdCtx.Logger)
	start := time.Now()
	_, loadErr := catalog.Load(commandContext(cmd))
	latency := time.Since(start)

	doctorOutput := buildDoctorOutput(cmdCtx.Cfg, config.GetConfigFileUsed(), catalog.Current(), loadErr, latency)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

// buildDoctorOutput runs every check. s is nil when the schema could not be
// loaded, in which case loadErr says why.
func buildDoctorOutput(cfg *config.Config, configFile string, s *schema.Schema, loadErr error, latency time.Duration) *DoctorOutput {
	summary := ServiceSummary{
		BaseURL:     cfg.BaseURL,
		ConfigFile:  configFile,
		Environment: cfg.Environment,
		LatencyMS:   latency.Milliseconds(),
	}

	checks := []HealthCheck{
		checkConfigFile(configFile),
		checkAPIKey(cfg),
		checkService(loadErr),
		checkLatency(loadErr, latency, cfg.Timeout),
	}

	if s != nil {
		summary.Tables = s.Len()
		for _, t := range s.All() {
			summary.Columns += len(t.Columns)
			for _, c := range t.Columns {
				if form.InferKind(c) == form.KindNumeric {
					summary.NumericColumns++
				}
			}
		}
	}
	checks = append(checks, checkTables(s), checkColumns(s))

	// Sort health checks by group then by rule ID
	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func newCheck(id, name, group string) HealthCheck {
	return HealthCheck{RuleID: id, Name: name, Group: group, Status: statusPass}
}

func (h *HealthCheck) fail(status, detail string) {
	h.Status = status
	h.IssueCount++
	h.Details = append(h.Details, detail)
}

func checkConfigFile(file string) HealthCheck {
	c := newCheck("CF01", "Config file", groupConfig)
	if file == "" {
		c.fail(statusWarn, "no dbassist.yaml found, using defaults and environment")
	}
	return c
}

func checkAPIKey(cfg *config.Config) HealthCheck {
	c := newCheck("CF02", "API key", groupConfig)
	if cfg.APIKey == "" {
		c.fail(statusWarn, "no api_key set; requests carry no X-API-Key header")
	}
	return c
}

func checkService(loadErr error) HealthCheck {
	c := newCheck("SV01", "Schema endpoint reachable", groupService)
	if loadErr != nil {
		c.fail(statusError, api.Message(loadErr))
	}
	return c
}

func checkLatency(loadErr error, latency, timeout time.Duration) HealthCheck {
	c := newCheck("SV02", "Response time", groupService)
	if loadErr == nil && timeout > 0 && latency > timeout/2 {
		c.fail(statusWarn, fmt.Sprintf("schema took %s, over half the %s timeout", latency.Round(time.Millisecond), timeout))
	}
	return c
}

func checkTables(s *schema.Schema) HealthCheck {
	c := newCheck("SC01", "Schema lists tables", groupSchema)
	if s != nil && s.Len() == 0 {
		c.fail(statusWarn, "the service reported no tables")
	}
	return c
}

func checkColumns(s *schema.Schema) HealthCheck {
	c := newCheck("SC02", "Tables have columns", groupSchema)
	if s == nil {
		return c
	}
	for _, t := range s.All() {
		if len(t.Columns) == 0 {
			c.fail(statusWarn, fmt.Sprintf("table %q has no columns; its form would be empty", t.Name))
		}
	}
	return c
}

// calculateHealthScore computes a health score from 0-100.
// Warnings cost 10 points each, errors count double.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case statusError:
			score -= check.IssueCount * 20
		case statusWarn:
			score -= check.IssueCount * 10
		}
	}
	return max(score, 0)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Create a dbassist.yaml with base_url so every command targets the same service"
	case "CF02":
		return "Set api_key (or DBASSIST_API_KEY) if the service requires authentication"
	case "SV01":
		return "Check that the assistant service is running and base_url points at it"
	case "SV02":
		return "Raise timeout or check the network path to the service"
	case "SC01":
		return "Check the database the service is connected to"
	case "SC02":
		return "Grant the service's database user access to the listed tables' columns"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("dbassist Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Service"))
	r.Printf("   URL: %s\n", out.Summary.BaseURL)
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	if out.Summary.Environment != "" {
		r.Printf("   Environment: %s\n", out.Summary.Environment)
	}
	r.Printf("   Tables: %d | Columns: %d (%d numeric) | Latency: %dms\n",
		out.Summary.Tables, out.Summary.Columns, out.Summary.NumericColumns, out.Summary.LatencyMS)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}

		r.Println(fmt.Sprintf("   %s %s: %s", icon, check.RuleID, check.Name))
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# dbassist Health Report")
	r.Println("")

	r.Println("## Service")
	r.Println("")
	r.Println(output.FormatKeyValue("URL", out.Summary.BaseURL))
	if out.Summary.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", out.Summary.ConfigFile))
	}
	if out.Summary.Environment != "" {
		r.Println(output.FormatKeyValue("Environment", out.Summary.Environment))
	}
	r.Printf("- **Tables**: %d\n", out.Summary.Tables)
	r.Printf("- **Columns**: %d (%d numeric)\n", out.Summary.Columns, out.Summary.NumericColumns)
	r.Printf("- **Latency**: %dms\n", out.Summary.LatencyMS)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.RuleID, check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
