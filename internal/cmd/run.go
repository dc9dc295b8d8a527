package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/history"
	"github.com/hargabyte/capreport/internal/logging"
	"github.com/hargabyte/capreport/internal/output"
	"github.com/hargabyte/capreport/internal/platform"
	"github.com/hargabyte/capreport/internal/report"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <report.yaml>",
	Short: "Run a report definition against the platform",
	Long: `Run a report definition file against the configured platform and
print the rendered result.

The output format is taken from --format, then the definition's
format field, then the configured default. Each run is recorded in
the local history database unless --no-history is set.

Examples:
  capreport run reports/clusters.yaml
  capreport run reports/actions.yaml --format json
  capreport run reports/targets.yaml --out targets.csv --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runOut       string
	runNoHistory bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOut, "out", "", "Write output to a file instead of stdout")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record this run in the history database")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(logging.Options{Level: cfg.Log.Level, Verbose: verbose})

	def, err := config.LoadReport(args[0])
	if err != nil {
		return err
	}

	format, err := resolveFormat(cfg, def)
	if err != nil {
		return err
	}
	renderer, err := output.GetRenderer(format)
	if err != nil {
		return err
	}

	conn, err := newConnection(cfg)
	if err != nil {
		return err
	}

	assembler, err := report.New(conn, def)
	if err != nil {
		return err
	}

	started := time.Now()
	rows, runErr := assembler.Apply(cmd.Context())

	var buf bytes.Buffer
	if runErr == nil {
		runErr = renderer.Render(&buf, rows)
	}

	if !runNoHistory {
		recordRunHistory(def, args[0], format, len(rows), buf.String(), started, runErr)
	}

	if runErr != nil {
		return runErr
	}

	if runOut != "" {
		if err := os.WriteFile(runOut, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		logging.Info("report written", "path", runOut, "rows", len(rows))
		return nil
	}

	_, err = os.Stdout.Write(buf.Bytes())
	return err
}

// resolveFormat picks the output format: flag, then definition, then
// configured default.
func resolveFormat(cfg *config.Config, def *config.Report) (output.Format, error) {
	name := outputFormat
	if name == "" {
		name = def.Format
	}
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	return output.ParseFormat(name)
}

// newConnection builds the authenticated platform client from config.
func newConnection(cfg *config.Config) (platform.Connection, error) {
	if cfg.Platform.Host == "" {
		return nil, fmt.Errorf("platform host is not configured: run 'capreport init' and edit %s", config.ConfigFileName)
	}

	password := os.Getenv(cfg.Platform.PasswordEnv)
	if password == "" {
		logging.Warn("platform password environment variable is empty", "var", cfg.Platform.PasswordEnv)
	}

	return platform.NewClient(platform.ClientConfig{
		Host:       cfg.Platform.Host,
		Username:   cfg.Platform.Username,
		Password:   password,
		Insecure:   cfg.Platform.Insecure,
		Timeout:    cfg.Platform.Timeout,
		MaxRetries: cfg.Platform.MaxRetries,
	})
}

// recordRunHistory stores the run outcome. History is best effort: a
// missing or unwritable database never fails the run itself.
func recordRunHistory(def *config.Report, reportPath string, format output.Format, rowCount int, rendered string, started time.Time, runErr error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return
	}
	store, err := history.Open(configDir)
	if err != nil {
		logging.Debug("history unavailable", "error", err)
		return
	}
	defer store.Close()

	name := def.Name
	if name == "" {
		name = filepath.Base(reportPath)
	}

	run := &history.Run{
		ReportName: name,
		ReportType: def.Type,
		Format:     format.String(),
		RowCount:   rowCount,
		Output:     rendered,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	}

	if err := store.RecordRun(run); err != nil {
		logging.Debug("history write failed", "error", err)
	}
}
