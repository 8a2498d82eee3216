// Package main provides the trackline CLI: it runs the baseline predictor
// through a local gateway and replays candidate submissions against it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chrisconley/trackline/internal"
	"github.com/chrisconley/trackline/internal/config"
	"github.com/chrisconley/trackline/internal/harness"
	"github.com/chrisconley/trackline/internal/infra"
	"github.com/chrisconley/trackline/internal/logging"
	"github.com/chrisconley/trackline/internal/tables"
)

var (
	// Version information (set at build time)
	version = "dev"

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// invalidError marks bad flags or configuration.
type invalidError struct {
	err error
}

func (e *invalidError) Error() string { return e.err.Error() }
func (e *invalidError) Unwrap() error { return e.err }

// reportedError is a run failure whose summary was already written.
type reportedError struct {
	err  error
	code int
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// execute runs the CLI and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return internal.ExitOK
	}

	var reported *reportedError
	if errors.As(err, &reported) {
		return reported.code
	}

	fmt.Fprintln(stderr, errorStyle.Render("Error:"), err)

	var invalid *invalidError
	if errors.As(err, &invalid) {
		return internal.ExitInvalid
	}
	return internal.ExitCode(err)
}

// app carries state resolved once per invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath   string
	logLevel     string
	reportFormat string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "trackline",
		Short: "Last-known-position baseline and batch-replay submission validator",
		Long: titleStyle.Render("trackline") + `

Predicts each queried player's position as the latest observed one and
checks submission files by replaying them batch by batch through a local
stand-in for the evaluation gateway.

` + dimStyle.Render("Use 'trackline [command] --help' for more information."),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &invalidError{err: err}
	})

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./trackline.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.reportFormat, "report", "", "summary format: text, yaml, json")

	rootCmd.AddCommand(newValidateCmd(a), newPredictCmd(a), newConfigCmd(a))
	return rootCmd
}

// load resolves configuration, applies flag overrides and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &invalidError{err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("report") {
		cfg.Report.Format = a.reportFormat
	}
	overrides := map[string]*string{
		"data-dir":   &cfg.Data.Dir,
		"submission": &cfg.Data.Submission,
		"output":     &cfg.Data.Output,
	}
	for name, dst := range overrides {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return &invalidError{err: err}
		}
		*dst = value
	}
	if err := cfg.Validate(); err != nil {
		return &invalidError{err: err}
	}

	log, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return &invalidError{err: err}
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// openGateway opens the configured data location and a gateway over it.
func (a *app) openGateway() (*harness.Gateway, tables.Source, error) {
	src, err := tables.Open(a.cfg.Data.Dir)
	if err != nil {
		return nil, nil, err
	}
	gw, err := harness.NewGateway(src, a.cfg.Gateway())
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return gw, src, nil
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Replay a submission through the local gateway",
		Long: `Replay a submission file batch by batch through the local gateway.

Exit status is 0 when every batch is accepted, 2 when the submission or
data is malformed or misses ids, 3 when the gateway rejects a batch, and
1 on unexpected errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate()
		},
	}
	cmd.Flags().String("submission", "", "submission CSV to validate")
	cmd.Flags().String("data-dir", "", "directory of CSV tables or SQLite database")
	return cmd
}

func (a *app) validate() error {
	submission, err := tables.ReadCSV(a.cfg.Data.Submission, "submission")
	if err != nil {
		return err
	}

	gw, src, err := a.openGateway()
	if err != nil {
		return err
	}
	defer src.Close()

	bus := infra.NewBus()
	validator := internal.NewValidator(a.cfg.Columns, bus)
	log := a.log.With().Str("run_id", validator.RunID()).Logger()
	reporter := internal.NewReporter(bus, log)

	log.Info().
		Str("submission", a.cfg.Data.Submission).
		Str("rows", humanize.Comma(int64(submission.Len()))).
		Msg("validating submission")

	_, runErr := validator.Validate(submission, gw.Batches(), gw.Check)

	if err := internal.RenderSummary(a.stdout, reporter.Summary(), a.cfg.Report.Format); err != nil {
		return err
	}
	if runErr != nil {
		return &reportedError{err: runErr, code: reporter.ExitCode()}
	}
	return nil
}

func newPredictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the last-known-position baseline and write a submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.predict()
		},
	}
	cmd.Flags().String("data-dir", "", "directory of CSV tables or SQLite database")
	cmd.Flags().String("output", "", "submission CSV to write")
	return cmd
}

func (a *app) predict() error {
	gw, src, err := a.openGateway()
	if err != nil {
		return err
	}
	defer src.Close()

	bus := infra.NewBus()
	reporter := internal.NewReporter(bus, a.log)

	submission, stats, err := internal.GenerateSubmission(gw.Batches(), gw.Check, internal.PredictTable, a.cfg.Columns, bus)
	if err != nil {
		return err
	}
	if err := tables.WriteCSV(a.cfg.Data.Output, submission); err != nil {
		return err
	}

	if stats.Misses > 0 {
		a.log.Warn().
			Int("misses", stats.Misses).
			Int("queries", stats.Queries).
			Msg("queried entities without observations were predicted at the origin")
	}
	if stats.Indeterminate {
		a.log.Warn().Msg("observations lacked key columns in some batches; every query there was predicted at the origin")
	}

	_, batches := reporter.Predictions()
	a.log.Info().
		Int("batches", batches).
		Int("rows", submission.Len()).
		Str("output", a.cfg.Data.Output).
		Msg("submission written")

	fmt.Fprintf(a.stdout, "%s wrote %s predictions across %s batch(es) to %s\n",
		successStyle.Render("✓"),
		humanize.Comma(int64(submission.Len())),
		humanize.Comma(int64(batches)),
		a.cfg.Data.Output,
	)
	return nil
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}
