package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/chrisconley/trackline/internal/infra"
	"github.com/chrisconley/trackline/specs"
)

// Report formats accepted by RenderSummary.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Reporter accumulates batch outcomes published on the bus into a summary.
type Reporter struct {
	log         zerolog.Logger
	summary     specs.BatchSummarySpec
	predictions PredictStats
	predicted   int
	finished    bool
	err         error
}

// NewReporter subscribes a reporter to bus.
func NewReporter(bus *infra.Bus, log zerolog.Logger) *Reporter {
	r := &Reporter{
		log:     log,
		summary: specs.BatchSummarySpec{State: RunNotStarted.String()},
	}
	bus.Subscribe(infra.BatchPredicted, r.handle)
	bus.Subscribe(infra.BatchValidated, r.handle)
	bus.Subscribe(infra.BatchRejected, r.handle)
	bus.Subscribe(infra.RunFinished, r.handle)
	return r
}

func (r *Reporter) handle(e infra.Event) {
	switch ev := e.(type) {
	case BatchPredictedEvent:
		r.predicted++
		r.predictions = r.predictions.Add(ev.Stats)
		r.log.Debug().
			Int("batch", ev.Batch).
			Int("rows", ev.Rows).
			Int("misses", ev.Stats.Misses).
			Bool("indeterminate", ev.Stats.Indeterminate).
			Msg("batch predicted")

	case BatchValidatedEvent:
		r.summary.RunID = ev.RunID
		r.summary.State = RunValidating.String()
		r.summary.Batches++
		r.summary.Rows += ev.Rows
		r.log.Info().Int("batch", ev.Batch).Int("rows", ev.Rows).Msg("batch validated")

	case BatchRejectedEvent:
		r.summary.RunID = ev.RunID
		r.summary.State = RunFailed.String()
		r.err = ev.Err
		r.summary.Failure = NewFailure(ev.Err)
		if r.summary.Failure.Batch == 0 {
			r.summary.Failure.Batch = ev.Batch
		}
		r.log.Error().Err(ev.Err).Int("batch", ev.Batch).Str("kind", r.summary.Failure.Kind).Msg("validation failed")

	case RunFinishedEvent:
		r.finished = true
		r.summary.RunID = ev.Summary.RunID
		r.summary.State = ev.Summary.State
	}
}

// Summary returns the accumulated validation summary.
func (r *Reporter) Summary() specs.BatchSummarySpec {
	return r.summary
}

// Finished reports whether a RunFinished event was received.
func (r *Reporter) Finished() bool {
	return r.finished
}

// Predictions returns accumulated predictor statistics and the number of
// batches they cover.
func (r *Reporter) Predictions() (PredictStats, int) {
	return r.predictions, r.predicted
}

// ExitCode returns the process exit status for the run so far.
func (r *Reporter) ExitCode() int {
	return ExitCode(r.err)
}

// RenderSummary writes s to w in the given format.
func RenderSummary(w io.Writer, s specs.BatchSummarySpec, format string) error {
	switch format {
	case FormatText, "":
		return renderText(w, s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml summary: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json summary: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderText(w io.Writer, s specs.BatchSummarySpec) error {
	if s.Failure == nil {
		_, err := fmt.Fprintf(w, "%s validated %s rows across %s batch(es). Submission looks valid.\n%s\n",
			successStyle.Render("✓"),
			humanize.Comma(int64(s.Rows)),
			humanize.Comma(int64(s.Batches)),
			dimStyle.Render("run "+s.RunID),
		)
		return err
	}

	f := s.Failure
	_, err := fmt.Fprintf(w, "%s Validation failed (%s)\n", errorStyle.Render("✗"), f.Kind)
	if err != nil {
		return err
	}
	if f.Batch > 0 {
		fmt.Fprintf(w, "  Batch:     %d\n", f.Batch)
	}
	if f.ErrorType != "" {
		fmt.Fprintf(w, "  ErrorType: %s\n", f.ErrorType)
	}
	details := f.Message
	if f.Details != "" {
		details = f.Details
	}
	fmt.Fprintf(w, "  Details:   %s\n", details)
	_, err = fmt.Fprintf(w, "  Validated %s rows across %s batch(es) before failing.\n%s\n",
		humanize.Comma(int64(s.Rows)),
		humanize.Comma(int64(s.Batches)),
		dimStyle.Render("run "+s.RunID),
	)
	return err
}
