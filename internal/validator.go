package internal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chrisconley/trackline/internal/infra"
	"github.com/chrisconley/trackline/specs"
)

// RunState tracks a validation run.
//
//	NotStarted -> Validating -> Succeeded
//	                         -> Failed
//
// Both Succeeded and Failed are terminal; there are no retries because the
// harness may carry state from one batch to the next.
type RunState int

const (
	RunNotStarted RunState = iota
	RunValidating
	RunFailed
	RunSucceeded
)

func (s RunState) String() string {
	switch s {
	case RunNotStarted:
		return "not-started"
	case RunValidating:
		return "validating"
	case RunFailed:
		return "failed"
	case RunSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Validator replays a batch source against a candidate submission. A
// Validator performs exactly one run.
type Validator struct {
	schema specs.ColumnSchemaSpec
	bus    *infra.Bus
	runID  string
	state  RunState
}

// NewValidator creates a validator reading submissions with schema's id and
// coordinate columns. bus may be nil.
func NewValidator(schema specs.ColumnSchemaSpec, bus *infra.Bus) *Validator {
	return &Validator{
		schema: schema,
		bus:    bus,
		runID:  uuid.NewString(),
		state:  RunNotStarted,
	}
}

func (v *Validator) RunID() string {
	return v.runID
}

func (v *Validator) State() RunState {
	return v.state
}

// Validate implements specs.Validate.
//
// The submission's columns are checked before the first batch is pulled.
// Each batch's rows are selected by id in the exact order the batch requests
// and handed to check without the id column. The first failure ends the run.
func (v *Validator) Validate(submission specs.TableSpec, source specs.BatchSource, check specs.Check) (specs.BatchSummarySpec, error) {
	if v.state != RunNotStarted {
		return specs.BatchSummarySpec{}, fmt.Errorf("validator run %s already %s", v.runID, v.state)
	}
	v.state = RunValidating

	summary := specs.BatchSummarySpec{RunID: v.runID}

	rows, err := newSubmissionIndex(submission, v.schema)
	if err != nil {
		return v.fail(summary, 0, err)
	}

	batch := 0
	for source.Next() {
		batch++
		b := source.Batch()

		candidate, err := rows.selectInOrder(batch, b.RowIDs)
		if err != nil {
			return v.fail(summary, batch, err)
		}

		if err := check(candidate, b.RowIDs, b.Payload); err != nil {
			var checkErr *specs.CheckError
			if errors.As(err, &checkErr) {
				err = &HarnessValidationError{Batch: batch, Cause: checkErr}
			} else {
				err = fmt.Errorf("check batch %d: %w", batch, err)
			}
			return v.fail(summary, batch, err)
		}

		summary.Batches++
		summary.Rows += candidate.Len()
		v.bus.Publish(BatchValidatedEvent{RunID: v.runID, Batch: batch, Rows: candidate.Len()})
	}
	if err := source.Err(); err != nil {
		return v.fail(summary, batch+1, fmt.Errorf("read batch %d: %w", batch+1, err))
	}

	v.state = RunSucceeded
	summary.State = v.state.String()
	v.bus.Publish(RunFinishedEvent{Summary: summary})
	return summary, nil
}

func (v *Validator) fail(summary specs.BatchSummarySpec, batch int, err error) (specs.BatchSummarySpec, error) {
	v.state = RunFailed
	summary.State = v.state.String()
	summary.Failure = NewFailure(err)
	if summary.Failure.Batch == 0 {
		summary.Failure.Batch = batch
	}
	v.bus.Publish(BatchRejectedEvent{RunID: v.runID, Batch: batch, Err: err})
	v.bus.Publish(RunFinishedEvent{Summary: summary})
	return summary, err
}

// submissionIndex gives random access to submission rows by id.
type submissionIndex struct {
	table specs.TableSpec
	byID  map[string]int
	xIdx  int
	yIdx  int
	xName string
	yName string
}

func newSubmissionIndex(table specs.TableSpec, schema specs.ColumnSchemaSpec) (submissionIndex, error) {
	if err := RequireColumns(table, schema.IDColumn); err != nil {
		return submissionIndex{}, err
	}
	if err := RequireColumns(table, schema.XColumn, schema.YColumn); err != nil {
		return submissionIndex{}, err
	}

	idIdx := table.ColumnIndex(schema.IDColumn)
	byID := make(map[string]int, len(table.Rows))
	var duplicates []string
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return submissionIndex{}, fmt.Errorf("%s row %d: expected %d cells, got %d", table.Name, i, len(table.Columns), len(row))
		}
		id := row[idIdx]
		if _, dup := byID[id]; dup {
			duplicates = append(duplicates, id)
			continue
		}
		byID[id] = i
	}
	if len(duplicates) > 0 {
		return submissionIndex{}, &DuplicateIdentifierError{Table: table.Name, IDs: duplicates}
	}

	return submissionIndex{
		table: table,
		byID:  byID,
		xIdx:  table.ColumnIndex(schema.XColumn),
		yIdx:  table.ColumnIndex(schema.YColumn),
		xName: schema.XColumn,
		yName: schema.YColumn,
	}, nil
}

// selectInOrder returns the coordinate rows for ids, in the order of ids.
// Every id absent from the submission is reported, in request order.
func (s submissionIndex) selectInOrder(batch int, ids []string) (specs.TableSpec, error) {
	rows := make([][]string, 0, len(ids))
	var missing []string
	for _, id := range ids {
		i, ok := s.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		row := s.table.Rows[i]
		rows = append(rows, []string{row[s.xIdx], row[s.yIdx]})
	}
	if len(missing) > 0 {
		return specs.TableSpec{}, &MissingIdentifierError{Batch: batch, IDs: missing}
	}

	return specs.TableSpec{
		Name:    s.table.Name,
		Columns: []string{s.xName, s.yName},
		Rows:    rows,
	}, nil
}
