package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/chrisconley/trackline/specs"
)

// Failure kinds reported in specs.FailureSpec.
const (
	KindSchema              = "schema"
	KindDuplicateIdentifier = "duplicate-identifier"
	KindMissingIdentifier   = "missing-identifier"
	KindHarnessValidation   = "harness-validation"
	KindInternal            = "internal"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitUnexpected = 1
	ExitInvalid    = 2
	ExitRejected   = 3
)

// SchemaError reports required columns absent from an input table.
type SchemaError struct {
	Table   string
	Missing []string

	// Columns the table does carry, used to suggest near misses.
	Present []string
}

// RequireColumns returns a *SchemaError naming every column of names that
// table lacks, or nil.
func RequireColumns(table specs.TableSpec, names ...string) error {
	var missing []string
	for _, name := range names {
		if !table.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{
		Table:   table.Name,
		Missing: missing,
		Present: append([]string(nil), table.Columns...),
	}
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %q is missing column(s) %s", e.Table, strings.Join(e.Missing, ", "))
	fmt.Fprintf(&b, "; found %v", e.Present)
	for _, name := range e.Missing {
		if s, ok := e.Suggestion(name); ok {
			fmt.Fprintf(&b, "; did you mean %q instead of %q?", s, name)
		}
	}
	return b.String()
}

// Suggestion returns the present column closest to a missing one, when the
// edit distance is small enough to be a plausible typo or case difference.
func (e *SchemaError) Suggestion(missing string) (string, bool) {
	best, bestDist := "", -1
	for _, col := range e.Present {
		d := levenshtein.ComputeDistance(strings.ToLower(missing), strings.ToLower(col))
		if bestDist < 0 || d < bestDist {
			best, bestDist = col, d
		}
	}
	limit := len(missing) / 3
	if limit < 1 {
		limit = 1
	}
	if bestDist < 0 || bestDist > limit {
		return "", false
	}
	return best, true
}

// DuplicateIdentifierError reports identifiers that occur more than once in a
// submission.
type DuplicateIdentifierError struct {
	Table string
	IDs   []string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("table %q has duplicate id(s): %s", e.Table, strings.Join(e.IDs, ", "))
}

// MissingIdentifierError reports identifiers requested by a batch that the
// submission does not contain.
type MissingIdentifierError struct {
	Batch int
	IDs   []string
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("missing id(s) from submission for batch %d: %s", e.Batch, strings.Join(e.IDs, ", "))
}

// HarnessValidationError wraps a harness rejection of one batch.
type HarnessValidationError struct {
	Batch int
	Cause *specs.CheckError
}

func (e *HarnessValidationError) Error() string {
	return fmt.Sprintf("harness rejected batch %d: %s", e.Batch, e.Cause.Error())
}

func (e *HarnessValidationError) Unwrap() error {
	return e.Cause
}

// ErrorType returns the harness error type verbatim.
func (e *HarnessValidationError) ErrorType() string {
	return e.Cause.ErrorType
}

// Details returns the harness error details verbatim.
func (e *HarnessValidationError) Details() string {
	return e.Cause.Details
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		schemaErr    *SchemaError
		duplicateErr *DuplicateIdentifierError
		missingErr   *MissingIdentifierError
		harnessErr   *HarnessValidationError
	)
	switch {
	case errors.As(err, &harnessErr):
		return KindHarnessValidation
	case errors.As(err, &missingErr):
		return KindMissingIdentifier
	case errors.As(err, &duplicateErr):
		return KindDuplicateIdentifier
	case errors.As(err, &schemaErr):
		return KindSchema
	default:
		return KindInternal
	}
}

// ExitCode maps a run error to the process exit status.
//
// Configuration and structural problems (including input files that do not
// exist) exit 2, harness rejections exit 3, anything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Kind(err) {
	case KindHarnessValidation:
		return ExitRejected
	case KindSchema, KindDuplicateIdentifier, KindMissingIdentifier:
		return ExitInvalid
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ExitInvalid
	}
	return ExitUnexpected
}

// NewFailure describes err for a summary. batch is 0 when the run failed
// before consuming a batch.
func NewFailure(err error) *specs.FailureSpec {
	if err == nil {
		return nil
	}
	failure := &specs.FailureSpec{
		Kind:    Kind(err),
		Message: err.Error(),
	}
	var (
		missingErr *MissingIdentifierError
		harnessErr *HarnessValidationError
	)
	if errors.As(err, &harnessErr) {
		failure.Batch = harnessErr.Batch
		failure.ErrorType = harnessErr.ErrorType()
		failure.Details = harnessErr.Details()
	} else if errors.As(err, &missingErr) {
		failure.Batch = missingErr.Batch
	}
	return failure
}
