package specs

// BatchSummarySpec represents the outcome of a batch-replay validation run.
//
// A run either validates every batch or stops at the first failure; there is
// no partial credit. Rows and Batches count only batches that passed.
type BatchSummarySpec struct {
	// Identifier of the run, for correlating logs and reports.
	RunID string `json:"runID" yaml:"run_id"`

	// Number of batches that passed validation.
	Batches int `json:"batches" yaml:"batches"`

	// Number of rows across all passing batches.
	Rows int `json:"rows" yaml:"rows"`

	// Terminal state of the run: "succeeded" or "failed".
	//
	// "not-started" and "validating" are only observable while a run is in
	// progress.
	State string `json:"state" yaml:"state"`

	// Failure describes the error that ended a failed run.
	Failure *FailureSpec `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// FailureSpec describes why a run stopped.
type FailureSpec struct {
	// Error kind. One of "schema", "duplicate-identifier",
	// "missing-identifier", "harness-validation", "internal".
	Kind string `json:"kind" yaml:"kind"`

	// 1-based index of the batch that failed, 0 when the run failed before
	// consuming any batch.
	Batch int `json:"batch,omitempty" yaml:"batch,omitempty"`

	// Harness error type, set for harness validation failures.
	ErrorType string `json:"errorType,omitempty" yaml:"error_type,omitempty"`

	// Harness error details, verbatim.
	Details string `json:"details,omitempty" yaml:"details,omitempty"`

	// Full error message.
	Message string `json:"message" yaml:"message"`
}

// Validate replays every batch of source against a candidate submission.
//
// Process:
//  1. Check the submission carries the id, x and y columns
//  2. For each batch, select submission rows by id in requested order
//  3. Strip the id column and run check on the coordinate table
//  4. Stop at the first failure
//
// It uses only primitive types and tables of strings.
// See internal.Validator for the implementation.
type Validate func(submission TableSpec, source BatchSource, check Check) (BatchSummarySpec, error)
