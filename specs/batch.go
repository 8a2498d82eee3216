package specs

import "fmt"

// BatchPayloadSpec is the data a batch source hands to the predictor.
//
// The validator treats the payload as opaque: it is passed through to the
// check unchanged and never inspected.
type BatchPayloadSpec struct {
	// Query rows of this batch (one row per prediction request).
	Queries TableSpec `json:"queries"`

	// Historical observations visible to this batch.
	Observations TableSpec `json:"observations"`
}

// BatchSpec is one unit of work yielded by a batch source.
type BatchSpec struct {
	// Opaque batch data.
	Payload BatchPayloadSpec `json:"payload"`

	// Identifiers requested by this batch.
	//
	// The order is the exact row order the check expects candidate rows in.
	RowIDs []string `json:"rowIDs"`
}

// BatchSource is a lazy, finite, single-pass sequence of batches.
//
// Usage follows bufio.Scanner:
//
//	for src.Next() {
//		b := src.Batch()
//		...
//	}
//	if err := src.Err(); err != nil { ... }
//
// A source cannot be restarted. Once Next returns false it keeps returning
// false.
type BatchSource interface {
	// Next advances to the next batch, reporting whether one is available.
	Next() bool

	// Batch returns the current batch. Only valid after Next returned true.
	Batch() BatchSpec

	// Err returns the first error that stopped iteration, if any.
	Err() error
}

// Check is the harness's structural and value validation for one batch.
//
// candidate holds the coordinate columns only, in the order of rowIDs.
// Returns a *CheckError when the harness rejects the content. Any other
// error means the check itself could not run.
type Check func(candidate TableSpec, rowIDs []string, payload BatchPayloadSpec) error

// CheckError is a runtime validation failure raised by the harness.
//
// ErrorType and Details are reported verbatim; callers must not reinterpret
// them.
type CheckError struct {
	// Machine-readable failure kind. Example: "INVALID_SUBMISSION".
	ErrorType string `json:"errorType" yaml:"error_type"`

	// Human-readable failure description.
	Details string `json:"details" yaml:"details"`
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Details)
}
