package specs

// EntityKeySpec is the compound identifier scoping all per-entity state.
//
// All three parts are opaque identifiers compared by exact string equality.
// In the competition layout they are game_id, play_id and nfl_id.
type EntityKeySpec struct {
	GroupID    string `json:"groupID"`
	SubgroupID string `json:"subgroupID"`
	EntityID   string `json:"entityID"`
}

// ObservationRecordSpec represents one historical position measurement.
//
// Coordinates and the sequence value are decimal strings, exactly as read from
// the observation table. Multiple records may share a key; exactly one of them
// is the latest.
type ObservationRecordSpec struct {
	// Entity this measurement belongs to.
	Key EntityKeySpec `json:"key"`

	// Temporal order within the entity key as a decimal string.
	//
	// Empty when the observation table carries no sequence column; records
	// are then assumed to arrive in time order.
	Sequence string `json:"sequence,omitempty"`

	// Coordinates as decimal strings. Examples: "52.33", "-0.5", "1e2".
	X string `json:"x"`
	Y string `json:"y"`
}

// NewObservationRecord creates an observation record for the given key.
//
// Pass an empty sequence for sources that have no temporal ordering column.
func NewObservationRecord(key EntityKeySpec, sequence, x, y string) ObservationRecordSpec {
	return ObservationRecordSpec{
		Key:      key,
		Sequence: sequence,
		X:        x,
		Y:        y,
	}
}

// PredictionSpec is the predicted position for one query key.
type PredictionSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PredictionStatsSpec counts how the predictor answered a query set.
//
// Misses counts queries answered with the fallback because the key had no
// observation. Indeterminate is set when the observation table lacked the key
// columns, in which case every query falls back and Misses stays zero.
type PredictionStatsSpec struct {
	Queries       int  `json:"queries" yaml:"queries"`
	Hits          int  `json:"hits" yaml:"hits"`
	Misses        int  `json:"misses" yaml:"misses"`
	Indeterminate bool `json:"indeterminate" yaml:"indeterminate"`
}

// PredictionResultSpec is the output of a Predict call.
type PredictionResultSpec struct {
	// Table with exactly the columns x and y, one row per query row, in
	// query order.
	Table TableSpec `json:"table"`

	// Stats describes fallback usage for this call.
	Stats PredictionStatsSpec `json:"stats"`
}

// Predict answers one prediction request.
//
// Process:
//  1. Build an index of the latest (x, y) per entity key from observations
//  2. Look up every query row's entity key in query order
//  3. Answer misses with the (0.0, 0.0) fallback
//
// Returns error only when the query table lacks the key columns or a numeric
// observation cell cannot be parsed. An observation table that lacks the key
// columns is not an error: every query falls back.
//
// It uses only primitive types and tables of strings.
// See internal.PredictTable for the implementation.
type Predict func(queries TableSpec, observations TableSpec, schema ColumnSchemaSpec) (PredictionResultSpec, error)
