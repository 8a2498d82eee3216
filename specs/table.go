package specs

// TableSpec represents a rectangular table of string cells.
//
// Tables are the unit of exchange between the evaluation harness, the
// predictor, and the validator. Cells are carried as strings to preserve the
// exact textual value read from disk (numeric cells keep their decimal
// representation until a consumer parses them).
//
// Every row must have exactly len(Columns) cells.
type TableSpec struct {
	// Name identifies the table in error messages.
	//
	// Examples: "test", "test_input", "submission".
	Name string `json:"name"`

	// Ordered column names.
	Columns []string `json:"columns"`

	// Row-major cell values, one inner slice per row.
	Rows [][]string `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t TableSpec) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries the named column.
func (t TableSpec) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Len returns the number of rows.
func (t TableSpec) Len() int {
	return len(t.Rows)
}

// ColumnSchemaSpec names the columns the predictor and validator read.
//
// The defaults match the competition layout: entities are keyed by
// (game_id, play_id, nfl_id), temporal order within an entity is given by
// frame_id, and coordinates are x and y.
type ColumnSchemaSpec struct {
	// Column holding the group identifier of the entity key.
	GroupColumn string `json:"groupColumn" yaml:"group_column" mapstructure:"group_column"`

	// Column holding the subgroup identifier of the entity key.
	SubgroupColumn string `json:"subgroupColumn" yaml:"subgroup_column" mapstructure:"subgroup_column"`

	// Column holding the entity identifier of the entity key.
	EntityColumn string `json:"entityColumn" yaml:"entity_column" mapstructure:"entity_column"`

	// Optional column giving temporal order within an entity key.
	//
	// When the observation table lacks this column, the last record in input
	// order wins for each entity key.
	SequenceColumn string `json:"sequenceColumn" yaml:"sequence_column" mapstructure:"sequence_column"`

	// Coordinate columns.
	XColumn string `json:"xColumn" yaml:"x_column" mapstructure:"x_column"`
	YColumn string `json:"yColumn" yaml:"y_column" mapstructure:"y_column"`

	// Row identifier column of query tables and submissions.
	IDColumn string `json:"idColumn" yaml:"id_column" mapstructure:"id_column"`
}

// DefaultColumnSchema returns the competition column layout.
func DefaultColumnSchema() ColumnSchemaSpec {
	return ColumnSchemaSpec{
		GroupColumn:    "game_id",
		SubgroupColumn: "play_id",
		EntityColumn:   "nfl_id",
		SequenceColumn: "frame_id",
		XColumn:        "x",
		YColumn:        "y",
		IDColumn:       "id",
	}
}

// KeyColumns returns the compound entity key columns in key order.
func (s ColumnSchemaSpec) KeyColumns() []string {
	return []string{s.GroupColumn, s.SubgroupColumn, s.EntityColumn}
}
