package internal

import (
	"fmt"

	"github.com/chrisconley/trackline/specs"
)

// Ordering describes how an ObservationIndex chose the latest record per key.
type Ordering int

const (
	// OrderingSequence keeps the record with the greatest sequence number.
	// Equal sequence numbers resolve to the last such record in input order.
	OrderingSequence Ordering = iota

	// OrderingInputOrder keeps the last record in input order. This is a
	// weaker guarantee used when observations carry no sequence column: it is
	// only correct if records arrive in time order.
	OrderingInputOrder

	// OrderingIndeterminate marks an index that could not be built because
	// the observation table lacked the key columns. Every lookup misses.
	OrderingIndeterminate
)

func (o Ordering) String() string {
	switch o {
	case OrderingSequence:
		return "sequence"
	case OrderingInputOrder:
		return "input-order"
	case OrderingIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// latestValue is the running best for one coordinate of one key.
type latestValue struct {
	value    float64
	sequence *SequenceNumber
	present  bool
}

// fold keeps c when it is present and not older than the current value.
// Equal sequences resolve to the later record.
func (l latestValue) fold(c Coordinate, sequence *SequenceNumber, ordering Ordering) latestValue {
	v, ok := c.Value()
	if !ok {
		return l
	}
	if l.present && ordering == OrderingSequence && sequence.Cmp(*l.sequence) < 0 {
		return l
	}
	return latestValue{value: v, sequence: sequence, present: true}
}

// indexedState holds the latest observed value of each coordinate. A
// coordinate never observed for the key reads as 0.0.
type indexedState struct {
	x latestValue
	y latestValue
}

func (s indexedState) position() Position {
	return NewPosition(s.x.value, s.y.value)
}

// ObservationIndex maps each entity key to its latest observed position.
// It is read-only once built.
type ObservationIndex struct {
	latest   map[EntityKey]indexedState
	ordering Ordering
	reason   error
}

// IndeterminateIndex returns an index that answers no key. reason records why
// no index could be built.
func IndeterminateIndex(reason error) ObservationIndex {
	return ObservationIndex{
		latest:   map[EntityKey]indexedState{},
		ordering: OrderingIndeterminate,
		reason:   reason,
	}
}

// BuildObservationIndex selects the latest value of each coordinate per
// entity key in a single pass over records, keeping a running best per key
// and coordinate. An absent coordinate never replaces an observed one, so a
// blank cell in the newest record falls back to the newest record that has
// that coordinate.
//
// With OrderingSequence every record must carry a sequence number.
// OrderingIndeterminate is not a valid argument; use IndeterminateIndex.
func BuildObservationIndex(records []ObservationRecord, ordering Ordering) (ObservationIndex, error) {
	if ordering != OrderingSequence && ordering != OrderingInputOrder {
		return ObservationIndex{}, fmt.Errorf("cannot build index with %s ordering", ordering)
	}

	latest := make(map[EntityKey]indexedState)
	for i, r := range records {
		if ordering == OrderingSequence && r.Sequence == nil {
			return ObservationIndex{}, fmt.Errorf("record %d for %s has no sequence", i, r.Key.ToString())
		}

		state := latest[r.Key]
		state.x = state.x.fold(r.X, r.Sequence, ordering)
		state.y = state.y.fold(r.Y, r.Sequence, ordering)
		latest[r.Key] = state
	}

	return ObservationIndex{latest: latest, ordering: ordering}, nil
}

// IndexFromTable builds an ObservationIndex from an observation table.
//
// A table missing any key column yields an indeterminate index and a nil
// error; callers fall back for every query. A table without the sequence
// column is indexed by input order. A missing coordinate column reads as 0.0
// for that coordinate. Blank and NaN coordinate cells are absent values.
// Other cells that cannot be parsed are reported as errors.
func IndexFromTable(table specs.TableSpec, schema specs.ColumnSchemaSpec) (ObservationIndex, error) {
	if err := RequireColumns(table, schema.KeyColumns()...); err != nil {
		return IndeterminateIndex(err), nil
	}

	groupIdx := table.ColumnIndex(schema.GroupColumn)
	subgroupIdx := table.ColumnIndex(schema.SubgroupColumn)
	entityIdx := table.ColumnIndex(schema.EntityColumn)
	sequenceIdx := table.ColumnIndex(schema.SequenceColumn)
	xIdx := table.ColumnIndex(schema.XColumn)
	yIdx := table.ColumnIndex(schema.YColumn)

	ordering := OrderingInputOrder
	if sequenceIdx >= 0 {
		ordering = OrderingSequence
	}

	records := make([]ObservationRecord, len(table.Rows))
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return ObservationIndex{}, fmt.Errorf("%s row %d: expected %d cells, got %d", table.Name, i, len(table.Columns), len(row))
		}

		spec := specs.NewObservationRecord(
			specs.EntityKeySpec{
				GroupID:    row[groupIdx],
				SubgroupID: row[subgroupIdx],
				EntityID:   row[entityIdx],
			},
			cell(row, sequenceIdx, ""),
			cell(row, xIdx, "0"),
			cell(row, yIdx, "0"),
		)
		if ordering == OrderingSequence && spec.Sequence == "" {
			return ObservationIndex{}, fmt.Errorf("%s row %d: %s is empty", table.Name, i, schema.SequenceColumn)
		}

		record, err := NewObservationRecord(spec)
		if err != nil {
			return ObservationIndex{}, fmt.Errorf("%s row %d: %w", table.Name, i, err)
		}
		records[i] = record
	}

	return BuildObservationIndex(records, ordering)
}

// cell returns row[idx], or fallback when the column is absent.
func cell(row []string, idx int, fallback string) string {
	if idx < 0 {
		return fallback
	}
	return row[idx]
}

// Lookup returns the latest position observed for key.
func (idx ObservationIndex) Lookup(key EntityKey) (Position, bool) {
	state, ok := idx.latest[key]
	return state.position(), ok
}

// Len returns the number of distinct entity keys.
func (idx ObservationIndex) Len() int {
	return len(idx.latest)
}

func (idx ObservationIndex) Ordering() Ordering {
	return idx.ordering
}

func (idx ObservationIndex) Indeterminate() bool {
	return idx.ordering == OrderingIndeterminate
}

// Reason explains an indeterminate index. Nil otherwise.
func (idx ObservationIndex) Reason() error {
	return idx.reason
}
