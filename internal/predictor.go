package internal

import (
	"fmt"
	"strconv"

	"github.com/chrisconley/trackline/specs"
)

// PredictStats counts how a query set was answered.
type PredictStats struct {
	Queries       int
	Hits          int
	Misses        int
	Indeterminate bool
}

// Fallbacks returns how many queries received FallbackPosition.
func (s PredictStats) Fallbacks() int {
	return s.Queries - s.Hits
}

// Add combines the counts of two calls. Indeterminate is sticky.
func (s PredictStats) Add(other PredictStats) PredictStats {
	return PredictStats{
		Queries:       s.Queries + other.Queries,
		Hits:          s.Hits + other.Hits,
		Misses:        s.Misses + other.Misses,
		Indeterminate: s.Indeterminate || other.Indeterminate,
	}
}

func (s PredictStats) ToSpec() specs.PredictionStatsSpec {
	return specs.PredictionStatsSpec{
		Queries:       s.Queries,
		Hits:          s.Hits,
		Misses:        s.Misses,
		Indeterminate: s.Indeterminate,
	}
}

func predictStatsFromSpec(spec specs.PredictionStatsSpec) PredictStats {
	return PredictStats{
		Queries:       spec.Queries,
		Hits:          spec.Hits,
		Misses:        spec.Misses,
		Indeterminate: spec.Indeterminate,
	}
}

// PredictTable implements specs.Predict.
// Converts tables to domain objects, predicts, and converts back to a table.
func PredictTable(queryTable, observationTable specs.TableSpec, schema specs.ColumnSchemaSpec) (specs.PredictionResultSpec, error) {
	queries, err := queryKeysFromTable(queryTable, schema)
	if err != nil {
		return specs.PredictionResultSpec{}, err
	}

	index, err := IndexFromTable(observationTable, schema)
	if err != nil {
		return specs.PredictionResultSpec{}, fmt.Errorf("invalid observations: %w", err)
	}

	positions, stats := Predict(queries, index)

	rows := make([][]string, len(positions))
	for i, p := range positions {
		rows[i] = []string{formatCoordinate(p.X()), formatCoordinate(p.Y())}
	}

	return specs.PredictionResultSpec{
		Table: specs.TableSpec{
			Name:    "predictions",
			Columns: []string{schema.XColumn, schema.YColumn},
			Rows:    rows,
		},
		Stats: stats.ToSpec(),
	}, nil
}

// Predict answers every query with the latest indexed position of its key,
// or FallbackPosition when the key was never observed. The result has the
// same length and order as queries.
//
// Misses against an indeterminate index are reported through
// PredictStats.Indeterminate rather than PredictStats.Misses.
func Predict(queries []EntityKey, index ObservationIndex) ([]Position, PredictStats) {
	stats := PredictStats{Queries: len(queries), Indeterminate: index.Indeterminate()}
	positions := make([]Position, len(queries))

	for i, key := range queries {
		p, ok := index.Lookup(key)
		switch {
		case ok:
			positions[i] = p
			stats.Hits++
		case stats.Indeterminate:
			positions[i] = FallbackPosition
		default:
			positions[i] = FallbackPosition
			stats.Misses++
		}
	}

	return positions, stats
}

func queryKeysFromTable(table specs.TableSpec, schema specs.ColumnSchemaSpec) ([]EntityKey, error) {
	if err := RequireColumns(table, schema.KeyColumns()...); err != nil {
		return nil, err
	}

	groupIdx := table.ColumnIndex(schema.GroupColumn)
	subgroupIdx := table.ColumnIndex(schema.SubgroupColumn)
	entityIdx := table.ColumnIndex(schema.EntityColumn)

	keys := make([]EntityKey, len(table.Rows))
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("%s row %d: expected %d cells, got %d", table.Name, i, len(table.Columns), len(row))
		}
		keys[i] = NewEntityKey(specs.EntityKeySpec{
			GroupID:    row[groupIdx],
			SubgroupID: row[subgroupIdx],
			EntityID:   row[entityIdx],
		})
	}
	return keys, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
