package harness

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisconley/trackline/internal"
	"github.com/chrisconley/trackline/internal/tables"
	"github.com/chrisconley/trackline/specs"
)

var (
	queries = specs.TableSpec{
		Name:    "test",
		Columns: []string{"id", "game_id", "play_id", "nfl_id", "frame_id"},
		Rows: [][]string{
			{"1_1_10_1", "1", "1", "10", "1"},
			{"2_5_10_1", "2", "5", "10", "1"},
			{"1_1_11_1", "1", "1", "11", "1"},
			{"1_2_10_1", "1", "2", "10", "1"},
		},
	}
	observations = specs.TableSpec{
		Name:    "test_input",
		Columns: []string{"game_id", "play_id", "nfl_id", "frame_id", "x", "y"},
		Rows: [][]string{
			{"1", "1", "10", "1", "1", "1"},
			{"1", "2", "10", "1", "2", "2"},
			{"1", "1", "11", "1", "3", "3"},
		},
	}
)

func newGateway(t *testing.T, queries, observations specs.TableSpec) *Gateway {
	t.Helper()
	gw, err := NewGatewayFromTables(queries, observations, DefaultConfig())
	require.NoError(t, err)
	return gw
}

func collect(t *testing.T, src specs.BatchSource) []specs.BatchSpec {
	t.Helper()
	var batches []specs.BatchSpec
	for src.Next() {
		batches = append(batches, src.Batch())
	}
	require.NoError(t, src.Err())
	return batches
}

func TestGateway_Batches(t *testing.T) {
	t.Run("one batch per key in order of first appearance", func(t *testing.T) {
		gw := newGateway(t, queries, observations)

		batches := collect(t, gw.Batches())

		require.Len(t, batches, 3)
		assert.Equal(t, []string{"1_1_10_1", "1_1_11_1"}, batches[0].RowIDs)
		assert.Equal(t, []string{"2_5_10_1"}, batches[1].RowIDs)
		assert.Equal(t, []string{"1_2_10_1"}, batches[2].RowIDs)
	})

	t.Run("payload carries the batch's queries and observations", func(t *testing.T) {
		gw := newGateway(t, queries, observations)

		batches := collect(t, gw.Batches())

		first := batches[0].Payload
		assert.Equal(t, queries.Columns, first.Queries.Columns)
		assert.Equal(t, [][]string{queries.Rows[0], queries.Rows[2]}, first.Queries.Rows)
		assert.Equal(t, [][]string{observations.Rows[0], observations.Rows[2]}, first.Observations.Rows)

		assert.Equal(t, 0, batches[1].Payload.Observations.Len(), "no observations for game 2")
		assert.Equal(t, [][]string{observations.Rows[1]}, batches[2].Payload.Observations.Rows)
	})

	t.Run("observations without batch columns are shared", func(t *testing.T) {
		flat := specs.TableSpec{Name: "test_input", Columns: []string{"nfl_id", "x", "y"}, Rows: [][]string{{"10", "1", "1"}}}
		gw := newGateway(t, queries, flat)

		batches := collect(t, gw.Batches())

		for _, b := range batches {
			assert.Equal(t, flat, b.Payload.Observations)
		}
	})

	t.Run("batches are single pass", func(t *testing.T) {
		gw := newGateway(t, queries, observations)
		first := gw.Batches()
		collect(t, first)
		assert.False(t, first.Next(), "an exhausted cursor stays exhausted")

		second := gw.Batches()

		assert.False(t, second.Next())
		assert.ErrorIs(t, second.Err(), ErrBatchesConsumed)
	})

	t.Run("empty query table yields no batches", func(t *testing.T) {
		empty := specs.TableSpec{Name: "test", Columns: queries.Columns}
		gw := newGateway(t, empty, observations)

		assert.Empty(t, collect(t, gw.Batches()))
	})
}

func TestGateway_Check(t *testing.T) {
	gw := newGateway(t, queries, observations)
	ids := []string{"1_1_10_1", "1_1_11_1"}
	payload := specs.BatchPayloadSpec{
		Queries: specs.TableSpec{Columns: queries.Columns, Rows: [][]string{queries.Rows[0], queries.Rows[2]}},
	}
	candidate := func(rows ...[]string) specs.TableSpec {
		return specs.TableSpec{Name: "submission", Columns: []string{"x", "y"}, Rows: rows}
	}

	t.Run("accepts finite predictions", func(t *testing.T) {
		err := gw.Check(candidate([]string{"1.5", "-2"}, []string{"0", "1e3"}), ids, payload)

		assert.NoError(t, err)
	})

	rejections := []struct {
		name      string
		candidate specs.TableSpec
		ids       []string
		details   string
	}{
		{
			name:      "wrong columns",
			candidate: specs.TableSpec{Columns: []string{"y", "x"}, Rows: [][]string{{"1", "1"}, {"1", "1"}}},
			ids:       ids,
			details:   "prediction columns must be [x y]",
		},
		{
			name:      "row count differs from ids",
			candidate: candidate([]string{"1", "1"}),
			ids:       ids,
			details:   "expected 2 prediction rows, got 1",
		},
		{
			name:      "ids differ from query rows",
			candidate: candidate([]string{"1", "1"}),
			ids:       ids[:1],
			details:   "batch requests 1 ids for 2 query rows",
		},
		{
			name:      "non-numeric value",
			candidate: candidate([]string{"1", "1"}, []string{"left", "1"}),
			ids:       ids,
			details:   `prediction for id 1_1_11_1: x value "left" is not a finite number`,
		},
		{
			name:      "NaN",
			candidate: candidate([]string{"1", "NaN"}, []string{"1", "1"}),
			ids:       ids,
			details:   `prediction for id 1_1_10_1: y value "NaN" is not a finite number`,
		},
		{
			name:      "infinity",
			candidate: candidate([]string{"1", "1"}, []string{"+Inf", "1"}),
			ids:       ids,
			details:   "is not a finite number",
		},
		{
			name:      "empty value",
			candidate: candidate([]string{"", "1"}, []string{"1", "1"}),
			ids:       ids,
			details:   "is not a finite number",
		},
	}
	for _, tt := range rejections {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			err := gw.Check(tt.candidate, tt.ids, payload)

			var checkErr *specs.CheckError
			require.ErrorAs(t, err, &checkErr)
			assert.Equal(t, ErrorTypeInvalidSubmission, checkErr.ErrorType)
			assert.Contains(t, checkErr.Details, tt.details)
		})
	}
}

func TestNewGatewayFromTables(t *testing.T) {
	t.Run("query table without id is a schema error", func(t *testing.T) {
		noID := specs.TableSpec{
			Name:    "test",
			Columns: []string{"game_id", "play_id", "nfl_id"},
			Rows:    [][]string{{"1", "1", "10"}},
		}

		gw, err := NewGatewayFromTables(noID, observations, DefaultConfig())

		assert.Nil(t, gw)
		var schemaErr *internal.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"id"}, schemaErr.Missing)
	})

	t.Run("query table without batch columns is a schema error", func(t *testing.T) {
		noBatch := specs.TableSpec{Name: "test", Columns: []string{"id", "nfl_id"}, Rows: [][]string{{"a", "10"}}}

		_, err := NewGatewayFromTables(noBatch, observations, DefaultConfig())

		var schemaErr *internal.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"game_id", "play_id"}, schemaErr.Missing)
	})
}

func TestNewGateway(t *testing.T) {
	writeTable := func(t *testing.T, dir string, table specs.TableSpec) {
		t.Helper()
		require.NoError(t, tables.WriteCSV(filepath.Join(dir, table.Name+".csv"), table))
	}

	t.Run("loads both tables from a source", func(t *testing.T) {
		dir := t.TempDir()
		writeTable(t, dir, queries)
		writeTable(t, dir, observations)

		gw, err := NewGateway(tables.NewCSVDir(dir), DefaultConfig())

		require.NoError(t, err)
		assert.Len(t, collect(t, gw.Batches()), 3)
	})

	t.Run("query table must carry id and batch columns", func(t *testing.T) {
		dir := t.TempDir()
		writeTable(t, dir, specs.TableSpec{Name: "test", Columns: []string{"id", "game_id"}})
		writeTable(t, dir, observations)

		_, err := NewGateway(tables.NewCSVDir(dir), DefaultConfig())

		var schemaErr *internal.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"play_id"}, schemaErr.Missing)
	})

	t.Run("missing observation table", func(t *testing.T) {
		dir := t.TempDir()
		writeTable(t, dir, queries)

		_, err := NewGateway(tables.NewCSVDir(dir), DefaultConfig())

		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("missing query table", func(t *testing.T) {
		_, err := NewGateway(tables.NewCSVDir(t.TempDir()), DefaultConfig())

		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Equal(t, internal.ExitInvalid, internal.ExitCode(err))
	})
}
