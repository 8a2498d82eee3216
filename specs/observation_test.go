package specs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObservationRecord(t *testing.T) {
	t.Run("creates record with sequence", func(t *testing.T) {
		key := EntityKeySpec{GroupID: "g1", SubgroupID: "p1", EntityID: "n1"}

		rec := NewObservationRecord(key, "12", "52.33", "-0.5")

		assert.Equal(t, key, rec.Key)
		assert.Equal(t, "12", rec.Sequence)
		assert.Equal(t, "52.33", rec.X)
		assert.Equal(t, "-0.5", rec.Y)
	})

	t.Run("creates record without sequence", func(t *testing.T) {
		rec := NewObservationRecord(EntityKeySpec{GroupID: "g", SubgroupID: "p", EntityID: "n"}, "", "1", "2")

		assert.Empty(t, rec.Sequence)
	})
}

func TestTableSpec(t *testing.T) {
	table := TableSpec{
		Name:    "test",
		Columns: []string{"id", "game_id", "x"},
		Rows:    [][]string{{"a", "1", "2"}, {"b", "1", "3"}},
	}

	t.Run("finds column positions", func(t *testing.T) {
		assert.Equal(t, 0, table.ColumnIndex("id"))
		assert.Equal(t, 2, table.ColumnIndex("x"))
		assert.Equal(t, -1, table.ColumnIndex("y"))
		assert.True(t, table.HasColumn("game_id"))
		assert.False(t, table.HasColumn("frame_id"))
	})

	t.Run("counts rows", func(t *testing.T) {
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, 0, TableSpec{}.Len())
	})
}

func TestDefaultColumnSchema(t *testing.T) {
	schema := DefaultColumnSchema()

	assert.Equal(t, []string{"game_id", "play_id", "nfl_id"}, schema.KeyColumns())
	assert.Equal(t, "frame_id", schema.SequenceColumn)
	assert.Equal(t, "id", schema.IDColumn)
}

func TestCheckError(t *testing.T) {
	var err error = &CheckError{ErrorType: "INVALID_SUBMISSION", Details: "row count mismatch"}

	require.Error(t, err)
	assert.Equal(t, "INVALID_SUBMISSION: row count mismatch", err.Error())
}
