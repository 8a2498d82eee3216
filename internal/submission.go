package internal

import (
	"errors"
	"fmt"

	"github.com/chrisconley/trackline/internal/infra"
	"github.com/chrisconley/trackline/specs"
)

// GenerateSubmission runs predict over every batch of source and assembles a
// submission table with the schema's id, x and y columns.
//
// Each batch's prediction must have one row per requested id; it is passed to
// check (when non-nil) before its rows are appended with the batch's ids. The
// first failure stops generation. bus may be nil.
func GenerateSubmission(
	source specs.BatchSource,
	check specs.Check,
	predict specs.Predict,
	schema specs.ColumnSchemaSpec,
	bus *infra.Bus,
) (specs.TableSpec, PredictStats, error) {
	submission := specs.TableSpec{
		Name:    "submission",
		Columns: []string{schema.IDColumn, schema.XColumn, schema.YColumn},
	}
	var total PredictStats

	batch := 0
	for source.Next() {
		batch++
		b := source.Batch()

		result, err := predict(b.Payload.Queries, b.Payload.Observations, schema)
		if err != nil {
			return specs.TableSpec{}, total, fmt.Errorf("predict batch %d: %w", batch, err)
		}
		if result.Table.Len() != len(b.RowIDs) {
			return specs.TableSpec{}, total, fmt.Errorf("predict batch %d: %d predictions for %d requested ids", batch, result.Table.Len(), len(b.RowIDs))
		}

		if check != nil {
			if err := check(result.Table, b.RowIDs, b.Payload); err != nil {
				var checkErr *specs.CheckError
				if errors.As(err, &checkErr) {
					return specs.TableSpec{}, total, &HarnessValidationError{Batch: batch, Cause: checkErr}
				}
				return specs.TableSpec{}, total, fmt.Errorf("check batch %d: %w", batch, err)
			}
		}

		xIdx := result.Table.ColumnIndex(schema.XColumn)
		yIdx := result.Table.ColumnIndex(schema.YColumn)
		if xIdx < 0 || yIdx < 0 {
			return specs.TableSpec{}, total, fmt.Errorf("predict batch %d: %w", batch, RequireColumns(result.Table, schema.XColumn, schema.YColumn))
		}
		for i, row := range result.Table.Rows {
			submission.Rows = append(submission.Rows, []string{b.RowIDs[i], row[xIdx], row[yIdx]})
		}

		stats := predictStatsFromSpec(result.Stats)
		total = total.Add(stats)
		bus.Publish(BatchPredictedEvent{Batch: batch, Rows: len(b.RowIDs), Stats: stats})
	}
	if err := source.Err(); err != nil {
		return specs.TableSpec{}, total, fmt.Errorf("read batch %d: %w", batch+1, err)
	}

	return submission, total, nil
}
