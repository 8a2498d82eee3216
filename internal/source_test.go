package internal

import (
	"fmt"

	"github.com/chrisconley/trackline/specs"
)

// sliceSource is a specs.BatchSource over fixed batches. When err is set it
// is reported after the batches are exhausted.
type sliceSource struct {
	batches []specs.BatchSpec
	err     error
	pulled  int
}

func (s *sliceSource) Next() bool {
	if s.pulled >= len(s.batches) {
		return false
	}
	s.pulled++
	return true
}

func (s *sliceSource) Batch() specs.BatchSpec {
	return s.batches[s.pulled-1]
}

func (s *sliceSource) Err() error {
	if s.pulled < len(s.batches) {
		return nil
	}
	return s.err
}

// batchOf builds a batch requesting ids for entities n<id> of group g1/p1.
func batchOf(ids ...string) specs.BatchSpec {
	queries := specs.TableSpec{Name: "test", Columns: queryColumns}
	for _, id := range ids {
		queries.Rows = append(queries.Rows, []string{id, "g1", "p1", "n" + id, "1"})
	}
	return specs.BatchSpec{
		Payload: specs.BatchPayloadSpec{
			Queries:      queries,
			Observations: specs.TableSpec{Name: "test_input", Columns: observationColumns},
		},
		RowIDs: ids,
	}
}

func submissionTable(rows ...[]string) specs.TableSpec {
	return specs.TableSpec{Name: "submission", Columns: []string{"id", "x", "y"}, Rows: rows}
}

// recordingCheck accepts every batch and records what it was handed.
type recordingCheck struct {
	calls  []specs.TableSpec
	ids    [][]string
	reject map[int]*specs.CheckError
	err    map[int]error
}

func (c *recordingCheck) check(candidate specs.TableSpec, rowIDs []string, payload specs.BatchPayloadSpec) error {
	c.calls = append(c.calls, candidate)
	c.ids = append(c.ids, rowIDs)
	n := len(c.calls)
	if rej, ok := c.reject[n]; ok {
		return rej
	}
	if err, ok := c.err[n]; ok {
		return err
	}
	if payload.Queries.Len() != len(rowIDs) {
		return fmt.Errorf("payload has %d queries for %d ids", payload.Queries.Len(), len(rowIDs))
	}
	return nil
}
