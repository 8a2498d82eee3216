// Package harness is a local stand-in for the competition's evaluation
// gateway. It serves batches from the competition tables in the gateway's
// order and applies the gateway's per-batch submission checks.
package harness

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chrisconley/trackline/internal"
	"github.com/chrisconley/trackline/internal/tables"
	"github.com/chrisconley/trackline/specs"
)

// ErrorTypeInvalidSubmission is the CheckError type for rejected predictions.
const ErrorTypeInvalidSubmission = "INVALID_SUBMISSION"

// ErrBatchesConsumed is returned by the cursor of a second Batches call.
var ErrBatchesConsumed = errors.New("gateway batches already consumed")

// Config names the gateway's tables and columns.
type Config struct {
	// Table holding one row per prediction request.
	QueriesTable string

	// Table holding historical observations.
	ObservationsTable string

	// Columns whose values together identify one batch.
	BatchColumns []string

	IDColumn string
	XColumn  string
	YColumn  string
}

// DefaultConfig returns the competition layout: test.csv queries and
// test_input.csv observations, one batch per (game_id, play_id).
func DefaultConfig() Config {
	return Config{
		QueriesTable:      "test",
		ObservationsTable: "test_input",
		BatchColumns:      []string{"game_id", "play_id"},
		IDColumn:          "id",
		XColumn:           "x",
		YColumn:           "y",
	}
}

// Gateway serves batches and checks predictions for them.
type Gateway struct {
	cfg          Config
	queries      specs.TableSpec
	observations specs.TableSpec
	consumed     bool
}

// NewGateway loads the query and observation tables from src.
//
// The query table must carry the id and batch columns. An observation table
// without the batch columns is shared whole by every batch.
func NewGateway(src tables.Source, cfg Config) (*Gateway, error) {
	queries, err := src.Table(cfg.QueriesTable)
	if err != nil {
		return nil, err
	}

	observations, err := src.Table(cfg.ObservationsTable)
	if err != nil {
		return nil, err
	}

	return NewGatewayFromTables(queries, observations, cfg)
}

// NewGatewayFromTables serves batches from already loaded tables. The query
// table must carry the id and batch columns.
func NewGatewayFromTables(queries, observations specs.TableSpec, cfg Config) (*Gateway, error) {
	required := append([]string{cfg.IDColumn}, cfg.BatchColumns...)
	if err := internal.RequireColumns(queries, required...); err != nil {
		return nil, err
	}

	return &Gateway{
		cfg:          cfg,
		queries:      queries,
		observations: observations,
	}, nil
}

// Batches returns the gateway's single-pass batch sequence: one batch per
// distinct batch key of the query table, in order of first appearance.
// Calling Batches again returns a cursor that fails with ErrBatchesConsumed.
func (g *Gateway) Batches() specs.BatchSource {
	if g.consumed {
		return &cursor{err: ErrBatchesConsumed}
	}
	g.consumed = true

	queryGroups, order := groupRows(g.queries, g.cfg.BatchColumns)
	obsGroups, _ := groupRows(g.observations, g.cfg.BatchColumns)

	return &cursor{
		gateway:     g,
		order:       order,
		queryGroups: queryGroups,
		obsGroups:   obsGroups,
		shareObs:    obsGroups == nil,
		idIdx:       g.queries.ColumnIndex(g.cfg.IDColumn),
	}
}

// groupRows partitions row positions by batch key. It returns nil when the
// table lacks any batch column.
func groupRows(table specs.TableSpec, columns []string) (map[string][]int, []string) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = table.ColumnIndex(c)
		if idx[i] < 0 {
			return nil, nil
		}
	}

	groups := make(map[string][]int)
	var order []string
	parts := make([]string, len(idx))
	for r, row := range table.Rows {
		for i, c := range idx {
			parts[i] = row[c]
		}
		key := strings.Join(parts, "\x1f")
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	return groups, order
}

type cursor struct {
	gateway     *Gateway
	order       []string
	queryGroups map[string][]int
	obsGroups   map[string][]int
	shareObs    bool
	idIdx       int

	pos     int
	current specs.BatchSpec
	err     error
	done    bool
}

func (c *cursor) Next() bool {
	if c.done || c.err != nil || c.pos >= len(c.order) {
		c.done = true
		c.current = specs.BatchSpec{}
		return false
	}

	key := c.order[c.pos]
	c.pos++

	g := c.gateway
	queryRows := c.queryGroups[key]
	ids := make([]string, len(queryRows))
	for i, r := range queryRows {
		ids[i] = g.queries.Rows[r][c.idIdx]
	}

	observations := g.observations
	if !c.shareObs {
		observations = subset(g.observations, c.obsGroups[key])
	}

	c.current = specs.BatchSpec{
		Payload: specs.BatchPayloadSpec{
			Queries:      subset(g.queries, queryRows),
			Observations: observations,
		},
		RowIDs: ids,
	}
	return true
}

func (c *cursor) Batch() specs.BatchSpec {
	return c.current
}

func (c *cursor) Err() error {
	return c.err
}

func subset(table specs.TableSpec, rows []int) specs.TableSpec {
	out := specs.TableSpec{
		Name:    table.Name,
		Columns: table.Columns,
		Rows:    make([][]string, len(rows)),
	}
	for i, r := range rows {
		out.Rows[i] = table.Rows[r]
	}
	return out
}

// Check implements specs.Check with the gateway's submission rules: the
// candidate must have exactly the x and y columns, one row per requested id,
// and only finite numeric values.
func (g *Gateway) Check(candidate specs.TableSpec, rowIDs []string, payload specs.BatchPayloadSpec) error {
	want := []string{g.cfg.XColumn, g.cfg.YColumn}
	if !slices.Equal(candidate.Columns, want) {
		return invalid("prediction columns must be %v, got %v", want, candidate.Columns)
	}
	if candidate.Len() != len(rowIDs) {
		return invalid("expected %d prediction rows, got %d", len(rowIDs), candidate.Len())
	}
	if payload.Queries.Len() != len(rowIDs) {
		return invalid("batch requests %d ids for %d query rows", len(rowIDs), payload.Queries.Len())
	}

	for i, row := range candidate.Rows {
		if len(row) != len(want) {
			return invalid("prediction row %d has %d values, expected %d", i, len(row), len(want))
		}
		for j, v := range row {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return invalid("prediction for id %s: %s value %q is not a finite number", rowIDs[i], want[j], v)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return &specs.CheckError{
		ErrorType: ErrorTypeInvalidSubmission,
		Details:   fmt.Sprintf(format, args...),
	}
}
