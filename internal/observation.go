package internal

import (
	"fmt"
	"strings"

	"github.com/chrisconley/trackline/specs"
)

// EntityKey identifies one tracked entity. It is comparable and used as a
// map key.
type EntityKey struct {
	group    string
	subgroup string
	entity   string
}

func NewEntityKey(spec specs.EntityKeySpec) EntityKey {
	return EntityKey{
		group:    spec.GroupID,
		subgroup: spec.SubgroupID,
		entity:   spec.EntityID,
	}
}

func (k EntityKey) ToSpec() specs.EntityKeySpec {
	return specs.EntityKeySpec{
		GroupID:    k.group,
		SubgroupID: k.subgroup,
		EntityID:   k.entity,
	}
}

func (k EntityKey) ToString() string {
	return fmt.Sprintf("%s/%s/%s", k.group, k.subgroup, k.entity)
}

// Position is a pair of scalar coordinates.
type Position struct {
	x float64
	y float64
}

func NewPosition(x, y float64) Position {
	return Position{x: x, y: y}
}

// FallbackPosition answers queries for entities with no observation.
var FallbackPosition = Position{}

func (p Position) X() float64 {
	return p.x
}

func (p Position) Y() float64 {
	return p.y
}

func (p Position) ToSpec() specs.PredictionSpec {
	return specs.PredictionSpec{X: p.x, Y: p.y}
}

// SequenceNumber orders records within an entity key.
type SequenceNumber struct {
	value Decimal
}

func NewSequenceNumber(s string) (SequenceNumber, error) {
	if s == "" {
		return SequenceNumber{}, fmt.Errorf("sequence is required")
	}
	d, err := NewDecimal(s)
	if err != nil {
		return SequenceNumber{}, err
	}
	if !d.IsFinite() {
		return SequenceNumber{}, fmt.Errorf("sequence must be finite, got %s", s)
	}
	return SequenceNumber{value: d}, nil
}

func (s SequenceNumber) Cmp(other SequenceNumber) int {
	return s.value.Cmp(other.value)
}

func (s SequenceNumber) ToString() string {
	return s.value.String()
}

// Coordinate is one component of an observed position. A blank or
// non-finite cell is an absent coordinate.
type Coordinate struct {
	value   float64
	present bool
}

func NewCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Coordinate{}, nil
	}
	d, err := NewDecimal(s)
	if err != nil {
		return Coordinate{}, err
	}
	if !d.IsFinite() {
		return Coordinate{}, nil
	}
	f, err := d.Float64()
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{value: f, present: true}, nil
}

// Value returns the coordinate and whether it was observed.
func (c Coordinate) Value() (float64, bool) {
	return c.value, c.present
}

// ObservationRecord is one historical measurement of an entity. Either
// coordinate may be absent.
type ObservationRecord struct {
	Key      EntityKey
	Sequence *SequenceNumber
	X        Coordinate
	Y        Coordinate
}

func NewObservationRecord(spec specs.ObservationRecordSpec) (ObservationRecord, error) {
	var sequence *SequenceNumber
	if spec.Sequence != "" {
		seq, err := NewSequenceNumber(spec.Sequence)
		if err != nil {
			return ObservationRecord{}, fmt.Errorf("invalid sequence: %w", err)
		}
		sequence = &seq
	}

	x, err := NewCoordinate(spec.X)
	if err != nil {
		return ObservationRecord{}, fmt.Errorf("invalid x: %w", err)
	}

	y, err := NewCoordinate(spec.Y)
	if err != nil {
		return ObservationRecord{}, fmt.Errorf("invalid y: %w", err)
	}

	return ObservationRecord{
		Key:      NewEntityKey(spec.Key),
		Sequence: sequence,
		X:        x,
		Y:        y,
	}, nil
}
