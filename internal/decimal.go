package internal

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Decimal is an exact numeric cell value.
type Decimal struct {
	value apd.Decimal
}

func NewDecimal(s string) (Decimal, error) {
	var d apd.Decimal
	_, _, err := d.SetString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal: %w", err)
	}
	return Decimal{value: d}, nil
}

func NewDecimalFromInt64(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

func (d Decimal) String() string {
	return d.value.String()
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

// IsFinite reports whether d is neither infinite nor NaN.
func (d Decimal) IsFinite() bool {
	return d.value.Form == apd.Finite
}

// Cmp compares two finite decimals numerically, so "12" and "12.0" are equal.
func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// Float64 returns the nearest float64. NaN and infinities convert to their
// float64 counterparts.
func (d Decimal) Float64() (float64, error) {
	f, err := d.value.Float64()
	if err != nil {
		return 0, fmt.Errorf("convert %s to float: %w", d.String(), err)
	}
	return f, nil
}
