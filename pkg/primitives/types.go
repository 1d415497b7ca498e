// Package primitives provides the Decimal type used at the one boundary in
// this module where base-10 scaling happens (internal/decimals): converting
// a human-readable token amount into the raw fixed-width integer the AMM
// core consumes, and back. All financial calculations past that boundary
// use checked integer arithmetic (pkg/bignum), never this type.
package primitives

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero indicates attempted division by zero
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidDecimal indicates an invalid decimal value
	ErrInvalidDecimal = errors.New("invalid decimal value")
)

// Decimal wraps shopspring/decimal.Decimal for precise arithmetic.
// Used only at the decimal-scaling boundary described in the package doc.
type Decimal struct {
	value decimal.Decimal
}

// NewDecimal creates a Decimal from an int64 value.
func NewDecimal(value int64) Decimal {
	return Decimal{value: decimal.NewFromInt(value)}
}

// NewDecimalFromFloat creates a Decimal from a float64 value.
// Note: Use this sparingly; prefer NewDecimalFromString for external data.
func NewDecimalFromFloat(value float64) Decimal {
	return Decimal{value: decimal.NewFromFloat(value)}
}

// NewDecimalFromString creates a Decimal from a string representation.
// Returns error if the string is not a valid decimal number.
func NewDecimalFromString(value string) (Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %s", ErrInvalidDecimal, err)
	}
	return Decimal{value: d}, nil
}

// MustDecimalFromString creates a Decimal from a string, panicking on error.
// Only use for known-valid constants in tests or initialization.
func MustDecimalFromString(value string) Decimal {
	d, err := NewDecimalFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns a Decimal representing zero.
func Zero() Decimal {
	return Decimal{value: decimal.Zero}
}

// One returns a Decimal representing one.
func One() Decimal {
	return Decimal{value: decimal.NewFromInt(1)}
}

// Add returns the sum of two Decimals.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value)}
}

// Sub returns the difference of two Decimals.
func (d Decimal) Sub(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value)}
}

// Mul returns the product of two Decimals.
func (d Decimal) Mul(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value)}
}

// Div returns the quotient of two Decimals.
// Returns error if dividing by zero.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, ErrDivisionByZero
	}
	return Decimal{value: d.value.Div(other.value)}, nil
}

// Abs returns the absolute value of the Decimal.
func (d Decimal) Abs() Decimal {
	return Decimal{value: d.value.Abs()}
}

// Neg returns the negation of the Decimal.
func (d Decimal) Neg() Decimal {
	return Decimal{value: d.value.Neg()}
}

// Truncate returns d truncated to the given number of decimal places,
// discarding the remainder rather than rounding. Used when converting a
// scaled Decimal into a whole-unit integer amount.
func (d Decimal) Truncate(places int32) Decimal {
	return Decimal{value: d.value.Truncate(places)}
}

// IsZero returns true if the Decimal is zero.
func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

// IsNegative returns true if the Decimal is negative.
func (d Decimal) IsNegative() bool {
	return d.value.IsNegative()
}

// IsPositive returns true if the Decimal is positive.
func (d Decimal) IsPositive() bool {
	return d.value.IsPositive()
}

// GreaterThan returns true if d > other.
func (d Decimal) GreaterThan(other Decimal) bool {
	return d.value.GreaterThan(other.value)
}

// LessThan returns true if d < other.
func (d Decimal) LessThan(other Decimal) bool {
	return d.value.LessThan(other.value)
}

// Equal returns true if d == other.
func (d Decimal) Equal(other Decimal) bool {
	return d.value.Equal(other.value)
}

// Float64 returns the float64 representation of the Decimal.
// Use only for display or external APIs; not for calculations.
func (d Decimal) Float64() float64 {
	f, _ := d.value.Float64()
	return f
}

// String returns the string representation of the Decimal.
func (d Decimal) String() string {
	return d.value.String()
}
