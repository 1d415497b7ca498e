// Package ammerrors defines the single error taxonomy shared by every
// fallible operation in the AMM pricing core. Every arithmetic fault is a
// typed *Error carrying the operation name, the numeric inputs responsible,
// and a free-form context string, rather than a formatted message — callers
// that need to branch on the failure (the optimisers, in particular) do not
// need to parse text.
package ammerrors

import (
	"fmt"
	"strings"
)

// Kind identifies the category of failure. Every fallible operation in the
// core returns a *Error with exactly one Kind.
type Kind int

const (
	// InvalidInput signals an argument violated a precondition: zero
	// reserve, out-of-range tick, mismatched array lengths, i == j,
	// a sqrt price outside [MIN_SQRT_RATIO, MAX_SQRT_RATIO], and so on.
	InvalidInput Kind = iota

	// Overflow signals a checked multiplication or addition exceeded its
	// width.
	Overflow

	// Underflow signals a checked subtraction would have gone below zero.
	Underflow

	// DivisionByZero signals a denominator evaluated to zero. Kept distinct
	// from Overflow because it is usually a caller-visible pool condition
	// (empty reserve, zero liquidity) rather than an arithmetic fault.
	DivisionByZero

	// NonConvergence signals a Newton or Brent iteration exhausted its
	// iteration cap. The error carries no estimate; callers that have a
	// usable best estimate return it without an error instead.
	NonConvergence
)

// String renders the Kind as the identifier used in error messages and
// tests.
func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case Overflow:
		return "Overflow"
	case Underflow:
		return "Underflow"
	case DivisionByZero:
		return "DivisionByZero"
	case NonConvergence:
		return "NonConvergence"
	default:
		return "Unknown"
	}
}

// Stringer is satisfied by any numeric type the core passes as a faulting
// input. bignum.U256 and bignum.U512 both implement it; plain Go integers
// are wrapped with Int before being attached to an Error.
type Stringer interface {
	String() string
}

// Int adapts a plain Go integer (a tick, an index, a basis-point value) to
// Stringer so it can be attached to an Error's Inputs alongside bignum
// values.
type Int int64

// String returns the base-10 representation of i.
func (i Int) String() string {
	return fmt.Sprintf("%d", int64(i))
}

// Error is the concrete type returned by every fallible operation in the
// core. It is never constructed with a pre-formatted message; Op, Kind,
// Inputs, and Context are populated independently so a caller can inspect
// them programmatically instead of parsing Error().
type Error struct {
	// Op is the name of the function that failed, e.g. "mul_div" or
	// "get_sqrt_ratio_at_tick".
	Op string

	// Kind is the failure category.
	Kind Kind

	// Inputs is the ordered list of numeric arguments responsible for the
	// failure, in the order the operation's own parameter list presents
	// them.
	Inputs []Stringer

	// Context is a short free-form note on what the operation was doing
	// when it failed (e.g. "denominator calculation", "D Newton step 12").
	Context string
}

// New constructs an Error. Inputs may be nil or empty when no specific
// argument is at fault (e.g. a NonConvergence after exhausting all
// iterations rather than a single bad value).
func New(op string, kind Kind, context string, inputs ...Stringer) *Error {
	return &Error{Op: op, Kind: kind, Inputs: inputs, Context: context}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" in ")
	b.WriteString(e.Op)
	if len(e.Inputs) > 0 {
		b.WriteString(": inputs=[")
		for i, in := range e.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.String())
		}
		b.WriteString("]")
	}
	if e.Context != "" {
		b.WriteString(": ")
		b.WriteString(e.Context)
	}
	return b.String()
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write `errors.Is(err, ammerrors.New("", ammerrors.Overflow, ""))`-style
// checks, but more idiomatically should use IsKind below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
