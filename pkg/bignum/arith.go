package bignum

import "github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"

// MulDiv computes floor(a*b / d) using a 512-bit-precision intermediate
// product (uint256.Int.MulDivOverflow), so a*b is never truncated even when
// it would overflow 256 bits on its own. Fails with DivisionByZero if d is
// zero, or Overflow if the final quotient does not fit back into 256 bits.
func MulDiv(op string, a, b, d U256) (U256, error) {
	return a.CheckedMulDiv(op, b, d)
}

// MulDivRoundUp computes ceil(a*b / d), matching the spec's definition
// exactly (§4.1): floor(a*b/d), plus one whenever a*b mod d is nonzero.
// Used by pkg/tickwalk to size a segment so that it reaches the next tick
// boundary. The tick-math narrowing step (Q128.128 -> Q64.96) does not call
// it: it rounds up with a 32-bit shift and a check of the discarded bits.
func MulDivRoundUp(op string, a, b, d U256) (U256, error) {
	if d.IsZero() {
		return U256{}, ammerrors.New(op, ammerrors.DivisionByZero, "mul_div_round_up denominator is zero", a, b, d)
	}
	quotient, err := a.CheckedMulDiv(op, b, d)
	if err != nil {
		return U256{}, err
	}
	if a.mulMod(b, d).IsZero() {
		return quotient, nil
	}
	return quotient.CheckedAdd(op, OneU256())
}

// Sqrt computes floor(sqrt(x)) by Babylonian iteration from an initial
// estimate derived from x's most-significant bit, converging within 256
// iterations for any 256-bit input (spec §4.1). The loop additionally exits
// early once two successive iterates stop changing, which happens almost
// immediately in practice since Babylonian iteration converges
// quadratically; the 256-iteration cap is a hard backstop, never the normal
// exit path.
func Sqrt(op string, x U256) (U256, error) {
	if x.IsZero() {
		return ZeroU256(), nil
	}
	if x.Equal(OneU256()) {
		return OneU256(), nil
	}

	// Initial guess: 2^(ceil(bitlen/2)+1), at least as large as the true root,
	// which keeps the sequence below monotonically decreasing from the
	// first step instead of oscillating while it climbs down from x itself.
	bitLen := x.BitLen()
	guess, err := OneU256().Lsh(op, uint((bitLen+1)/2+1))
	if err != nil {
		guess = x
	}

	const maxIterations = 256
	for i := 0; i < maxIterations; i++ {
		// next = (guess + x/guess) / 2
		quotient, err := x.CheckedDiv(op, guess)
		if err != nil {
			return U256{}, err
		}
		sum, err := guess.CheckedAdd(op, quotient)
		if err != nil {
			return U256{}, err
		}
		next := sum.Rsh(1)
		if next.GreaterOrEqual(guess) {
			// The sequence has stopped decreasing: guess is floor(sqrt(x))
			// or floor(sqrt(x))+1. Babylonian iteration on integers settles
			// on one of those two values; pick whichever truly floors x.
			guessSq, err := guess.CheckedMul(op, guess)
			if err == nil && guessSq.LessOrEqual(x) {
				return guess, nil
			}
			return guess.CheckedSub(op, OneU256())
		}
		guess = next
	}
	return U256{}, ammerrors.New(op, ammerrors.NonConvergence, "sqrt did not converge in 256 iterations", x)
}

// PowChecked computes base^exp by exponentiation-by-squaring, failing with
// Overflow the moment any intermediate product would exceed 256 bits rather
// than wrapping.
func PowChecked(op string, base U256, exp uint64) (U256, error) {
	result := OneU256()
	b := base
	e := exp
	for e > 0 {
		if e&1 == 1 {
			var err error
			result, err = result.CheckedMul(op, b)
			if err != nil {
				return U256{}, err
			}
		}
		e >>= 1
		if e == 0 {
			break
		}
		var err error
		b, err = b.CheckedMul(op, b)
		if err != nil {
			return U256{}, err
		}
	}
	return result, nil
}
