// Package weighted implements the weighted constant-product (Balancer-style)
// pool primitive: an invariant ∏ B_i^W_i = V with per-token weights summing
// to 1.0 in Q1e18, requiring fractional exponentiation (spec §4.4c).
package weighted

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/fixedpoint"
)

var scale = bignum.MustU256FromDecimal("1000000000000000000")

const feeDenominator = uint64(10000)

// State is a single pair's view into a weighted pool: the balance and
// weight of the token being sold and of the token being bought, both in
// Q1e18, plus the swap fee (also Q1e18, where scale == 1.0 == 100%).
type State struct {
	BalanceIn  bignum.U256
	BalanceOut bignum.U256
	WeightIn   bignum.U256
	WeightOut  bignum.U256
	SwapFee    bignum.U256 // Q1e18, e.g. 0.003 * 1e18 for 0.3%
}

func (s State) validate(op string) error {
	if s.BalanceIn.IsZero() || s.BalanceOut.IsZero() {
		return ammerrors.New(op, ammerrors.InvalidInput, "balances must be nonzero", s.BalanceIn, s.BalanceOut)
	}
	if s.WeightIn.IsZero() || s.WeightOut.IsZero() {
		return ammerrors.New(op, ammerrors.InvalidInput, "weights must be nonzero", s.WeightIn, s.WeightOut)
	}
	return nil
}

const opAmountOut = "weighted.amount_out"

// AmountOut computes:
//
//	amount_out = B_out * (1 - (B_in / (B_in + a*(1-fee)))^(w_in/w_out))
//
// Zero input returns zero output without error (spec §8, property 7).
func AmountOut(s State, amountIn bignum.U256) (bignum.U256, error) {
	if err := s.validate(opAmountOut); err != nil {
		return bignum.U256{}, err
	}
	if amountIn.IsZero() {
		return bignum.ZeroU256(), nil
	}

	oneMinusFee, err := scale.CheckedSub(opAmountOut, s.SwapFee)
	if err != nil {
		return bignum.U256{}, err
	}
	amountInAfterFee, err := bignum.MulDiv(opAmountOut, amountIn, oneMinusFee, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	newBalanceIn, err := s.BalanceIn.CheckedAdd(opAmountOut, amountInAfterFee)
	if err != nil {
		return bignum.U256{}, err
	}
	base, err := bignum.MulDiv(opAmountOut, s.BalanceIn, scale, newBalanceIn)
	if err != nil {
		return bignum.U256{}, err
	}

	// exponent = w_in / w_out, split into integer and fractional parts at
	// Q1e18: int_exp = floor(exponent), frac_exp = exponent - int_exp.
	exponentScaled, err := bignum.MulDiv(opAmountOut, s.WeightIn, scale, s.WeightOut)
	if err != nil {
		return bignum.U256{}, err
	}
	intExp, err := exponentScaled.CheckedDiv(opAmountOut, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	intExpScaled, err := intExp.CheckedMul(opAmountOut, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	fracExp, err := exponentScaled.CheckedSub(opAmountOut, intExpScaled)
	if err != nil {
		return bignum.U256{}, err
	}

	powered, err := fixedpoint.PowFrac(opAmountOut, base, intExp.BigInt().Int64(), fracExp, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	oneMinusPowered, err := scale.CheckedSub(opAmountOut, powered)
	if err != nil {
		// base^exponent > 1 should be impossible since base <= 1, but a
		// transcendental-approximation overshoot is handled by clamping to
		// zero output rather than propagating a spurious underflow.
		return bignum.ZeroU256(), nil
	}
	return bignum.MulDiv(opAmountOut, s.BalanceOut, oneMinusPowered, scale)
}

const opPostSwap = "weighted.post_swap_state"

// PostSwapState applies a swap of amountIn and returns the resulting state
// (updated balances; weights and fee are unchanged) along with the output
// amount.
func PostSwapState(s State, amountIn bignum.U256) (State, bignum.U256, error) {
	amountOut, err := AmountOut(s, amountIn)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newBalanceIn, err := s.BalanceIn.CheckedAdd(opPostSwap, amountIn)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newBalanceOut, err := s.BalanceOut.CheckedSub(opPostSwap, amountOut)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	return State{
		BalanceIn:  newBalanceIn,
		BalanceOut: newBalanceOut,
		WeightIn:   s.WeightIn,
		WeightOut:  s.WeightOut,
		SwapFee:    s.SwapFee,
	}, amountOut, nil
}

// Flipped swaps the in/out roles, used to sell the output token back during
// sandwich composition.
func (s State) Flipped() State {
	return State{
		BalanceIn:  s.BalanceOut,
		BalanceOut: s.BalanceIn,
		WeightIn:   s.WeightOut,
		WeightOut:  s.WeightIn,
		SwapFee:    s.SwapFee,
	}
}

const opInvariant = "weighted.invariant"

// Invariant computes V = exp(sum_i w_i * ln(B_i)) in Q1e36 internally,
// rescaled to the caller's scale. This is a sanity-test helper, not used on
// the swap-pricing path (spec §4.4c).
func Invariant(balances, weights []bignum.U256) (bignum.U256, error) {
	if len(balances) != len(weights) {
		return bignum.U256{}, ammerrors.New(opInvariant, ammerrors.InvalidInput, "balances and weights must have equal length")
	}
	if len(balances) == 0 {
		return bignum.U256{}, ammerrors.New(opInvariant, ammerrors.InvalidInput, "pool must have at least one token")
	}

	var acc fixedpoint.Signed
	for i, b := range balances {
		if b.IsZero() {
			return bignum.U256{}, ammerrors.New(opInvariant, ammerrors.InvalidInput, "balance cannot be zero", b)
		}
		lnB, err := fixedpoint.Ln(opInvariant, b, scale)
		if err != nil {
			return bignum.U256{}, err
		}
		term, err := lnB.Magnitude.CheckedMul(opInvariant, weights[i])
		if err != nil {
			return bignum.U256{}, err
		}
		term, err = term.CheckedDiv(opInvariant, scale)
		if err != nil {
			return bignum.U256{}, err
		}
		acc = addSigned(acc, fixedpoint.Signed{Magnitude: term, Negative: lnB.Negative})
	}
	return fixedpoint.Exp(opInvariant, acc, scale)
}

func addSigned(a, b fixedpoint.Signed) fixedpoint.Signed {
	if a.Negative == b.Negative {
		sum, _ := a.Magnitude.CheckedAdd("weighted.invariant", b.Magnitude)
		return fixedpoint.Signed{Magnitude: sum, Negative: a.Negative}
	}
	if a.Magnitude.GreaterOrEqual(b.Magnitude) {
		diff, _ := a.Magnitude.CheckedSub("weighted.invariant", b.Magnitude)
		return fixedpoint.Signed{Magnitude: diff, Negative: a.Negative}
	}
	diff, _ := b.Magnitude.CheckedSub("weighted.invariant", a.Magnitude)
	return fixedpoint.Signed{Magnitude: diff, Negative: b.Negative}
}
