// Package v3 implements the concentrated-liquidity (Uniswap-V3-style) pool
// primitive: a constant-product invariant active only within the current
// tick range, prices quoted as sqrt(price) in Q64.96 (spec §4.4b).
package v3

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/fixedpoint"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/tickmath"
)

// SwapDirection distinguishes the two possible trade directions in a
// two-token pool.
type SwapDirection int

const (
	// Token0ToToken1 swaps token0 in for token1 out; price (token1/token0)
	// decreases.
	Token0ToToken1 SwapDirection = iota
	// Token1ToToken0 swaps token1 in for token0 out; price increases.
	Token1ToToken0
)

// State is a concentrated-liquidity pool snapshot at the current tick.
type State struct {
	SqrtPrice bignum.U256 // Q64.96
	Liquidity bignum.U256 // u128 range, held in a U256
	Tick      int32
	FeeBps    uint32
}

var q96 = bignum.MustU256FromDecimal("79228162514264337593543950336")

const feeDenominator = uint64(10000)

// invLog2_1_0001Int is the fixed integer approximation of 1/log2(1.0001),
// per spec §4.4b: chosen for speed, accepting ~0.007% error in the
// recovered tick.
const invLog2_1_0001Int = 6931

const maxTickDeltaMagnitude = 10000

func (s State) validate(op string) error {
	if s.Liquidity.IsZero() {
		return ammerrors.New(op, ammerrors.InvalidInput, "liquidity cannot be zero", s.Liquidity)
	}
	if s.SqrtPrice.LessThan(tickmath.MinSqrtRatio) || s.SqrtPrice.GreaterThan(tickmath.MaxSqrtRatio) {
		return ammerrors.New(op, ammerrors.InvalidInput, "sqrt_price out of range", s.SqrtPrice)
	}
	if s.FeeBps > uint32(feeDenominator) {
		return ammerrors.New(op, ammerrors.InvalidInput, "fee_bps exceeds 10000", ammerrors.Int(int64(s.FeeBps)))
	}
	return nil
}

const opAmountOut = "v3.amount_out"

func amountInAfterFee(op string, amountIn bignum.U256, feeBps uint32) (bignum.U256, error) {
	feeMultiplier := bignum.U256FromUint64(feeDenominator - uint64(feeBps))
	scaled, err := amountIn.CheckedMul(op, feeMultiplier)
	if err != nil {
		return bignum.U256{}, err
	}
	return scaled.CheckedDiv(op, bignum.U256FromUint64(feeDenominator))
}

// NewSqrtPrice computes the post-swap sqrt price for amountIn applied to s in
// the given direction, per the exact SwapMath formulas (spec §4.4b). It does
// not touch tick or liquidity.
func NewSqrtPrice(s State, amountIn bignum.U256, direction SwapDirection) (bignum.U256, error) {
	if err := s.validate(opAmountOut); err != nil {
		return bignum.U256{}, err
	}
	if amountIn.IsZero() {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "amount_in cannot be zero", amountIn)
	}
	afterFee, err := amountInAfterFee(opAmountOut, amountIn, s.FeeBps)
	if err != nil {
		return bignum.U256{}, err
	}
	if afterFee.IsZero() {
		return s.SqrtPrice, nil
	}

	switch direction {
	case Token0ToToken1:
		numerator, err := s.Liquidity.CheckedMul(opAmountOut, q96)
		if err != nil {
			return bignum.U256{}, err
		}
		product, err := afterFee.CheckedMul(opAmountOut, s.SqrtPrice)
		if err != nil {
			return bignum.U256{}, err
		}
		denominator, err := numerator.CheckedAdd(opAmountOut, product)
		if err != nil {
			return bignum.U256{}, err
		}
		return bignum.MulDiv(opAmountOut, numerator, s.SqrtPrice, denominator)
	case Token1ToToken0:
		delta, err := bignum.MulDiv(opAmountOut, afterFee, q96, s.Liquidity)
		if err != nil {
			return bignum.U256{}, err
		}
		return s.SqrtPrice.CheckedAdd(opAmountOut, delta)
	default:
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "unknown swap direction", ammerrors.Int(int64(direction)))
	}
}

// AmountOut computes the exact output of swapping amountIn into s in the
// given direction (spec §4.4b).
func AmountOut(s State, amountIn bignum.U256, direction SwapDirection) (bignum.U256, error) {
	newSqrtPrice, err := NewSqrtPrice(s, amountIn, direction)
	if err != nil {
		return bignum.U256{}, err
	}
	if newSqrtPrice.Equal(s.SqrtPrice) {
		return bignum.ZeroU256(), nil
	}

	switch direction {
	case Token0ToToken1:
		if newSqrtPrice.GreaterOrEqual(s.SqrtPrice) {
			return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput,
				"new sqrt price must decrease for Token0ToToken1", newSqrtPrice, s.SqrtPrice)
		}
		diff, err := s.SqrtPrice.CheckedSub(opAmountOut, newSqrtPrice)
		if err != nil {
			return bignum.U256{}, err
		}
		return bignum.MulDiv(opAmountOut, s.Liquidity, diff, q96)
	case Token1ToToken0:
		if newSqrtPrice.LessOrEqual(s.SqrtPrice) {
			return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput,
				"new sqrt price must increase for Token1ToToken0", newSqrtPrice, s.SqrtPrice)
		}
		diff, err := newSqrtPrice.CheckedSub(opAmountOut, s.SqrtPrice)
		if err != nil {
			return bignum.U256{}, err
		}
		numerator, err := bignum.MulDiv(opAmountOut, s.Liquidity, diff, s.SqrtPrice)
		if err != nil {
			return bignum.U256{}, err
		}
		return bignum.MulDiv(opAmountOut, numerator, q96, newSqrtPrice)
	default:
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "unknown swap direction", ammerrors.Int(int64(direction)))
	}
}

const opPostSwap = "v3.post_swap_state"
const logScale18 = "1000000000000000000"

var log2Scale = bignum.MustU256FromDecimal(logScale18)

// tickDelta approximates floor(log2(newSqrtPrice/oldSqrtPrice) / log2(1.0001))
// using the fixed integer reciprocal constant (spec §4.4b), clamped to
// +/-10000 per step.
func tickDelta(op string, newSqrtPrice, oldSqrtPrice bignum.U256) (int32, error) {
	if oldSqrtPrice.IsZero() {
		return 0, ammerrors.New(op, ammerrors.DivisionByZero, "old sqrt price is zero", oldSqrtPrice)
	}
	ratio, err := bignum.MulDiv(op, newSqrtPrice, log2Scale, oldSqrtPrice)
	if err != nil {
		return 0, err
	}
	log2Ratio, err := fixedpoint.Log2(op, ratio, log2Scale)
	if err != nil {
		return 0, err
	}
	scaledDelta, err := log2Ratio.Magnitude.CheckedMul(op, bignum.U256FromUint64(invLog2_1_0001Int))
	if err != nil {
		return 0, err
	}
	delta, err := scaledDelta.CheckedDiv(op, log2Scale)
	if err != nil {
		return 0, err
	}
	d := int32(delta.BigInt().Int64())
	if log2Ratio.Negative {
		d = -d
	}
	if d > maxTickDeltaMagnitude {
		d = maxTickDeltaMagnitude
	}
	if d < -maxTickDeltaMagnitude {
		d = -maxTickDeltaMagnitude
	}
	return d, nil
}

// PostSwapState applies a swap of amountIn to s and returns the resulting
// pool state (new sqrt price and tick, clamped to [MinTick, MaxTick]) along
// with the output amount.
func PostSwapState(s State, amountIn bignum.U256, direction SwapDirection) (State, bignum.U256, error) {
	newSqrtPrice, err := NewSqrtPrice(s, amountIn, direction)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	amountOut, err := AmountOut(s, amountIn, direction)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	if newSqrtPrice.Equal(s.SqrtPrice) {
		return s, amountOut, nil
	}
	delta, err := tickDelta(opPostSwap, newSqrtPrice, s.SqrtPrice)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newTick := s.Tick + delta
	if newTick < tickmath.MinTick {
		newTick = tickmath.MinTick
	}
	if newTick > tickmath.MaxTick {
		newTick = tickmath.MaxTick
	}
	return State{SqrtPrice: newSqrtPrice, Liquidity: s.Liquidity, Tick: newTick, FeeBps: s.FeeBps}, amountOut, nil
}

// Reversed flips the swap direction, used to sell the output token back
// during sandwich composition: the pool state is unchanged, only which
// direction a subsequent swap call uses.
func Reversed(d SwapDirection) SwapDirection {
	if d == Token0ToToken1 {
		return Token1ToToken0
	}
	return Token0ToToken1
}
