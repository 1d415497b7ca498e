// Package v2 implements the constant-product (Uniswap-V2-style) pool
// primitive: a single invariant x*y=k with one swap fee, the shallowest of
// the four pool families (spec §4.4a).
package v2

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

const feeDenominator = uint64(10000)

// State is a constant-product pool snapshot: two reserves and a fee in
// basis points. Value-typed; every operation below returns a new State
// rather than mutating its receiver.
type State struct {
	ReserveIn  bignum.U256
	ReserveOut bignum.U256
	FeeBps     uint32
}

func (s State) validate(op string) error {
	if s.ReserveIn.IsZero() || s.ReserveOut.IsZero() {
		return ammerrors.New(op, ammerrors.InvalidInput, "reserves must be nonzero", s.ReserveIn, s.ReserveOut)
	}
	if s.FeeBps > uint32(feeDenominator) {
		return ammerrors.New(op, ammerrors.InvalidInput, "fee_bps exceeds 10000", ammerrors.Int(int64(s.FeeBps)))
	}
	return nil
}

const opAmountOut = "v2.amount_out"

// AmountOut computes the exact output of swapping amountIn of the reserve-in
// token, per the constant-product formula with fee applied on input:
//
//	amount_out = (R_out * a_in * (10000 - fee)) / (R_in*10000 + a_in*(10000-fee))
//
// Fails on zero input, zero reserves, or intermediate overflow. The result
// is always strictly less than ReserveOut.
func AmountOut(s State, amountIn bignum.U256) (bignum.U256, error) {
	if err := s.validate(opAmountOut); err != nil {
		return bignum.U256{}, err
	}
	if amountIn.IsZero() {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "amount_in cannot be zero", amountIn)
	}

	feeMultiplier := bignum.U256FromUint64(feeDenominator - uint64(s.FeeBps))
	amountInWithFee, err := amountIn.CheckedMul(opAmountOut, feeMultiplier)
	if err != nil {
		return bignum.U256{}, err
	}

	numerator, err := s.ReserveOut.CheckedMul(opAmountOut, amountInWithFee)
	if err != nil {
		return bignum.U256{}, err
	}

	reserveInScaled, err := s.ReserveIn.CheckedMul(opAmountOut, bignum.U256FromUint64(feeDenominator))
	if err != nil {
		return bignum.U256{}, err
	}
	denominator, err := reserveInScaled.CheckedAdd(opAmountOut, amountInWithFee)
	if err != nil {
		return bignum.U256{}, err
	}
	if denominator.IsZero() {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.DivisionByZero, "denominator is zero", denominator)
	}
	return numerator.CheckedDiv(opAmountOut, denominator)
}

const opPriceImpact = "v2.price_impact"

// PriceImpact returns ⌊amountIn*10000/ReserveIn⌋ in basis points, capped at
// 10000 (100%). Zero input always returns zero impact.
func PriceImpact(s State, amountIn bignum.U256) (uint32, error) {
	if amountIn.IsZero() {
		return 0, nil
	}
	if s.ReserveIn.IsZero() {
		return 0, ammerrors.New(opPriceImpact, ammerrors.InvalidInput, "reserve_in cannot be zero", s.ReserveIn)
	}
	scaled, err := amountIn.CheckedMul(opPriceImpact, bignum.U256FromUint64(feeDenominator))
	if err != nil {
		return 0, err
	}
	impact, err := scaled.CheckedDiv(opPriceImpact, s.ReserveIn)
	if err != nil {
		return 0, err
	}
	if impact.GreaterThan(bignum.U256FromUint64(feeDenominator)) {
		return uint32(feeDenominator), nil
	}
	return uint32(impact.BigInt().Uint64()), nil
}

const opPostSwap = "v2.post_swap_state"

// PostSwapState applies a swap of amountIn and returns the resulting pool
// state together with the output amount, in one call so callers composing
// multiple swaps (sandwich.Profit) never recompute the same output twice.
func PostSwapState(s State, amountIn bignum.U256) (State, bignum.U256, error) {
	amountOut, err := AmountOut(s, amountIn)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newReserveIn, err := s.ReserveIn.CheckedAdd(opPostSwap, amountIn)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newReserveOut, err := s.ReserveOut.CheckedSub(opPostSwap, amountOut)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	return State{ReserveIn: newReserveIn, ReserveOut: newReserveOut, FeeBps: s.FeeBps}, amountOut, nil
}

// Flipped returns the state as seen from the opposite swap direction: what
// was ReserveOut becomes ReserveIn and vice versa. Used to swap back
// (out-token -> in-token) during sandwich composition without a second pool
// type.
func (s State) Flipped() State {
	return State{ReserveIn: s.ReserveOut, ReserveOut: s.ReserveIn, FeeBps: s.FeeBps}
}
