// Package sandwich computes the profit of a front-run/victim/back-run
// sequence against an arbitrary pool family via a caller-supplied swap
// function, generalizing the bespoke per-family helpers the original
// implementation duplicated per DEX (spec §4.5).
package sandwich

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

// SwapFunc applies a swap of amountIn to state s and returns the resulting
// state and output amount. Every pool family in pkg/pools/* can be adapted
// to this shape with a small closure at the call site.
type SwapFunc[S any] func(s S, amountIn bignum.U256) (S, bignum.U256, error)

const opProfit = "sandwich.profit"

// Profit computes the attacker's net gain from sandwiching a victim trade
// of size victimIn against pool state s0:
//
//  1. (s1, frontOut) = forward(s0, frontIn)
//  2. (s2, _)        = forward(s1, victimIn)
//  3. (_, back)      = reverse(s2, frontOut)
//
// forward and reverse must already be the correctly-directed swap functions
// for the pool family in question (e.g. for V3, forward closes over
// Token0ToToken1 and reverse closes over Token1ToToken0; for stable-swap,
// forward and reverse close over (i,j) and (j,i) respectively).
//
// The flash-loan fee, in basis points, is charged against frontIn. Profit
// saturates at zero rather than returning a negative value or error, so the
// result stays unimodal and non-negative over frontIn — the contract
// pkg/optimize's searches rely on.
func Profit[S any](s0 S, frontIn, victimIn bignum.U256, flashLoanFeeBps uint32, forward, reverse SwapFunc[S]) (bignum.U256, error) {
	if frontIn.IsZero() {
		return bignum.ZeroU256(), nil
	}

	s1, frontOut, err := forward(s0, frontIn)
	if err != nil {
		return bignum.U256{}, err
	}
	if frontOut.IsZero() {
		return bignum.ZeroU256(), nil
	}

	s2, _, err := forward(s1, victimIn)
	if err != nil {
		return bignum.U256{}, err
	}

	_, back, err := reverse(s2, frontOut)
	if err != nil {
		return bignum.U256{}, err
	}

	flashFee, err := bignum.MulDiv(opProfit, frontIn, bignum.U256FromUint64(uint64(flashLoanFeeBps)), bignum.U256FromUint64(10000))
	if err != nil {
		return bignum.U256{}, err
	}
	cost, err := frontIn.CheckedAdd(opProfit, flashFee)
	if err != nil {
		return bignum.U256{}, err
	}

	if back.LessOrEqual(cost) {
		return bignum.ZeroU256(), nil
	}
	return back.CheckedSub(opProfit, cost)
}

// ProfitFunc closes Profit over a fixed starting state, victim size, and fee
// so it can be handed directly to pkg/optimize's univariate searches as a
// function of frontIn alone.
func ProfitFunc[S any](s0 S, victimIn bignum.U256, flashLoanFeeBps uint32, forward, reverse SwapFunc[S]) func(bignum.U256) (bignum.U256, error) {
	return func(frontIn bignum.U256) (bignum.U256, error) {
		return Profit(s0, frontIn, victimIn, flashLoanFeeBps, forward, reverse)
	}
}
