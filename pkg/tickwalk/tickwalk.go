// Package tickwalk simulates a V3 swap tick-by-tick: at each step the price
// moves at most as far as the next initialised tick boundary, producing a
// sequence of SwapSegments a caller can inspect for per-tick fee accrual or
// liquidity-provider attribution (spec §4.7).
package tickwalk

import (
	"sort"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/tickmath"
)

// maxSegments is the safety cap on the number of segments a single walk may
// produce, guarding against a pathological tick list or a liquidity value
// too small to make progress.
const maxSegments = 1000

// SwapSegment records one leg of a tick-walked swap: the price moved from
// sqrt_price_start to sqrt_price_end while crossing from tick_start to
// tick_end, consuming amount_in (of which fee_amount was the fee).
type SwapSegment struct {
	SqrtPriceStart bignum.U256
	SqrtPriceEnd   bignum.U256
	TickStart      int32
	TickEnd        int32
	Liquidity      bignum.U256
	AmountIn       bignum.U256
	FeeAmount      bignum.U256
}

const opSimulate = "tickwalk.simulate"

var q96 = bignum.MustU256FromDecimal("79228162514264337593543950336")

// Simulate walks amountIn into a pool starting at sqrtPriceStart with the
// given active liquidity, fee, and tick spacing, stopping at each
// initialised tick boundary in initializedTicks (which need not be sorted;
// Simulate sorts a copy) until the input is exhausted or the 1000-segment
// cap is reached. Liquidity is held constant across every segment — callers
// that track net liquidity deltas per tick must re-invoke Simulate per
// segment with the updated value; this function only locates boundaries and
// prices the swap within each one.
func Simulate(amountIn, sqrtPriceStart, liquidity bignum.U256, feeBps uint32, tickSpacing int32, initializedTicks []int32) ([]SwapSegment, error) {
	if liquidity.IsZero() {
		return nil, ammerrors.New(opSimulate, ammerrors.InvalidInput, "liquidity cannot be zero", liquidity)
	}
	if tickSpacing <= 0 {
		return nil, ammerrors.New(opSimulate, ammerrors.InvalidInput, "tick_spacing must be positive", ammerrors.Int(int64(tickSpacing)))
	}

	sortedTicks := make([]int32, len(initializedTicks))
	copy(sortedTicks, initializedTicks)
	sort.Slice(sortedTicks, func(i, j int) bool { return sortedTicks[i] < sortedTicks[j] })

	currentTick, err := tickmath.TickFromSqrtPrice(sqrtPriceStart)
	if err != nil {
		return nil, err
	}

	var segments []SwapSegment
	remaining := amountIn
	currentSqrtPrice := sqrtPriceStart

	for !remaining.IsZero() && len(segments) < maxSegments {
		nextTick := findNextInitializedTick(currentTick, sortedTicks, tickSpacing)
		nextSqrtPrice, err := tickmath.SqrtPriceFromTick(nextTick)
		if err != nil {
			return nil, err
		}
		if nextSqrtPrice.LessOrEqual(currentSqrtPrice) {
			return nil, ammerrors.New(opSimulate, ammerrors.InvalidInput, "next tick boundary did not advance price", nextSqrtPrice, currentSqrtPrice)
		}

		sqrtPriceDelta, err := nextSqrtPrice.CheckedSub(opSimulate, currentSqrtPrice)
		if err != nil {
			return nil, err
		}
		// Round up, then gross up by the fee, so that the net input of a
		// full segment moves the price all the way to nextSqrtPrice.
		maxAmountToNextTick, err := bignum.MulDivRoundUp(opSimulate, liquidity, sqrtPriceDelta, q96)
		if err != nil {
			return nil, err
		}
		if feeBps < 10000 {
			maxAmountToNextTick, err = bignum.MulDivRoundUp(opSimulate, maxAmountToNextTick, bignum.U256FromUint64(10000), bignum.U256FromUint64(uint64(10000-feeBps)))
			if err != nil {
				return nil, err
			}
		}

		segmentAmount := bignum.Min(remaining, maxAmountToNextTick)
		if segmentAmount.IsZero() {
			// liquidity too small relative to the tick spacing to make
			// forward progress; stop rather than loop without consuming input
			break
		}

		segmentFee, err := bignum.MulDiv(opSimulate, segmentAmount, bignum.U256FromUint64(uint64(feeBps)), bignum.U256FromUint64(10000))
		if err != nil {
			return nil, err
		}
		amountAfterFee, err := segmentAmount.CheckedSub(opSimulate, segmentFee)
		if err != nil {
			return nil, err
		}

		priceImpact, err := bignum.MulDiv(opSimulate, amountAfterFee, q96, liquidity)
		if err != nil {
			return nil, err
		}
		newSqrtPrice, err := currentSqrtPrice.CheckedAdd(opSimulate, priceImpact)
		if err != nil {
			return nil, err
		}
		if newSqrtPrice.GreaterThan(nextSqrtPrice) {
			newSqrtPrice = nextSqrtPrice
		}

		newTick, err := tickmath.TickFromSqrtPrice(newSqrtPrice)
		if err != nil {
			return nil, err
		}

		segments = append(segments, SwapSegment{
			SqrtPriceStart: currentSqrtPrice,
			SqrtPriceEnd:   newSqrtPrice,
			TickStart:      currentTick,
			TickEnd:        newTick,
			Liquidity:      liquidity,
			AmountIn:       segmentAmount,
			FeeAmount:      segmentFee,
		})

		remaining, err = remaining.CheckedSub(opSimulate, segmentAmount)
		if err != nil {
			return nil, err
		}
		currentSqrtPrice = newSqrtPrice
		currentTick = newTick

		if segmentAmount.LessThan(maxAmountToNextTick) {
			break
		}
	}

	return segments, nil
}

// findNextInitializedTick binary-searches sortedTicks (ascending) for the
// first entry strictly greater than currentTick; if none exists, it falls
// back to the next multiple of tickSpacing above currentTick.
func findNextInitializedTick(currentTick int32, sortedTicks []int32, tickSpacing int32) int32 {
	idx := sort.Search(len(sortedTicks), func(i int) bool { return sortedTicks[i] > currentTick })
	if idx < len(sortedTicks) {
		return sortedTicks[idx]
	}
	q := currentTick / tickSpacing
	if currentTick < 0 && currentTick%tickSpacing != 0 {
		q--
	}
	return (q + 1) * tickSpacing
}
