package tickmath

import (
	"math/big"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/fixedpoint"
)

// guessScale is the fixed-point scale used only for computing the initial
// tick guess in TickFromSqrtPrice; it has no bearing on the bijection's
// exactness since every guess is subsequently corrected by exact integer
// comparison against SqrtPriceFromTick.
var guessScale = bignum.MustU256FromDecimal("1000000000000000000")

// ln1_0001AtGuessScale is ln(1.0001) at guessScale, computed offline to
// 50-digit precision and floored.
var ln1_0001AtGuessScale = bignum.MustU256FromDecimal("99995000333308")

const opSqrtPriceFromTick = "tickmath.sqrt_price_from_tick"
const opTickFromSqrtPrice = "tickmath.tick_from_sqrt_price"

// SqrtPriceFromTick converts a tick index to its Q64.96 sqrt price,
// reproducing TickMath.sol's getSqrtRatioAtTick bit for bit: a Q128.128
// ratio is built by multiplying in the magic constant for every set bit of
// |tick|, inverted if the tick is positive, then narrowed down to Q64.96
// with round-up.
func SqrtPriceFromTick(tick int32) (bignum.U256, error) {
	if tick < MinTick || tick > MaxTick {
		return bignum.U256{}, ammerrors.New(opSqrtPriceFromTick, ammerrors.InvalidInput,
			"tick out of [MinTick, MaxTick] range", ammerrors.Int(int64(tick)))
	}
	switch tick {
	case MinTick:
		return MinSqrtRatio, nil
	case 0:
		return q96AtTickZero, nil
	case MaxTick:
		return MaxSqrtRatio, nil
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}
	u := uint32(absTick)

	ratio := q128One
	if u&0x1 != 0 {
		ratio = initialRatioBit0
	}
	for i, c := range magicConstants {
		bit := uint32(1) << uint(i+1)
		if u&bit == 0 {
			continue
		}
		product := ratio.Widen().Mul(c.Widen())
		shifted := product.Rsh(128)
		narrowed, err := shifted.Narrow(opSqrtPriceFromTick)
		if err != nil {
			return bignum.U256{}, err
		}
		ratio = narrowed
	}

	if tick > 0 {
		inverted, err := bignum.MaxU256().CheckedDiv(opSqrtPriceFromTick, ratio)
		if err != nil {
			return bignum.U256{}, err
		}
		ratio = inverted
	}

	// ratio is Q128.128; sqrtPriceX96 is Q64.96, so shift right 32 bits,
	// rounding up if any of the dropped bits were set (spec §4.3: narrowing
	// must round up to preserve the monotonic tick <-> price ordering).
	shifted := ratio.Rsh(32)
	hasRemainder := false
	for i := uint(0); i < 32; i++ {
		if ratio.Bit(i) {
			hasRemainder = true
			break
		}
	}
	if hasRemainder {
		result, err := shifted.CheckedAdd(opSqrtPriceFromTick, bignum.OneU256())
		if err != nil {
			return bignum.U256{}, err
		}
		return result, nil
	}
	return shifted, nil
}

// TickFromSqrtPrice inverts SqrtPriceFromTick: given a Q64.96 sqrt price in
// [MinSqrtRatio, MaxSqrtRatio], returns the tick t such that
// SqrtPriceFromTick(t) <= sqrtPrice < SqrtPriceFromTick(t+1) (spec §4.3).
// The exception is a price within sqrtPrice/1e9 of a tick's sqrt price:
// Newton then converges and returns whichever of t-1, t, t+1 has the sqrt
// price closest to sqrtPrice, which may be the tick just above it.
// It derives an initial guess from fixedpoint.Ln of the price (see
// initialTickGuess); the guess does not come from the price's bit length
// or from a bisection. It refines with true Newton iteration — f(t) =
// sqrt_price_from_tick(t) - p, f'(t) by central difference, at most 10
// steps — and falls back to binary search over the full tick range if
// Newton fails to converge within its step budget or walks outside
// [MinTick, MaxTick].
func TickFromSqrtPrice(sqrtPrice bignum.U256) (int32, error) {
	if sqrtPrice.LessThan(MinSqrtRatio) || sqrtPrice.GreaterThan(MaxSqrtRatio) {
		return 0, ammerrors.New(opTickFromSqrtPrice, ammerrors.InvalidInput,
			"sqrt price out of [MinSqrtRatio, MaxSqrtRatio] range", sqrtPrice)
	}

	guess, err := initialTickGuess(sqrtPrice)
	if err == nil {
		if tick, err := newtonRefine(guess, sqrtPrice); err == nil {
			return tick, nil
		}
	}
	return binarySearchTick(sqrtPrice)
}

// initialTickGuess approximates tick = 2 * log_1.0001(sqrtPrice / 2^96) using
// the fixed-point natural log: tick ~= 2*ln(sqrtPrice/2^96) / ln(1.0001).
// This is a guess only, refined (or discarded in favor of a guaranteed-exact
// binary search) by the caller; it need not be exact, only close.
func initialTickGuess(sqrtPrice bignum.U256) (int32, error) {
	ratio, err := bignum.MulDiv(opTickFromSqrtPrice, sqrtPrice, guessScale, q96AtTickZero)
	if err != nil {
		return 0, err
	}
	if ratio.IsZero() {
		return MinTick, nil
	}
	lnRatio, err := fixedpoint.Ln(opTickFromSqrtPrice, ratio, guessScale)
	if err != nil {
		return 0, err
	}
	doubled, err := lnRatio.Magnitude.CheckedMul(opTickFromSqrtPrice, bignum.U256FromUint64(2))
	if err != nil {
		return 0, err
	}
	quotient, err := doubled.CheckedDiv(opTickFromSqrtPrice, ln1_0001AtGuessScale)
	if err != nil {
		return 0, err
	}
	tick := int32(quotient.BigInt().Int64())
	if lnRatio.Negative {
		tick = -tick
	}
	return clampTick(tick), nil
}

func clampTick(t int32) int32 {
	if t < MinTick {
		return MinTick
	}
	if t > MaxTick {
		return MaxTick
	}
	return t
}

// newtonRefine applies spec §4.3 step 3-5 starting from guess: the update
// t <- t - f(t)/f'(t) with f(t) = sqrt_price_from_tick(t) - p and f'(t) by
// central difference (sqrt_price(t+1) - sqrt_price(t-1))/2, for at most 10
// iterations, converging once |f(t)| < p/1e9. On convergence it tests
// t-1, t, t+1 and returns whichever has the sqrt price closest to p. Both
// f and f' are computed in signed big.Int arithmetic since the difference
// of two non-negative sqrt prices can itself be negative; this is purely a
// guess-refinement step, never part of the checked-arithmetic hot path.
func newtonRefine(guess int32, sqrtPrice bignum.U256) (int32, error) {
	const maxIterations = 10

	p := sqrtPrice.BigInt()
	threshold := new(big.Int).Div(p, big.NewInt(1_000_000_000))
	if threshold.Sign() == 0 {
		threshold = big.NewInt(1)
	}

	t := guess
	for i := 0; i < maxIterations; i++ {
		if t < MinTick || t > MaxTick {
			return 0, ammerrors.New(opTickFromSqrtPrice, ammerrors.NonConvergence,
				"newton iterate left [MinTick, MaxTick]", sqrtPrice)
		}

		ft, err := signedPriceDiff(t, p)
		if err != nil {
			return 0, err
		}
		if new(big.Int).Abs(ft).Cmp(threshold) < 0 {
			return disambiguate(t, p)
		}

		if t-1 < MinTick || t+1 > MaxTick {
			return 0, ammerrors.New(opTickFromSqrtPrice, ammerrors.NonConvergence,
				"newton derivative window left [MinTick, MaxTick]", sqrtPrice)
		}
		priceLo, err := SqrtPriceFromTick(t - 1)
		if err != nil {
			return 0, err
		}
		priceHi, err := SqrtPriceFromTick(t + 1)
		if err != nil {
			return 0, err
		}
		derivative := new(big.Int).Sub(priceHi.BigInt(), priceLo.BigInt())
		derivative.Div(derivative, big.NewInt(2))
		if derivative.Sign() == 0 {
			return 0, ammerrors.New(opTickFromSqrtPrice, ammerrors.NonConvergence,
				"newton derivative vanished", sqrtPrice)
		}

		step := new(big.Int).Quo(ft, derivative)
		if step.Sign() == 0 {
			// f rounds to a sub-one-tick step; nudge toward the root's sign.
			if ft.Sign() > 0 {
				step = big.NewInt(1)
			} else {
				step = big.NewInt(-1)
			}
		}
		t -= int32(step.Int64())
	}
	return 0, ammerrors.New(opTickFromSqrtPrice, ammerrors.NonConvergence,
		"newton refinement did not converge within 10 iterations", sqrtPrice)
}

// signedPriceDiff returns sqrt_price_from_tick(t) - p as a signed big.Int.
func signedPriceDiff(t int32, p *big.Int) (*big.Int, error) {
	price, err := SqrtPriceFromTick(t)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(price.BigInt(), p), nil
}

// disambiguate implements spec §4.3 step 5: once Newton has converged near
// t, test t-1, t, t+1 and return whichever has the sqrt price closest to p.
func disambiguate(t int32, p *big.Int) (int32, error) {
	best := t
	var bestDist *big.Int
	for _, candidate := range []int32{t - 1, t, t + 1} {
		if candidate < MinTick || candidate > MaxTick {
			continue
		}
		diff, err := signedPriceDiff(candidate, p)
		if err != nil {
			return 0, err
		}
		dist := new(big.Int).Abs(diff)
		if bestDist == nil || dist.Cmp(bestDist) < 0 {
			bestDist = dist
			best = candidate
		}
	}
	return best, nil
}

// binarySearchTick is the guaranteed-terminating fallback: a plain binary
// search over [MinTick, MaxTick] using SqrtPriceFromTick as the monotonic
// comparator. At most ~21 iterations for the full tick range.
func binarySearchTick(sqrtPrice bignum.U256) (int32, error) {
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		midPrice, err := SqrtPriceFromTick(mid)
		if err != nil {
			return 0, err
		}
		if midPrice.LessOrEqual(sqrtPrice) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
