// Package fixedpoint implements the transcendental approximations the AMM
// core needs — ln, exp, log2, and fractional power — operating entirely on
// fixed-point U256 magnitudes with an explicit sign bit (spec §4.2). None of
// these routines are IEEE-accurate; they are deterministic, monotonic where
// a caller depends on monotonicity (documented per call site), and bounded
// in error the way §4.2 specifies.
package fixedpoint

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

// internalPrecision is the fixed-point scale the package's own high-precision
// constants (ln2, e) are stored at; callers supply their own `scale`
// (typically 10^18 for weighted-pool math) and every constant is rescaled to
// it via mul_div before use, so the approximation quality never depends on
// the caller's chosen scale being a power of ten or a power of two.
var internalPrecision = bignum.MustU256FromDecimal("1000000000000000000000000000000000000") // 1e36

// ln2At36 is floor(ln(2) * 1e36).
var ln2At36 = bignum.MustU256FromDecimal("693147180559945309417232121458176568")

// eAt36 is floor(e * 1e36).
var eAt36 = bignum.MustU256FromDecimal("2718281828459045235360287471352662497")

// rescale converts a constant stored at internalPrecision to the caller's
// scale.
func rescale(op string, constantAt36 bignum.U256, scale bignum.U256) (bignum.U256, error) {
	return bignum.MulDiv(op, constantAt36, scale, internalPrecision)
}

// Signed is a fixed-point value with explicit sign, the representation §4.2
// mandates for ln/exp/pow_frac (value + sign-bit, not two's complement).
type Signed struct {
	Magnitude bignum.U256
	Negative  bool
}

// zeroSigned is the signed representation of 0 (sign is conventionally
// positive).
var zeroSigned = Signed{}

// lnRefinementSteps is the number of geometric-mean halving steps (spec
// §4.2's "repeated halving", applied to the *argument* rather than just the
// exponent range) taken before the first-order correction is applied. Each
// step replaces v with sqrt(v*scale), which satisfies the identity
// ln(sqrt(v*scale)/scale) = ln(v/scale)/2 exactly — so after n steps the
// residual y = v/scale - 1 has shrunk geometrically and the first-order
// ln(1+y) ≈ y correction (spec's literal formula) is applied to a residual
// small enough that its own error is negligible, then scaled back up by
// 2^n. This keeps the spec's "first-order ln(1+y)≈y correction" as the
// actual final step while meeting the ~10^-3 error bound over the full
// normalized range, not just very close to 1.
const lnRefinementSteps = 10

// Ln computes |ln(x/scale)| and its sign, where x is a fixed-point value at
// the given scale (scale represents 1.0). Fails with InvalidInput if x is
// zero (ln is undefined) or scale is zero.
//
// Strategy (spec §4.2): normalize x into [scale, 2*scale) by repeated
// halving or doubling, accumulating k*ln2 for the k steps taken; then add a
// first-order ln(1+y) ≈ y correction for the remaining fraction y = (v -
// scale)/scale, after first shrinking that residual via lnRefinementSteps
// geometric-mean steps. An input below scale is first inverted (ln(x) =
// -ln(scale^2/x)), so the result is never the difference of two nearly
// equal terms. Error is bounded to roughly 10^-3 of the result for
// inputs in [2^-30, 2^30] of the represented real value, per spec.
func Ln(op string, x, scale bignum.U256) (Signed, error) {
	if scale.IsZero() {
		return Signed{}, ammerrors.New(op, ammerrors.InvalidInput, "scale must be non-zero")
	}
	if x.IsZero() {
		return Signed{}, ammerrors.New(op, ammerrors.InvalidInput, "ln(0) is undefined", x)
	}
	if x.LessThan(scale) {
		inverse, err := bignum.MulDiv(op, scale, scale, x)
		if err != nil {
			return Signed{}, err
		}
		positive, err := Ln(op, inverse, scale)
		if err != nil {
			return Signed{}, err
		}
		return Signed{Magnitude: positive.Magnitude, Negative: !positive.Magnitude.IsZero()}, nil
	}

	ln2, err := rescale(op, ln2At36, scale)
	if err != nil {
		return Signed{}, err
	}

	twoScale, err := scale.CheckedMul(op, bignum.U256FromUint64(2))
	if err != nil {
		return Signed{}, err
	}

	v := x
	k := 0
	const maxSteps = 1024
	for i := 0; i < maxSteps && v.GreaterOrEqual(twoScale); i++ {
		v = v.Rsh(1)
		k++
	}
	for i := 0; i < maxSteps && v.LessThan(scale); i++ {
		doubled, err := v.CheckedMul(op, bignum.U256FromUint64(2))
		if err != nil {
			return Signed{}, err
		}
		v = doubled
		k--
	}

	// v is now in [scale, 2*scale); ln(v/scale) is in [0, ln2).
	r, err := lnNearOne(op, v, scale)
	if err != nil {
		return Signed{}, err
	}

	if k >= 0 {
		term, err := ln2.CheckedMul(op, bignum.U256FromUint64(uint64(k)))
		if err != nil {
			return Signed{}, err
		}
		magnitude, err := term.CheckedAdd(op, r)
		if err != nil {
			return Signed{}, err
		}
		return Signed{Magnitude: magnitude, Negative: false}, nil
	}

	term, err := ln2.CheckedMul(op, bignum.U256FromUint64(uint64(-k)))
	if err != nil {
		return Signed{}, err
	}
	if term.GreaterOrEqual(r) {
		magnitude, err := term.CheckedSub(op, r)
		if err != nil {
			return Signed{}, err
		}
		if magnitude.IsZero() {
			return zeroSigned, nil
		}
		return Signed{Magnitude: magnitude, Negative: true}, nil
	}
	magnitude, err := r.CheckedSub(op, term)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Magnitude: magnitude, Negative: false}, nil
}

// lnNearOne computes ln(v/scale) for v in [scale, 2*scale) by repeated
// geometric halving (v <- sqrt(v*scale), which halves ln(v/scale) exactly)
// followed by the spec's first-order ln(1+y) ≈ y correction on the shrunk
// residual, scaled back up by 2^lnRefinementSteps. Returns a non-negative
// magnitude (ln(v/scale) >= 0 since v >= scale).
func lnNearOne(op string, v, scale bignum.U256) (bignum.U256, error) {
	for i := 0; i < lnRefinementSteps; i++ {
		product, err := v.CheckedMul(op, scale)
		if err != nil {
			return bignum.U256{}, err
		}
		next, err := bignum.Sqrt(op, product)
		if err != nil {
			return bignum.U256{}, err
		}
		v = next
	}
	y, err := v.CheckedSub(op, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	return y.CheckedMul(op, bignum.U256FromUint64(1<<lnRefinementSteps))
}

// maxExpMultiplier bounds the positive argument exp() accepts, expressed as a
// multiplier of scale (spec §4.2: "fails with overflow for v > 50*scale").
const maxExpMultiplier = 50

// Exp computes exp(v/scale) at the given scale, where v carries an explicit
// sign (Signed). Saturates to 0 for a sufficiently large negative argument
// (mirroring real exp's decay to 0, and matching the "saturating" carve-out
// in spec §9 — this is one of the few places saturation is intentional).
// Fails with Overflow if v is positive and exceeds 50*scale.
//
// Strategy: split v into an integer part n (multiples of scale) and a
// fractional remainder frac in [0, scale), so exp(v/scale) =
// exp(1)^n * exp(frac/scale). exp(1)^n is computed by checked
// exponentiation-by-squaring (powScaled) on the rescaled constant e;
// exp(frac/scale) uses a degree-3 Taylor series, per spec §4.2.
func Exp(op string, v Signed, scale bignum.U256) (bignum.U256, error) {
	if scale.IsZero() {
		return bignum.U256{}, ammerrors.New(op, ammerrors.InvalidInput, "scale must be non-zero")
	}

	if v.Negative {
		maxNegative, err := scale.CheckedMul(op, bignum.U256FromUint64(maxExpMultiplier))
		if err == nil && v.Magnitude.GreaterThan(maxNegative) {
			// Saturates to 0 for large-negative arguments: exp(-infinity) = 0.
			return bignum.ZeroU256(), nil
		}
	} else {
		maxPositive, err := scale.CheckedMul(op, bignum.U256FromUint64(maxExpMultiplier))
		if err != nil {
			return bignum.U256{}, err
		}
		if v.Magnitude.GreaterThan(maxPositive) {
			return bignum.U256{}, ammerrors.New(op, ammerrors.Overflow, "exp argument exceeds 50*scale", v.Magnitude)
		}
	}

	n, err := v.Magnitude.CheckedDiv(op, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	nScale, err := n.CheckedMul(op, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	frac, err := v.Magnitude.CheckedSub(op, nScale)
	if err != nil {
		return bignum.U256{}, err
	}

	// expFrac = exp(frac/scale) via Taylor: 1 + frac/scale + frac^2/(2*scale^2) + frac^3/(6*scale^3)
	expFrac, err := taylorExpDegree3(op, frac, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	if n.IsZero() {
		if v.Negative {
			// exp(-frac/scale) = 1 / exp(frac/scale)
			return bignum.MulDiv(op, scale, scale, expFrac)
		}
		return expFrac, nil
	}

	eScaled, err := rescale(op, eAt36, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	nUint := n.BigInt()
	if !nUint.IsUint64() {
		return bignum.U256{}, ammerrors.New(op, ammerrors.Overflow, "integer part of exp argument is absurdly large", n)
	}
	// powScaled keeps every intermediate expressed at a single factor of
	// scale (dividing out the extra factor at each squaring step), unlike a
	// raw PowChecked(eScaled, n) which would pick up a spurious scale^n.
	ePowN, err := powScaled(op, eScaled, nUint.Uint64(), scale)
	if err != nil {
		return bignum.U256{}, err
	}

	combined, err := bignum.MulDiv(op, ePowN, expFrac, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	if v.Negative {
		return bignum.MulDiv(op, scale, scale, combined)
	}
	return combined, nil
}

// powScaled computes base^exp where base is itself expressed at the given
// fixed-point scale (so base represents base_real = base/scale), returning
// a result expressed at the same scale. Each squaring step divides out one
// extra factor of scale via mul_div so the result never picks up spurious
// scale factors the way a naive PowChecked(base, exp) would.
func powScaled(op string, base bignum.U256, exp uint64, scale bignum.U256) (bignum.U256, error) {
	result := scale // scale represents 1.0
	b := base
	e := exp
	for e > 0 {
		if e&1 == 1 {
			var err error
			result, err = bignum.MulDiv(op, result, b, scale)
			if err != nil {
				return bignum.U256{}, err
			}
		}
		e >>= 1
		if e == 0 {
			break
		}
		var err error
		b, err = bignum.MulDiv(op, b, b, scale)
		if err != nil {
			return bignum.U256{}, err
		}
	}
	return result, nil
}

// taylorExpDegree3 computes exp(frac/scale) for 0 <= frac < scale using a
// degree-3 Taylor expansion around 0: 1 + t + t^2/2 + t^3/6 where t =
// frac/scale, all carried out in fixed point at the caller's scale.
func taylorExpDegree3(op string, frac, scale bignum.U256) (bignum.U256, error) {
	t := frac
	t2, err := bignum.MulDiv(op, t, t, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	t3, err := bignum.MulDiv(op, t2, t, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	t2Half := t2.Rsh(1)
	t3Sixth, err := t3.CheckedDiv(op, bignum.U256FromUint64(6))
	if err != nil {
		return bignum.U256{}, err
	}

	sum, err := scale.CheckedAdd(op, t)
	if err != nil {
		return bignum.U256{}, err
	}
	sum, err = sum.CheckedAdd(op, t2Half)
	if err != nil {
		return bignum.U256{}, err
	}
	sum, err = sum.CheckedAdd(op, t3Sixth)
	if err != nil {
		return bignum.U256{}, err
	}
	return sum, nil
}

// Log2 computes |log2(x/scale)| and its sign via Ln, using the identity
// log2(z) = ln(z) / ln(2).
func Log2(op string, x, scale bignum.U256) (Signed, error) {
	lnX, err := Ln(op, x, scale)
	if err != nil {
		return Signed{}, err
	}
	ln2, err := rescale(op, ln2At36, scale)
	if err != nil {
		return Signed{}, err
	}
	magnitude, err := bignum.MulDiv(op, lnX.Magnitude, scale, ln2)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Magnitude: magnitude, Negative: lnX.Negative && !magnitude.IsZero()}, nil
}

// PowFrac computes base^(intExp + fracExp/scale) at the given scale, i.e.
// exp((intExp + fracExp/scale) * ln(base)), per spec §4.2. Used only by the
// weighted-pool swap and invariant formulas, where the exponent is a ratio
// of token weights and therefore rarely an integer.
//
// If the exp() step overflows (only possible for pathological weight
// ratios or deeply out-of-range balances), PowFrac falls back to the
// integer-only pow_checked(base, intExp) — ignoring the fractional part —
// so weighted-pool math degrades gracefully instead of failing the caller
// outright, per spec §4.2's explicit fallback requirement.
func PowFrac(op string, base bignum.U256, intExp int64, fracExp, scale bignum.U256) (bignum.U256, error) {
	if scale.IsZero() {
		return bignum.U256{}, ammerrors.New(op, ammerrors.InvalidInput, "scale must be non-zero")
	}
	if base.IsZero() {
		return bignum.ZeroU256(), nil
	}

	lnBase, err := Ln(op, base, scale)
	if err != nil {
		return bignum.U256{}, err
	}

	// exponent = intExp*scale + fracExp, signed.
	intExpAbs := intExp
	intNeg := false
	if intExpAbs < 0 {
		intNeg = true
		intExpAbs = -intExpAbs
	}
	intTerm, err := scale.CheckedMul(op, bignum.U256FromUint64(uint64(intExpAbs)))
	if err != nil {
		return bignum.U256{}, err
	}

	var exponentMag bignum.U256
	exponentNeg := intNeg
	if intNeg {
		// exponent = -intTerm + fracExp
		if fracExp.GreaterOrEqual(intTerm) {
			exponentMag, err = fracExp.CheckedSub(op, intTerm)
			exponentNeg = false
		} else {
			exponentMag, err = intTerm.CheckedSub(op, fracExp)
		}
	} else {
		exponentMag, err = intTerm.CheckedAdd(op, fracExp)
	}
	if err != nil {
		return bignum.U256{}, err
	}

	// v = exponent * ln(base), signed product.
	vMag, err := bignum.MulDiv(op, exponentMag, lnBase.Magnitude, scale)
	if err != nil {
		return bignum.U256{}, err
	}
	vNeg := exponentNeg != lnBase.Negative && !vMag.IsZero()

	result, err := Exp(op, Signed{Magnitude: vMag, Negative: vNeg}, scale)
	if err != nil && ammerrors.IsKind(err, ammerrors.Overflow) {
		if intNeg {
			return bignum.U256{}, err
		}
		return bignum.PowChecked(op, base, uint64(intExp))
	}
	return result, err
}
