// Package optimize implements pure-integer univariate search over a
// unimodal, non-negative objective — in this module, always a sandwich
// profit curve produced by pkg/sandwich (spec §4.6). Both searches are
// allocation-free on the hot path and bounded by a fixed iteration cap.
package optimize

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

// ObjectiveFunc is a pure, unsigned univariate function of a single
// U256-valued parameter — typically sandwich.ProfitFunc's return value.
type ObjectiveFunc func(x bignum.U256) (bignum.U256, error)

// phiInvScale is the Q1e18 fixed-point scale 1/φ below is expressed at.
var phiInvScale = bignum.MustU256FromDecimal("1000000000000000000")

// phiInv is 1/φ at Q1e18, good to 18 significant digits (spec §4.6 requires
// at least 9).
var phiInv = bignum.MustU256FromDecimal("618033988749894848")

const goldenSectionMinIterations = 30
const goldenSectionMaxIterations = 50

const opGoldenSection = "optimize.golden_section"

func goldenOffset(op string, intervalWidth bignum.U256) (bignum.U256, error) {
	scaled, err := intervalWidth.CheckedMul(op, phiInv)
	if err != nil {
		return bignum.U256{}, err
	}
	return scaled.CheckedDiv(op, phiInvScale)
}

// GoldenSection searches [aMin, victimAmount] for the point maximizing f,
// using the classic four-point bracketing scheme (spec §4.6). Tolerance is
// max(1, victimAmount/10000); the search runs at least 30 and at most 50
// iterations, whichever bound is hit first.
func GoldenSection(aMin, victimAmount bignum.U256, f ObjectiveFunc) (bignum.U256, error) {
	if aMin.GreaterOrEqual(victimAmount) {
		return bignum.U256{}, ammerrors.New(opGoldenSection, ammerrors.InvalidInput, "a_min must be less than victim_amount", aMin, victimAmount)
	}

	tolerance, err := victimAmount.CheckedDiv(opGoldenSection, bignum.U256FromUint64(10000))
	if err != nil {
		return bignum.U256{}, err
	}
	if tolerance.IsZero() {
		tolerance = bignum.OneU256()
	}

	a, b := aMin, victimAmount

	bMinusA, err := b.CheckedSub(opGoldenSection, a)
	if err != nil {
		return bignum.U256{}, err
	}
	offset, err := goldenOffset(opGoldenSection, bMinusA)
	if err != nil {
		return bignum.U256{}, err
	}
	c, err := b.CheckedSub(opGoldenSection, offset)
	if err != nil {
		return bignum.U256{}, err
	}
	d, err := a.CheckedAdd(opGoldenSection, offset)
	if err != nil {
		return bignum.U256{}, err
	}

	fc, err := f(c)
	if err != nil {
		return bignum.U256{}, err
	}
	fd, err := f(d)
	if err != nil {
		return bignum.U256{}, err
	}

	for iter := 0; iter < goldenSectionMaxIterations; iter++ {
		width, err := b.CheckedSub(opGoldenSection, a)
		if err != nil {
			return bignum.U256{}, err
		}
		if iter >= goldenSectionMinIterations && width.LessThan(tolerance) {
			break
		}

		if fc.GreaterThan(fd) {
			b, d, fd = d, c, fc
			bMinusA, err = b.CheckedSub(opGoldenSection, a)
			if err != nil {
				return bignum.U256{}, err
			}
			offset, err = goldenOffset(opGoldenSection, bMinusA)
			if err != nil {
				return bignum.U256{}, err
			}
			c, err = b.CheckedSub(opGoldenSection, offset)
			if err != nil {
				return bignum.U256{}, err
			}
			fc, err = f(c)
			if err != nil {
				return bignum.U256{}, err
			}
		} else {
			a, c, fc = c, d, fd
			bMinusA, err = b.CheckedSub(opGoldenSection, a)
			if err != nil {
				return bignum.U256{}, err
			}
			offset, err = goldenOffset(opGoldenSection, bMinusA)
			if err != nil {
				return bignum.U256{}, err
			}
			d, err = a.CheckedAdd(opGoldenSection, offset)
			if err != nil {
				return bignum.U256{}, err
			}
			fd, err = f(d)
			if err != nil {
				return bignum.U256{}, err
			}
		}
	}

	sum, err := a.CheckedAdd(opGoldenSection, b)
	if err != nil {
		return bignum.U256{}, err
	}
	return sum.CheckedDiv(opGoldenSection, bignum.U256FromUint64(2))
}

const brentMaxIterations = 50
const brentGoldenStepNumerator = uint64(382)
const brentGoldenStepDenominator = uint64(1000)

const opBrent = "optimize.brent"

// Brent searches [aMin, victimAmount] combining a golden-section step
// fallback with an opportunistic parabolic interpolation step accepted only
// when it both lands inside the bracket and shortens the previous step by
// more than half (spec §4.6, V3-only in the original source, generalized
// here to any ObjectiveFunc). On reaching the iteration cap it returns the
// best point observed rather than an error.
func Brent(aMin, victimAmount bignum.U256, f ObjectiveFunc) (bignum.U256, error) {
	if aMin.GreaterOrEqual(victimAmount) {
		return bignum.U256{}, ammerrors.New(opBrent, ammerrors.InvalidInput, "a_min must be less than victim_amount", aMin, victimAmount)
	}

	a, b := aMin, victimAmount
	tolerance, err := victimAmount.CheckedDiv(opBrent, bignum.U256FromUint64(10000))
	if err != nil {
		return bignum.U256{}, err
	}
	if tolerance.IsZero() {
		tolerance = bignum.OneU256()
	}

	bMinusA, err := b.CheckedSub(opBrent, a)
	if err != nil {
		return bignum.U256{}, err
	}
	step, err := bMinusA.CheckedMul(opBrent, bignum.U256FromUint64(618))
	if err != nil {
		return bignum.U256{}, err
	}
	step, err = step.CheckedDiv(opBrent, bignum.U256FromUint64(1000))
	if err != nil {
		return bignum.U256{}, err
	}
	x, err := b.CheckedSub(opBrent, step)
	if err != nil {
		return bignum.U256{}, err
	}
	if x.LessThan(a) {
		x = a
	}
	if x.GreaterThan(b) {
		x = b
	}
	w, v := x, x

	fx, err := f(x)
	if err != nil {
		return bignum.U256{}, err
	}
	fw, fv := fx, fx

	var d, e bignum.U256 // Brent's step-size bookkeeping; zero means "no step yet"

	for iter := 0; iter < brentMaxIterations; iter++ {
		if iter > 0 {
			width, err := b.CheckedSub(opBrent, a)
			if err != nil {
				return bignum.U256{}, err
			}
			twoTol, err := tolerance.CheckedMul(opBrent, bignum.U256FromUint64(2))
			if err != nil {
				return bignum.U256{}, err
			}
			if width.LessOrEqual(twoTol) {
				return x, nil
			}
		}

		midpoint, err := a.CheckedAdd(opBrent, b)
		if err != nil {
			return bignum.U256{}, err
		}
		midpoint, err = midpoint.CheckedDiv(opBrent, bignum.U256FromUint64(2))
		if err != nil {
			return bignum.U256{}, err
		}
		searchLeft := x.GreaterOrEqual(midpoint)

		useGoldenSection := true
		if e.GreaterThan(tolerance) {
			if step, ok := parabolicStep(x, w, v, fx, fw, fv, a, b, e); ok {
				d = step
				useGoldenSection = false
			}
		}

		if useGoldenSection {
			var rng bignum.U256
			if searchLeft {
				rng = x.SaturatingSub(a)
			} else {
				rng = b.SaturatingSub(x)
			}
			d, err = rng.CheckedMul(opBrent, bignum.U256FromUint64(brentGoldenStepNumerator))
			if err != nil {
				d = bignum.ZeroU256()
			} else {
				d, err = d.CheckedDiv(opBrent, bignum.U256FromUint64(brentGoldenStepDenominator))
				if err != nil {
					d = bignum.ZeroU256()
				}
			}
			e = rng
		}

		var u bignum.U256
		if d.GreaterOrEqual(tolerance) {
			if searchLeft {
				u = bignum.Max(x.SaturatingSub(d), a)
			} else {
				u = bignum.Min(x.SaturatingAdd(d), b)
			}
		} else {
			if searchLeft {
				u = bignum.Max(x.SaturatingSub(tolerance), a)
			} else {
				u = bignum.Min(x.SaturatingAdd(tolerance), b)
			}
		}

		fu, err := f(u)
		if err != nil {
			return bignum.U256{}, err
		}

		if fu.GreaterOrEqual(fx) {
			if u.GreaterOrEqual(x) {
				a = x
			} else {
				b = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u.LessThan(x) {
				a = u
			} else {
				b = u
			}
			if fu.GreaterOrEqual(fw) || w.Equal(x) {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu.GreaterOrEqual(fv) || v.Equal(x) || v.Equal(w) {
				v, fv = u, fu
			}
		}
	}

	return x, nil
}

// parabolicStep computes the Brent parabolic-interpolation step through
// (v,fv), (w,fw), (x,fx) and reports whether it is acceptable: the
// resulting point must lie within [a, b] and the step itself must be less
// than half of the previous step e.
func parabolicStep(x, w, v, fx, fw, fv, a, b, e bignum.U256) (bignum.U256, bool) {
	r := bignum.AbsDiff(x, w)
	q := bignum.AbsDiff(x, v)

	rSqFxfv := r.SaturatingMul(r).SaturatingMul(bignum.AbsDiff(fx, fv))
	qSqFxfw := q.SaturatingMul(q).SaturatingMul(bignum.AbsDiff(fx, fw))
	rFxfv := r.SaturatingMul(bignum.AbsDiff(fx, fv))
	qFxfw := q.SaturatingMul(bignum.AbsDiff(fx, fw))

	var p bignum.U256
	pSubtractsFromR := rSqFxfv.GreaterOrEqual(qSqFxfw)
	if pSubtractsFromR {
		p = rSqFxfv.SaturatingSub(qSqFxfw)
	} else {
		p = qSqFxfw.SaturatingSub(rSqFxfv)
	}

	var denominator bignum.U256
	if rFxfv.GreaterOrEqual(qFxfw) {
		denominator = rFxfv.SaturatingSub(qFxfw).SaturatingMul(bignum.U256FromUint64(2))
	} else {
		denominator = qFxfw.SaturatingSub(rFxfv).SaturatingMul(bignum.U256FromUint64(2))
	}
	if denominator.IsZero() {
		return bignum.U256{}, false
	}

	bMinusA := b.SaturatingSub(a)
	if p.GreaterOrEqual(denominator.SaturatingMul(bMinusA)) {
		return bignum.U256{}, false
	}

	step, err := p.CheckedDiv("optimize.brent.parabolic_step", denominator)
	if err != nil {
		return bignum.U256{}, false
	}
	halfE := e.Rsh(1)
	if step.GreaterOrEqual(halfE) {
		return bignum.U256{}, false
	}

	var u bignum.U256
	if pSubtractsFromR {
		u = x.SaturatingSub(step)
	} else {
		u = x.SaturatingAdd(step)
	}
	if u.LessThan(a) || u.GreaterThan(b) {
		return bignum.U256{}, false
	}

	return step, true
}
