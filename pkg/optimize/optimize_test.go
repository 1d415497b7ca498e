package optimize

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

// triangularObjective peaks at peak and falls off linearly on both sides,
// saturating at zero outside [lo, hi] — a minimal unimodal, non-negative
// stand-in for a real sandwich-profit curve.
func triangularObjective(lo, peak, hi bignum.U256) ObjectiveFunc {
	return func(x bignum.U256) (bignum.U256, error) {
		if x.LessOrEqual(lo) || x.GreaterOrEqual(hi) {
			return bignum.ZeroU256(), nil
		}
		if x.LessOrEqual(peak) {
			return x.CheckedSub("test", lo)
		}
		return hi.CheckedSub("test", x)
	}
}

func TestGoldenSectionFindsPeakWithinTolerance(t *testing.T) {
	lo, peak, hi := bignum.ZeroU256(), u("500000"), u("1000000")
	got, err := GoldenSection(lo, hi, triangularObjective(lo, peak, hi))
	if err != nil {
		t.Fatal(err)
	}
	tolerance := u("100") // hi/10000
	if bignum.AbsDiff(got, peak).GreaterThan(tolerance.SaturatingMul(u("50"))) {
		t.Errorf("golden section returned %s, want near peak %s", got, peak)
	}
}

func TestGoldenSectionBracketed(t *testing.T) {
	lo, peak, hi := u("1000"), u("500000"), u("1000000")
	got, err := GoldenSection(lo, hi, triangularObjective(lo, peak, hi))
	if err != nil {
		t.Fatal(err)
	}
	if got.LessThan(lo) || got.GreaterThan(hi) {
		t.Errorf("golden section result %s outside bracket [%s, %s]", got, lo, hi)
	}
}

func TestGoldenSectionRejectsEmptyBracket(t *testing.T) {
	_, err := GoldenSection(u("100"), u("100"), func(bignum.U256) (bignum.U256, error) { return bignum.ZeroU256(), nil })
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestBrentFindsPeakWithinTolerance(t *testing.T) {
	lo, peak, hi := bignum.ZeroU256(), u("500000"), u("1000000")
	got, err := Brent(lo, hi, triangularObjective(lo, peak, hi))
	if err != nil {
		t.Fatal(err)
	}
	tolerance := u("100") // hi/10000
	if bignum.AbsDiff(got, peak).GreaterThan(tolerance.SaturatingMul(u("50"))) {
		t.Errorf("brent returned %s, want near peak %s", got, peak)
	}
}

func TestBrentBracketed(t *testing.T) {
	lo, peak, hi := u("1000"), u("500000"), u("1000000")
	got, err := Brent(lo, hi, triangularObjective(lo, peak, hi))
	if err != nil {
		t.Fatal(err)
	}
	if got.LessThan(lo) || got.GreaterThan(hi) {
		t.Errorf("brent result %s outside bracket [%s, %s]", got, lo, hi)
	}
}

func TestBrentRejectsEmptyBracket(t *testing.T) {
	_, err := Brent(u("100"), u("100"), func(bignum.U256) (bignum.U256, error) { return bignum.ZeroU256(), nil })
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestGoldenRatioConstant(t *testing.T) {
	// 1/phi ~= 0.6180339887498949; pinned to at least 9 significant digits.
	want := u("618033988749894848")
	if !phiInv.Equal(want) {
		t.Errorf("phiInv = %s, want %s", phiInv, want)
	}
}

func TestOptimiserImprovesOnMidpoint(t *testing.T) {
	lo, peak, hi := bignum.ZeroU256(), u("900000"), u("1000000")
	obj := triangularObjective(lo, peak, hi)

	mid, err := lo.CheckedAdd("test", hi)
	if err != nil {
		t.Fatal(err)
	}
	mid, err = mid.CheckedDiv("test", bignum.U256FromUint64(2))
	if err != nil {
		t.Fatal(err)
	}
	fMid, err := obj(mid)
	if err != nil {
		t.Fatal(err)
	}

	got, err := GoldenSection(lo, hi, obj)
	if err != nil {
		t.Fatal(err)
	}
	fGot, err := obj(got)
	if err != nil {
		t.Fatal(err)
	}
	if fGot.LessThan(fMid) {
		t.Errorf("golden section point profit %s worse than midpoint profit %s", fGot, fMid)
	}
}
