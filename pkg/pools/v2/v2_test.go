package v2

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

func TestAmountOutScenario(t *testing.T) {
	s := State{
		ReserveIn:  u("100000000"),
		ReserveOut: u("50000000"),
		FeeBps:     30,
	}
	got, err := AmountOut(s, u("1000000"))
	if err != nil {
		t.Fatal(err)
	}
	// floor(50_000_000 * 1_000_000 * 9970 / (100_000_000*10000 + 1_000_000*9970))
	numerator := u("50000000").BigInt()
	numerator.Mul(numerator, u("1000000").BigInt())
	numerator.Mul(numerator, u("9970").BigInt())
	denominator := u("100000000").BigInt()
	denominator.Mul(denominator, u("10000").BigInt())
	tmp := u("1000000").BigInt()
	tmp.Mul(tmp, u("9970").BigInt())
	denominator.Add(denominator, tmp)
	numerator.Quo(numerator, denominator)
	want := bignum.MustU256FromDecimal(numerator.String())

	if !got.Equal(want) {
		t.Errorf("amount_out = %s, want %s", got, want)
	}
	if got.IsZero() || got.GreaterOrEqual(u("500000")) {
		t.Errorf("amount_out %s should be in (0, 500000)", got)
	}
}

func TestPriceImpactScenario(t *testing.T) {
	s := State{ReserveIn: u("100000000"), ReserveOut: u("50000000"), FeeBps: 30}
	got, err := PriceImpact(s, u("1000000"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("price_impact = %d, want 100", got)
	}
}

func TestAmountOutZeroInput(t *testing.T) {
	s := State{ReserveIn: u("100000000"), ReserveOut: u("50000000"), FeeBps: 30}
	_, err := AmountOut(s, bignum.ZeroU256())
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestAmountOutZeroReserve(t *testing.T) {
	s := State{ReserveIn: bignum.ZeroU256(), ReserveOut: u("50000000"), FeeBps: 30}
	_, err := AmountOut(s, u("1000000"))
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestConservation(t *testing.T) {
	s := State{ReserveIn: u("100000000"), ReserveOut: u("50000000"), FeeBps: 30}
	newState, amountOut, err := PostSwapState(s, u("1000000"))
	if err != nil {
		t.Fatal(err)
	}
	if amountOut.GreaterOrEqual(s.ReserveOut) {
		t.Errorf("amount_out %s must be < reserve_out %s", amountOut, s.ReserveOut)
	}
	wantIn, _ := s.ReserveIn.CheckedAdd("test", u("1000000"))
	if !newState.ReserveIn.Equal(wantIn) {
		t.Errorf("reserve_in' = %s, want %s", newState.ReserveIn, wantIn)
	}
	wantOut, _ := s.ReserveOut.CheckedSub("test", amountOut)
	if !newState.ReserveOut.Equal(wantOut) {
		t.Errorf("reserve_out' = %s, want %s", newState.ReserveOut, wantOut)
	}
}

func TestFeeMonotonicity(t *testing.T) {
	base := State{ReserveIn: u("100000000"), ReserveOut: u("50000000")}
	amountIn := u("1000000")
	var prev bignum.U256
	for i, fee := range []uint32{0, 10, 30, 100, 1000} {
		s := base
		s.FeeBps = fee
		got, err := AmountOut(s, amountIn)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && got.GreaterThan(prev) {
			t.Errorf("amount_out should be non-increasing in fee_bps: fee=%d got %s > prev %s", fee, got, prev)
		}
		prev = got
	}
}

func TestDepthMonotonicity(t *testing.T) {
	amountIn := u("1000000")
	var prev bignum.U256
	for i, reserveOut := range []string{"50000000", "60000000", "80000000", "100000000"} {
		s := State{ReserveIn: u("100000000"), ReserveOut: u(reserveOut), FeeBps: 30}
		got, err := AmountOut(s, amountIn)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && got.LessThan(prev) {
			t.Errorf("amount_out should be non-decreasing in reserve_out: reserve_out=%s got %s < prev %s", reserveOut, got, prev)
		}
		prev = got
	}
}
