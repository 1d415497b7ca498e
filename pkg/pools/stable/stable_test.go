package stable

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

func TestInvariantDTwoTokenScenario(t *testing.T) {
	balances := []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")}
	a := u("100")
	d, err := InvariantD(balances, a)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := u("1900000000000000000000"), u("2100000000000000000000")
	if d.LessThan(lo) || d.GreaterThan(hi) {
		t.Errorf("D = %s, want in [%s, %s]", d, lo, hi)
	}
}

func TestInvariantDThreeTokenScenario(t *testing.T) {
	balances := []bignum.U256{
		u("1000000000000000000000"),
		u("1000000000000000000000"),
		u("1000000000000000000000"),
	}
	a := u("100")
	d, err := InvariantD(balances, a)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := u("2800000000000000000000"), u("3200000000000000000000")
	if d.LessThan(lo) || d.GreaterThan(hi) {
		t.Errorf("D = %s, want in [%s, %s]", d, lo, hi)
	}
}

func TestInvariantDZeroBalance(t *testing.T) {
	balances := []bignum.U256{u("1000000000000000000000"), bignum.ZeroU256()}
	d, err := InvariantD(balances, u("100"))
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsZero() {
		t.Errorf("expected D=0 with a zero balance, got %s", d)
	}
}

func TestAmountOutBasicSwap(t *testing.T) {
	s := State{
		Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")},
		A:        u("100"),
		FeeBps:   4,
	}
	amountIn := u("1000000000000000000")
	got, err := AmountOut(s, 0, 1, amountIn)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsZero() {
		t.Errorf("expected nonzero output")
	}
	if got.GreaterThan(amountIn) {
		t.Errorf("output %s should not exceed input %s for a near-balanced stable pool", got, amountIn)
	}
}

func TestInvariantHoldsAcrossSwap(t *testing.T) {
	s := State{
		Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000"), u("1000000000000000000000")},
		A:        u("200"),
		FeeBps:   4,
	}
	dBefore, err := InvariantD(s.Balances, s.A)
	if err != nil {
		t.Fatal(err)
	}
	newState, amountOut, err := PostSwapState(s, 0, 2, u("5000000000000000000"))
	if err != nil {
		t.Fatal(err)
	}
	if amountOut.IsZero() {
		t.Errorf("expected nonzero output")
	}
	dAfter, err := InvariantD(newState.Balances, newState.A)
	if err != nil {
		t.Fatal(err)
	}
	if bignum.AbsDiff(dBefore, dAfter).GreaterThan(u("1000000000000000")) {
		t.Errorf("D drifted too much: before=%s after=%s", dBefore, dAfter)
	}
}

func TestAmountOutSameTokenRejected(t *testing.T) {
	s := State{
		Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")},
		A:        u("100"),
		FeeBps:   4,
	}
	_, err := AmountOut(s, 0, 0, u("1"))
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestAmountOutZeroInputReturnsZero(t *testing.T) {
	s := State{
		Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")},
		A:        u("100"),
		FeeBps:   4,
	}
	got, err := AmountOut(s, 0, 1, bignum.ZeroU256())
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero output for zero input, got %s", got)
	}
}

func TestAmountOutIndexOutOfBounds(t *testing.T) {
	s := State{
		Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")},
		A:        u("100"),
		FeeBps:   4,
	}
	_, err := AmountOut(s, 0, 5, u("1"))
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFeeMonotonicity(t *testing.T) {
	amountIn := u("10000000000000000000")
	var prev bignum.U256
	for i, fee := range []uint32{0, 4, 30, 100} {
		s := State{
			Balances: []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")},
			A:        u("100"),
			FeeBps:   fee,
		}
		got, err := AmountOut(s, 0, 1, amountIn)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && got.GreaterThan(prev) {
			t.Errorf("amount_out should be non-increasing in fee_bps: fee=%d got %s > prev %s", fee, got, prev)
		}
		prev = got
	}
}
