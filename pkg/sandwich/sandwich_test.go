package sandwich

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/pools/v2"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

func v2Forward(s v2.State, amountIn bignum.U256) (v2.State, bignum.U256, error) {
	return v2.PostSwapState(s, amountIn)
}

func v2Reverse(s v2.State, amountIn bignum.U256) (v2.State, bignum.U256, error) {
	return v2.PostSwapState(s.Flipped(), amountIn)
}

func TestProfitNonNegative(t *testing.T) {
	s0 := v2.State{
		ReserveIn:  u("100000000000000000000000"),
		ReserveOut: u("100000000000000000000000"),
		FeeBps:     30,
	}
	victim := u("1000000000000000000000")
	for _, frontIn := range []bignum.U256{
		bignum.ZeroU256(),
		u("1"),
		u("1000000000000000000"),
		u("10000000000000000000"),
		u("1000000000000000000000000"),
	} {
		got, err := Profit(s0, frontIn, victim, 9, v2Forward, v2Reverse)
		if err != nil {
			t.Fatalf("frontIn=%s: %v", frontIn, err)
		}
		_ = got // non-negativity is guaranteed by the U256 type itself; absence of error is the assertion
	}
}

func TestProfitZeroFrontInIsZero(t *testing.T) {
	s0 := v2.State{
		ReserveIn:  u("100000000000000000000000"),
		ReserveOut: u("100000000000000000000000"),
		FeeBps:     30,
	}
	got, err := Profit(s0, bignum.ZeroU256(), u("1000000000000000000000"), 9, v2Forward, v2Reverse)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero profit for zero front-run size, got %s", got)
	}
}

func TestProfitFuncMatchesProfit(t *testing.T) {
	s0 := v2.State{
		ReserveIn:  u("100000000000000000000000"),
		ReserveOut: u("100000000000000000000000"),
		FeeBps:     30,
	}
	victim := u("1000000000000000000000")
	frontIn := u("5000000000000000000000")

	direct, err := Profit(s0, frontIn, victim, 9, v2Forward, v2Reverse)
	if err != nil {
		t.Fatal(err)
	}
	viaFunc, err := ProfitFunc(s0, victim, 9, v2Forward, v2Reverse)(frontIn)
	if err != nil {
		t.Fatal(err)
	}
	if !direct.Equal(viaFunc) {
		t.Errorf("Profit and ProfitFunc disagree: %s vs %s", direct, viaFunc)
	}
}

func TestProfitSaturatesAtZeroWhenUnprofitable(t *testing.T) {
	s0 := v2.State{
		ReserveIn:  u("100000000000000000000000"),
		ReserveOut: u("100000000000000000000000"),
		FeeBps:     30,
	}
	// A tiny front-run against a tiny victim, with a punitive flash-loan fee,
	// should not turn a profit once the fee is charged.
	got, err := Profit(s0, u("1000"), u("1"), 5000, v2Forward, v2Reverse)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero profit under a punitive flash-loan fee, got %s", got)
	}
}

func TestProfitRejectsInvalidState(t *testing.T) {
	s0 := v2.State{
		ReserveIn:  bignum.ZeroU256(),
		ReserveOut: u("100000000000000000000000"),
		FeeBps:     30,
	}
	_, err := Profit(s0, u("1000"), u("1"), 9, v2Forward, v2Reverse)
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
