package weighted

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

func relErrorBps(got, want bignum.U256) int64 {
	diff := bignum.AbsDiff(got, want)
	if want.IsZero() {
		if diff.IsZero() {
			return 0
		}
		return 1 << 30
	}
	num, _ := diff.CheckedMul("test", bignum.U256FromUint64(10000))
	bps, err := num.CheckedDiv("test", want)
	if err != nil {
		return 1 << 30
	}
	return bps.BigInt().Int64()
}

func TestEqualWeightsDegeneratesToConstantProduct(t *testing.T) {
	halfScale := u("500000000000000000")
	s := State{
		BalanceIn:  u("1000000"),
		BalanceOut: u("1000000"),
		WeightIn:   halfScale,
		WeightOut:  halfScale,
		SwapFee:    bignum.ZeroU256(),
	}
	got, err := AmountOut(s, u("1000"))
	if err != nil {
		t.Fatal(err)
	}
	// constant-product degenerate case: amount_out ~= amount_in*balance_out/(balance_in+amount_in)
	want := u("999")
	if bps := relErrorBps(got, want); bps > 30 {
		t.Errorf("amount_out = %s, want ~%s, relative error %d bps", got, want, bps)
	}
}

func TestZeroInputReturnsZeroOutput(t *testing.T) {
	s := State{
		BalanceIn:  u("1000000"),
		BalanceOut: u("1000000"),
		WeightIn:   u("500000000000000000"),
		WeightOut:  u("500000000000000000"),
		SwapFee:    bignum.ZeroU256(),
	}
	got, err := AmountOut(s, bignum.ZeroU256())
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero output for zero input, got %s", got)
	}
}

func TestConservation(t *testing.T) {
	s := State{
		BalanceIn:  u("1000000000000000000000"),
		BalanceOut: u("1000000000000000000000"),
		WeightIn:   u("300000000000000000"),
		WeightOut:  u("700000000000000000"),
		SwapFee:    u("3000000000000000"), // 0.3%
	}
	newState, amountOut, err := PostSwapState(s, u("1000000000000000000"))
	if err != nil {
		t.Fatal(err)
	}
	if amountOut.GreaterOrEqual(s.BalanceOut) {
		t.Errorf("amount_out %s must be < balance_out %s", amountOut, s.BalanceOut)
	}
	if newState.BalanceOut.GreaterOrEqual(s.BalanceOut) {
		t.Errorf("balance_out should decrease")
	}
}

func TestInvariantNonZero(t *testing.T) {
	balances := []bignum.U256{u("1000000000000000000000"), u("1000000000000000000000")}
	weights := []bignum.U256{u("500000000000000000"), u("500000000000000000")}
	got, err := Invariant(balances, weights)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsZero() {
		t.Errorf("invariant should be nonzero for nonzero balances")
	}
}
