package poolid

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/pools/v2"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func TestNewCanonicalizesTokenOrder(t *testing.T) {
	a := New(usdc, weth, 30)
	b := New(weth, usdc, 30)
	if a != b {
		t.Errorf("New(usdc, weth, 30) = %v, New(weth, usdc, 30) = %v; want equal", a, b)
	}
}

func TestStringIsStable(t *testing.T) {
	a := New(usdc, weth, 30)
	b := New(weth, usdc, 30)
	if a.String() != b.String() {
		t.Errorf("String() differs across token ordering: %q vs %q", a.String(), b.String())
	}
}

func TestRegistrySetGetDelete(t *testing.T) {
	r := NewRegistry[v2.State]()
	id := New(usdc, weth, 30)

	if _, ok := r.Get(id); ok {
		t.Fatal("expected empty registry to miss")
	}

	state := v2.State{ReserveIn: u("100000000000000000000000"), ReserveOut: u("50000000000000000000000"), FeeBps: 30}
	r.Set(id, state)

	got, ok := r.Get(id)
	if !ok {
		t.Fatal("expected registry to contain id after Set")
	}
	if !got.ReserveIn.Equal(state.ReserveIn) {
		t.Errorf("ReserveIn = %s, want %s", got.ReserveIn, state.ReserveIn)
	}

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Delete(id)
	if _, ok := r.Get(id); ok {
		t.Error("expected id to be gone after Delete")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Delete", r.Len())
	}
}
