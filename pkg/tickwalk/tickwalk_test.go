package tickwalk

import (
	"testing"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/tickmath"
)

func u(s string) bignum.U256 { return bignum.MustU256FromDecimal(s) }

func TestSimulateConsumesFullAmount(t *testing.T) {
	start, err := tickmath.SqrtPriceFromTick(0)
	if err != nil {
		t.Fatal(err)
	}
	liquidity := u("1000000000000000000000000")
	ticks := []int32{-600, -60, 60, 600, 6000}

	segments, err := Simulate(u("1000000000000000000000"), start, liquidity, 30, 60, ticks)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) == 0 {
		t.Fatal("expected at least one segment")
	}

	var total bignum.U256
	for _, seg := range segments {
		var err error
		total, err = total.CheckedAdd("test", seg.AmountIn)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !total.Equal(u("1000000000000000000000")) {
		t.Errorf("segments sum to %s, want full input 1000000000000000000000", total)
	}
}

func TestSimulateSegmentsAreContiguous(t *testing.T) {
	start, err := tickmath.SqrtPriceFromTick(0)
	if err != nil {
		t.Fatal(err)
	}
	liquidity := u("1000000000000000000000000")
	ticks := []int32{-600, -60, 60, 600, 6000, 60000}

	segments, err := Simulate(u("5000000000000000000000"), start, liquidity, 30, 60, ticks)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(segments); i++ {
		if !segments[i].SqrtPriceStart.Equal(segments[i-1].SqrtPriceEnd) {
			t.Errorf("segment %d does not start where segment %d ended", i, i-1)
		}
		if segments[i].TickStart != segments[i-1].TickEnd {
			t.Errorf("segment %d tick_start %d != segment %d tick_end %d", i, segments[i].TickStart, i-1, segments[i-1].TickEnd)
		}
	}
}

func TestSimulateRespectsSegmentCap(t *testing.T) {
	start, err := tickmath.SqrtPriceFromTick(0)
	if err != nil {
		t.Fatal(err)
	}
	// No initialized ticks at all: every segment falls back to the next
	// tick-spacing multiple, so a huge input forces many small segments.
	segments, err := Simulate(u("100000000000000000000000000"), start, u("1"), 30, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) > maxSegments {
		t.Errorf("got %d segments, want at most %d", len(segments), maxSegments)
	}
}

func TestSimulateZeroLiquidityRejected(t *testing.T) {
	start, err := tickmath.SqrtPriceFromTick(0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Simulate(u("1000"), start, bignum.ZeroU256(), 30, 60, nil)
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestSimulateZeroTickSpacingRejected(t *testing.T) {
	start, err := tickmath.SqrtPriceFromTick(0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Simulate(u("1000"), start, u("1000000000000000000000000"), 30, 0, nil)
	if !ammerrors.IsKind(err, ammerrors.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFindNextInitializedTickFallsBackToSpacing(t *testing.T) {
	got := findNextInitializedTick(100, []int32{-600, -60}, 60)
	want := int32(120)
	if got != want {
		t.Errorf("findNextInitializedTick = %d, want %d", got, want)
	}
}

func TestFindNextInitializedTickUsesProvidedTick(t *testing.T) {
	got := findNextInitializedTick(100, []int32{-600, -60, 150, 600}, 60)
	want := int32(150)
	if got != want {
		t.Errorf("findNextInitializedTick = %d, want %d", got, want)
	}
}
