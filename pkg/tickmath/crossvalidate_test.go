package tickmath

import (
	"testing"

	sdkutils "github.com/daoleno/uniswapv3-sdk/utils"
)

// TestCrossValidateAgainstSDK checks the from-scratch bijection against
// daoleno/uniswapv3-sdk's GetSqrtRatioAtTick, which itself is a direct port
// of TickMath.sol. Agreement here is a sanity check on the magic constants
// in constants.go, not a dependency of the production path: the SDK is
// never imported outside _test.go files in this package.
func TestCrossValidateAgainstSDK(t *testing.T) {
	ticks := []int32{
		MinTick, MinTick + 1, -887271, -500000, -200000, -100000,
		-54321, -10000, -1000, -100, -1, 0, 1, 100, 1000, 10000,
		54321, 100000, 200000, 500000, 887271, MaxTick - 1, MaxTick,
	}
	for _, tick := range ticks {
		got, err := SqrtPriceFromTick(tick)
		if err != nil {
			t.Fatalf("sqrt_price_from_tick(%d): %v", tick, err)
		}
		want, err := sdkutils.GetSqrtRatioAtTick(int(tick))
		if err != nil {
			t.Fatalf("sdk GetSqrtRatioAtTick(%d): %v", tick, err)
		}
		if got.String() != want.String() {
			t.Errorf("tick %d: got %s, sdk wants %s", tick, got, want)
		}
	}
}
