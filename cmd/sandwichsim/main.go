// Command sandwichsim demonstrates driving the library end to end: build a
// V2 pool from human-readable token amounts, locate the profit-maximizing
// front-run size against a hypothetical victim trade, and report the
// result. It is a thin, logging driver around the pure core; none of the
// logic it calls performs I/O itself (spec §1, §6).
package main

import (
	"fmt"
	"log"

	core "github.com/daoleno/uniswap-sdk-core/entities"
	"github.com/ethereum/go-ethereum/common"

	"github.com/johnayoung/go-crypto-quant-toolkit/internal/decimals"
	"github.com/johnayoung/go-crypto-quant-toolkit/internal/poolid"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/optimize"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/pools/v2"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/sandwich"
)

// usdc/weth are the addresses poolid keys pools by; usdcToken/wethToken
// wrap the same addresses with decimal-precision metadata. None of the
// pricing math below ever touches the SDK's own swap logic.
var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	usdcToken = core.NewToken(1, usdc, 6, "USDC", "USD Coin")
	wethToken = core.NewToken(1, weth, 18, "WETH", "Wrapped Ether")
)

func main() {
	id := poolid.New(usdc, weth, 30)
	log.Printf("simulating sandwich against pool %s", id)

	reserveUSDC, err := decimals.ToRaw("100000000", uint8(usdcToken.Decimals())) // 100M USDC
	if err != nil {
		log.Fatalf("parsing USDC reserve: %v", err)
	}
	reserveWETH, err := decimals.ToRaw("50000", uint8(wethToken.Decimals())) // 50k WETH
	if err != nil {
		log.Fatalf("parsing WETH reserve: %v", err)
	}

	registry := poolid.NewRegistry[v2.State]()
	registry.Set(id, v2.State{ReserveIn: reserveUSDC, ReserveOut: reserveWETH, FeeBps: 30})

	pool, ok := registry.Get(id)
	if !ok {
		log.Fatalf("pool %s not found in registry", id)
	}

	victimIn, err := decimals.ToRaw("50000", uint8(usdcToken.Decimals())) // victim swaps 50k USDC for WETH
	if err != nil {
		log.Fatalf("parsing victim amount: %v", err)
	}

	forward := func(s v2.State, amountIn bignum.U256) (v2.State, bignum.U256, error) {
		return v2.PostSwapState(s, amountIn)
	}
	reverse := func(s v2.State, amountIn bignum.U256) (v2.State, bignum.U256, error) {
		return v2.PostSwapState(s.Flipped(), amountIn)
	}

	const flashLoanFeeBps = 9 // Aave-style 0.09% flash-loan fee
	profitAt := sandwich.ProfitFunc(pool, victimIn, flashLoanFeeBps, forward, reverse)

	aMin := bignum.U256FromUint64(1)
	best, err := optimize.GoldenSection(aMin, victimIn, profitAt)
	if err != nil {
		log.Fatalf("optimizing front-run size: %v", err)
	}

	profit, err := profitAt(best)
	if err != nil {
		log.Fatalf("evaluating profit at optimum: %v", err)
	}

	fmt.Printf("optimal front-run size: %s USDC\n", decimals.FromRaw(best, uint8(usdcToken.Decimals())))
	fmt.Printf("expected profit:        %s USDC\n", decimals.FromRaw(profit, uint8(usdcToken.Decimals())))
}
