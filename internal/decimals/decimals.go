// Package decimals converts between human-readable token amounts and the
// raw fixed-width integers pkg/pools and friends consume. It is the one
// place in this module that deals in base-10 decimal scaling, and it does
// so through pkg/primitives.Decimal rather than shopspring/decimal
// directly: the AMM core itself requires exact integer arithmetic and
// never touches a base-10 floating significand (spec §1, §6 "the caller is
// responsible for decimal scaling").
package decimals

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/primitives"
)

func scaleFor(tokenDecimals uint8) primitives.Decimal {
	return primitives.MustDecimalFromString("1" + strings.Repeat("0", int(tokenDecimals)))
}

// ToRaw converts a human-readable amount (e.g. "1.5") into the raw integer
// unit pkg/pools operates on, given the token's decimal precision (e.g. 18
// for ETH). Returns an error if amount is negative or not a valid decimal
// string, or if scaling overflows 256 bits.
func ToRaw(amount string, tokenDecimals uint8) (bignum.U256, error) {
	d, err := primitives.NewDecimalFromString(amount)
	if err != nil {
		return bignum.U256{}, fmt.Errorf("decimals: invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return bignum.U256{}, fmt.Errorf("decimals: amount %q cannot be negative", amount)
	}
	raw := d.Mul(scaleFor(tokenDecimals)).Truncate(0)
	n, ok := new(big.Int).SetString(raw.String(), 10)
	if !ok {
		return bignum.U256{}, fmt.Errorf("decimals: cannot scale amount %q", amount)
	}
	v, err := bignum.U256FromBigInt("decimals.to_raw", n)
	if err != nil {
		return bignum.U256{}, fmt.Errorf("decimals: amount %q: %w", amount, err)
	}
	return v, nil
}

// FromRaw converts a raw integer unit back into a human-readable decimal
// string at the token's decimal precision, for display in example programs
// and logs.
func FromRaw(raw bignum.U256, tokenDecimals uint8) string {
	d, err := primitives.NewDecimalFromString(fmt.Sprintf("%se-%d", raw.String(), tokenDecimals))
	if err != nil {
		// raw is always a valid non-negative integer string produced by
		// U256.String, so this branch is unreachable in practice.
		return raw.String()
	}
	return d.String()
}
