// Package tickmath implements the bijection between a signed tick and its
// sqrt price, the algorithm Uniswap V3's TickMath.sol defines and every
// concentrated-liquidity fork since has reproduced bit-for-bit (spec §4.3).
// Forward conversion uses the 19 fixed magic constants below via bit-magic
// multiplication; inverse conversion uses an initial guess derived from the
// fixed-point natural log of the price, with Newton refinement and a binary-search fallback that guarantees
// termination.
package tickmath

import "github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"

// MinTick and MaxTick are fixed by the Uniswap V3 protocol (spec §3): the
// tick range over which sqrt_price_from_tick and tick_from_sqrt_price are
// defined.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// MinSqrtRatio and MaxSqrtRatio bound the valid sqrt-price range, also fixed
// by the protocol.
var (
	MinSqrtRatio = bignum.U256FromUint64(4295128739)
	MaxSqrtRatio = bignum.MustU256FromDecimal("1461446703485210103287273052203988822378723970342")
)

// q96AtTickZero is sqrt(1.0001^0) * 2^96 = 2^96 exactly.
var q96AtTickZero = bignum.MustU256FromDecimal("79228162514264337593543950336")

// initialRatioBit0 is the Q128.128 starting ratio used when bit 0 of |tick|
// is set (the tick is odd); it is 1/sqrt(1.0001) itself, not a multiplier.
// When bit 0 is clear the starting ratio is exactly 2^128 (q128One below).
var initialRatioBit0 = bignum.MustU256FromDecimal("340265354078544963557816517032075149313")

// magicConstants are the 19 constants from Uniswap V3's TickMath.sol (spec
// §4.3: "part of the specification... must be reproduced to the bit"),
// applied as ratio = (ratio * magicConstants[i]) >> 128 whenever bit i+1 of
// |tick| is set (magicConstants[0] corresponds to bit 1, i.e. mask 0x2;
// magicConstants[18] corresponds to bit 19, mask 0x80000 — the highest bit
// that can be set given |tick| <= 887272 < 2^20). Each constant is
// (1/sqrt(1.0001))^(2^(i+1)) in Q128.128.
var magicConstants = [19]bignum.U256{
	bignum.MustU256FromDecimal("340248342086729790484326174814286782778"), // bit 1  (0x2)
	bignum.MustU256FromDecimal("340214320654664324051920982716015181260"), // bit 2  (0x4)
	bignum.MustU256FromDecimal("340146287995602323631171512101879684304"), // bit 3  (0x8)
	bignum.MustU256FromDecimal("340010263488231146823593991679159461444"), // bit 4  (0x10)
	bignum.MustU256FromDecimal("339738377640345403697157401104375502016"), // bit 5  (0x20)
	bignum.MustU256FromDecimal("339195258003219555707034227454543997025"), // bit 6  (0x40)
	bignum.MustU256FromDecimal("338111622100601834656805679988414885971"), // bit 7  (0x80)
	bignum.MustU256FromDecimal("335954724994790223023589805789778977700"), // bit 8  (0x100)
	bignum.MustU256FromDecimal("331682121138379247127172139078559817300"), // bit 9  (0x200)
	bignum.MustU256FromDecimal("323299236684853023288211250268160618739"), // bit 10 (0x400)
	bignum.MustU256FromDecimal("307163716377032989948697243942600083929"), // bit 11 (0x800)
	bignum.MustU256FromDecimal("277268403626896220162999269216087595045"), // bit 12 (0x1000)
	bignum.MustU256FromDecimal("225923453940442621947126027127485391333"), // bit 13 (0x2000)
	bignum.MustU256FromDecimal("149997214084966997727330242082538205943"), // bit 14 (0x4000)
	bignum.MustU256FromDecimal("66119101136024775622716233608466517926"),  // bit 15 (0x8000)
	bignum.MustU256FromDecimal("12847376061809297530290974190478138313"),  // bit 16 (0x10000)
	bignum.MustU256FromDecimal("485053260817066172746253684029974020"),    // bit 17 (0x20000)
	bignum.MustU256FromDecimal("691415978906521570653435304214168"),       // bit 18 (0x40000)
	bignum.MustU256FromDecimal("1404880482679654955896180642"),            // bit 19 (0x80000)
}

// q128One is 2^128, the Q128.128 representation of 1.0 and the starting
// ratio when bit 0 of |tick| is clear.
var q128One = func() bignum.U256 {
	v, err := bignum.OneU256().Lsh("tickmath.init", 128)
	if err != nil {
		panic(err)
	}
	return v
}()
