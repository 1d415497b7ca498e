// Package bignum implements the fixed-width checked arithmetic kernel the
// rest of the AMM pricing core is built on: exact 256-bit (U256) and 512-bit
// (U512) unsigned integers with overflow-checked add/sub/mul/div, combined
// mul-div helpers backed by a native 512-bit-precision intermediate, a
// Babylonian integer square root, checked exponentiation, and byte-exact
// big-endian widening and narrowing between the two widths.
//
// Every multiplication and addition in the core signals overflow rather than
// wrapping or truncating (spec §4.1) — this package is where that discipline
// lives so pool primitives never touch a raw math/big.Int or uint256.Int
// directly.
package bignum

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
)

const (
	// Bits256 is the bit width of U256.
	Bits256 = 256
	// Bits512 is the bit width of U512.
	Bits512 = 512
)

// U256 is an exact 256-bit unsigned integer. The zero value is 0. It wraps
// uint256.Int, the native fixed-width checked-arithmetic type the wider
// retrieval pack already reaches for whenever it needs exactly this
// (Uniswap-V3-style tick math over a real 256-bit word, not an
// arbitrary-precision math/big.Int standing in for one).
type U256 struct {
	i uint256.Int
}

var maxU256v = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits256), big.NewInt(1))

// MaxU256 returns the constant 2^256 - 1. It is computed once at package
// initialization and never mutated, satisfying the "process-wide immutable
// singleton" allowance in spec §5.
func MaxU256() U256 {
	return U256{i: *uint256.MustFromBig(maxU256v)}
}

// ZeroU256 returns the constant 0.
func ZeroU256() U256 {
	return U256{}
}

// OneU256 returns the constant 1.
func OneU256() U256 {
	return U256{i: *uint256.NewInt(1)}
}

// U256FromUint64 constructs a U256 from a native unsigned 64-bit value.
func U256FromUint64(x uint64) U256 {
	return U256{i: *uint256.NewInt(x)}
}

// U256FromInt64 constructs a U256 from a non-negative int64. Panics if x is
// negative — callers with a possibly-negative value should check themselves
// or use U256FromBigInt.
func U256FromInt64(x int64) U256 {
	if x < 0 {
		panic("bignum: U256FromInt64: negative value")
	}
	return U256{i: *uint256.NewInt(uint64(x))}
}

// U256FromBigInt constructs a U256 from a *big.Int, failing with InvalidInput
// if x is negative or Overflow if it does not fit in 256 bits.
func U256FromBigInt(op string, x *big.Int) (U256, error) {
	if x.Sign() < 0 {
		return U256{}, ammerrors.New(op, ammerrors.InvalidInput, "value is negative")
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "value exceeds 256 bits")
	}
	return U256{i: *v}, nil
}

// MustU256FromDecimal constructs a U256 from a base-10 string literal,
// panicking on malformed input or out-of-range values. Intended only for
// known-valid constants (tick-math magic numbers, protocol constants),
// mirroring the teacher's MustDecimalFromString / MustPrice pattern.
func MustU256FromDecimal(s string) U256 {
	var v uint256.Int
	if err := v.SetFromDecimal(s); err != nil {
		panic("bignum: MustU256FromDecimal: invalid decimal literal: " + s)
	}
	return U256{i: v}
}

// BigInt returns the value as a *big.Int. Mutating the result never affects
// u.
func (u U256) BigInt() *big.Int {
	return u.i.ToBig()
}

// String returns the base-10 representation.
func (u U256) String() string {
	return u.i.ToBig().String()
}

// IsZero reports whether u == 0.
func (u U256) IsZero() bool {
	return u.i.IsZero()
}

// Cmp returns -1, 0, or 1 as u is less than, equal to, or greater than other.
func (u U256) Cmp(other U256) int {
	return u.i.Cmp(&other.i)
}

// Equal reports whether u == other.
func (u U256) Equal(other U256) bool { return u.Cmp(other) == 0 }

// LessThan reports whether u < other.
func (u U256) LessThan(other U256) bool { return u.Cmp(other) < 0 }

// LessOrEqual reports whether u <= other.
func (u U256) LessOrEqual(other U256) bool { return u.Cmp(other) <= 0 }

// GreaterThan reports whether u > other.
func (u U256) GreaterThan(other U256) bool { return u.Cmp(other) > 0 }

// GreaterOrEqual reports whether u >= other.
func (u U256) GreaterOrEqual(other U256) bool { return u.Cmp(other) >= 0 }

// BitLen returns the number of bits required to represent u, with
// BitLen() == 0 for u == 0.
func (u U256) BitLen() int { return u.i.BitLen() }

// Bytes32 returns the big-endian, zero-padded 32-byte encoding of u. This is
// the mandated byte-level widening/narrowing path: every width conversion in
// the core goes through an explicit big-endian byte copy rather than a raw
// reinterpretation, to forbid silent truncation.
func (u U256) Bytes32() [32]byte {
	return u.i.Bytes32()
}

// U256FromBytes32 decodes a big-endian 32-byte encoding into a U256. Every
// bit pattern is a valid U256, so this never fails.
func U256FromBytes32(b [32]byte) U256 {
	var v uint256.Int
	v.SetBytes32(b[:])
	return U256{i: v}
}

// Widen returns u reinterpreted as a U512 of the same value (zero-extended),
// via an explicit big-endian byte copy into the low 32 bytes of a 64-byte
// buffer. This is the only implicit widening the core performs; narrowing
// back always goes through U512.Narrow, which can fail.
func (u U256) Widen() U512 {
	var buf [64]byte
	b32 := u.i.Bytes32()
	copy(buf[32:], b32[:])
	return U512FromBytes64(buf)
}

// CheckedAdd returns u + other, failing with Overflow if the sum exceeds
// 2^256 - 1.
func (u U256) CheckedAdd(op string, other U256) (U256, error) {
	var z uint256.Int
	_, overflow := z.AddOverflow(&u.i, &other.i)
	if overflow {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "a + b exceeds 256 bits", u, other)
	}
	return U256{i: z}, nil
}

// CheckedSub returns u - other, failing with Underflow if other > u.
func (u U256) CheckedSub(op string, other U256) (U256, error) {
	var z uint256.Int
	_, underflow := z.SubOverflow(&u.i, &other.i)
	if underflow {
		return U256{}, ammerrors.New(op, ammerrors.Underflow, "a - b would be negative", u, other)
	}
	return U256{i: z}, nil
}

// CheckedMul returns u * other, failing with Overflow if the product exceeds
// 2^256 - 1.
func (u U256) CheckedMul(op string, other U256) (U256, error) {
	var z uint256.Int
	_, overflow := z.MulOverflow(&u.i, &other.i)
	if overflow {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "a * b exceeds 256 bits", u, other)
	}
	return U256{i: z}, nil
}

// CheckedDiv returns floor(u / other), failing with DivisionByZero if other
// is zero.
func (u U256) CheckedDiv(op string, other U256) (U256, error) {
	if other.IsZero() {
		return U256{}, ammerrors.New(op, ammerrors.DivisionByZero, "denominator is zero", u)
	}
	var z uint256.Int
	z.Div(&u.i, &other.i)
	return U256{i: z}, nil
}

// CheckedMulDiv returns floor(u*other / d), computed via uint256.Int's
// native full-precision (512-bit intermediate) mul-div, so u*other is never
// truncated even when it overflows 256 bits on its own. Fails with
// DivisionByZero if d is zero, or Overflow if the final quotient does not
// fit back into 256 bits. This is the engine behind bignum.MulDiv.
func (u U256) CheckedMulDiv(op string, other, d U256) (U256, error) {
	if d.IsZero() {
		return U256{}, ammerrors.New(op, ammerrors.DivisionByZero, "denominator is zero", u, other)
	}
	var z uint256.Int
	_, overflow := z.MulDivOverflow(&u.i, &other.i, &d.i)
	if overflow {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "a * b / d exceeds 256 bits", u, other, d)
	}
	return U256{i: z}, nil
}

// mulMod returns (u*other) mod m with full precision, used only to recover
// the remainder MulDivRoundUp needs to decide whether to round up.
func (u U256) mulMod(other, m U256) U256 {
	var z uint256.Int
	z.MulMod(&u.i, &other.i, &m.i)
	return U256{i: z}
}

// SaturatingAdd returns u + other, clamped to 2^256 - 1 instead of
// overflowing. Reserved for the transcendental approximations (spec §9);
// never used on a path that feeds a swap output.
func (u U256) SaturatingAdd(other U256) U256 {
	var z uint256.Int
	_, overflow := z.AddOverflow(&u.i, &other.i)
	if overflow {
		return MaxU256()
	}
	return U256{i: z}
}

// SaturatingSub returns u - other, clamped to 0 instead of underflowing.
func (u U256) SaturatingSub(other U256) U256 {
	var z uint256.Int
	_, underflow := z.SubOverflow(&u.i, &other.i)
	if underflow {
		return ZeroU256()
	}
	return U256{i: z}
}

// SaturatingMul returns u * other, clamped to 2^256 - 1 instead of
// overflowing.
func (u U256) SaturatingMul(other U256) U256 {
	var z uint256.Int
	_, overflow := z.MulOverflow(&u.i, &other.i)
	if overflow {
		return MaxU256()
	}
	return U256{i: z}
}

// Rsh returns u right-shifted by n bits (floor division by 2^n).
func (u U256) Rsh(n uint) U256 {
	var z uint256.Int
	z.Rsh(&u.i, n)
	return U256{i: z}
}

// Lsh returns u left-shifted by n bits, failing with Overflow if the result
// would exceed 256 bits.
func (u U256) Lsh(op string, n uint) (U256, error) {
	if u.BitLen()+int(n) > Bits256 {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "shift exceeds 256 bits", u)
	}
	var z uint256.Int
	z.Lsh(&u.i, n)
	return U256{i: z}, nil
}

// And returns the bitwise AND of u and other.
func (u U256) And(other U256) U256 {
	var z uint256.Int
	z.And(&u.i, &other.i)
	return U256{i: z}
}

// Bit reports whether bit i of u is set (i is 0-indexed from the LSB).
func (u U256) Bit(i uint) bool {
	return u.Rsh(i).And(OneU256()).Equal(OneU256())
}

// Min returns the lesser of a and b.
func Min(a, b U256) U256 {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the greater of a and b.
func Max(a, b U256) U256 {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// AbsDiff returns |a - b| without ever underflowing.
func AbsDiff(a, b U256) U256 {
	if a.LessThan(b) {
		return b.SaturatingSub(a)
	}
	return a.SaturatingSub(b)
}
