package bignum

import (
	"math/big"

	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
)

// U512 is an exact 512-bit unsigned integer, the explicit widened
// intermediate spec §4.1 mandates for operations that multiply two 256-bit
// operands before dividing or shifting back down: a raw product can exceed
// 256 bits, and doing the widening explicitly (rather than relying on an
// unbounded big.Int and hoping callers never exceed 256 bits) is what makes
// the final narrowing step a real, checked boundary. uint256.Int itself tops
// out at 256 bits and has no public 512-bit counterpart, so U512 stays on
// math/big.Int — the tick-math bit-magic loop (pkg/tickmath) is the
// production call site that exercises it; MulDiv/MulDivRoundUp use
// uint256.Int's own native full-precision mul-div instead of going through
// this type, since that avoids materializing a 512-bit value at all for the
// single most common operation in the core. Only the methods that loop
// actually calls — Mul, Rsh, Narrow, plus the byte-level constructors — are
// kept; U512 is not a general-purpose wide integer, just this one bridge.
type U512 struct {
	i big.Int
}

// String returns the base-10 representation. Needed so a U512 can be
// attached to an ammerrors.Error as a Stringer input (see Narrow's own
// overflow error below).
func (u U512) String() string { return u.i.String() }

// Bytes64 returns the big-endian, zero-padded 64-byte encoding of u.
func (u U512) Bytes64() [64]byte {
	var out [64]byte
	u.i.FillBytes(out[:])
	return out
}

// U512FromBytes64 decodes a big-endian 64-byte encoding into a U512.
func U512FromBytes64(b [64]byte) U512 {
	return U512{i: *new(big.Int).SetBytes(b[:])}
}

// Narrow converts u back down to a U256, failing with Overflow if u exceeds
// 2^256 - 1. This is the mandated checked narrowing path: every U512 that
// reaches the outside world must pass through Narrow, via the same explicit
// big-endian byte copy Widen uses going the other way.
func (u U512) Narrow(op string) (U256, error) {
	if u.i.BitLen() > Bits256 {
		return U256{}, ammerrors.New(op, ammerrors.Overflow, "U512 value exceeds 256 bits", u)
	}
	b64 := u.Bytes64()
	var b32 [32]byte
	copy(b32[:], b64[32:])
	return U256FromBytes32(b32), nil
}

// Mul returns the exact product u * other as a U512. Since both operands
// arrive via Widen (bounded to 256 bits), the true product never exceeds
// 512 bits, so Mul itself is unchecked: its only caller, the pkg/tickmath
// bit-magic loop, passes values already known to fit.
func (u U512) Mul(other U512) U512 {
	return U512{i: *new(big.Int).Mul(&u.i, &other.i)}
}

// Rsh returns u >> n (floor(u / 2^n)). Used by the tick-math Q128.128
// bit-magic loop, which must shift a 256-bit product down by exactly 128
// bits at every step without the intermediate narrowing that a mul_div call
// would force.
func (u U512) Rsh(n uint) U512 {
	return U512{i: *new(big.Int).Rsh(&u.i, n)}
}
