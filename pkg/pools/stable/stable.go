// Package stable implements the stable-swap (Curve-style) pool primitive: a
// mixed constant-sum/constant-product invariant D, solved by Newton
// iteration for both the invariant itself and the post-swap balance of the
// output token (spec §4.4d).
package stable

import (
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/ammerrors"
	"github.com/johnayoung/go-crypto-quant-toolkit/pkg/bignum"
)

const maxIterations = 255

var nPowNTable = map[int]bignum.U256{
	1: bignum.U256FromUint64(1),
	2: bignum.U256FromUint64(4),
	3: bignum.U256FromUint64(27),
	4: bignum.U256FromUint64(256),
}

func nPowN(op string, n int) (bignum.U256, error) {
	if table, ok := nPowNTable[n]; ok {
		return table, nil
	}
	return bignum.PowChecked(op, bignum.U256FromUint64(uint64(n)), uint64(n))
}

// State is a stable-swap pool snapshot: token balances (assumed already
// rate-adjusted to a common unit), the amplification coefficient, and the
// swap fee in basis points.
type State struct {
	Balances []bignum.U256
	A        bignum.U256
	FeeBps   uint32
}

const opD = "stable.invariant_d"

// InvariantD finds D via Newton iteration on
//
//	Ann*S + D = Ann*D + D^(n+1)/(n^n * prod(x_i))
//
// using the D_P accumulator form that avoids computing D^(n+1) directly
// (spec §4.4d). Any zero balance returns D = 0 by convention.
func InvariantD(balances []bignum.U256, a bignum.U256) (bignum.U256, error) {
	n := len(balances)
	if n == 0 {
		return bignum.U256{}, ammerrors.New(opD, ammerrors.InvalidInput, "pool must have at least one token")
	}

	sum := bignum.ZeroU256()
	for _, x := range balances {
		var err error
		sum, err = sum.CheckedAdd(opD, x)
		if err != nil {
			return bignum.U256{}, err
		}
	}
	if sum.IsZero() {
		return bignum.ZeroU256(), nil
	}
	for _, x := range balances {
		if x.IsZero() {
			return bignum.ZeroU256(), nil
		}
	}

	nU256 := bignum.U256FromUint64(uint64(n))
	nPN, err := nPowN(opD, n)
	if err != nil {
		return bignum.U256{}, err
	}
	ann, err := a.CheckedMul(opD, nPN)
	if err != nil {
		return bignum.U256{}, err
	}

	d := sum
	for iter := 0; iter < maxIterations; iter++ {
		dP := d
		for _, x := range balances {
			xTimesN, err := x.CheckedMul(opD, nU256)
			if err != nil {
				return bignum.U256{}, err
			}
			dP, err = bignum.MulDiv(opD, dP, d, xTimesN)
			if err != nil {
				return bignum.U256{}, err
			}
		}
		prevD := d

		annS, err := ann.CheckedMul(opD, sum)
		if err != nil {
			return bignum.U256{}, err
		}
		dPN, err := dP.CheckedMul(opD, nU256)
		if err != nil {
			return bignum.U256{}, err
		}
		numeratorInner, err := annS.CheckedAdd(opD, dPN)
		if err != nil {
			return bignum.U256{}, err
		}
		numerator, err := numeratorInner.CheckedMul(opD, d)
		if err != nil {
			return bignum.U256{}, err
		}

		annMinus1, err := ann.CheckedSub(opD, bignum.OneU256())
		if err != nil {
			return bignum.U256{}, err
		}
		nPlus1, err := nU256.CheckedAdd(opD, bignum.OneU256())
		if err != nil {
			return bignum.U256{}, err
		}
		term1, err := annMinus1.CheckedMul(opD, d)
		if err != nil {
			return bignum.U256{}, err
		}
		term2, err := nPlus1.CheckedMul(opD, dP)
		if err != nil {
			return bignum.U256{}, err
		}
		denominator, err := term1.CheckedAdd(opD, term2)
		if err != nil {
			return bignum.U256{}, err
		}
		if denominator.IsZero() {
			return bignum.U256{}, ammerrors.New(opD, ammerrors.DivisionByZero, "newton iteration denominator is zero")
		}

		d, err = numerator.CheckedDiv(opD, denominator)
		if err != nil {
			return bignum.U256{}, err
		}

		if bignum.AbsDiff(d, prevD).LessOrEqual(bignum.OneU256()) {
			return d, nil
		}
	}
	return d, nil // best estimate after exhausting the iteration cap, per spec's NonConvergence tolerance note
}

const opY = "stable.calculate_y"

// CalculateY finds the balance y of token j that preserves invariant d,
// given the other balances in xp (with xp[j] irrelevant — it is being
// solved for) via Newton iteration on y^2 + b*y - c = 0 (spec §4.4d).
func CalculateY(i, j int, xp []bignum.U256, a, d bignum.U256) (bignum.U256, error) {
	if i == j {
		return bignum.U256{}, ammerrors.New(opY, ammerrors.InvalidInput, "input and output token cannot be the same", ammerrors.Int(int64(i)))
	}
	n := len(xp)
	if j < 0 || j >= n {
		return bignum.U256{}, ammerrors.New(opY, ammerrors.InvalidInput, "output token index out of bounds", ammerrors.Int(int64(j)))
	}

	nU256 := bignum.U256FromUint64(uint64(n))
	nPN, err := nPowN(opY, n)
	if err != nil {
		return bignum.U256{}, err
	}
	ann, err := a.CheckedMul(opY, nPN)
	if err != nil {
		return bignum.U256{}, err
	}

	c := d
	s := bignum.ZeroU256()
	for k, xpK := range xp {
		if k == j {
			continue
		}
		if xpK.IsZero() {
			return bignum.U256{}, ammerrors.New(opY, ammerrors.DivisionByZero, "balance at index is zero", ammerrors.Int(int64(k)))
		}
		s, err = s.CheckedAdd(opY, xpK)
		if err != nil {
			return bignum.U256{}, err
		}
		xpKTimesN, err := xpK.CheckedMul(opY, nU256)
		if err != nil {
			return bignum.U256{}, err
		}
		c, err = bignum.MulDiv(opY, c, d, xpKTimesN)
		if err != nil {
			return bignum.U256{}, err
		}
	}

	annN, err := ann.CheckedMul(opY, nU256)
	if err != nil {
		return bignum.U256{}, err
	}
	c, err = bignum.MulDiv(opY, c, d, annN)
	if err != nil {
		return bignum.U256{}, err
	}

	dOverAnn, err := d.CheckedDiv(opY, ann)
	if err != nil {
		return bignum.U256{}, err
	}
	b, err := s.CheckedAdd(opY, dOverAnn)
	if err != nil {
		return bignum.U256{}, err
	}

	y := d
	for iter := 0; iter < maxIterations; iter++ {
		prevY := y

		ySquared, err := y.CheckedMul(opY, y)
		if err != nil {
			return bignum.U256{}, err
		}
		numerator, err := ySquared.CheckedAdd(opY, c)
		if err != nil {
			return bignum.U256{}, err
		}
		twoY, err := y.CheckedMul(opY, bignum.U256FromUint64(2))
		if err != nil {
			return bignum.U256{}, err
		}
		denomBeforeD, err := twoY.CheckedAdd(opY, b)
		if err != nil {
			return bignum.U256{}, err
		}
		if denomBeforeD.LessThan(d) {
			return bignum.U256{}, ammerrors.New(opY, ammerrors.InvalidInput, "newton denominator would be negative", denomBeforeD, d)
		}
		denominator, err := denomBeforeD.CheckedSub(opY, d)
		if err != nil {
			return bignum.U256{}, err
		}
		if denominator.IsZero() {
			return bignum.U256{}, ammerrors.New(opY, ammerrors.DivisionByZero, "newton iteration denominator is zero")
		}

		y, err = numerator.CheckedDiv(opY, denominator)
		if err != nil {
			return bignum.U256{}, err
		}

		if bignum.AbsDiff(y, prevY).LessOrEqual(bignum.OneU256()) {
			return y, nil
		}
	}
	return y, nil
}

const opAmountOut = "stable.amount_out"

// AmountOut computes the exact output of swapping amountIn of token i for
// token j, holding D fixed at its pre-swap value (spec §4.4d, Open Question
// 3: the post-swap balance is solved against the pre-swap D, not a
// recomputed one).
func AmountOut(s State, i, j int, amountIn bignum.U256) (bignum.U256, error) {
	if i == j {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "input and output token cannot be the same", ammerrors.Int(int64(i)))
	}
	if i < 0 || i >= len(s.Balances) || j < 0 || j >= len(s.Balances) {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "token index out of bounds", ammerrors.Int(int64(i)), ammerrors.Int(int64(j)))
	}
	if amountIn.IsZero() {
		return bignum.ZeroU256(), nil
	}

	d, err := InvariantD(s.Balances, s.A)
	if err != nil {
		return bignum.U256{}, err
	}
	if d.IsZero() {
		return bignum.U256{}, ammerrors.New(opAmountOut, ammerrors.InvalidInput, "pool invariant is zero (empty pool)")
	}

	feeMultiplier := bignum.U256FromUint64(10000 - uint64(s.FeeBps))
	amountInAfterFee, err := bignum.MulDiv(opAmountOut, amountIn, feeMultiplier, bignum.U256FromUint64(10000))
	if err != nil {
		return bignum.U256{}, err
	}

	xp := make([]bignum.U256, len(s.Balances))
	copy(xp, s.Balances)
	xp[i], err = xp[i].CheckedAdd(opAmountOut, amountInAfterFee)
	if err != nil {
		return bignum.U256{}, err
	}

	y, err := CalculateY(i, j, xp, s.A, d)
	if err != nil {
		return bignum.U256{}, err
	}
	if y.GreaterOrEqual(xp[j]) {
		return bignum.ZeroU256(), nil
	}
	return xp[j].CheckedSub(opAmountOut, y)
}

const opPostSwap = "stable.post_swap_state"

// PostSwapState applies a swap of amountIn of token i for token j and
// returns the resulting pool state (amplification and fee unchanged) along
// with the output amount.
func PostSwapState(s State, i, j int, amountIn bignum.U256) (State, bignum.U256, error) {
	amountOut, err := AmountOut(s, i, j, amountIn)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newBalances := make([]bignum.U256, len(s.Balances))
	copy(newBalances, s.Balances)

	feeMultiplier := bignum.U256FromUint64(10000 - uint64(s.FeeBps))
	amountInAfterFee, err := bignum.MulDiv(opPostSwap, amountIn, feeMultiplier, bignum.U256FromUint64(10000))
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newBalances[i], err = newBalances[i].CheckedAdd(opPostSwap, amountInAfterFee)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	newBalances[j], err = newBalances[j].CheckedSub(opPostSwap, amountOut)
	if err != nil {
		return State{}, bignum.U256{}, err
	}
	return State{Balances: newBalances, A: s.A, FeeBps: s.FeeBps}, amountOut, nil
}
