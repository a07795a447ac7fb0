// Package domain contains the pure pricing and profitability types
// for the arbitrage context. Everything here is deterministic integer
// math over pool reserves; no I/O, no floats on the hot path.
package domain

import "math/big"

// Scale is the fixed-point factor for price ratios (1e18).
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

const bpsDenominator = 10_000

// SwapOutput computes the constant-product output amount with the fee
// taken from the input side:
//
//	out = floor(in·(10000−feeBps)·reserveOut / (reserveIn·10000 + in·(10000−feeBps)))
//
// A zero amountIn or a zero reserve yields zero. The result is always
// strictly below reserveOut; a swap can never drain the pool.
func SwapOutput(amountIn, reserveIn, reserveOut *big.Int, feeBps uint32) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return new(big.Int)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	if feeBps > bpsDenominator {
		return new(big.Int)
	}

	inAfterFee := new(big.Int).Mul(amountIn, big.NewInt(int64(bpsDenominator-feeBps)))

	numerator := new(big.Int).Mul(inAfterFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(bpsDenominator))
	denominator.Add(denominator, inAfterFee)

	return numerator.Div(numerator, denominator)
}

// PriceRatio returns reserve1 scaled by 1e18 over reserve0, the spot
// price of token0 in token1 units. Zero reserves yield zero, which
// the detector treats as unpriceable.
func PriceRatio(reserve0, reserve1 *big.Int) *big.Int {
	if reserve0 == nil || reserve1 == nil {
		return new(big.Int)
	}
	if reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		return new(big.Int)
	}

	ratio := new(big.Int).Mul(reserve1, Scale)
	return ratio.Div(ratio, reserve0)
}

// SpreadBps returns the relative difference between two prices in
// basis points: (higher−lower)·10000/lower. A non-positive lower
// price yields zero.
func SpreadBps(lower, higher *big.Int) *big.Int {
	if lower == nil || higher == nil || lower.Sign() <= 0 {
		return new(big.Int)
	}

	diff := new(big.Int).Sub(higher, lower)
	if diff.Sign() <= 0 {
		return new(big.Int)
	}

	diff.Mul(diff, big.NewInt(bpsDenominator))
	return diff.Div(diff, lower)
}
