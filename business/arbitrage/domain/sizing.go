package domain

import (
	"math/big"

	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
)

// borrowDivisor sizes the borrow at 1/200 (0.5%) of the thinner
// pool's base reserve. This is a deliberate heuristic: the true
// optimum requires solving the coupled constant-product system, which
// this engine does not attempt.
const borrowDivisor = 200

// SizingConfig bounds the borrow amount.
type SizingConfig struct {
	// MinBorrow is the smallest borrow worth pricing, in token0 wei.
	MinBorrow *big.Int

	// MaxBorrow caps the notional, in token0 wei.
	MaxBorrow *big.Int
}

// ChooseBorrowAmount picks the borrow size for a round trip between
// two pools: a fixed fraction of the smaller reserve0, clamped to the
// configured floor and cap.
func ChooseBorrowAmount(buy, sell *venuesDomain.Pool, cfg SizingConfig) *big.Int {
	smaller := buy.Reserve0
	if sell.Reserve0.Cmp(smaller) < 0 {
		smaller = sell.Reserve0
	}

	amount := new(big.Int).Div(smaller, big.NewInt(borrowDivisor))

	if cfg.MinBorrow != nil && amount.Cmp(cfg.MinBorrow) < 0 {
		amount.Set(cfg.MinBorrow)
	}
	if cfg.MaxBorrow != nil && cfg.MaxBorrow.Sign() > 0 && amount.Cmp(cfg.MaxBorrow) > 0 {
		amount.Set(cfg.MaxBorrow)
	}
	return amount
}

// SimulateRoundTrip runs the two-hop trade: borrow token0, sell it
// into the venue quoting it higher, then buy it back on the cheaper
// venue. grossProfit is floored at zero.
func SimulateRoundTrip(amount *big.Int, buy, sell *venuesDomain.Pool) (output, grossProfit *big.Int) {
	quoteOut := SwapOutput(amount, sell.Reserve0, sell.Reserve1, sell.FeeBps)
	output = SwapOutput(quoteOut, buy.Reserve1, buy.Reserve0, buy.FeeBps)

	grossProfit = new(big.Int).Sub(output, amount)
	if grossProfit.Sign() < 0 {
		grossProfit.SetInt64(0)
	}
	return output, grossProfit
}
