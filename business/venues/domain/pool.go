package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one liquidity pool snapshot. Reserves follow the pair's
// canonical ordering: Reserve0 belongs to Pair.Token0.
type Pool struct {
	Venue    string
	Address  common.Address
	Pair     TokenPair
	Reserve0 *big.Int
	Reserve1 *big.Int

	// FeeBps is the swap fee in basis points.
	FeeBps uint32

	// FeeTier is the venue's native tier unit for tiered venues
	// (hundredths of a bip), zero for flat-fee venues.
	FeeTier int

	ObservedAt time.Time
}

// HasLiquidity reports whether both reserves are positive.
func (p *Pool) HasLiquidity() bool {
	return p.Reserve0 != nil && p.Reserve1 != nil &&
		p.Reserve0.Sign() > 0 && p.Reserve1.Sign() > 0
}

// MeetsFloor reports whether both reserves are at least floor.
func (p *Pool) MeetsFloor(floor *big.Int) bool {
	if !p.HasLiquidity() {
		return false
	}
	return p.Reserve0.Cmp(floor) >= 0 && p.Reserve1.Cmp(floor) >= 0
}
