package domain

import (
	"math/big"
	"time"
)

// GasPrice is the current gas price with its source attached, so
// downstream logs show which layer answered.
type GasPrice struct {
	Wei       *big.Int
	Gwei      float64
	Source    string
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int, source string) *GasPrice {
	gwei := new(big.Float).SetInt(wei)
	gwei.Quo(gwei, big.NewFloat(1e9))
	gweiFloat, _ := gwei.Float64()

	return &GasPrice{
		Wei:       wei,
		Gwei:      gweiFloat,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// GweiToWei converts a gwei value to wei, truncating below 1 wei.
func GweiToWei(gwei float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	wei, _ := f.Int(nil)
	return wei
}

// GasEstimate is the projected cost of one transaction at a given
// gas price.
type GasEstimate struct {
	GasLimit uint64
	GasPrice *GasPrice
	TotalWei *big.Int
}

// EstimateCost computes the total wei cost of gasLimit units.
func EstimateCost(gasLimit uint64, price *GasPrice) *GasEstimate {
	totalWei := new(big.Int).Mul(price.Wei, new(big.Int).SetUint64(gasLimit))
	return &GasEstimate{
		GasLimit: gasLimit,
		GasPrice: price,
		TotalWei: totalWei,
	}
}
