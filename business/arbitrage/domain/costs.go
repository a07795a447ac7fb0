package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// weiPerETH is 1e18 as a big.Int, shared by the fiat conversions.
var weiPerETH = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// GasCost is the projected gas spend of one round trip, carried in
// wei and converted to fiat at the display boundary.
type GasCost struct {
	GasUnits    uint64
	GasPriceWei *big.Int
	TotalWei    *big.Int // gasUnits * gasPriceWei
	ETH         decimal.Decimal
	USD         decimal.Decimal
}

// NewGasCost prices gasUnits at gasPriceWei and converts to USD via
// the current ETH reference price.
func NewGasCost(gasUnits uint64, gasPriceWei *big.Int, ethPriceUSD decimal.Decimal) *GasCost {
	totalWei := new(big.Int).Mul(gasPriceWei, new(big.Int).SetUint64(gasUnits))
	eth := WeiToETH(totalWei)

	return &GasCost{
		GasUnits:    gasUnits,
		GasPriceWei: gasPriceWei,
		TotalWei:    totalWei,
		ETH:         eth,
		USD:         eth.Mul(ethPriceUSD),
	}
}

// WeiToETH converts a wei amount to a decimal ETH value.
func WeiToETH(wei *big.Int) decimal.Decimal {
	if wei == nil || wei.Sign() == 0 {
		return decimal.Zero
	}
	f := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetInt(weiPerETH),
	)
	s := f.Text('f', 18)
	d, _ := decimal.NewFromString(s)
	return d
}

// FiatValue converts a token0 wei amount to USD at the given
// reference price. The engine prices its universe against 18-decimal
// base assets, so the wei-to-ETH scale applies.
func FiatValue(wei *big.Int, ethPriceUSD decimal.Decimal) decimal.Decimal {
	if wei == nil || wei.Sign() == 0 {
		return decimal.Zero
	}
	negative := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	value := WeiToETH(abs).Mul(ethPriceUSD)
	if negative {
		value = value.Neg()
	}
	return value
}
