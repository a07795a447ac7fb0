package domain

import "math/big"

// LoanProvider describes a flash-loan facility. Fee and gas overhead
// are protocol constants, never queried per call.
type LoanProvider struct {
	Name     string
	FeeBps   int64
	ExtraGas uint64
}

// The known flash-loan facilities on mainnet.
var (
	LoanBalancer = LoanProvider{Name: "balancer", FeeBps: 0, ExtraGas: 300_000}
	LoanDyDx     = LoanProvider{Name: "dydx", FeeBps: 0, ExtraGas: 280_000}
	LoanAaveV3   = LoanProvider{Name: "aave-v3", FeeBps: 9, ExtraGas: 350_000}
)

// DefaultLoanProviders returns the selectable providers in preference
// order. Earlier entries win fee ties.
func DefaultLoanProviders() []LoanProvider {
	return []LoanProvider{LoanBalancer, LoanDyDx, LoanAaveV3}
}

// CheapestLoanProvider returns the provider with the lowest fee.
// Ties keep the earliest entry. An empty slice falls back to Aave V3
// so the cost model always has a provider to price.
func CheapestLoanProvider(providers []LoanProvider) LoanProvider {
	if len(providers) == 0 {
		return LoanAaveV3
	}

	best := providers[0]
	for _, p := range providers[1:] {
		if p.FeeBps < best.FeeBps {
			best = p
		}
	}
	return best
}

// LoanFee returns amount·feeBps/10000 in the borrowed token's
// smallest unit.
func (p LoanProvider) LoanFee(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 || p.FeeBps <= 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(p.FeeBps))
	return fee.Div(fee, big.NewInt(bpsDenominator))
}
