package app

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// CalculatorConfig holds the cost model parameters.
type CalculatorConfig struct {
	// GasUnits is the fixed budget for loan initiation, both swaps,
	// and repayment, before the loan provider's overhead.
	GasUnits uint64

	// MinProfitUSD is the net-profit floor for a profitable verdict.
	MinProfitUSD decimal.Decimal

	// MaxGasPriceGwei marks opportunities unprofitable when gas is
	// above it, regardless of spread.
	MaxGasPriceGwei float64

	Sizing        domain.SizingConfig
	LoanProviders []domain.LoanProvider
}

// ProfitCalculator turns spread candidates into costed opportunities:
// borrow sizing, round-trip simulation, loan fee, fiat gas cost.
type ProfitCalculator struct {
	quotes QuoteSource
	cfg    CalculatorConfig
	log    logger.LoggerInterface
}

// NewProfitCalculator creates a calculator. When no loan providers
// are configured the default set applies.
func NewProfitCalculator(quotes QuoteSource, cfg CalculatorConfig, log logger.LoggerInterface) *ProfitCalculator {
	if len(cfg.LoanProviders) == 0 {
		cfg.LoanProviders = domain.DefaultLoanProviders()
	}
	return &ProfitCalculator{
		quotes: quotes,
		cfg:    cfg,
		log:    log,
	}
}

// Evaluate prices one candidate. The returned opportunity always
// carries the full cost breakdown; Profitable is the verdict against
// the configured thresholds. An error means the gas price could not
// be established at all.
func (c *ProfitCalculator) Evaluate(ctx context.Context, cand *domain.Candidate, blockNumber uint64) (*domain.Opportunity, error) {
	gasPrice, err := c.quotes.GasPrice(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeGasPriceUnavailable, "cost model needs a gas price")
	}
	ethUSD := c.quotes.EthPriceUSD(ctx)

	borrow := domain.ChooseBorrowAmount(cand.Buy, cand.Sell, c.cfg.Sizing)
	output, gross := domain.SimulateRoundTrip(borrow, cand.Buy, cand.Sell)

	provider := domain.CheapestLoanProvider(c.cfg.LoanProviders)
	loanFee := provider.LoanFee(borrow)

	gasCost := domain.NewGasCost(c.cfg.GasUnits+provider.ExtraGas, gasPrice.Wei, ethUSD)

	netWei := new(big.Int).Sub(gross, loanFee)
	netUSD := domain.FiatValue(netWei, ethUSD).Sub(gasCost.USD)

	profitable := gross.Sign() > 0 &&
		netUSD.GreaterThanOrEqual(c.cfg.MinProfitUSD) &&
		gasPrice.Gwei <= c.cfg.MaxGasPriceGwei

	if gross.Sign() > 0 && gasPrice.Gwei > c.cfg.MaxGasPriceGwei {
		c.log.Debug(ctx, "opportunity rejected by gas guard",
			"pair", cand.Pair.String(), "gas_gwei", gasPrice.Gwei, "max_gwei", c.cfg.MaxGasPriceGwei)
	}

	return &domain.Opportunity{
		Pair:            cand.Pair,
		Buy:             cand.Buy,
		Sell:            cand.Sell,
		SpreadBps:       cand.SpreadBps,
		BorrowAmount:    borrow,
		SimulatedOutput: output,
		GrossProfit:     gross,
		LoanProvider:    provider,
		LoanFee:         loanFee,
		GasCost:         gasCost,
		NetProfitUSD:    netUSD,
		Profitable:      profitable,
		BlockNumber:     blockNumber,
		Timestamp:       time.Now(),
	}, nil
}
