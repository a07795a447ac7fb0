package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	chainDomain "github.com/fd1az/dex-scanner/business/chain/domain"
)

type fakeQuotes struct {
	gasWei      *big.Int
	gasErr      error
	ethUSD      decimal.Decimal
	blockNumber uint64
	blockErr    error
	refreshes   int
}

func (f *fakeQuotes) GasPrice(ctx context.Context) (*chainDomain.GasPrice, error) {
	if f.gasErr != nil {
		return nil, f.gasErr
	}
	return chainDomain.NewGasPrice(f.gasWei, "fake"), nil
}

func (f *fakeQuotes) EthPriceUSD(ctx context.Context) decimal.Decimal {
	return f.ethUSD
}

func (f *fakeQuotes) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return f.blockNumber, f.blockErr
}

func (f *fakeQuotes) Refresh(ctx context.Context) {
	f.refreshes++
}

func testSizing() domain.SizingConfig {
	minBorrow, _ := new(big.Int).SetString("10000000000000000", 10)      // 1e16
	maxBorrow, _ := new(big.Int).SetString("100000000000000000000", 10) // 100e18
	return domain.SizingConfig{MinBorrow: minBorrow, MaxBorrow: maxBorrow}
}

// wideSpreadCandidate prices token0 at 2000 on the buy side and 2100
// on the sell side, 500 bps apart.
func wideSpreadCandidate() *domain.Candidate {
	buy := pool("uniswap-v2", tokenA, tokenB, 2000)
	sell := pool("sushiswap", tokenA, tokenB, 2100)
	return &domain.Candidate{
		Pair:      buy.Pair,
		Buy:       buy,
		Sell:      sell,
		BuyPrice:  domain.PriceRatio(buy.Reserve0, buy.Reserve1),
		SellPrice: domain.PriceRatio(sell.Reserve0, sell.Reserve1),
		SpreadBps: big.NewInt(500),
	}
}

func TestEvaluateProfitableCandidate(t *testing.T) {
	quotes := &fakeQuotes{
		gasWei: big.NewInt(25_000_000_000), // 25 gwei
		ethUSD: decimal.NewFromInt(3500),
	}
	calc := NewProfitCalculator(quotes, CalculatorConfig{
		GasUnits:        500_000,
		MinProfitUSD:    decimal.NewFromInt(10),
		MaxGasPriceGwei: 150,
		Sizing:          testSizing(),
	}, testLogger())

	opp, err := calc.Evaluate(context.Background(), wideSpreadCandidate(), 19_000_000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !opp.Profitable {
		t.Fatalf("500 bps spread should be profitable, net = %s USD", opp.NetProfitUSD)
	}
	if opp.GrossProfit.Sign() <= 0 {
		t.Errorf("gross profit = %s, want positive", opp.GrossProfit)
	}
	if opp.LoanProvider.Name != "balancer" {
		t.Errorf("loan provider = %s, want the zero-fee balancer", opp.LoanProvider.Name)
	}
	if opp.LoanFee.Sign() != 0 {
		t.Errorf("loan fee = %s, want 0 with balancer", opp.LoanFee)
	}
	if opp.GasCost.GasUnits != 800_000 {
		t.Errorf("gas units = %d, want 500k budget + 300k balancer overhead", opp.GasCost.GasUnits)
	}
	if opp.BlockNumber != 19_000_000 {
		t.Errorf("block = %d", opp.BlockNumber)
	}
}

func TestEvaluateGasGuardRejects(t *testing.T) {
	quotes := &fakeQuotes{
		gasWei: big.NewInt(200_000_000_000), // 200 gwei
		ethUSD: decimal.NewFromInt(3500),
	}
	calc := NewProfitCalculator(quotes, CalculatorConfig{
		GasUnits:        500_000,
		MinProfitUSD:    decimal.NewFromInt(10),
		MaxGasPriceGwei: 150,
		Sizing:          testSizing(),
	}, testLogger())

	opp, err := calc.Evaluate(context.Background(), wideSpreadCandidate(), 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if opp.Profitable {
		t.Error("gas above the guard must flag the opportunity unprofitable")
	}
}

func TestEvaluateThinSpreadUnprofitable(t *testing.T) {
	quotes := &fakeQuotes{
		gasWei: big.NewInt(25_000_000_000),
		ethUSD: decimal.NewFromInt(3500),
	}
	calc := NewProfitCalculator(quotes, CalculatorConfig{
		GasUnits:        500_000,
		MinProfitUSD:    decimal.NewFromInt(10),
		MaxGasPriceGwei: 150,
		Sizing:          testSizing(),
	}, testLogger())

	// 2000 vs 2014 is 70 bps, barely over the detection threshold;
	// two 30 bps legs plus gas eat it.
	buy := pool("uniswap-v2", tokenA, tokenB, 2000)
	sell := pool("sushiswap", tokenA, tokenB, 2014)
	cand := &domain.Candidate{Pair: buy.Pair, Buy: buy, Sell: sell, SpreadBps: big.NewInt(70)}

	opp, err := calc.Evaluate(context.Background(), cand, 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if opp.Profitable {
		t.Errorf("70 bps spread net %s USD should not clear the threshold", opp.NetProfitUSD)
	}
}

func TestEvaluateFailsWithoutGasPrice(t *testing.T) {
	quotes := &fakeQuotes{gasErr: errors.New("all sources down")}
	calc := NewProfitCalculator(quotes, CalculatorConfig{
		GasUnits: 500_000,
		Sizing:   testSizing(),
	}, testLogger())

	if _, err := calc.Evaluate(context.Background(), wideSpreadCandidate(), 1); err == nil {
		t.Fatal("expected error when no gas price is available")
	}
}
