package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
)

type fakeGasSource struct {
	name  string
	wei   int64
	err   error
	calls int
}

func (f *fakeGasSource) Name() string { return f.name }

func (f *fakeGasSource) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewGasPrice(big.NewInt(f.wei), f.name), nil
}

type fakeFiatSource struct {
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakeFiatSource) Name() string { return f.name }

func (f *fakeFiatSource) EthPriceUSD(ctx context.Context) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.price, nil
}

func newTestService(gas []GasSource, fiat []FiatSource, ttl time.Duration) *ChainService {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewChainService(nil, gas, fiat, nil, ServiceConfig{
		QuoteTTL:       ttl,
		FiatDefaultUSD: decimal.NewFromInt(3500),
	}, log)
}

func TestGasPriceUsesFirstHealthySource(t *testing.T) {
	first := &fakeGasSource{name: "infura", err: errors.New("quota")}
	second := &fakeGasSource{name: "etherscan", wei: 25_000_000_000}
	third := &fakeGasSource{name: "rpc", wei: 99_000_000_000}

	svc := newTestService([]GasSource{first, second, third}, nil, time.Minute)
	defer svc.Close()

	price, err := svc.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if price.Source != "etherscan" {
		t.Errorf("source = %s, want etherscan", price.Source)
	}
	if third.calls != 0 {
		t.Error("lower layer consulted despite healthy earlier source")
	}
}

func TestGasPriceServedFromCache(t *testing.T) {
	src := &fakeGasSource{name: "rpc", wei: 30_000_000_000}
	svc := newTestService([]GasSource{src}, nil, time.Minute)
	defer svc.Close()

	ctx := context.Background()
	if _, err := svc.GasPrice(ctx); err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if _, err := svc.GasPrice(ctx); err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1 (second read cached)", src.calls)
	}
}

func TestGasPriceReusesLastQuoteWhenSourcesFail(t *testing.T) {
	src := &fakeGasSource{name: "rpc", wei: 30_000_000_000}
	svc := newTestService([]GasSource{src}, nil, time.Nanosecond)
	defer svc.Close()

	ctx := context.Background()
	first, err := svc.GasPrice(ctx)
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}

	src.err = errors.New("down")
	time.Sleep(time.Millisecond) // let the cache entry expire

	second, err := svc.GasPrice(ctx)
	if err != nil {
		t.Fatalf("GasPrice with dead source: %v", err)
	}
	if second.Wei.Cmp(first.Wei) != 0 {
		t.Errorf("expected last known quote %s, got %s", first.Wei, second.Wei)
	}
}

func TestGasPriceErrorsWithNoQuoteEver(t *testing.T) {
	src := &fakeGasSource{name: "rpc", err: errors.New("down")}
	svc := newTestService([]GasSource{src}, nil, time.Minute)
	defer svc.Close()

	if _, err := svc.GasPrice(context.Background()); err == nil {
		t.Fatal("expected error with no source and no previous quote")
	}
}

func TestEthPriceFallsBackToDefault(t *testing.T) {
	primary := &fakeFiatSource{name: "etherscan", err: errors.New("down")}
	secondary := &fakeFiatSource{name: "etherscan-gasoracle", err: errors.New("down")}
	svc := newTestService(nil, []FiatSource{primary, secondary}, time.Minute)
	defer svc.Close()

	got := svc.EthPriceUSD(context.Background())
	if !got.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("EthPriceUSD = %s, want 3500 default", got)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls = %d/%d, want both sources tried before the default",
			primary.calls, secondary.calls)
	}
}

func TestEthPriceUsesSecondarySource(t *testing.T) {
	primary := &fakeFiatSource{name: "etherscan", err: errors.New("down")}
	secondary := &fakeFiatSource{name: "etherscan-gasoracle", price: decimal.NewFromInt(3600)}
	svc := newTestService(nil, []FiatSource{primary, secondary}, time.Minute)
	defer svc.Close()

	got := svc.EthPriceUSD(context.Background())
	if !got.Equal(decimal.NewFromInt(3600)) {
		t.Errorf("EthPriceUSD = %s, want 3600 from the secondary source", got)
	}
}

func TestEthPricePrefersLastQuoteOverDefault(t *testing.T) {
	src := &fakeFiatSource{name: "etherscan", price: decimal.NewFromInt(4200)}
	svc := newTestService(nil, []FiatSource{src}, time.Nanosecond)
	defer svc.Close()

	ctx := context.Background()
	svc.EthPriceUSD(ctx)

	src.err = errors.New("down")
	time.Sleep(time.Millisecond)

	got := svc.EthPriceUSD(ctx)
	if !got.Equal(decimal.NewFromInt(4200)) {
		t.Errorf("EthPriceUSD = %s, want last quote 4200", got)
	}
}

func TestEthPriceRejectsZeroQuotes(t *testing.T) {
	bad := &fakeFiatSource{name: "zero", price: decimal.Zero}
	good := &fakeFiatSource{name: "good", price: decimal.NewFromInt(3900)}
	svc := newTestService(nil, []FiatSource{bad, good}, time.Minute)
	defer svc.Close()

	got := svc.EthPriceUSD(context.Background())
	if !got.Equal(decimal.NewFromInt(3900)) {
		t.Errorf("EthPriceUSD = %s, want 3900 from second source", got)
	}
}
