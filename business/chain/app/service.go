package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const (
	gasCacheKey  = "gas-price"
	fiatCacheKey = "eth-usd"
)

// ServiceConfig holds ChainService settings.
type ServiceConfig struct {
	// QuoteTTL is how long gas and fiat quotes stay fresh between
	// forced refreshes.
	QuoteTTL time.Duration

	// FiatDefaultUSD is the ETH/USD price used when every fiat
	// source fails and no earlier quote exists.
	FiatDefaultUSD decimal.Decimal
}

// ChainService coordinates chain reads, layered gas and fiat price
// lookups, and the head feed.
type ChainService struct {
	reader      ChainReader
	gasSources  []GasSource
	fiatSources []FiatSource
	heads       HeadFeed
	cfg         ServiceConfig
	log         logger.LoggerInterface

	gasCache  *cache.Cache[string, *domain.GasPrice]
	fiatCache *cache.Cache[string, decimal.Decimal]

	mu       sync.RWMutex
	lastGas  *domain.GasPrice
	lastFiat decimal.Decimal
}

// NewChainService creates a ChainService. Gas and fiat sources are
// consulted in slice order.
func NewChainService(
	reader ChainReader,
	gasSources []GasSource,
	fiatSources []FiatSource,
	heads HeadFeed,
	cfg ServiceConfig,
	log logger.LoggerInterface,
) *ChainService {
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = 10 * time.Second
	}
	return &ChainService{
		reader:      reader,
		gasSources:  gasSources,
		fiatSources: fiatSources,
		heads:       heads,
		cfg:         cfg,
		log:         log,
		gasCache:    cache.New[string, *domain.GasPrice](time.Minute),
		fiatCache:   cache.New[string, decimal.Decimal](time.Minute),
	}
}

// Reader returns the underlying chain reader.
func (s *ChainService) Reader() ChainReader {
	return s.reader
}

// LatestBlockNumber returns the latest block number.
func (s *ChainService) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return s.reader.BlockNumber(ctx)
}

// SubscribeHeads starts the head feed.
func (s *ChainService) SubscribeHeads(ctx context.Context) (<-chan *domain.Block, error) {
	return s.heads.Subscribe(ctx)
}

// HeadState returns the head feed connection state.
func (s *ChainService) HeadState() domain.ConnectionState {
	return s.heads.State()
}

// GasPrice returns the current gas price, served from cache while
// fresh. When every source fails the last known quote is reused.
func (s *ChainService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	if cached, ok := s.gasCache.Get(ctx, gasCacheKey); ok {
		return cached, nil
	}
	return s.fetchGasPrice(ctx)
}

// EthPriceUSD returns the ETH/USD price, served from cache while
// fresh. Falls back to the last known quote, then to the configured
// default, so a cost estimate is always possible.
func (s *ChainService) EthPriceUSD(ctx context.Context) decimal.Decimal {
	if cached, ok := s.fiatCache.Get(ctx, fiatCacheKey); ok {
		return cached
	}
	return s.fetchEthPriceUSD(ctx)
}

// Refresh forces both quotes to be refetched, bypassing the cache.
// The scan loop calls this on its refresh cycles.
func (s *ChainService) Refresh(ctx context.Context) {
	if _, err := s.fetchGasPrice(ctx); err != nil {
		s.log.Warn(ctx, "gas price refresh failed", "error", err)
	}
	s.fetchEthPriceUSD(ctx)
}

// Close releases the quote caches.
func (s *ChainService) Close() error {
	s.gasCache.Close()
	s.fiatCache.Close()
	return nil
}

func (s *ChainService) fetchGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	for _, src := range s.gasSources {
		price, err := src.GasPrice(ctx)
		if err != nil {
			s.log.Warn(ctx, "gas source failed", "source", src.Name(), "error", err)
			continue
		}

		s.gasCache.Set(ctx, gasCacheKey, price, s.cfg.QuoteTTL)
		s.mu.Lock()
		s.lastGas = price
		s.mu.Unlock()
		return price, nil
	}

	s.mu.RLock()
	last := s.lastGas
	s.mu.RUnlock()
	if last != nil {
		s.log.Warn(ctx, "all gas sources failed, reusing last quote",
			"source", last.Source, "age", time.Since(last.Timestamp).String())
		return last, nil
	}

	return nil, apperror.New(apperror.CodeGasPriceUnavailable,
		apperror.WithContext("all gas sources failed and no previous quote exists"))
}

func (s *ChainService) fetchEthPriceUSD(ctx context.Context) decimal.Decimal {
	for _, src := range s.fiatSources {
		price, err := src.EthPriceUSD(ctx)
		if err != nil {
			s.log.Warn(ctx, "fiat source failed", "source", src.Name(), "error", err)
			continue
		}
		if price.IsZero() || price.IsNegative() {
			s.log.Warn(ctx, "fiat source returned invalid price",
				"source", src.Name(), "price", price.String())
			continue
		}

		s.fiatCache.Set(ctx, fiatCacheKey, price, s.cfg.QuoteTTL)
		s.mu.Lock()
		s.lastFiat = price
		s.mu.Unlock()
		return price
	}

	s.mu.RLock()
	last := s.lastFiat
	s.mu.RUnlock()
	if !last.IsZero() {
		return last
	}

	s.log.Warn(ctx, "all fiat sources failed, using default",
		"default_usd", s.cfg.FiatDefaultUSD.String())
	return s.cfg.FiatDefaultUSD
}
