package app

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

const (
	scannerTracerName = "venues.scanner"
	scannerMeterName  = "venues.scanner"
)

// ScannerConfig holds venue scanner settings.
type ScannerConfig struct {
	// MinLiquidity is the reserve floor in the token's smallest
	// unit. Pools with a thinner side are dropped.
	MinLiquidity *big.Int
}

type scannerMetrics struct {
	poolsScanned metric.Int64Counter
	poolsDropped metric.Int64Counter
	venueErrors  metric.Int64Counter
}

// Scanner collects pool snapshots from every configured venue. A
// venue failing for one pair never aborts the sweep; its pools are
// simply absent from the result.
type Scanner struct {
	adapters []Adapter
	limiter  *ratelimit.Limiter
	cfg      ScannerConfig
	log      logger.LoggerInterface

	tracer  trace.Tracer
	metrics *scannerMetrics
}

// NewScanner creates a venue scanner. The limiter paces contract
// reads across all venues.
func NewScanner(adapters []Adapter, limiter *ratelimit.Limiter, cfg ScannerConfig, log logger.LoggerInterface) (*Scanner, error) {
	if cfg.MinLiquidity == nil {
		cfg.MinLiquidity = big.NewInt(0)
	}

	s := &Scanner{
		adapters: adapters,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(scannerTracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(scannerMeterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.poolsScanned, err = meter.Int64Counter(
		"venues_pools_scanned_total",
		metric.WithDescription("Pools returned by venue adapters"),
	)
	if err != nil {
		return err
	}

	s.metrics.poolsDropped, err = meter.Int64Counter(
		"venues_pools_dropped_total",
		metric.WithDescription("Pools dropped by the liquidity floor"),
	)
	if err != nil {
		return err
	}

	s.metrics.venueErrors, err = meter.Int64Counter(
		"venues_scan_errors_total",
		metric.WithDescription("Per-venue scan failures"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Venues returns the configured venue names.
func (s *Scanner) Venues() []string {
	names := make([]string, len(s.adapters))
	for i, a := range s.adapters {
		names[i] = a.Name()
	}
	return names
}

// Snapshot sweeps all venues for the given pairs and returns the
// pools that pass the liquidity floor.
func (s *Scanner) Snapshot(ctx context.Context, pairs []domain.TokenPair) []*domain.Pool {
	ctx, span := s.tracer.Start(ctx, "venues.snapshot",
		trace.WithAttributes(
			attribute.Int("pairs", len(pairs)),
			attribute.Int("venues", len(s.adapters)),
		),
	)
	defer span.End()

	var pools []*domain.Pool
	for _, adapter := range s.adapters {
		for _, pair := range pairs {
			if err := s.limiter.Wait(ctx); err != nil {
				// Context gone; return what we have.
				span.AddEvent("sweep_cancelled")
				return pools
			}

			found, err := adapter.Pools(ctx, pair)
			if err != nil {
				s.metrics.venueErrors.Add(ctx, 1, metric.WithAttributes(
					attribute.String("venue", adapter.Name()),
				))
				s.log.Warn(ctx, "venue scan failed",
					"venue", adapter.Name(), "pair", pair.String(), "error", err)
				continue
			}

			for _, pool := range found {
				s.metrics.poolsScanned.Add(ctx, 1, metric.WithAttributes(
					attribute.String("venue", adapter.Name()),
				))
				if !pool.MeetsFloor(s.cfg.MinLiquidity) {
					s.metrics.poolsDropped.Add(ctx, 1)
					s.log.Debug(ctx, "pool below liquidity floor",
						"venue", pool.Venue, "pool", pool.Address.Hex())
					continue
				}
				pools = append(pools, pool)
			}
		}
	}

	span.SetAttributes(attribute.Int("pools", len(pools)))
	return pools
}
