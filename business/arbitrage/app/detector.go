package app

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const (
	detectorTracerName = "arbitrage.detector"
	detectorMeterName  = "arbitrage.detector"
)

type detectorMetrics struct {
	pairsChecked    metric.Int64Counter
	candidatesFound metric.Int64Counter
}

// Detector finds cross-venue price divergence in a pool snapshot.
type Detector struct {
	thresholdBps *big.Int
	log          logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector creates a detector with the given spread threshold in
// basis points. The threshold should cover both venues' round-trip
// fees plus a margin; anything lower produces systematic false
// positives.
func NewDetector(thresholdBps int64, log logger.LoggerInterface) (*Detector, error) {
	d := &Detector{
		thresholdBps: big.NewInt(thresholdBps),
		log:          log,
		tracer:       otel.Tracer(detectorTracerName),
	}

	meter := otel.Meter(detectorMeterName)
	var err error

	d.metrics = &detectorMetrics{}
	d.metrics.pairsChecked, err = meter.Int64Counter(
		"arbitrage_pairs_checked_total",
		metric.WithDescription("Cross-venue pool pairs compared"),
	)
	if err != nil {
		return nil, err
	}

	d.metrics.candidatesFound, err = meter.Int64Counter(
		"arbitrage_candidates_total",
		metric.WithDescription("Spread candidates above the threshold"),
	)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Detect groups pools by canonical pair and compares every
// distinct-venue combination. Unpriceable pools (zero ratio) are
// excluded; same-venue comparisons are skipped because two pools on
// one venue carry no independent price. Output order is unspecified;
// ranking happens after cost modeling.
func (d *Detector) Detect(ctx context.Context, pools []*venuesDomain.Pool) []*domain.Candidate {
	ctx, span := d.tracer.Start(ctx, "arbitrage.detect",
		trace.WithAttributes(attribute.Int("pools", len(pools))),
	)
	defer span.End()

	groups := make(map[venuesDomain.TokenPair][]*venuesDomain.Pool)
	for _, pool := range pools {
		groups[pool.Pair] = append(groups[pool.Pair], pool)
	}

	var candidates []*domain.Candidate
	checked := 0

	for pair, group := range groups {
		if len(group) < 2 {
			continue
		}

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Venue == b.Venue {
					continue
				}
				checked++

				if cand := d.compare(pair, a, b); cand != nil {
					candidates = append(candidates, cand)
				}
			}
		}
	}

	d.metrics.pairsChecked.Add(ctx, int64(checked))
	d.metrics.candidatesFound.Add(ctx, int64(len(candidates)))
	span.SetAttributes(
		attribute.Int("pairs_checked", checked),
		attribute.Int("candidates", len(candidates)),
	)

	return candidates
}

// compare prices both pools and returns a candidate when the spread
// strictly exceeds the threshold, buy side low.
func (d *Detector) compare(pair venuesDomain.TokenPair, a, b *venuesDomain.Pool) *domain.Candidate {
	priceA := domain.PriceRatio(a.Reserve0, a.Reserve1)
	priceB := domain.PriceRatio(b.Reserve0, b.Reserve1)
	if priceA.Sign() == 0 || priceB.Sign() == 0 {
		return nil
	}

	buy, sell := a, b
	lower, higher := priceA, priceB
	if priceA.Cmp(priceB) > 0 {
		buy, sell = b, a
		lower, higher = priceB, priceA
	}

	spread := domain.SpreadBps(lower, higher)
	if spread.Cmp(d.thresholdBps) <= 0 {
		return nil
	}

	return &domain.Candidate{
		Pair:      pair,
		Buy:       buy,
		Sell:      sell,
		BuyPrice:  lower,
		SellPrice: higher,
		SpreadBps: spread,
	}
}
