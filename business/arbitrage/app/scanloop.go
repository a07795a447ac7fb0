package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const (
	loopTracerName = "arbitrage.scanloop"
	loopMeterName  = "arbitrage.scanloop"
)

// ScanLoopConfig holds the driver loop settings.
type ScanLoopConfig struct {
	// Pairs is the canonical pair universe swept each cycle.
	Pairs []venuesDomain.TokenPair

	// Interval is the tick period.
	Interval time.Duration

	// RefreshCycles is how many cycles pass between forced gas and
	// fiat quote refreshes.
	RefreshCycles int
}

type loopMetrics struct {
	cycleDuration metric.Float64Histogram
	opportunities metric.Int64Counter
	cycleErrors   metric.Int64Counter
	skippedTicks  metric.Int64Counter
}

// ScanLoop is the single cooperative driver: venues, detector, cost
// model, ranker, reporter, once per tick. Cycles never overlap; a
// tick arriving while one is in flight is dropped.
type ScanLoop struct {
	pools      PoolSource
	detector   *Detector
	calculator *ProfitCalculator
	ranker     *Ranker
	reporter   Reporter
	quotes     QuoteSource
	cfg        ScanLoopConfig
	log        logger.LoggerInterface

	tracer  trace.Tracer
	metrics *loopMetrics

	running atomic.Bool
	cycle   atomic.Uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScanLoop creates the driver loop.
func NewScanLoop(
	pools PoolSource,
	detector *Detector,
	calculator *ProfitCalculator,
	ranker *Ranker,
	reporter Reporter,
	quotes QuoteSource,
	cfg ScanLoopConfig,
	log logger.LoggerInterface,
) (*ScanLoop, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.RefreshCycles <= 0 {
		cfg.RefreshCycles = 5
	}

	l := &ScanLoop{
		pools:      pools,
		detector:   detector,
		calculator: calculator,
		ranker:     ranker,
		reporter:   reporter,
		quotes:     quotes,
		cfg:        cfg,
		log:        log,
		tracer:     otel.Tracer(loopTracerName),
	}

	if err := l.initMetrics(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *ScanLoop) initMetrics() error {
	meter := otel.Meter(loopMeterName)
	var err error

	l.metrics = &loopMetrics{}
	l.metrics.cycleDuration, err = meter.Float64Histogram(
		"arbitrage_cycle_duration_seconds",
		metric.WithDescription("Full detection cycle duration"),
	)
	if err != nil {
		return err
	}

	l.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Ranked opportunities reported"),
	)
	if err != nil {
		return err
	}

	l.metrics.cycleErrors, err = meter.Int64Counter(
		"arbitrage_cycle_errors_total",
		metric.WithDescription("Failed candidate evaluations"),
	)
	if err != nil {
		return err
	}

	l.metrics.skippedTicks, err = meter.Int64Counter(
		"arbitrage_skipped_ticks_total",
		metric.WithDescription("Ticks dropped because a cycle was in flight"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start launches the reporter and the tick loop.
func (l *ScanLoop) Start(ctx context.Context) error {
	if err := l.reporter.Start(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.run(loopCtx)

	l.log.Info(ctx, "scan loop started",
		"interval", l.cfg.Interval.String(),
		"pairs", len(l.cfg.Pairs),
		"refresh_cycles", l.cfg.RefreshCycles)
	return nil
}

func (l *ScanLoop) run(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	// First sweep immediately rather than waiting out the interval.
	l.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunCycle(ctx)

			// A tick that queued up while the cycle ran is dropped,
			// not executed back to back.
			select {
			case <-ticker.C:
				l.metrics.skippedTicks.Add(ctx, 1)
				l.log.Debug(ctx, "cycle outran the interval, tick dropped")
			default:
			}
		}
	}
}

// RunCycle executes one detection cycle. Returns false without doing
// anything when a cycle is already in flight.
func (l *ScanLoop) RunCycle(ctx context.Context) bool {
	if !l.running.CompareAndSwap(false, true) {
		return false
	}
	defer l.running.Store(false)

	start := time.Now()
	cycle := l.cycle.Add(1)

	ctx, span := l.tracer.Start(ctx, "arbitrage.cycle",
		trace.WithAttributes(attribute.Int64("cycle", int64(cycle))),
	)
	defer span.End()

	if cycle%uint64(l.cfg.RefreshCycles) == 0 {
		l.quotes.Refresh(ctx)
	}

	blockNumber, err := l.quotes.LatestBlockNumber(ctx)
	if err != nil {
		l.log.Warn(ctx, "block number unavailable, cycle continues", "error", err)
	} else {
		l.reporter.UpdateBlock(blockNumber)
	}

	pools := l.pools.Snapshot(ctx, l.cfg.Pairs)
	candidates := l.detector.Detect(ctx, pools)

	evalErrors := 0
	opportunities := make([]*domain.Opportunity, 0, len(candidates))
	for _, cand := range candidates {
		opp, err := l.calculator.Evaluate(ctx, cand, blockNumber)
		if err != nil {
			evalErrors++
			l.log.Warn(ctx, "candidate evaluation failed",
				"pair", cand.Pair.String(), "error", err)
			continue
		}
		opportunities = append(opportunities, opp)
	}
	if evalErrors > 0 {
		l.metrics.cycleErrors.Add(ctx, int64(evalErrors))
	}

	ranked := l.ranker.Rank(opportunities)
	l.metrics.opportunities.Add(ctx, int64(len(ranked)))

	profitable := 0
	for _, o := range ranked {
		if o.Profitable {
			profitable++
		}
	}

	stats := domain.ScanStats{
		Cycle:           cycle,
		BlockNumber:     blockNumber,
		PoolsScanned:    len(pools),
		PairsChecked:    len(l.cfg.Pairs),
		CandidatesFound: len(candidates),
		Profitable:      profitable,
		EthPriceUSD:     l.quotes.EthPriceUSD(ctx),
		CycleDuration:   time.Since(start),
		CycleErrors:     evalErrors,
	}
	if gasPrice, err := l.quotes.GasPrice(ctx); err == nil {
		stats.GasPriceGwei = gasPrice.Gwei
	}

	l.reporter.Report(&domain.Report{Opportunities: ranked, Stats: stats})

	l.metrics.cycleDuration.Record(ctx, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("pools", len(pools)),
		attribute.Int("candidates", len(candidates)),
		attribute.Int("ranked", len(ranked)),
		attribute.Int("profitable", profitable),
	)

	return true
}

// Close stops the loop and then the reporter.
func (l *ScanLoop) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	return l.reporter.Stop()
}
