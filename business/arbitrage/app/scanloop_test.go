package app

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
)

type fakePoolSource struct {
	pools []*venuesDomain.Pool
	block chan struct{} // when set, Snapshot parks until closed
	calls int
	mu    sync.Mutex
}

func (f *fakePoolSource) Snapshot(ctx context.Context, pairs []venuesDomain.TokenPair) []*venuesDomain.Pool {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.pools
}

func (f *fakePoolSource) snapshots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []*domain.Report
	blocks  []uint64
	started bool
	stopped bool
}

func (f *fakeReporter) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeReporter) Report(report *domain.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
}

func (f *fakeReporter) UpdateConnection(name string, connected bool) {}

func (f *fakeReporter) UpdateBlock(number uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, number)
}

func (f *fakeReporter) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeReporter) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *fakeReporter) lastReport() *domain.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return nil
	}
	return f.reports[len(f.reports)-1]
}

func newTestLoop(t *testing.T, pools PoolSource, quotes QuoteSource, reporter Reporter, cfg ScanLoopConfig) *ScanLoop {
	t.Helper()

	detector := newTestDetector(t, 65)
	calc := NewProfitCalculator(quotes, CalculatorConfig{
		GasUnits:        500_000,
		MinProfitUSD:    decimal.NewFromInt(10),
		MaxGasPriceGwei: 150,
		Sizing:          testSizing(),
	}, testLogger())
	ranker := NewRanker(RankerConfig{TopN: 20})

	loop, err := NewScanLoop(pools, detector, calc, ranker, reporter, quotes, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewScanLoop: %v", err)
	}
	return loop
}

func TestRunCycleProducesReport(t *testing.T) {
	source := &fakePoolSource{pools: []*venuesDomain.Pool{
		pool("uniswap-v2", tokenA, tokenB, 2000),
		pool("sushiswap", tokenA, tokenB, 2100),
	}}
	quotes := &fakeQuotes{
		gasWei:      big.NewInt(25_000_000_000),
		ethUSD:      decimal.NewFromInt(3500),
		blockNumber: 19_000_000,
	}
	reporter := &fakeReporter{}

	pairs := []venuesDomain.TokenPair{venuesDomain.NewTokenPair(tokenA, tokenB)}
	loop := newTestLoop(t, source, quotes, reporter, ScanLoopConfig{Pairs: pairs})

	if !loop.RunCycle(context.Background()) {
		t.Fatal("RunCycle returned false on an idle loop")
	}

	report := reporter.lastReport()
	if report == nil {
		t.Fatal("no report delivered")
	}
	if report.Stats.BlockNumber != 19_000_000 {
		t.Errorf("block = %d", report.Stats.BlockNumber)
	}
	if report.Stats.PoolsScanned != 2 {
		t.Errorf("pools scanned = %d, want 2", report.Stats.PoolsScanned)
	}
	if report.Stats.CandidatesFound != 1 {
		t.Errorf("candidates = %d, want 1", report.Stats.CandidatesFound)
	}
	if len(report.Opportunities) != 1 || !report.Opportunities[0].Profitable {
		t.Fatalf("want one profitable opportunity, got %d", len(report.Opportunities))
	}
}

func TestRunCycleIsNotReentrant(t *testing.T) {
	release := make(chan struct{})
	source := &fakePoolSource{block: release}
	quotes := &fakeQuotes{
		gasWei: big.NewInt(25_000_000_000),
		ethUSD: decimal.NewFromInt(3500),
	}
	reporter := &fakeReporter{}
	loop := newTestLoop(t, source, quotes, reporter, ScanLoopConfig{})

	done := make(chan struct{})
	go func() {
		loop.RunCycle(context.Background())
		close(done)
	}()

	// Wait for the first cycle to park inside the snapshot.
	for source.snapshots() == 0 {
		time.Sleep(time.Millisecond)
	}

	if loop.RunCycle(context.Background()) {
		t.Error("second RunCycle must be suppressed while one is in flight")
	}

	close(release)
	<-done

	if !loop.RunCycle(context.Background()) {
		t.Error("loop should accept a new cycle after the previous finished")
	}
}

func TestRunCycleRefreshesQuotesPeriodically(t *testing.T) {
	source := &fakePoolSource{}
	quotes := &fakeQuotes{
		gasWei: big.NewInt(25_000_000_000),
		ethUSD: decimal.NewFromInt(3500),
	}
	reporter := &fakeReporter{}
	loop := newTestLoop(t, source, quotes, reporter, ScanLoopConfig{RefreshCycles: 5})

	for i := 0; i < 10; i++ {
		loop.RunCycle(context.Background())
	}

	// Cycles 5 and 10.
	if quotes.refreshes != 2 {
		t.Errorf("refreshes = %d, want 2 over 10 cycles", quotes.refreshes)
	}
}

func TestStartAndCloseLifecycle(t *testing.T) {
	source := &fakePoolSource{}
	quotes := &fakeQuotes{
		gasWei: big.NewInt(25_000_000_000),
		ethUSD: decimal.NewFromInt(3500),
	}
	reporter := &fakeReporter{}
	loop := newTestLoop(t, source, quotes, reporter, ScanLoopConfig{Interval: 10 * time.Millisecond})

	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Give it a few ticks.
	time.Sleep(50 * time.Millisecond)

	if err := loop.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !reporter.started || !reporter.stopped {
		t.Error("reporter lifecycle not driven by the loop")
	}
	if reporter.reportCount() < 2 {
		t.Errorf("reports = %d, want at least 2 after 50ms of 10ms ticks", reporter.reportCount())
	}
}
