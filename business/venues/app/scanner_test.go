package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

type fakeAdapter struct {
	name  string
	pools map[domain.TokenPair][]*domain.Pool
	err   error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Pools(ctx context.Context, pair domain.TokenPair) ([]*domain.Pool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools[pair], nil
}

func makePool(venue string, pair domain.TokenPair, r0, r1 int64) *domain.Pool {
	return &domain.Pool{
		Venue:      venue,
		Address:    common.HexToAddress("0xabc0000000000000000000000000000000000001"),
		Pair:       pair,
		Reserve0:   big.NewInt(r0),
		Reserve1:   big.NewInt(r1),
		FeeBps:     30,
		ObservedAt: time.Now(),
	}
}

func newTestScanner(t *testing.T, adapters []Adapter, floor int64) *Scanner {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	s, err := NewScanner(adapters, ratelimit.New(1000), ScannerConfig{
		MinLiquidity: big.NewInt(floor),
	}, log)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

func TestSnapshotToleratesVenueFailure(t *testing.T) {
	pair := domain.NewTokenPair(
		common.HexToAddress("0x1000000000000000000000000000000000000001"),
		common.HexToAddress("0x2000000000000000000000000000000000000002"),
	)

	healthy := &fakeAdapter{
		name:  "good-venue",
		pools: map[domain.TokenPair][]*domain.Pool{pair: {makePool("good-venue", pair, 1000, 2000)}},
	}
	broken := &fakeAdapter{name: "bad-venue", err: errors.New("rpc down")}

	scanner := newTestScanner(t, []Adapter{broken, healthy}, 0)
	pools := scanner.Snapshot(context.Background(), []domain.TokenPair{pair})

	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1", len(pools))
	}
	if pools[0].Venue != "good-venue" {
		t.Errorf("venue = %s, want good-venue", pools[0].Venue)
	}
}

func TestSnapshotAppliesLiquidityFloor(t *testing.T) {
	pair := domain.NewTokenPair(
		common.HexToAddress("0x1000000000000000000000000000000000000001"),
		common.HexToAddress("0x2000000000000000000000000000000000000002"),
	)

	adapter := &fakeAdapter{
		name: "venue",
		pools: map[domain.TokenPair][]*domain.Pool{pair: {
			makePool("venue", pair, 10_000, 10_000),
			makePool("venue", pair, 10_000, 99),   // thin side
			makePool("venue", pair, 0, 10_000),    // empty side
			makePool("venue", pair, 10_000, 100),  // exactly at floor
		}},
	}

	scanner := newTestScanner(t, []Adapter{adapter}, 100)
	pools := scanner.Snapshot(context.Background(), []domain.TokenPair{pair})

	if len(pools) != 2 {
		t.Fatalf("pools = %d, want 2 (floor is inclusive)", len(pools))
	}
}

func TestSnapshotEmptyUniverse(t *testing.T) {
	scanner := newTestScanner(t, []Adapter{&fakeAdapter{name: "venue"}}, 0)
	if pools := scanner.Snapshot(context.Background(), nil); len(pools) != 0 {
		t.Errorf("pools = %d, want 0", len(pools))
	}
}
