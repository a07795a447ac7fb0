package ethereum

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"

	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

type fakeClient struct {
	blockNumber uint64
	err         error
	calls       int
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.blockNumber, nil
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return big.NewInt(30_000_000_000), nil
}

func (f *fakeClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0x01}, nil
}

func (f *fakeClient) Close() {}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestPool(t *testing.T, clients map[string]*fakeClient, endpoints []domain.Endpoint) *Pool {
	t.Helper()

	cfg := PoolConfig{
		Endpoints:      endpoints,
		DialTimeout:    time.Second,
		RequestTimeout: time.Second,
		dialer: func(ctx context.Context, url string) (nodeClient, error) {
			c, ok := clients[url]
			if !ok {
				return nil, errors.New("dial refused: " + url)
			}
			return c, nil
		},
	}

	pool, err := NewPool(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return pool
}

func TestPoolServesFromFirstEndpoint(t *testing.T) {
	clients := map[string]*fakeClient{
		"premium": {blockNumber: 100},
		"public":  {blockNumber: 100},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "premium", Tier: domain.TierPremium},
		{URL: "public", Tier: domain.TierPublic},
	})

	got, err := pool.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber: %v", err)
	}
	if got != 100 {
		t.Errorf("BlockNumber = %d, want 100", got)
	}
	if clients["premium"].calls != 1 {
		t.Errorf("premium calls = %d, want 1", clients["premium"].calls)
	}
	if clients["public"].calls != 0 {
		t.Errorf("public called despite healthy premium endpoint")
	}
}

func TestPoolFailsOverAndMovesCursor(t *testing.T) {
	clients := map[string]*fakeClient{
		"premium-a": {err: errors.New("rate limited")},
		"premium-b": {blockNumber: 200},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "premium-a", Tier: domain.TierPremium},
		{URL: "premium-b", Tier: domain.TierPremium},
	})

	got, err := pool.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber: %v", err)
	}
	if got != 200 {
		t.Errorf("BlockNumber = %d, want 200", got)
	}

	cursor, ep := pool.Cursor()
	if cursor != 1 || ep.URL != "premium-b" {
		t.Errorf("cursor = %d (%s), want 1 (premium-b)", cursor, ep.URL)
	}

	// Subsequent requests start on the healthy endpoint.
	failedCalls := clients["premium-a"].calls
	if _, err := pool.BlockNumber(context.Background()); err != nil {
		t.Fatalf("BlockNumber after failover: %v", err)
	}
	if clients["premium-a"].calls != failedCalls {
		t.Errorf("failed endpoint retried before its turn after failover")
	}
}

func TestPoolExhaustsActiveTier(t *testing.T) {
	clients := map[string]*fakeClient{
		"a": {err: errors.New("down")},
		"b": {err: errors.New("down")},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "a", Tier: domain.TierPremium},
		{URL: "b", Tier: domain.TierPremium},
	})

	_, err := pool.SuggestGasPrice(context.Background())
	if err == nil {
		t.Fatal("expected error when every endpoint fails")
	}
	if apperror.GetCode(err) != apperror.CodeProvidersExhausted {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeProvidersExhausted)
	}
	if clients["a"].calls != 1 || clients["b"].calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", clients["a"].calls, clients["b"].calls)
	}
}

func TestPoolNeverLeavesActiveTier(t *testing.T) {
	clients := map[string]*fakeClient{
		"premium": {err: errors.New("down")},
		"backup":  {blockNumber: 42},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "premium", Tier: domain.TierPremium},
		{URL: "backup", Tier: domain.TierBackup},
	})

	// A failing premium tier exhausts; the backup tier exists but is
	// not consulted while premium endpoints are configured.
	_, err := pool.BlockNumber(context.Background())
	if err == nil {
		t.Fatal("expected exhaustion with the whole premium tier down")
	}
	if apperror.GetCode(err) != apperror.CodeProvidersExhausted {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeProvidersExhausted)
	}
	if clients["backup"].calls != 0 {
		t.Errorf("backup tier called %d times, want 0", clients["backup"].calls)
	}
	if clients["premium"].calls != 1 {
		t.Errorf("premium calls = %d, want 1", clients["premium"].calls)
	}
}

func TestPoolSelectsHighestNonEmptyTier(t *testing.T) {
	clients := map[string]*fakeClient{
		"backup": {blockNumber: 500},
		"public": {blockNumber: 500},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "backup", Tier: domain.TierBackup},
		{URL: "public", Tier: domain.TierPublic},
	})

	if got := pool.ActiveTier(); got != domain.TierBackup {
		t.Errorf("ActiveTier = %s, want backup", got)
	}

	got, err := pool.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber: %v", err)
	}
	if got != 500 {
		t.Errorf("BlockNumber = %d, want 500", got)
	}
	if clients["public"].calls != 0 {
		t.Errorf("public tier called despite backup endpoints present")
	}
}

func TestPoolDialFailureCountsAsEndpointFailure(t *testing.T) {
	clients := map[string]*fakeClient{
		// "dead" is not in the map so its dial fails.
		"alive": {blockNumber: 300},
	}
	pool := newTestPool(t, clients, []domain.Endpoint{
		{URL: "dead", Tier: domain.TierPremium},
		{URL: "alive", Tier: domain.TierPremium},
	})

	got, err := pool.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber: %v", err)
	}
	if got != 300 {
		t.Errorf("BlockNumber = %d, want 300", got)
	}
}

func TestPoolRequiresEndpoints(t *testing.T) {
	_, err := NewPool(PoolConfig{}, testLogger())
	if err == nil {
		t.Fatal("expected error for empty endpoint list")
	}
}
