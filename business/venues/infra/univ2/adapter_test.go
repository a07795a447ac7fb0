package univ2

import (
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
)

var (
	factoryAddr = common.HexToAddress("0xFAC0000000000000000000000000000000000001")
	poolAddr    = common.HexToAddress("0xA00000000000000000000000000000000000000A")
	tokenA      = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB      = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// fakeCaller answers factory and pair reads with ABI-encoded data.
type fakeCaller struct {
	pair         common.Address
	reserve0     *big.Int
	reserve1     *big.Int
	factoryCalls int
	reserveCalls int
	err          error
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	factoryABI, _ := abi.JSON(strings.NewReader(FactoryABI))
	pairABI, _ := abi.JSON(strings.NewReader(PairABI))

	switch *msg.To {
	case factoryAddr:
		f.factoryCalls++
		return factoryABI.Methods["getPair"].Outputs.Pack(f.pair)
	default:
		f.reserveCalls++
		return pairABI.Methods["getReserves"].Outputs.Pack(f.reserve0, f.reserve1, uint32(0))
	}
}

func newTestAdapter(t *testing.T, caller *fakeCaller) *Adapter {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	a, err := NewAdapter("uniswap-v2", factoryAddr, 30, caller, log)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestPoolsReturnsReserves(t *testing.T) {
	caller := &fakeCaller{
		pair:     poolAddr,
		reserve0: big.NewInt(1_000_000),
		reserve1: big.NewInt(2_000_000),
	}
	adapter := newTestAdapter(t, caller)
	defer adapter.Close()

	pair := domain.NewTokenPair(tokenA, tokenB)
	pools, err := adapter.Pools(context.Background(), pair)
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1", len(pools))
	}

	pool := pools[0]
	if pool.Venue != "uniswap-v2" {
		t.Errorf("venue = %s", pool.Venue)
	}
	if pool.Address != poolAddr {
		t.Errorf("address = %s, want %s", pool.Address.Hex(), poolAddr.Hex())
	}
	if pool.Reserve0.Int64() != 1_000_000 || pool.Reserve1.Int64() != 2_000_000 {
		t.Errorf("reserves = %s/%s", pool.Reserve0, pool.Reserve1)
	}
	if pool.FeeBps != 30 {
		t.Errorf("fee = %d bps, want 30", pool.FeeBps)
	}
}

func TestPoolsUnlistedPair(t *testing.T) {
	caller := &fakeCaller{pair: common.Address{}}
	adapter := newTestAdapter(t, caller)
	defer adapter.Close()

	pools, err := adapter.Pools(context.Background(), domain.NewTokenPair(tokenA, tokenB))
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 0 {
		t.Errorf("pools = %d, want 0 for unlisted pair", len(pools))
	}
}

func TestPoolsCachesPairAddress(t *testing.T) {
	caller := &fakeCaller{
		pair:     poolAddr,
		reserve0: big.NewInt(1),
		reserve1: big.NewInt(1),
	}
	adapter := newTestAdapter(t, caller)
	defer adapter.Close()

	pair := domain.NewTokenPair(tokenA, tokenB)
	ctx := context.Background()

	if _, err := adapter.Pools(ctx, pair); err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if _, err := adapter.Pools(ctx, pair); err != nil {
		t.Fatalf("Pools: %v", err)
	}

	if caller.factoryCalls != 1 {
		t.Errorf("factory calls = %d, want 1 (address cached)", caller.factoryCalls)
	}
	if caller.reserveCalls != 2 {
		t.Errorf("reserve calls = %d, want 2 (reserves always fresh)", caller.reserveCalls)
	}
}

func TestPoolsPropagatesCallFailure(t *testing.T) {
	caller := &fakeCaller{err: errors.New("rpc down")}
	adapter := newTestAdapter(t, caller)
	defer adapter.Close()

	if _, err := adapter.Pools(context.Background(), domain.NewTokenPair(tokenA, tokenB)); err == nil {
		t.Fatal("expected error when the chain call fails")
	}
}
