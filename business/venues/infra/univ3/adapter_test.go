package univ3

import (
	"context"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/business/venues/infra/erc20"
	"github.com/fd1az/dex-scanner/internal/asset"
	"github.com/fd1az/dex-scanner/internal/logger"
)

var (
	factoryAddr = common.HexToAddress("0xFAC0000000000000000000000000000000000003")
	tokenA      = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB      = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// fakeCaller serves the factory and ERC20 balance reads. Tiers
// missing from the pools map resolve to the zero address.
type fakeCaller struct {
	pools    map[int]common.Address
	balances map[common.Address]*big.Int

	factoryABI abi.ABI
	tokenABI   abi.ABI
}

func newFakeCaller(t *testing.T) *fakeCaller {
	t.Helper()
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		t.Fatalf("parse factory ABI: %v", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(erc20.TokenABI))
	if err != nil {
		t.Fatalf("parse token ABI: %v", err)
	}
	return &fakeCaller{
		pools:      make(map[int]common.Address),
		balances:   make(map[common.Address]*big.Int),
		factoryABI: factoryABI,
		tokenABI:   tokenABI,
	}
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if *msg.To == factoryAddr {
		inputs, err := f.factoryABI.Methods["getPool"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		tier := int(inputs[2].(*big.Int).Int64())
		return f.factoryABI.Methods["getPool"].Outputs.Pack(f.pools[tier])
	}

	// Everything else is a balanceOf read against a pool.
	inputs, err := f.tokenABI.Methods["balanceOf"].Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	pool := inputs[0].(common.Address)
	balance := f.balances[pool]
	if balance == nil {
		balance = big.NewInt(0)
	}
	return f.tokenABI.Methods["balanceOf"].Outputs.Pack(balance)
}

func newTestAdapter(t *testing.T, caller *fakeCaller, tiers []int) *Adapter {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	tokens, err := erc20.NewClient(asset.ChainIDEthereum, caller, asset.NewRegistry(), log)
	if err != nil {
		t.Fatalf("erc20.NewClient: %v", err)
	}
	a, err := NewAdapter("uniswap-v3", factoryAddr, tiers, caller, tokens, log)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestPoolsSkipsMissingTiers(t *testing.T) {
	caller := newFakeCaller(t)
	pool500 := common.HexToAddress("0xB000000000000000000000000000000000000500")
	caller.pools[500] = pool500
	caller.balances[pool500] = big.NewInt(7_000_000)

	adapter := newTestAdapter(t, caller, []int{100, 500, 3000, 10000})
	defer adapter.Close()

	pools, err := adapter.Pools(context.Background(), domain.NewTokenPair(tokenA, tokenB))
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1 (only the 500 tier exists)", len(pools))
	}
	if pools[0].FeeTier != 500 {
		t.Errorf("fee tier = %d, want 500", pools[0].FeeTier)
	}
	if pools[0].FeeBps != 5 {
		t.Errorf("fee = %d bps, want 5", pools[0].FeeBps)
	}
	if pools[0].Reserve0.Int64() != 7_000_000 {
		t.Errorf("reserve0 = %s", pools[0].Reserve0)
	}
}

func TestPoolsOnePerTier(t *testing.T) {
	caller := newFakeCaller(t)
	for _, tier := range []int{500, 3000} {
		addr := common.BigToAddress(big.NewInt(int64(tier)))
		caller.pools[tier] = addr
		caller.balances[addr] = big.NewInt(int64(tier) * 1_000)
	}

	adapter := newTestAdapter(t, caller, []int{100, 500, 3000, 10000})
	defer adapter.Close()

	pools, err := adapter.Pools(context.Background(), domain.NewTokenPair(tokenA, tokenB))
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("pools = %d, want 2", len(pools))
	}

	seen := make(map[int]bool)
	for _, p := range pools {
		if seen[p.FeeTier] {
			t.Errorf("tier %d appears twice", p.FeeTier)
		}
		seen[p.FeeTier] = true
	}
}

func TestPoolsNoTiersListed(t *testing.T) {
	adapter := newTestAdapter(t, newFakeCaller(t), []int{100, 500, 3000, 10000})
	defer adapter.Close()

	pools, err := adapter.Pools(context.Background(), domain.NewTokenPair(tokenA, tokenB))
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 0 {
		t.Errorf("pools = %d, want 0", len(pools))
	}
}
