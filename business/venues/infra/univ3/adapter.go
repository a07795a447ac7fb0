// Package univ3 implements the venue Adapter for tiered-fee DEXes
// (Uniswap V3). Each fee tier is an independent pool; reserves are
// approximated by the pool contract's token balances.
package univ3

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/venues/app"
	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/business/venues/infra/erc20"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "venues.univ3"

const poolAddressTTL = time.Hour

// FactoryABI covers the single factory read the adapter needs.
const FactoryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "tokenA", "type": "address"},
			{"internalType": "address", "name": "tokenB", "type": "address"},
			{"internalType": "uint24", "name": "fee", "type": "uint24"}
		],
		"name": "getPool",
		"outputs": [
			{"internalType": "address", "name": "pool", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Ensure Adapter implements the venue port.
var _ app.Adapter = (*Adapter)(nil)

type tierKey struct {
	pair domain.TokenPair
	tier int
}

// Adapter reads pools from a tiered-fee venue, one pool per listed
// fee tier.
type Adapter struct {
	name     string
	factory  common.Address
	feeTiers []int

	caller     chainApp.ContractCaller
	tokens     *erc20.Client
	factoryABI abi.ABI

	poolCache *cache.Cache[tierKey, common.Address]
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	log       logger.LoggerInterface
	tracer    trace.Tracer
}

// NewAdapter creates a tiered-fee adapter.
func NewAdapter(name string, factory common.Address, feeTiers []int, caller chainApp.ContractCaller, tokens *erc20.Client, log logger.LoggerInterface) (*Adapter, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}

	return &Adapter{
		name:       name,
		factory:    factory,
		feeTiers:   feeTiers,
		caller:     caller,
		tokens:     tokens,
		factoryABI: factoryABI,
		poolCache:  cache.New[tierKey, common.Address](10 * time.Minute),
		cb:         circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(name)),
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

func (a *Adapter) Name() string { return a.name }

// Pools returns one pool per fee tier that exists for the pair.
// Tiers without a pool are skipped; a tier whose reserve read fails
// is skipped too, so one bad tier cannot hide the others.
func (a *Adapter) Pools(ctx context.Context, pair domain.TokenPair) ([]*domain.Pool, error) {
	ctx, span := a.tracer.Start(ctx, "univ3.pools",
		trace.WithAttributes(
			attribute.String("venue", a.name),
			attribute.String("pair", pair.String()),
		),
	)
	defer span.End()

	var pools []*domain.Pool
	for _, tier := range a.feeTiers {
		poolAddr, err := a.poolAddress(ctx, pair, tier)
		if err != nil {
			span.AddEvent("tier_lookup_failed", trace.WithAttributes(
				attribute.Int("fee_tier", tier),
				attribute.String("error", err.Error()),
			))
			a.log.Warn(ctx, "tier lookup failed",
				"venue", a.name, "pair", pair.String(), "fee_tier", tier, "error", err)
			continue
		}
		if poolAddr == (common.Address{}) {
			continue
		}

		pool, err := a.snapshot(ctx, pair, tier, poolAddr)
		if err != nil {
			span.AddEvent("tier_snapshot_failed", trace.WithAttributes(
				attribute.Int("fee_tier", tier),
				attribute.String("error", err.Error()),
			))
			a.log.Warn(ctx, "tier snapshot failed",
				"venue", a.name, "pool", poolAddr.Hex(), "fee_tier", tier, "error", err)
			continue
		}
		pools = append(pools, pool)
	}

	span.SetAttributes(attribute.Int("pools", len(pools)))
	span.SetStatus(codes.Ok, "")
	return pools, nil
}

func (a *Adapter) poolAddress(ctx context.Context, pair domain.TokenPair, tier int) (common.Address, error) {
	key := tierKey{pair: pair, tier: tier}
	if addr, ok := a.poolCache.Get(ctx, key); ok {
		return addr, nil
	}

	callData, err := a.factoryABI.Pack("getPool", pair.Token0, pair.Token1, big.NewInt(int64(tier)))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPool: %w", err)
	}

	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.caller.CallContract(ctx, ethereum.CallMsg{
			To:   &a.factory,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.Wrap(err, apperror.CodePoolNotFound,
			fmt.Sprintf("%s getPool failed for tier %d", a.name, tier))
	}

	outputs, err := a.factoryABI.Unpack("getPool", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode getPool: %w", err)
	}
	addr := outputs[0].(common.Address)

	if addr != (common.Address{}) {
		a.poolCache.Set(ctx, key, addr, poolAddressTTL)
	}
	return addr, nil
}

// snapshot approximates reserves with the pool's token balances.
// Concentrated liquidity makes this an upper bound, good enough for
// spread detection; the liquidity floor downstream drops dust pools.
func (a *Adapter) snapshot(ctx context.Context, pair domain.TokenPair, tier int, poolAddr common.Address) (*domain.Pool, error) {
	reserve0, err := a.tokens.BalanceOf(ctx, pair.Token0, poolAddr)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeReserveFetchFailed, "token0 balance")
	}
	reserve1, err := a.tokens.BalanceOf(ctx, pair.Token1, poolAddr)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeReserveFetchFailed, "token1 balance")
	}

	return &domain.Pool{
		Venue:      a.name,
		Address:    poolAddr,
		Pair:       pair,
		Reserve0:   reserve0,
		Reserve1:   reserve1,
		FeeBps:     uint32(tier / 100),
		FeeTier:    tier,
		ObservedAt: time.Now(),
	}, nil
}

// Close releases the pool address cache.
func (a *Adapter) Close() error {
	a.poolCache.Close()
	return nil
}
