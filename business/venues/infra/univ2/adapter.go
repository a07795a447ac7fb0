// Package univ2 implements the venue Adapter for pair-registry DEXes
// of the Uniswap V2 family (Uniswap V2, SushiSwap, and forks).
package univ2

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
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "venues.univ2"

// Pair addresses are immutable once the factory creates them, so
// the address cache can live long.
const pairAddressTTL = time.Hour

// Ensure Adapter implements the venue port.
var _ app.Adapter = (*Adapter)(nil)

// Adapter reads pools from one V2-family venue. The same code
// serves every fork; only name, factory, and fee differ.
type Adapter struct {
	name    string
	factory common.Address
	feeBps  uint32

	caller     chainApp.ContractCaller
	factoryABI abi.ABI
	pairABI    abi.ABI

	pairCache *cache.Cache[domain.TokenPair, common.Address]
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	log       logger.LoggerInterface
	tracer    trace.Tracer
}

// NewAdapter creates a V2-family adapter for one venue.
func NewAdapter(name string, factory common.Address, feeBps uint32, caller chainApp.ContractCaller, log logger.LoggerInterface) (*Adapter, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	return &Adapter{
		name:       name,
		factory:    factory,
		feeBps:     feeBps,
		caller:     caller,
		factoryABI: factoryABI,
		pairABI:    pairABI,
		pairCache:  cache.New[domain.TokenPair, common.Address](10 * time.Minute),
		cb:         circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(name)),
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

func (a *Adapter) Name() string { return a.name }

// Pools returns the venue's pool for the pair, or an empty slice
// when the factory has none.
func (a *Adapter) Pools(ctx context.Context, pair domain.TokenPair) ([]*domain.Pool, error) {
	ctx, span := a.tracer.Start(ctx, "univ2.pools",
		trace.WithAttributes(
			attribute.String("venue", a.name),
			attribute.String("pair", pair.String()),
		),
	)
	defer span.End()

	poolAddr, err := a.pairAddress(ctx, pair)
	if err != nil {
		span.SetStatus(codes.Error, "pair lookup failed")
		return nil, err
	}
	if poolAddr == (common.Address{}) {
		span.AddEvent("pair_not_listed")
		return nil, nil
	}

	reserve0, reserve1, err := a.reserves(ctx, poolAddr)
	if err != nil {
		span.SetStatus(codes.Error, "reserve fetch failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return []*domain.Pool{{
		Venue:      a.name,
		Address:    poolAddr,
		Pair:       pair,
		Reserve0:   reserve0,
		Reserve1:   reserve1,
		FeeBps:     a.feeBps,
		ObservedAt: time.Now(),
	}}, nil
}

// pairAddress resolves the pool address through the factory,
// memoizing hits. The zero address (pair not listed) is not cached
// so newly created pools show up promptly.
func (a *Adapter) pairAddress(ctx context.Context, pair domain.TokenPair) (common.Address, error) {
	if addr, ok := a.pairCache.Get(ctx, pair); ok {
		return addr, nil
	}

	callData, err := a.factoryABI.Pack("getPair", pair.Token0, pair.Token1)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPair: %w", err)
	}

	result, err := a.call(ctx, a.factory, callData)
	if err != nil {
		return common.Address{}, apperror.Wrap(err, apperror.CodePoolNotFound,
			fmt.Sprintf("%s getPair failed", a.name))
	}

	outputs, err := a.factoryABI.Unpack("getPair", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode getPair: %w", err)
	}
	addr := outputs[0].(common.Address)

	if addr != (common.Address{}) {
		a.pairCache.Set(ctx, pair, addr, pairAddressTTL)
	}
	return addr, nil
}

func (a *Adapter) reserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error) {
	callData, err := a.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode getReserves: %w", err)
	}

	result, err := a.call(ctx, pool, callData)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeReserveFetchFailed,
			fmt.Sprintf("%s getReserves failed for %s", a.name, pool.Hex()))
	}

	outputs, err := a.pairABI.Unpack("getReserves", result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode getReserves: %w", err)
	}

	return outputs[0].(*big.Int), outputs[1].(*big.Int), nil
}

func (a *Adapter) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return a.cb.Execute(func() ([]byte, error) {
		return a.caller.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: data,
		}, nil)
	})
}

// Close releases the pair address cache.
func (a *Adapter) Close() error {
	a.pairCache.Close()
	return nil
}
