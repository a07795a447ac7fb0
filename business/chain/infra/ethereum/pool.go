// Package ethereum contains chain infrastructure backed by JSON-RPC nodes.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const (
	poolTracerName = "chain.pool"
	poolMeterName  = "chain.pool"
)

// Ensure Pool implements ChainReader.
var _ app.ChainReader = (*Pool)(nil)

// nodeClient is the slice of ethclient.Client the pool uses. Tests
// inject fakes through the dialer hook.
type nodeClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

type dialFunc func(ctx context.Context, url string) (nodeClient, error)

func dialEthclient(ctx context.Context, url string) (nodeClient, error) {
	return ethclient.DialContext(ctx, url)
}

// PoolConfig holds provider pool settings.
type PoolConfig struct {
	Endpoints      []domain.Endpoint
	DialTimeout    time.Duration
	RequestTimeout time.Duration

	dialer dialFunc
}

// DefaultPoolConfig builds a PoolConfig from the tiered provider
// configuration, premium endpoints first.
func DefaultPoolConfig(cfg config.ProvidersConfig) PoolConfig {
	endpoints := make([]domain.Endpoint, 0,
		len(cfg.Premium)+len(cfg.Backup)+len(cfg.Public))
	for _, url := range cfg.Premium {
		endpoints = append(endpoints, domain.Endpoint{URL: url, Tier: domain.TierPremium})
	}
	for _, url := range cfg.Backup {
		endpoints = append(endpoints, domain.Endpoint{URL: url, Tier: domain.TierBackup})
	}
	for _, url := range cfg.Public {
		endpoints = append(endpoints, domain.Endpoint{URL: url, Tier: domain.TierPublic})
	}

	return PoolConfig{
		Endpoints:      endpoints,
		DialTimeout:    cfg.DialTimeout,
		RequestTimeout: cfg.RequestTimeout,
		dialer:         dialEthclient,
	}
}

type poolEndpoint struct {
	domain.Endpoint

	mu     sync.Mutex
	client nodeClient
	cb     *circuitbreaker.CircuitBreaker[any]
}

type poolMetrics struct {
	requestsTotal  metric.Int64Counter
	failoversTotal metric.Int64Counter
	errorsTotal    metric.Int64Counter
}

// Pool is a set of read endpoints with failover. The active ring is
// the highest non-empty tier, chosen once at construction; lower
// tiers are never consulted while a higher tier has endpoints.
// Requests go to the endpoint at the cursor; on failure the pool
// walks the rest of the ring and, when another endpoint answers,
// moves the cursor there so later requests start on the healthy node.
// Retries per call are bounded by the tier size.
type Pool struct {
	cfg    PoolConfig
	log    logger.LoggerInterface
	tracer trace.Tracer
	tier   domain.Tier

	mu        sync.RWMutex
	endpoints []*poolEndpoint
	cursor    int

	metrics *poolMetrics
}

// NewPool creates a provider pool over the highest non-empty tier in
// cfg.Endpoints. Endpoints are dialed lazily on first use so a dead
// premium endpoint cannot block startup.
func NewPool(cfg PoolConfig, log logger.LoggerInterface) (*Pool, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, apperror.New(apperror.CodeProviderDialFailed,
			apperror.WithContext("no endpoints configured"))
	}
	if cfg.dialer == nil {
		cfg.dialer = dialEthclient
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	active := activeTier(cfg.Endpoints)

	p := &Pool{
		cfg:    cfg,
		log:    log,
		tracer: otel.Tracer(poolTracerName),
		tier:   active,
	}

	for _, ep := range cfg.Endpoints {
		if ep.Tier != active {
			continue
		}
		cbCfg := circuitbreaker.DefaultConfig("provider-" + ep.URL)
		p.endpoints = append(p.endpoints, &poolEndpoint{
			Endpoint: ep,
			cb:       circuitbreaker.New[any](cbCfg),
		})
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

// activeTier returns the best tier that has at least one endpoint.
func activeTier(endpoints []domain.Endpoint) domain.Tier {
	best := endpoints[0].Tier
	for _, ep := range endpoints[1:] {
		if ep.Tier < best {
			best = ep.Tier
		}
	}
	return best
}

func (p *Pool) initMetrics() error {
	meter := otel.Meter(poolMeterName)
	var err error

	p.metrics = &poolMetrics{}

	p.metrics.requestsTotal, err = meter.Int64Counter(
		"chain_provider_requests_total",
		metric.WithDescription("Total provider pool requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.failoversTotal, err = meter.Int64Counter(
		"chain_provider_failovers_total",
		metric.WithDescription("Requests served by an endpoint other than the cursor"),
	)
	if err != nil {
		return err
	}

	p.metrics.errorsTotal, err = meter.Int64Counter(
		"chain_provider_errors_total",
		metric.WithDescription("Per-endpoint request failures"),
	)
	if err != nil {
		return err
	}

	return nil
}

// BlockNumber returns the latest block number.
func (p *Pool) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := p.execute(ctx, "block_number", func(ctx context.Context, c nodeClient) (any, error) {
		return c.BlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// SuggestGasPrice returns the node's gas price suggestion.
func (p *Pool) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	result, err := p.execute(ctx, "suggest_gas_price", func(ctx context.Context, c nodeClient) (any, error) {
		return c.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*big.Int), nil
}

// CallContract executes a read-only contract call.
func (p *Pool) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	result, err := p.execute(ctx, "call_contract", func(ctx context.Context, c nodeClient) (any, error) {
		return c.CallContract(ctx, msg, blockNumber)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Cursor returns the index of the endpoint requests currently start
// on. Exposed for status displays.
func (p *Pool) Cursor() (int, domain.Endpoint) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor, p.endpoints[p.cursor].Endpoint
}

// ActiveTier returns the tier the pool rotates within.
func (p *Pool) ActiveTier() domain.Tier {
	return p.tier
}

// Close closes every dialed endpoint.
func (p *Pool) Close() error {
	for _, ep := range p.endpoints {
		ep.mu.Lock()
		if ep.client != nil {
			ep.client.Close()
			ep.client = nil
		}
		ep.mu.Unlock()
	}
	return nil
}

func (p *Pool) execute(ctx context.Context, op string, fn func(context.Context, nodeClient) (any, error)) (any, error) {
	ctx, span := p.tracer.Start(ctx, "chain.pool."+op)
	defer span.End()

	p.metrics.requestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))

	p.mu.RLock()
	start := p.cursor
	total := len(p.endpoints)
	p.mu.RUnlock()

	var lastErr error
	for i := 0; i < total; i++ {
		idx := (start + i) % total
		ep := p.endpoints[idx]

		result, err := p.callEndpoint(ctx, ep, fn)
		if err != nil {
			lastErr = err
			p.metrics.errorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tier", ep.Tier.String()),
			))
			p.log.Warn(ctx, "provider request failed",
				"op", op, "url", ep.URL, "tier", ep.Tier.String(), "error", err)
			continue
		}

		if i > 0 {
			p.metrics.failoversTotal.Add(ctx, 1)
			p.mu.Lock()
			p.cursor = idx
			p.mu.Unlock()
			p.log.Info(ctx, "provider failover",
				"op", op, "url", ep.URL, "tier", ep.Tier.String())
		}

		span.SetAttributes(
			attribute.String("provider.tier", ep.Tier.String()),
			attribute.Int("provider.attempts", i+1),
		)
		span.SetStatus(codes.Ok, "")
		return result, nil
	}

	span.SetStatus(codes.Error, "providers exhausted")
	return nil, apperror.New(apperror.CodeProvidersExhausted,
		apperror.WithCause(lastErr),
		apperror.WithContext(fmt.Sprintf("%d %s endpoints failed for %s", total, p.tier, op)))
}

func (p *Pool) callEndpoint(ctx context.Context, ep *poolEndpoint, fn func(context.Context, nodeClient) (any, error)) (any, error) {
	client, err := p.clientFor(ctx, ep)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	return ep.cb.Execute(func() (any, error) {
		return fn(callCtx, client)
	})
}

func (p *Pool) clientFor(ctx context.Context, ep *poolEndpoint) (nodeClient, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.client != nil {
		return ep.client, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
	defer cancel()

	client, err := p.cfg.dialer(dialCtx, ep.URL)
	if err != nil {
		return nil, apperror.New(apperror.CodeProviderDialFailed,
			apperror.WithCause(err),
			apperror.WithContext("dial "+ep.URL))
	}

	ep.client = client
	return client, nil
}
