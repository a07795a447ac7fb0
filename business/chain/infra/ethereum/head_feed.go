package ethereum

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/business/chain/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/wsconn"
)

const (
	feedTracerName = "chain.headfeed"
	feedMeterName  = "chain.headfeed"

	subscribeRequestID = 1
)

// Ensure HeadFeed implements the port.
var _ app.HeadFeed = (*HeadFeed)(nil)

// HeadFeedConfig holds head feed settings.
type HeadFeedConfig struct {
	WSURL        string        // WebSocket endpoint (primary)
	PollInterval time.Duration // Poll cadence when falling back to the pool
	BufferSize   int           // Head channel buffer size
}

// DefaultHeadFeedConfig returns sensible defaults.
func DefaultHeadFeedConfig(wsURL string) HeadFeedConfig {
	return HeadFeedConfig{
		WSURL:        wsURL,
		PollInterval: 12 * time.Second, // ~1 block time
		BufferSize:   16,
	}
}

type feedMetrics struct {
	headsReceived   metric.Int64Counter
	subscribeErrors metric.Int64Counter
	headLatency     metric.Float64Histogram
	pollFallback    metric.Int64Counter
}

// rpcMessage covers both subscribe replies and newHeads notifications.
type rpcMessage struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// wireHeader is the newHeads payload.
type wireHeader struct {
	Number     hexutil.Uint64 `json:"number"`
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Timestamp  hexutil.Uint64 `json:"timestamp"`
	GasLimit   hexutil.Uint64 `json:"gasLimit"`
	GasUsed    hexutil.Uint64 `json:"gasUsed"`
	BaseFee    *hexutil.Big   `json:"baseFeePerGas"`
}

// HeadFeed streams new block headers over a newHeads WebSocket
// subscription, falling back to polling the provider pool when the
// socket cannot be established.
type HeadFeed struct {
	cfg    HeadFeedConfig
	reader app.ChainReader
	log    logger.LoggerInterface

	ws        *wsconn.Client
	blocks    chan *domain.Block
	done      chan struct{}
	closed    atomic.Bool
	polling   atomic.Bool
	lastBlock atomic.Uint64

	tracer  trace.Tracer
	metrics *feedMetrics
}

// NewHeadFeed creates a head feed. The reader backs the polling
// fallback and may not be nil.
func NewHeadFeed(cfg HeadFeedConfig, reader app.ChainReader, log logger.LoggerInterface) (*HeadFeed, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 12 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}

	f := &HeadFeed{
		cfg:    cfg,
		reader: reader,
		log:    log,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(feedTracerName),
	}

	if err := f.initMetrics(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *HeadFeed) initMetrics() error {
	meter := otel.Meter(feedMeterName)
	var err error

	f.metrics = &feedMetrics{}

	f.metrics.headsReceived, err = meter.Int64Counter(
		"chain_heads_received_total",
		metric.WithDescription("Total block headers received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	f.metrics.subscribeErrors, err = meter.Int64Counter(
		"chain_head_subscribe_errors_total",
		metric.WithDescription("Total head subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	f.metrics.headLatency, err = meter.Float64Histogram(
		"chain_head_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	f.metrics.pollFallback, err = meter.Int64Counter(
		"chain_head_poll_fallback_total",
		metric.WithDescription("Times the polling fallback took over"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Subscribe starts the feed and returns the header channel.
func (f *HeadFeed) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	ctx, span := f.tracer.Start(ctx, "chain.heads.subscribe",
		trace.WithAttributes(attribute.String("ws_url", f.cfg.WSURL)),
	)
	defer span.End()

	if f.closed.Load() {
		return nil, apperror.New(apperror.CodeHeadFeedFailed,
			apperror.WithContext("feed is closed"))
	}

	if f.cfg.WSURL == "" {
		span.AddEvent("no_ws_url_polling")
		f.startPolling(ctx)
		return f.blocks, nil
	}

	if err := f.connectWS(ctx); err != nil {
		f.log.Warn(ctx, "ws head subscription failed, polling instead", "error", err)
		span.AddEvent("ws_failed_polling")
		f.metrics.subscribeErrors.Add(ctx, 1)
		f.startPolling(ctx)
		return f.blocks, nil
	}

	span.SetStatus(codes.Ok, "subscribed")
	return f.blocks, nil
}

func (f *HeadFeed) connectWS(ctx context.Context) error {
	wsCfg := wsconn.DefaultConfig(f.cfg.WSURL, "eth-heads")

	ws, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}

	ws.OnMessage(f.handleMessage)
	ws.OnStateChange(func(state wsconn.State, cause error) {
		switch state {
		case wsconn.StateConnected:
			// (Re)subscribe after every connect; subscriptions do
			// not survive a reconnect.
			f.sendSubscribe()
		case wsconn.StateDisconnected, wsconn.StateReconnecting:
			f.log.Warn(context.Background(), "head feed connection lost",
				"state", string(state), "error", cause)
		}
	})

	if err := ws.Connect(ctx); err != nil {
		ws.Close()
		return err
	}

	f.ws = ws
	return nil
}

func (f *HeadFeed) sendSubscribe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      subscribeRequestID,
		"method":  "eth_subscribe",
		"params":  []string{"newHeads"},
	}
	if err := f.ws.SendJSON(ctx, req); err != nil {
		f.log.Error(ctx, "eth_subscribe send failed", "error", err)
		f.metrics.subscribeErrors.Add(ctx, 1)
	}
}

func (f *HeadFeed) handleMessage(ctx context.Context, msg []byte) {
	var m rpcMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		f.log.Warn(ctx, "head feed: bad message", "error", err)
		return
	}

	switch {
	case m.Error != nil:
		f.log.Error(ctx, "head feed: rpc error",
			"code", m.Error.Code, "message", m.Error.Message)
		f.metrics.subscribeErrors.Add(ctx, 1)

	case m.Method == "eth_subscription":
		var header wireHeader
		if err := json.Unmarshal(m.Params.Result, &header); err != nil {
			f.log.Warn(ctx, "head feed: bad header", "error", err)
			return
		}
		f.emit(ctx, headerToBlock(&header))

	case m.ID == subscribeRequestID:
		var subID string
		_ = json.Unmarshal(m.Result, &subID)
		f.log.Info(ctx, "subscribed to new heads", "subscription", subID)
	}
}

func headerToBlock(h *wireHeader) *domain.Block {
	block := &domain.Block{
		Number:     uint64(h.Number),
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		Timestamp:  time.Unix(int64(h.Timestamp), 0),
		GasLimit:   uint64(h.GasLimit),
		GasUsed:    uint64(h.GasUsed),
	}
	if h.BaseFee != nil {
		block.BaseFee = h.BaseFee.ToInt()
	}
	return block
}

func (f *HeadFeed) startPolling(ctx context.Context) {
	if !f.polling.CompareAndSwap(false, true) {
		return
	}
	f.metrics.pollFallback.Add(ctx, 1)
	go f.runPoller(ctx)
}

func (f *HeadFeed) runPoller(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	f.log.Info(ctx, "head feed polling", "interval", f.cfg.PollInterval.String())

	for {
		select {
		case <-f.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.pollOnce(ctx)
		}
	}
}

func (f *HeadFeed) pollOnce(ctx context.Context) {
	number, err := f.reader.BlockNumber(ctx)
	if err != nil {
		f.log.Warn(ctx, "head poll failed", "error", err)
		f.metrics.subscribeErrors.Add(ctx, 1)
		return
	}
	if number <= f.lastBlock.Load() {
		return
	}

	// Polling only learns the number; header details stay zero.
	f.emit(ctx, &domain.Block{
		Number:    number,
		Timestamp: time.Now(),
	})
}

func (f *HeadFeed) emit(ctx context.Context, block *domain.Block) {
	if f.closed.Load() {
		return
	}

	latency := time.Since(block.Timestamp)
	f.metrics.headLatency.Record(ctx, float64(latency.Milliseconds()))
	f.lastBlock.Store(block.Number)

	select {
	case f.blocks <- block:
		f.metrics.headsReceived.Add(ctx, 1)
		f.log.Debug(ctx, "head received",
			"number", block.Number, "latency_ms", latency.Milliseconds())
	default:
		f.log.Warn(ctx, "head dropped, buffer full", "number", block.Number)
	}
}

// State returns the feed connection state.
func (f *HeadFeed) State() domain.ConnectionState {
	if f.closed.Load() {
		return domain.StateDisconnected
	}
	if f.polling.Load() {
		return domain.StateConnected
	}
	if f.ws == nil {
		return domain.StateDisconnected
	}

	switch f.ws.State() {
	case wsconn.StateConnected:
		return domain.StateConnected
	case wsconn.StateConnecting:
		return domain.StateConnecting
	case wsconn.StateReconnecting:
		return domain.StateReconnecting
	default:
		return domain.StateDisconnected
	}
}

// LastBlock returns the number of the last header seen.
func (f *HeadFeed) LastBlock() uint64 {
	return f.lastBlock.Load()
}

// Close stops the feed.
func (f *HeadFeed) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(f.done)
	if f.ws != nil {
		f.ws.Close()
	}
	close(f.blocks)
	return nil
}
