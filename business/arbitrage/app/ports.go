// Package app contains the detection pipeline for the arbitrage
// context: detector, cost model, ranker, and the scan loop driving
// them.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	chainDomain "github.com/fd1az/dex-scanner/business/chain/domain"
	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
)

// PoolSource supplies pool snapshots for a set of pairs. Satisfied by
// the venue scanner.
type PoolSource interface {
	Snapshot(ctx context.Context, pairs []venuesDomain.TokenPair) []*venuesDomain.Pool
}

// QuoteSource supplies the chain-level figures the cost model needs.
// Satisfied by the chain service.
type QuoteSource interface {
	GasPrice(ctx context.Context) (*chainDomain.GasPrice, error)
	EthPriceUSD(ctx context.Context) decimal.Decimal
	LatestBlockNumber(ctx context.Context) (uint64, error)
	Refresh(ctx context.Context)
}

// Reporter consumes ranked cycle output.
type Reporter interface {
	// Start initializes the reporter before the first cycle.
	Start(ctx context.Context) error

	// Report delivers one cycle's ranked opportunities and stats.
	Report(report *domain.Report)

	// UpdateConnection updates a named connection indicator.
	UpdateConnection(name string, connected bool)

	// UpdateBlock announces a new chain head.
	UpdateBlock(number uint64)

	// Stop shuts the reporter down.
	Stop() error
}
