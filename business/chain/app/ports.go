// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/chain/domain"
)

// ContractCaller executes read-only contract calls. Venue adapters
// depend on this and nothing else from the chain context.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainReader is the full read surface of the provider pool.
type ChainReader interface {
	ContractCaller

	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// SuggestGasPrice returns the node's gas price suggestion.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasSource is one layer of the gas price lookup. Layers are tried
// in order until one answers.
type GasSource interface {
	Name() string
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}

// FiatSource is one layer of the ETH/USD price lookup.
type FiatSource interface {
	Name() string
	EthPriceUSD(ctx context.Context) (decimal.Decimal, error)
}

// HeadFeed streams new block headers.
type HeadFeed interface {
	// Subscribe starts the feed and returns a channel of headers.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}
