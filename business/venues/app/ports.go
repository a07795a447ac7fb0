// Package app contains application services and port definitions for the venues context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/asset"
)

// Adapter reads pools for token pairs on one venue. A pair the venue
// does not list yields an empty slice, not an error.
type Adapter interface {
	Name() string
	Pools(ctx context.Context, pair domain.TokenPair) ([]*domain.Pool, error)
}

// MetadataSource resolves ERC20 token metadata. Resolution is best
// effort: tokens with broken symbol or decimals calls still resolve,
// with placeholders.
type MetadataSource interface {
	Resolve(ctx context.Context, addr common.Address) (*asset.Asset, error)
}
