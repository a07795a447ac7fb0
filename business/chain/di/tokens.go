// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/dex-scanner/business/chain/app"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("chain.ChainService")
	ChainReader  = di.NewToken[app.ChainReader]("chain.ChainReader")
)

// Private dependency tokens - internal to the chain module
var (
	GasSources  = di.NewToken[[]app.GasSource]("chain:gasSources")
	FiatSources = di.NewToken[[]app.FiatSource]("chain:fiatSources")
	HeadFeed    = di.NewToken[app.HeadFeed]("chain:headFeed")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetChainReader(c di.ServiceRegistry) app.ChainReader {
	return di.GetToken(c, ChainReader)
}

func GetHeadFeed(c di.ServiceRegistry) app.HeadFeed {
	return di.GetToken(c, HeadFeed)
}
