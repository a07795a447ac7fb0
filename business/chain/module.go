// Package chain implements the chain bounded context: the provider
// pool, gas and fiat price lookups, and the head feed.
package chain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/chain/app"
	chainDI "github.com/fd1az/dex-scanner/business/chain/di"
	"github.com/fd1az/dex-scanner/business/chain/infra/ethereum"
	"github.com/fd1az/dex-scanner/business/chain/infra/etherscan"
	"github.com/fd1az/dex-scanner/business/chain/infra/infura"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChainReader (public - the provider pool)
	di.RegisterToken(c, chainDI.ChainReader, func(sr di.ServiceRegistry) app.ChainReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		pool, err := ethereum.NewPool(ethereum.DefaultPoolConfig(cfg.Providers), log)
		if err != nil {
			panic("failed to create provider pool: " + err.Error())
		}
		return pool
	})

	// Register GasSources (private - layered, first answer wins)
	di.RegisterToken(c, chainDI.GasSources, func(sr di.ServiceRegistry) []app.GasSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		reader := chainDI.GetChainReader(sr)

		var sources []app.GasSource
		if cfg.Sources.InfuraGasAPIURL != "" {
			src, err := infura.NewClient(cfg.Sources.InfuraGasAPIURL, log)
			if err != nil {
				panic("failed to create infura gas client: " + err.Error())
			}
			sources = append(sources, src)
		}

		scan, err := etherscan.NewClient(cfg.Sources, log)
		if err != nil {
			panic("failed to create etherscan client: " + err.Error())
		}
		sources = append(sources, scan)

		return append(sources, ethereum.NewRPCGasSource(reader))
	})

	// Register FiatSources (private - ethprice first, gasoracle
	// UsdPrice second, static default handled by the service)
	di.RegisterToken(c, chainDI.FiatSources, func(sr di.ServiceRegistry) []app.FiatSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		scan, err := etherscan.NewClient(cfg.Sources, log)
		if err != nil {
			panic("failed to create etherscan client: " + err.Error())
		}
		return []app.FiatSource{scan, scan.GasOracleFiat()}
	})

	// Register HeadFeed (private)
	di.RegisterToken(c, chainDI.HeadFeed, func(sr di.ServiceRegistry) app.HeadFeed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		reader := chainDI.GetChainReader(sr)

		feedCfg := ethereum.DefaultHeadFeedConfig(cfg.Providers.WebSocketURL)
		feed, err := ethereum.NewHeadFeed(feedCfg, reader, log)
		if err != nil {
			panic("failed to create head feed: " + err.Error())
		}
		return feed
	})

	// Register ChainService (public)
	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svcCfg := app.ServiceConfig{
			QuoteTTL:       cfg.Engine.ScanInterval() * time.Duration(cfg.Engine.PriceRefreshCycles),
			FiatDefaultUSD: decimal.NewFromFloat(cfg.Sources.FiatDefaultUSD),
		}
		return app.NewChainService(
			chainDI.GetChainReader(sr),
			di.GetToken(sr, chainDI.GasSources),
			di.GetToken(sr, chainDI.FiatSources),
			chainDI.GetHeadFeed(sr),
			svcCfg,
			log,
		)
	})

	return nil
}

// Startup initializes the chain module and registers its resources
// for shutdown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := chainDI.GetChainService(mono.Services())
	mono.AddCloser(svc)

	if closer, ok := chainDI.GetChainReader(mono.Services()).(io.Closer); ok {
		mono.AddCloser(closer)
	}
	if closer, ok := chainDI.GetHeadFeed(mono.Services()).(io.Closer); ok {
		mono.AddCloser(closer)
	}

	// Prime the quotes so the first scan cycle has gas and fiat
	// prices ready.
	svc.Refresh(ctx)

	log.Info(ctx, "chain module started",
		"gas_price_source", gasSourceName(ctx, svc))
	return nil
}

func gasSourceName(ctx context.Context, svc *app.ChainService) string {
	price, err := svc.GasPrice(ctx)
	if err != nil {
		return "unavailable"
	}
	return price.Source
}
