// Package venues implements the venues bounded context: DEX pool
// adapters, the venue scanner, and token metadata resolution.
package venues

import (
	"context"
	"io"

	chainDI "github.com/fd1az/dex-scanner/business/chain/di"
	"github.com/fd1az/dex-scanner/business/venues/app"
	venuesDI "github.com/fd1az/dex-scanner/business/venues/di"
	"github.com/fd1az/dex-scanner/business/venues/infra/erc20"
	"github.com/fd1az/dex-scanner/business/venues/infra/univ2"
	"github.com/fd1az/dex-scanner/business/venues/infra/univ3"
	"github.com/fd1az/dex-scanner/internal/asset"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

// Module implements the venues bounded context.
type Module struct{}

// RegisterServices registers all venue services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Metadata (public - ERC20 metadata resolver)
	di.RegisterToken(c, venuesDI.Metadata, func(sr di.ServiceRegistry) app.MetadataSource {
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		caller := chainDI.GetChainReader(sr)

		client, err := erc20.NewClient(asset.ChainIDEthereum, caller, registry, log)
		if err != nil {
			panic("failed to create erc20 client: " + err.Error())
		}
		return client
	})

	// Register Adapters (private - one per configured venue)
	di.RegisterToken(c, venuesDI.Adapters, func(sr di.ServiceRegistry) []app.Adapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		caller := chainDI.GetChainReader(sr)

		var adapters []app.Adapter
		for _, pv := range cfg.Venues.PairVenues {
			adapter, err := univ2.NewAdapter(pv.Name, pv.FactoryAddress(), pv.FeeBps, caller, log)
			if err != nil {
				panic("failed to create venue adapter " + pv.Name + ": " + err.Error())
			}
			adapters = append(adapters, adapter)
		}

		if tv := cfg.Venues.TieredVenue; tv.Enabled {
			tokens, err := erc20.NewClient(asset.ChainIDEthereum, caller, registry, log)
			if err != nil {
				panic("failed to create erc20 client: " + err.Error())
			}
			adapter, err := univ3.NewAdapter(tv.Name, tv.FactoryAddress(), tv.FeeTiers, caller, tokens, log)
			if err != nil {
				panic("failed to create venue adapter " + tv.Name + ": " + err.Error())
			}
			adapters = append(adapters, adapter)
		}

		return adapters
	})

	// Register Scanner (public)
	di.RegisterToken(c, venuesDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		scanner, err := app.NewScanner(
			venuesDI.GetAdapters(sr),
			ratelimit.New(cfg.Venues.RPSLimit),
			app.ScannerConfig{MinLiquidity: cfg.Engine.MinLiquidityFloor()},
			log,
		)
		if err != nil {
			panic("failed to create venue scanner: " + err.Error())
		}
		return scanner
	})

	return nil
}

// Startup resolves metadata for the configured token universe so
// symbols and decimals are ready before the first scan.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	metadata := venuesDI.GetMetadata(mono.Services())
	for _, addr := range mono.Config().Tokens.UniverseAddresses() {
		if _, err := metadata.Resolve(ctx, addr); err != nil {
			return err
		}
	}

	for _, adapter := range venuesDI.GetAdapters(mono.Services()) {
		if closer, ok := adapter.(io.Closer); ok {
			mono.AddCloser(closer)
		}
	}

	scanner := venuesDI.GetScanner(mono.Services())
	log.Info(ctx, "venues module started",
		"venues", scanner.Venues(),
		"universe", len(mono.Config().Tokens.Universe))
	return nil
}
