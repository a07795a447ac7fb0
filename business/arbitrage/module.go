// Package arbitrage implements the arbitrage bounded context: spread
// detection across venues, trade sizing and cost modelling, ranking,
// and the periodic scan loop that drives reporting.
package arbitrage

import (
	"context"

	"github.com/fd1az/dex-scanner/business/arbitrage/app"
	arbDI "github.com/fd1az/dex-scanner/business/arbitrage/di"
	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	"github.com/fd1az/dex-scanner/business/arbitrage/infra"
	chainApp "github.com/fd1az/dex-scanner/business/chain/app"
	chainDI "github.com/fd1az/dex-scanner/business/chain/di"
	chainDomain "github.com/fd1az/dex-scanner/business/chain/domain"
	venuesDI "github.com/fd1az/dex-scanner/business/venues/di"
	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

// Module implements the arbitrage bounded context. UseTUI selects the
// dashboard reporter instead of plain console output.
type Module struct {
	UseTUI bool
}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Detector (private)
	di.RegisterToken(c, arbDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		detector, err := app.NewDetector(cfg.Engine.SpreadThresholdBps, log)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	// Register Calculator (private)
	di.RegisterToken(c, arbDI.Calculator, func(sr di.ServiceRegistry) *app.ProfitCalculator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		calcCfg := app.CalculatorConfig{
			GasUnits:        cfg.Engine.GasUnits,
			MinProfitUSD:    cfg.Engine.MinProfitUSDDecimal(),
			MaxGasPriceGwei: cfg.Engine.MaxGasPriceGwei,
			Sizing: domain.SizingConfig{
				MinBorrow: cfg.Engine.MinBorrow(),
				MaxBorrow: cfg.Engine.MaxBorrow(),
			},
		}
		return app.NewProfitCalculator(chainDI.GetChainService(sr), calcCfg, log)
	})

	// Register Ranker (private)
	di.RegisterToken(c, arbDI.Ranker, func(sr di.ServiceRegistry) *app.Ranker {
		cfg := sr.Get("config").(*config.Config)

		return app.NewRanker(app.RankerConfig{
			TopN:             cfg.Engine.TopN,
			KeepUnprofitable: cfg.Engine.KeepUnprofitable,
		})
	})

	// Register Reporter (public)
	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		log := sr.Get("logger").(logger.LoggerInterface)

		if m.UseTUI {
			return infra.NewTUIReporter(log)
		}
		return infra.NewConsoleReporter()
	})

	// Register ScanLoop (public)
	di.RegisterToken(c, arbDI.ScanLoop, func(sr di.ServiceRegistry) *app.ScanLoop {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		loopCfg := app.ScanLoopConfig{
			Pairs:         venuesDomain.PairsOf(cfg.Tokens.UniverseAddresses()),
			Interval:      cfg.Engine.ScanInterval(),
			RefreshCycles: cfg.Engine.PriceRefreshCycles,
		}
		loop, err := app.NewScanLoop(
			venuesDI.GetScanner(sr),
			arbDI.GetDetector(sr),
			arbDI.GetCalculator(sr),
			arbDI.GetRanker(sr),
			arbDI.GetReporter(sr),
			chainDI.GetChainService(sr),
			loopCfg,
			log,
		)
		if err != nil {
			panic("failed to create scan loop: " + err.Error())
		}
		return loop
	})

	return nil
}

// Startup starts the scan loop and, when the head feed is available,
// forwards new blocks to the reporter between cycles.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	loop := arbDI.GetScanLoop(mono.Services())
	reporter := arbDI.GetReporter(mono.Services())
	chainSvc := chainDI.GetChainService(mono.Services())

	if err := loop.Start(ctx); err != nil {
		return err
	}
	mono.AddCloser(loop)

	heads, err := chainSvc.SubscribeHeads(ctx)
	if err != nil {
		log.Warn(ctx, "head feed unavailable, block updates follow scan cycles", "error", err)
		reporter.UpdateConnection("head feed", false)
	} else {
		reporter.UpdateConnection("head feed", true)
		go forwardHeads(ctx, heads, reporter, chainSvc)
	}

	log.Info(ctx, "arbitrage module started",
		"pairs", len(venuesDomain.PairsOf(mono.Config().Tokens.UniverseAddresses())),
		"interval", mono.Config().Engine.ScanInterval().String())
	return nil
}

// forwardHeads pushes head-feed blocks to the reporter so the
// dashboard tracks the chain between scan cycles.
func forwardHeads(ctx context.Context, heads <-chan *chainDomain.Block, reporter app.Reporter, svc *chainApp.ChainService) {
	for {
		select {
		case <-ctx.Done():
			return
		case block, ok := <-heads:
			if !ok {
				reporter.UpdateConnection("head feed", false)
				return
			}
			reporter.UpdateBlock(block.Number)
			reporter.UpdateConnection("head feed",
				svc.HeadState() == chainDomain.StateConnected)
		}
	}
}
