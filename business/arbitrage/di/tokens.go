// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/dex-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ScanLoop = di.NewToken[*app.ScanLoop]("arbitrage.ScanLoop")
	Reporter = di.NewToken[app.Reporter]("arbitrage.Reporter")
)

// Private dependency tokens - internal to the arbitrage module
var (
	Detector   = di.NewToken[*app.Detector]("arbitrage:detector")
	Calculator = di.NewToken[*app.ProfitCalculator]("arbitrage:calculator")
	Ranker     = di.NewToken[*app.Ranker]("arbitrage:ranker")
)

// Helper functions for type-safe access
func GetScanLoop(c di.ServiceRegistry) *app.ScanLoop {
	return di.GetToken(c, ScanLoop)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetCalculator(c di.ServiceRegistry) *app.ProfitCalculator {
	return di.GetToken(c, Calculator)
}

func GetRanker(c di.ServiceRegistry) *app.Ranker {
	return di.GetToken(c, Ranker)
}
