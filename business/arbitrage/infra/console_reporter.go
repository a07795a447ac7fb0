// Package infra contains reporter adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/dex-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// Ensure ConsoleReporter implements the reporter port.
var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints cycle output as plain text blocks.
type ConsoleReporter struct {
	out io.Writer

	mu        sync.Mutex
	lastBlock uint64
}

// NewConsoleReporter writes to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo writes to the given writer.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "DEX Scanner Started")
	fmt.Fprintln(r.out, "===================")
	return nil
}

// Report prints the cycle summary and one block per ranked
// opportunity.
func (r *ConsoleReporter) Report(report *domain.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := report.Stats
	fmt.Fprintf(r.out, "[cycle %d] block #%d  pools=%d  candidates=%d  profitable=%d  gas=%.1f gwei  eth=$%s  took=%s\n",
		s.Cycle, s.BlockNumber, s.PoolsScanned, s.CandidatesFound, s.Profitable,
		s.GasPriceGwei, s.EthPriceUSD.StringFixed(2), s.CycleDuration.Round(time.Millisecond))

	for _, opp := range report.Opportunities {
		r.printOpportunity(opp)
	}
}

func (r *ConsoleReporter) printOpportunity(opp *domain.Opportunity) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	if opp.Profitable {
		fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY")
	} else {
		fmt.Fprintln(r.out, "UNPROFITABLE CANDIDATE (diagnostics)")
	}
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Block:        #%d\n", opp.BlockNumber)
	fmt.Fprintf(r.out, "Timestamp:    %s\n", opp.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Pair:         %s\n", opp.Pair.String())
	fmt.Fprintf(r.out, "Route:        %s\n", opp.Direction())
	fmt.Fprintf(r.out, "Spread:       %s bps\n", opp.SpreadBps.String())
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintln(r.out, "TRADE")
	fmt.Fprintf(r.out, "  Borrow:     %s wei (%s)\n", opp.BorrowAmount.String(), opp.LoanProvider.Name)
	fmt.Fprintf(r.out, "  Output:     %s wei\n", opp.SimulatedOutput.String())
	fmt.Fprintf(r.out, "  Gross:      %s wei\n", opp.GrossProfit.String())
	fmt.Fprintf(r.out, "  Loan fee:   %s wei\n", opp.LoanFee.String())
	if opp.GasCost != nil {
		fmt.Fprintf(r.out, "  Gas:        %s ETH ($%s, %d units)\n",
			opp.GasCost.ETH.StringFixed(6), opp.GasCost.USD.StringFixed(2), opp.GasCost.GasUnits)
	}
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintf(r.out, "NET PROFIT:   $%s\n", opp.NetProfitUSD.StringFixed(2))
	fmt.Fprintln(r.out, rule)
}

func (r *ConsoleReporter) UpdateConnection(name string, connected bool) {
	status := "disconnected"
	if connected {
		status = "connected"
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

func (r *ConsoleReporter) UpdateBlock(number uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastBlock = number
}

func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "DEX Scanner Stopped")
	return nil
}
