package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
)

// Candidate is a detected price divergence before cost modeling: two
// pools on distinct venues for the same canonical pair, with the buy
// side priced lower.
type Candidate struct {
	Pair      venuesDomain.TokenPair
	Buy       *venuesDomain.Pool
	Sell      *venuesDomain.Pool
	BuyPrice  *big.Int
	SellPrice *big.Int
	SpreadBps *big.Int
}

// Opportunity is a fully costed round trip. Produced once per cycle
// and consumed immediately by the ranker; never persisted.
type Opportunity struct {
	Pair            venuesDomain.TokenPair
	Buy             *venuesDomain.Pool
	Sell            *venuesDomain.Pool
	SpreadBps       *big.Int
	BorrowAmount    *big.Int // token0 wei
	SimulatedOutput *big.Int // token0 wei after both legs
	GrossProfit     *big.Int // max(0, output − borrow)
	LoanProvider    LoanProvider
	LoanFee         *big.Int // token0 wei
	GasCost         *GasCost
	NetProfitUSD    decimal.Decimal
	Profitable      bool
	BlockNumber     uint64
	Timestamp       time.Time
}

// IsProfitable reports whether the opportunity cleared the net-profit
// threshold and the gas guard.
func (o *Opportunity) IsProfitable() bool {
	return o.Profitable
}

// Direction renders the trade route for logs and displays.
func (o *Opportunity) Direction() string {
	return fmt.Sprintf("buy %s / sell %s", o.Buy.Venue, o.Sell.Venue)
}

// ScanStats summarizes one detection cycle for reporters.
type ScanStats struct {
	Cycle           uint64
	BlockNumber     uint64
	PoolsScanned    int
	PairsChecked    int
	CandidatesFound int
	Profitable      int
	GasPriceGwei    float64
	EthPriceUSD     decimal.Decimal
	CycleDuration   time.Duration
	CycleErrors     int
}

// Report is the per-cycle output handed to reporters: the ranked
// opportunities plus the cycle statistics.
type Report struct {
	Opportunities []*Opportunity
	Stats         ScanStats
}
