package app

import (
	"sort"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
)

// RankerConfig controls how cycle output is ordered and trimmed.
type RankerConfig struct {
	// TopN caps the list handed downstream, bounding the cost of any
	// later on-chain simulation. Zero means no cap.
	TopN int

	// KeepUnprofitable retains flagged unprofitable opportunities for
	// diagnostics instead of discarding them.
	KeepUnprofitable bool
}

// Ranker orders costed opportunities for reporting.
type Ranker struct {
	cfg RankerConfig
}

// NewRanker creates a ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank sorts stably by net profit descending with profitable entries
// first, drops unprofitable ones unless diagnostics mode keeps them,
// and caps the result at TopN.
func (r *Ranker) Rank(opps []*domain.Opportunity) []*domain.Opportunity {
	ranked := make([]*domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.Profitable || r.cfg.KeepUnprofitable {
			ranked = append(ranked, o)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Profitable != ranked[j].Profitable {
			return ranked[i].Profitable
		}
		return ranked[i].NetProfitUSD.GreaterThan(ranked[j].NetProfitUSD)
	})

	if r.cfg.TopN > 0 && len(ranked) > r.cfg.TopN {
		ranked = ranked[:r.cfg.TopN]
	}
	return ranked
}
