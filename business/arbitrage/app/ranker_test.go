package app

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
)

func opp(name string, netUSD float64, profitable bool) *domain.Opportunity {
	return &domain.Opportunity{
		Buy:          pool(name, tokenA, tokenB, 2000),
		Sell:         pool(name+"-sell", tokenA, tokenB, 2015),
		NetProfitUSD: decimal.NewFromFloat(netUSD),
		Profitable:   profitable,
	}
}

func TestRankSortsByNetProfitDescending(t *testing.T) {
	ranker := NewRanker(RankerConfig{TopN: 20})

	ranked := ranker.Rank([]*domain.Opportunity{
		opp("low", 10, true),
		opp("high", 300, true),
		opp("mid", 50, true),
	})

	if len(ranked) != 3 {
		t.Fatalf("ranked = %d, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].NetProfitUSD.GreaterThan(ranked[i-1].NetProfitUSD) {
			t.Errorf("position %d (%s) out of order", i, ranked[i].NetProfitUSD)
		}
	}
}

func TestRankDropsUnprofitableByDefault(t *testing.T) {
	ranker := NewRanker(RankerConfig{TopN: 20})

	ranked := ranker.Rank([]*domain.Opportunity{
		opp("good", 100, true),
		opp("bad", -5, false),
	})

	if len(ranked) != 1 {
		t.Fatalf("ranked = %d, want 1", len(ranked))
	}
	if !ranked[0].Profitable {
		t.Error("surviving entry should be the profitable one")
	}
}

func TestRankKeepsFlaggedUnprofitableInDiagnosticsMode(t *testing.T) {
	ranker := NewRanker(RankerConfig{TopN: 20, KeepUnprofitable: true})

	ranked := ranker.Rank([]*domain.Opportunity{
		opp("bad", -5, false),
		opp("good", 100, true),
	})

	if len(ranked) != 2 {
		t.Fatalf("ranked = %d, want 2", len(ranked))
	}
	if !ranked[0].Profitable || ranked[1].Profitable {
		t.Error("profitable entries must rank ahead of flagged ones")
	}
}

func TestRankCapsAtTopN(t *testing.T) {
	ranker := NewRanker(RankerConfig{TopN: 20})

	opps := make([]*domain.Opportunity, 0, 30)
	for i := 0; i < 30; i++ {
		opps = append(opps, opp(fmt.Sprintf("v%d", i), float64(i), true))
	}

	ranked := ranker.Rank(opps)
	if len(ranked) != 20 {
		t.Fatalf("ranked = %d, want 20", len(ranked))
	}
	if !ranked[0].NetProfitUSD.Equal(decimal.NewFromInt(29)) {
		t.Errorf("top entry = %s, want 29", ranked[0].NetProfitUSD)
	}
}

func TestRankIsStableForEqualProfits(t *testing.T) {
	ranker := NewRanker(RankerConfig{})

	first := opp("first", 42, true)
	second := opp("second", 42, true)

	ranked := ranker.Rank([]*domain.Opportunity{first, second})
	if ranked[0] != first || ranked[1] != second {
		t.Error("equal net profits must keep input order")
	}
}
