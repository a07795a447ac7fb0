package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	venuesDomain "github.com/fd1az/dex-scanner/business/venues/domain"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad wei literal: " + s)
	}
	return v
}

func poolWithReserves(venue string, reserve0, reserve1 *big.Int) *venuesDomain.Pool {
	return &venuesDomain.Pool{
		Venue: venue,
		Pair: venuesDomain.NewTokenPair(
			common.HexToAddress("0x1000000000000000000000000000000000000001"),
			common.HexToAddress("0x2000000000000000000000000000000000000002"),
		),
		Reserve0: reserve0,
		Reserve1: reserve1,
		FeeBps:   30,
	}
}

func TestChooseBorrowAmount(t *testing.T) {
	cfg := SizingConfig{
		MinBorrow: wei("10000000000000000"),     // 1e16
		MaxBorrow: wei("100000000000000000000"), // 100e18
	}

	tests := []struct {
		name         string
		buyReserve0  *big.Int
		sellReserve0 *big.Int
		want         *big.Int
	}{
		{
			// 1/200 of the smaller reserve0.
			name:         "fraction_of_smaller_pool",
			buyReserve0:  wei("4000000000000000000000"), // 4000e18
			sellReserve0: wei("8000000000000000000000"),
			want:         wei("20000000000000000000"), // 20e18
		},
		{
			name:         "smaller_pool_is_sell_side",
			buyReserve0:  wei("8000000000000000000000"),
			sellReserve0: wei("4000000000000000000000"),
			want:         wei("20000000000000000000"),
		},
		{
			name:         "floored_at_min_borrow",
			buyReserve0:  wei("1000000000000000000"), // 1e18/200 = 5e15 < floor
			sellReserve0: wei("1000000000000000000"),
			want:         wei("10000000000000000"),
		},
		{
			name:         "capped_at_max_borrow",
			buyReserve0:  wei("100000000000000000000000"), // 100000e18/200 = 500e18 > cap
			sellReserve0: wei("100000000000000000000000"),
			want:         wei("100000000000000000000"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buy := poolWithReserves("uniswap-v2", tt.buyReserve0, wei("1"))
			sell := poolWithReserves("sushiswap", tt.sellReserve0, wei("1"))

			got := ChooseBorrowAmount(buy, sell, cfg)
			if got.Cmp(tt.want) != 0 {
				t.Errorf("ChooseBorrowAmount = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSimulateRoundTrip_IdenticalPoolsLoseToFees(t *testing.T) {
	reserve0 := wei("1000000000000000000000")
	reserve1 := wei("2000000000000000000000000")

	buy := poolWithReserves("uniswap-v2", reserve0, reserve1)
	sell := poolWithReserves("sushiswap", new(big.Int).Set(reserve0), new(big.Int).Set(reserve1))

	amount := wei("1000000000000000000") // 1e18
	output, gross := SimulateRoundTrip(amount, buy, sell)

	if gross.Sign() != 0 {
		t.Errorf("gross profit = %s, want 0 on identical pools", gross)
	}
	if output.Cmp(amount) >= 0 {
		t.Errorf("output %s >= input %s despite double fee", output, amount)
	}

	// The loss should be roughly the two 30 bps legs, so the output
	// must still recover well over 99% of the input.
	floor := new(big.Int).Mul(amount, big.NewInt(9_900))
	floor.Div(floor, big.NewInt(10_000))
	if output.Cmp(floor) < 0 {
		t.Errorf("output %s lost more than 1%% on a same-price round trip", output)
	}
}

func TestSimulateRoundTrip_ProfitableWhenSellPricesHigher(t *testing.T) {
	// Buy pool prices token0 at 2000, sell pool at 2100.
	buy := poolWithReserves("uniswap-v2",
		wei("1000000000000000000000"),    // 1000e18
		wei("2000000000000000000000000")) // 2000000e18
	sell := poolWithReserves("sushiswap",
		wei("1000000000000000000000"),
		wei("2100000000000000000000000"))

	amount := wei("1000000000000000000")
	output, gross := SimulateRoundTrip(amount, buy, sell)

	if gross.Sign() <= 0 {
		t.Fatalf("gross profit = %s, want positive across a 500 bps spread", gross)
	}
	expected := new(big.Int).Sub(output, amount)
	if gross.Cmp(expected) != 0 {
		t.Errorf("gross = %s, want output-amount = %s", gross, expected)
	}
}
