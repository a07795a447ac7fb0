package domain

import (
	"math/big"
	"testing"
)

func TestSwapOutput(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		feeBps     uint32
		want       int64
	}{
		{
			// floor(1000·9970·2000000 / (1000000·10000 + 1000·9970))
			name:       "small_trade_30bps",
			amountIn:   1000,
			reserveIn:  1_000_000,
			reserveOut: 2_000_000,
			feeBps:     30,
			want:       1992,
		},
		{
			name:       "no_fee",
			amountIn:   1000,
			reserveIn:  1_000_000,
			reserveOut: 2_000_000,
			feeBps:     0,
			want:       1998, // floor(1000·2000000/1001000)
		},
		{
			name:       "full_fee_eats_everything",
			amountIn:   1000,
			reserveIn:  1_000_000,
			reserveOut: 2_000_000,
			feeBps:     10_000,
			want:       0,
		},
		{
			name:       "zero_amount_in",
			amountIn:   0,
			reserveIn:  1_000_000,
			reserveOut: 2_000_000,
			feeBps:     30,
			want:       0,
		},
		{
			name:       "zero_reserve_in",
			amountIn:   1000,
			reserveIn:  0,
			reserveOut: 2_000_000,
			feeBps:     30,
			want:       0,
		},
		{
			name:       "zero_reserve_out",
			amountIn:   1000,
			reserveIn:  1_000_000,
			reserveOut: 0,
			feeBps:     30,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SwapOutput(
				big.NewInt(tt.amountIn),
				big.NewInt(tt.reserveIn),
				big.NewInt(tt.reserveOut),
				tt.feeBps,
			)
			if got.Int64() != tt.want {
				t.Errorf("SwapOutput = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestSwapOutput_MonotonicInAmountIn(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)

	prev := new(big.Int)
	for _, amountIn := range []int64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000} {
		out := SwapOutput(big.NewInt(amountIn), reserveIn, reserveOut, 30)
		if out.Cmp(prev) < 0 {
			t.Fatalf("output decreased: SwapOutput(%d) = %s < %s", amountIn, out, prev)
		}
		prev = out
	}
}

func TestSwapOutput_NeverDrainsPool(t *testing.T) {
	reserveIn := big.NewInt(1_000)
	reserveOut := big.NewInt(1_000)

	// Even an absurdly large input must leave the output reserve
	// above zero.
	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	for _, feeBps := range []uint32{0, 30, 100, 9_999} {
		out := SwapOutput(huge, reserveIn, reserveOut, feeBps)
		if out.Cmp(reserveOut) >= 0 {
			t.Errorf("feeBps=%d: output %s >= reserveOut %s", feeBps, out, reserveOut)
		}
	}
}

func TestPriceRatio(t *testing.T) {
	tests := []struct {
		name     string
		reserve0 int64
		reserve1 int64
		want     *big.Int
	}{
		{
			name:     "two_to_one",
			reserve0: 1_000_000,
			reserve1: 2_000_000,
			want:     new(big.Int).Mul(big.NewInt(2), Scale),
		},
		{
			name:     "one_to_one",
			reserve0: 500,
			reserve1: 500,
			want:     new(big.Int).Set(Scale),
		},
		{
			name:     "zero_reserve0_unpriceable",
			reserve0: 0,
			reserve1: 2_000_000,
			want:     new(big.Int),
		},
		{
			name:     "zero_reserve1_unpriceable",
			reserve0: 1_000_000,
			reserve1: 0,
			want:     new(big.Int),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceRatio(big.NewInt(tt.reserve0), big.NewInt(tt.reserve1))
			if got.Cmp(tt.want) != 0 {
				t.Errorf("PriceRatio = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSpreadBps(t *testing.T) {
	ratio := func(n int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(n), Scale)
	}

	tests := []struct {
		name   string
		lower  *big.Int
		higher *big.Int
		want   int64
	}{
		{
			// (2015−2000)·10000/2000 = 75
			name:   "seventy_five_bps",
			lower:  ratio(2000),
			higher: ratio(2015),
			want:   75,
		},
		{
			name:   "identical_prices",
			lower:  ratio(2000),
			higher: ratio(2000),
			want:   0,
		},
		{
			name:   "inverted_inputs_clamp_to_zero",
			lower:  ratio(2015),
			higher: ratio(2000),
			want:   0,
		},
		{
			name:   "zero_lower_guarded",
			lower:  new(big.Int),
			higher: ratio(2000),
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpreadBps(tt.lower, tt.higher)
			if got.Int64() != tt.want {
				t.Errorf("SpreadBps = %s, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkSwapOutput(b *testing.B) {
	amountIn := big.NewInt(1_000_000)
	reserveIn, _ := new(big.Int).SetString("5000000000000000000000", 10)
	reserveOut, _ := new(big.Int).SetString("10000000000000000000000000", 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SwapOutput(amountIn, reserveIn, reserveOut, 30)
	}
}
