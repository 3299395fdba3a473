package tickmath

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFromTick(t *testing.T) {
	tests := []struct {
		name  string
		tick  int64
		delta int
		want  float64
	}{
		{name: "zero tick", tick: 0, delta: 0, want: 1},
		{name: "zero tick with decimals", tick: 0, delta: 12, want: 1e12},
		{name: "single tick", tick: 1, delta: 0, want: 1.0001},
		{name: "negative tick", tick: -1, delta: 0, want: 1 / 1.0001},
		{name: "usdc weth", tick: 200000, delta: 12, want: math.Exp(200000*math.Log(1.0001)) * 1e12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceFromTick(tt.tick, tt.delta)
			assert.InEpsilon(t, tt.want, got, 1e-9)
		})
	}
}

func TestPriceFromTick_OrderOfMagnitude(t *testing.T) {
	// 18 and 6 decimals, tick 200000
	price := PriceFromTick(200000, DecimalsDelta(18, 6))

	assert.Greater(t, price, 4.8e20)
	assert.Less(t, price, 4.9e20)
}

func TestPriceFromTick_Monotonic(t *testing.T) {
	for _, delta := range []int{-12, 0, 12} {
		prev := PriceFromTick(-887272, delta)
		for tick := int64(-887272 + 9973); tick <= 887272; tick += 9973 {
			cur := PriceFromTick(tick, delta)
			require.Greater(t, cur, prev, "tick %d delta %d", tick, delta)
			prev = cur
		}
	}
}

func TestPriceFromTick_DecimalsSymmetry(t *testing.T) {
	for _, tick := range []int64{-50000, -1, 0, 1, 12345, 200000} {
		direct := PriceFromTick(tick, DecimalsDelta(18, 6))
		swapped := PriceFromTick(-tick, DecimalsDelta(6, 18))

		assert.InEpsilon(t, 1.0, direct*swapped, 1e-9, "tick %d", tick)

		// same tick, swapped decimals differ by the squared scale
		sameTick := PriceFromTick(tick, DecimalsDelta(6, 18))
		assert.InEpsilon(t, direct, sameTick*1e24, 1e-9, "tick %d", tick)
	}
}

func TestDecimalsDelta(t *testing.T) {
	assert.Equal(t, 12, DecimalsDelta(18, 6))
	assert.Equal(t, -12, DecimalsDelta(6, 18))
	assert.Equal(t, 0, DecimalsDelta(18, 18))
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		name     string
		timeAgo  uint32
		interval uint32
		want     []uint32
	}{
		{name: "two intervals", timeAgo: 60, interval: 30, want: []uint32{60, 30, 0}},
		{name: "uneven window", timeAgo: 70, interval: 30, want: []uint32{70, 40, 10}},
		{name: "narrower than interval", timeAgo: 20, interval: 30, want: []uint32{20}},
		{name: "exactly one interval", timeAgo: 30, interval: 30, want: []uint32{30, 0}},
		{name: "now only", timeAgo: 0, interval: 30, want: []uint32{0}},
		{name: "zero interval", timeAgo: 60, interval: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Offsets(tt.timeAgo, tt.interval))
		})
	}
}

func samples(pairs ...int64) []TickSample {
	out := make([]TickSample, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, TickSample{SecondsAgo: uint32(pairs[i]), TickCumulative: big.NewInt(pairs[i+1])})
	}

	return out
}

func TestAggregate(t *testing.T) {
	t.Run("narrow window is empty", func(t *testing.T) {
		points := Aggregate(samples(20, 1000), 0)
		assert.NotNil(t, points)
		assert.Empty(t, points)
	})

	t.Run("no samples is empty", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil, 0))
	})

	t.Run("two samples give one point", func(t *testing.T) {
		// tick 100 held for 30s
		points := Aggregate(samples(30, 0, 0, 3000), 0)
		require.Len(t, points, 1)
		assert.Equal(t, "100", points[0].Tick)
		assert.InEpsilon(t, math.Pow(1.0001, 100), points[0].Price, 1e-12)
		assert.Equal(t, uint32(30), points[0].FromSecondsAgo)
		assert.Equal(t, uint32(0), points[0].ToSecondsAgo)
	})

	t.Run("window of 60 by 30 gives two points", func(t *testing.T) {
		// tick 200000 then 200010
		points := Aggregate(samples(60, 0, 30, 6_000_000, 0, 12_000_300), 12)
		require.Len(t, points, 2)
		assert.Equal(t, "200000", points[0].Tick)
		assert.Equal(t, "200010", points[1].Tick)
		assert.InEpsilon(t, PriceFromTick(200000, 12), points[0].Price, 1e-12)
		assert.Less(t, points[0].Price, points[1].Price)
	})

	t.Run("negative average rounds down", func(t *testing.T) {
		// -10 over 3s is -3.33, floor is -4
		points := Aggregate(samples(3, 0, 0, -10), 0)
		require.Len(t, points, 1)
		assert.Equal(t, "-4", points[0].Tick)
	})
}

func TestAggregate_DegenerateInterval(t *testing.T) {
	tests := []struct {
		name    string
		samples []TickSample
	}{
		{name: "equal timestamps", samples: samples(30, 100, 30, 200)},
		{name: "inverted timestamps", samples: samples(0, 100, 30, 200)},
		{name: "missing cumulative", samples: []TickSample{{SecondsAgo: 30}, {SecondsAgo: 0, TickCumulative: big.NewInt(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := Aggregate(tt.samples, 12)
			require.Len(t, points, 1)
			assert.Equal(t, "0", points[0].Tick)
			assert.Equal(t, 0.0, points[0].Price)
			assert.False(t, math.IsNaN(points[0].Price))
			assert.False(t, math.IsInf(points[0].Price, 0))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1.0001", FormatPrice(1.0001, 6))
	assert.Equal(t, "3012.35", FormatPrice(3012.3456, 2))
	assert.Equal(t, "0", FormatPrice(0, 6))
	assert.Equal(t, "NaN", FormatPrice(math.NaN(), 6))
	assert.Equal(t, "+Inf", FormatPrice(math.Inf(1), 6))
}
