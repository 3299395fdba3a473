// Package tickmath converts concentrated-liquidity pool ticks into prices
// and reconstructs windowed average prices from cumulative tick readings.
package tickmath

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// TickBase is the multiplicative price step between two adjacent ticks.
const TickBase = 1.0001

// TickSample is a single cumulative tick reading taken SecondsAgo seconds before now.
type TickSample struct {
	SecondsAgo     uint32
	TickCumulative *big.Int
}

// PricePoint is the average price of one sub-interval of an observation window.
type PricePoint struct {
	Tick           string  `json:"tick"`            // Average tick, rendered for display
	Price          float64 `json:"price"`           // Price of token0 in token1, decimals adjusted
	FromSecondsAgo uint32  `json:"from_seconds_ago"` // Older edge of the sub-interval
	ToSecondsAgo   uint32  `json:"to_seconds_ago"`   // Newer edge of the sub-interval
}

// DecimalsDelta returns the exponent that rescales a raw tick price into a human price.
func DecimalsDelta(decimals0, decimals1 uint8) int {
	return int(decimals0) - int(decimals1)
}

// PriceFromTick converts a tick into a price: 1.0001^tick * 10^decimalsDelta.
func PriceFromTick(tick int64, decimalsDelta int) float64 {
	return math.Pow(TickBase, float64(tick)) * math.Pow10(decimalsDelta)
}

// Offsets returns the sampling points of a window, in seconds ago, from timeAgo
// down towards now in steps of interval. The list is strictly decreasing.
func Offsets(timeAgo, interval uint32) []uint32 {
	if interval == 0 {
		return nil
	}

	offsets := make([]uint32, 0, timeAgo/interval+1)
	for ago := int64(timeAgo); ago >= 0; ago -= int64(interval) {
		offsets = append(offsets, uint32(ago))
	}

	return offsets
}

// Aggregate turns adjacent cumulative tick samples into average price points.
// Fewer than two samples produce an empty result. A pair whose elapsed time is
// not positive produces a zero placeholder point.
func Aggregate(samples []TickSample, decimalsDelta int) []PricePoint {
	if len(samples) < 2 {
		return []PricePoint{}
	}

	points := make([]PricePoint, 0, len(samples)-1)

	for i := 0; i+1 < len(samples); i++ {
		older, newer := samples[i], samples[i+1]
		point := PricePoint{
			Tick:           "0",
			FromSecondsAgo: older.SecondsAgo,
			ToSecondsAgo:   newer.SecondsAgo,
		}

		if tick, ok := averageTick(older, newer); ok {
			point.Tick = strconv.FormatInt(tick, 10)
			point.Price = PriceFromTick(tick, decimalsDelta)
		}

		points = append(points, point)
	}

	return points
}

// averageTick rounds towards negative infinity, matching the on-chain oracle library.
func averageTick(older, newer TickSample) (int64, bool) {
	if older.SecondsAgo <= newer.SecondsAgo || older.TickCumulative == nil || newer.TickCumulative == nil {
		return 0, false
	}

	elapsed := big.NewInt(int64(older.SecondsAgo) - int64(newer.SecondsAgo))
	delta := new(big.Int).Sub(newer.TickCumulative, older.TickCumulative)

	// Euclidean division equals floor division for a positive divisor.
	avg := new(big.Int).Div(delta, elapsed)
	if !avg.IsInt64() {
		return 0, false
	}

	return avg.Int64(), true
}

// FormatPrice renders a price rounded to precision decimal places.
func FormatPrice(price float64, precision int32) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return strconv.FormatFloat(price, 'g', -1, 64)
	}

	return decimal.NewFromFloat(price).Round(precision).String()
}
