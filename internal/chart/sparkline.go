package chart

import (
	"math"
	"strings"
)

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders prices as a single line of block characters at most
// width runes wide. Longer series are downsampled by averaging buckets.
func Sparkline(prices []float64, width int) string {
	if len(prices) == 0 || width <= 0 {
		return ""
	}
	samples := downsample(prices, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range samples {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}

	var b strings.Builder
	for _, p := range samples {
		idx := 0
		if hi > lo {
			idx = int(math.Round((p - lo) / (hi - lo) * float64(len(bars)-1)))
		}
		b.WriteRune(bars[idx])
	}
	return b.String()
}

func downsample(prices []float64, width int) []float64 {
	if len(prices) <= width {
		return prices
	}
	out := make([]float64, width)
	for i := range out {
		from := i * len(prices) / width
		to := (i + 1) * len(prices) / width
		sum := 0.0
		for _, p := range prices[from:to] {
			sum += p
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

// Summary holds the headline numbers shown next to a chart.
type Summary struct {
	First     float64
	Last      float64
	Min       float64
	Max       float64
	ChangePct float64
}

// Summarize computes the headline numbers of a non-empty price series.
func Summarize(prices []float64) (Summary, bool) {
	if len(prices) == 0 {
		return Summary{}, false
	}
	s := Summary{
		First: prices[0],
		Last:  prices[len(prices)-1],
		Min:   prices[0],
		Max:   prices[0],
	}
	for _, p := range prices[1:] {
		s.Min = math.Min(s.Min, p)
		s.Max = math.Max(s.Max, p)
	}
	if s.First != 0 {
		s.ChangePct = (s.Last - s.First) / s.First * 100
	}
	return s, true
}
