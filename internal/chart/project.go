package chart

import (
	"time"

	"coinchart/internal/domain"
)

// TimestampLayout is how sample times are labelled on the chart.
const TimestampLayout = "2006-01-02 15:04"

// Project turns a raw history series into the parallel price and timestamp
// arrays the chart consumes. Timestamps are rendered in loc (time.Local when
// nil). Empty input yields empty, non-nil slices.
func Project(points []domain.HistoryPoint, loc *time.Location) domain.QueryResult {
	if loc == nil {
		loc = time.Local
	}
	result := domain.QueryResult{
		Prices:     make([]float64, len(points)),
		Timestamps: make([]string, len(points)),
	}
	for i, p := range points {
		result.Prices[i] = p.PriceUSD.InexactFloat64()
		result.Timestamps[i] = time.UnixMilli(p.TimeMs).In(loc).Format(TimestampLayout)
	}
	return result
}
