package domain

import "github.com/shopspring/decimal"

// Asset is a tradable cryptocurrency as listed by the upstream catalog.
type Asset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// HistoryPoint is a single sample of an asset's USD price.
type HistoryPoint struct {
	PriceUSD decimal.Decimal `json:"price_usd"`
	TimeMs   int64           `json:"time"`
}

// QueryResult is what a successful chart query renders.
// Prices and Timestamps are always the same length.
type QueryResult struct {
	Prices     []float64 `json:"prices"`
	Timestamps []string  `json:"timestamps"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
}

// Len returns the number of samples in the result.
func (r QueryResult) Len() int {
	return len(r.Prices)
}

// IntervalChoice is one entry of the interval table offered to users.
// The lookback is expressed in calendar units so months and years follow
// the calendar rather than a fixed number of hours.
type IntervalChoice struct {
	Label  string `json:"label"`
	Code   string `json:"code"`
	Years  int    `json:"-"`
	Months int    `json:"-"`
	Days   int    `json:"-"`
}
