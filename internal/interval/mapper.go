package interval

import (
	"fmt"
	"strings"
	"time"

	"coinchart/internal/domain"
)

// Range is the upstream query window for one interval choice.
type Range struct {
	Code  string
	Start time.Time
	End   time.Time
}

// DefaultTable returns the interval choices offered in the form.
// "1 year" and "5 years" share the d1 code upstream; use Override to
// change either one.
func DefaultTable() []domain.IntervalChoice {
	return []domain.IntervalChoice{
		{Label: "1 day", Code: "m5", Days: 1},
		{Label: "3 days", Code: "m15", Days: 3},
		{Label: "1 week", Code: "m30", Days: 7},
		{Label: "1 month", Code: "h2", Months: 1},
		{Label: "6 months", Code: "h12", Months: 6},
		{Label: "1 year", Code: "d1", Years: 1},
		{Label: "5 years", Code: "d1", Years: 5},
	}
}

// Mapper resolves interval labels to upstream granularity codes and windows.
type Mapper struct {
	choices []domain.IntervalChoice
	byLabel map[string]domain.IntervalChoice
}

// NewMapper builds a mapper over the given table. Later duplicates of a
// label replace earlier ones.
func NewMapper(choices []domain.IntervalChoice) *Mapper {
	m := &Mapper{
		choices: append([]domain.IntervalChoice(nil), choices...),
		byLabel: make(map[string]domain.IntervalChoice, len(choices)),
	}
	for _, c := range m.choices {
		m.byLabel[c.Label] = c
	}
	return m
}

// Choices returns the table in display order.
func (m *Mapper) Choices() []domain.IntervalChoice {
	return append([]domain.IntervalChoice(nil), m.choices...)
}

// Labels returns the display labels in order.
func (m *Mapper) Labels() []string {
	labels := make([]string, len(m.choices))
	for i, c := range m.choices {
		labels[i] = c.Label
	}
	return labels
}

// Map returns the granularity code and [now - duration, now] window for label.
func (m *Mapper) Map(label string, now time.Time) (Range, error) {
	choice, ok := m.byLabel[label]
	if !ok {
		return Range{}, &domain.ConfigurationError{Label: label}
	}
	return Range{
		Code:  choice.Code,
		Start: lookback(now, choice.Years, choice.Months, choice.Days),
		End:   now,
	}, nil
}

// lookback steps back whole years and months, clamping the day to the end of
// a shorter target month (Mar 31 minus one month is Feb 28), then steps back
// days.
func lookback(now time.Time, years, months, days int) time.Time {
	y, mo, d := now.Date()
	first := time.Date(y-years, mo-time.Month(months), 1, 0, 0, 0, 0, now.Location())
	day := min(d, daysIn(first.Year(), first.Month(), now.Location()))

	h, mi, sec := now.Clock()
	start := time.Date(first.Year(), first.Month(), day, h, mi, sec, now.Nanosecond(), now.Location())
	return start.AddDate(0, 0, -days)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Override replaces the granularity code of the named labels. Unknown labels
// are reported as a ConfigurationError and leave the table untouched.
func Override(choices []domain.IntervalChoice, codes map[string]string) ([]domain.IntervalChoice, error) {
	out := append([]domain.IntervalChoice(nil), choices...)
	index := make(map[string]int, len(out))
	for i, c := range out {
		index[c.Label] = i
	}
	for label, code := range codes {
		i, ok := index[label]
		if !ok {
			return choices, &domain.ConfigurationError{Label: label}
		}
		out[i].Code = code
	}
	return out, nil
}

// ParseOverrides reads "label=code;label=code" pairs.
func ParseOverrides(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		label, code, ok := strings.Cut(pair, "=")
		label, code = strings.TrimSpace(label), strings.TrimSpace(code)
		if !ok || label == "" || code == "" {
			return nil, fmt.Errorf("malformed interval override %q", pair)
		}
		out[label] = code
	}
	return out, nil
}

// TableFromOverrides returns the default table with raw overrides applied.
func TableFromOverrides(raw string) ([]domain.IntervalChoice, error) {
	codes, err := ParseOverrides(raw)
	if err != nil {
		return nil, err
	}
	return Override(DefaultTable(), codes)
}
