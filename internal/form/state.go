package form

import "coinchart/internal/domain"

// GenericErrorMessage is the only failure text a user ever sees.
const GenericErrorMessage = "Something went wrong, please try again later"

// Render variants. Exactly one is shown at any time.
const (
	VariantIdle    = "idle"
	VariantLoading = "loading"
	VariantChart   = "chart"
	VariantEmpty   = "empty"
	VariantError   = "error"
)

// State is the display state of a form. The concrete types below are the
// only implementations.
type State interface {
	Variant() string
	isState()
}

// Idle is the state before the first submission.
type Idle struct{}

// Loading is shown while a submission runs.
type Loading struct{}

// Success carries a non-empty chart.
type Success struct {
	Result domain.QueryResult
}

// Empty means the query succeeded but the series had no samples.
type Empty struct{}

// Failed carries the user-facing failure message.
type Failed struct {
	Message string
}

func (Idle) Variant() string    { return VariantIdle }
func (Loading) Variant() string { return VariantLoading }
func (Success) Variant() string { return VariantChart }
func (Empty) Variant() string   { return VariantEmpty }
func (Failed) Variant() string  { return VariantError }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Empty) isState()   {}
func (Failed) isState()  {}

// View is the render contract handed to display layers.
type View struct {
	Variant string              `json:"variant"`
	Chart   *domain.QueryResult `json:"chart,omitempty"`
	Message string              `json:"message,omitempty"`
}

// ViewOf flattens a State into its render contract.
func ViewOf(s State) View {
	switch st := s.(type) {
	case Success:
		result := st.Result
		return View{Variant: VariantChart, Chart: &result}
	case Failed:
		return View{Variant: VariantError, Message: st.Message}
	case nil:
		return View{Variant: VariantIdle}
	default:
		return View{Variant: s.Variant()}
	}
}
