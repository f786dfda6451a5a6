package form

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"coinchart/internal/chart"
	"coinchart/internal/domain"
	"coinchart/internal/interval"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	FieldCrypto   = "crypto"
	FieldInterval = "interval"

	DefaultDebounce = 500 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// Backend is what the form needs from the market data layer.
type Backend interface {
	SearchAssets(ctx context.Context, query string) ([]domain.Asset, error)
	FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error)
}

// Fields are the values a user submits.
type Fields struct {
	Crypto   string `json:"crypto"`
	Interval string `json:"interval"`
}

// Validate checks the required fields without touching the network.
func Validate(f Fields) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(f.Crypto) == "" {
		errs = append(errs, &domain.ValidationError{Field: FieldCrypto, Message: "Please select cryptocurrency"})
	}
	if strings.TrimSpace(f.Interval) == "" {
		errs = append(errs, &domain.ValidationError{Field: FieldInterval, Message: "Please choose an interval"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Snapshot is a copy of everything a display layer renders.
type Snapshot struct {
	View    View           `json:"view"`
	Query   string         `json:"query"`
	Options []domain.Asset `json:"options"`
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	// OnChange is called after every state or suggestion change, outside
	// the orchestrator lock.
	OnChange func(Snapshot)
	// OnSearch is called after every finished lookup. applied is false for
	// failed lookups and for responses superseded by a newer query.
	OnSearch func(query string, applied bool)
}

// Orchestrator owns the state of one mounted form: the current suggestions
// and the display state of the last submission.
type Orchestrator struct {
	tracer   trace.Tracer
	backend  Backend
	mapper   *interval.Mapper
	debounce *Debouncer
	timeout  time.Duration
	loc      *time.Location
	now      func() time.Time
	onChange func(Snapshot)
	onSearch func(query string, applied bool)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	query      string
	options    []domain.Asset
	submitting bool
}

func New(tracer trace.Tracer, backend Backend, mapper *interval.Mapper, opts Options) *Orchestrator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		tracer:   tracer,
		backend:  backend,
		mapper:   mapper,
		debounce: NewDebouncer(opts.Debounce),
		timeout:  opts.Timeout,
		loc:      opts.Location,
		now:      opts.Now,
		onChange: opts.OnChange,
		onSearch: opts.OnSearch,
		ctx:      ctx,
		cancel:   cancel,
		state:    Idle{},
	}
}

// Search schedules a suggestion lookup after the debounce delay. Only the
// most recently issued lookup may replace the suggestions.
func (o *Orchestrator) Search(query string) {
	o.debounce.Trigger(func(gen uint64) {
		_, _ = o.runSearch(o.ctx, gen, query)
	})
}

// SearchNow looks suggestions up immediately and supersedes any pending or
// in-flight debounced lookup.
func (o *Orchestrator) SearchNow(ctx context.Context, query string) ([]domain.Asset, error) {
	gen := o.debounce.Bump()
	return o.runSearch(ctx, gen, query)
}

func (o *Orchestrator) runSearch(ctx context.Context, gen uint64, query string) ([]domain.Asset, error) {
	ctx, span := o.tracer.Start(ctx, "form.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	assets, err := o.backend.SearchAssets(ctx, query)
	if err != nil {
		log.Printf("asset suggestion error for %q: %v", query, err)
		o.finishSearch(query, false)
		return nil, err
	}

	o.mu.Lock()
	applied := o.debounce.Current(gen)
	if applied {
		o.query = query
		o.options = assets
	}
	o.mu.Unlock()

	if applied {
		o.notify()
	}
	o.finishSearch(query, applied)
	return assets, nil
}

func (o *Orchestrator) finishSearch(query string, applied bool) {
	if o.onSearch != nil {
		o.onSearch(query, applied)
	}
}

// Submit validates the fields and runs one chart query. Validation failures
// and a submission already in flight are returned as errors and leave the
// display state untouched. Any other failure ends in the Failed state.
func (o *Orchestrator) Submit(ctx context.Context, f Fields) (State, error) {
	if err := Validate(f); err != nil {
		return o.State(), err
	}

	o.mu.Lock()
	if o.submitting {
		state := o.state
		o.mu.Unlock()
		return state, domain.ErrSubmitInFlight
	}
	o.submitting = true
	o.state = Loading{}
	options := o.options
	o.mu.Unlock()
	o.notify()

	state := o.run(ctx, f, options)

	o.mu.Lock()
	o.state = state
	o.submitting = false
	o.mu.Unlock()
	o.notify()

	return state, nil
}

// run is the submission pipeline: resolve selection, map interval, fetch,
// project. The empty check reads the freshly projected result.
func (o *Orchestrator) run(ctx context.Context, f Fields, options []domain.Asset) State {
	ctx, span := o.tracer.Start(ctx, "form.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("crypto", f.Crypto),
		attribute.String("interval", f.Interval),
	)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	selected, ok := findByName(options, f.Crypto)
	if !ok {
		log.Printf("chart submit error: %v: %q", domain.ErrUnknownAsset, f.Crypto)
		return Failed{Message: GenericErrorMessage}
	}

	rng, err := o.mapper.Map(f.Interval, o.now())
	if err != nil {
		log.Printf("chart submit error: %v", err)
		return Failed{Message: GenericErrorMessage}
	}

	points, err := o.backend.FetchHistory(ctx, selected.ID, rng.Code, rng.Start, rng.End)
	if err != nil {
		log.Printf("chart submit error for %s: %v", selected.ID, err)
		return Failed{Message: GenericErrorMessage}
	}

	result := chart.Project(points, o.loc)
	span.SetAttributes(attribute.Int("points", result.Len()))
	if result.Len() == 0 {
		return Empty{}
	}
	result.Name = selected.Name
	result.Symbol = selected.Symbol
	return Success{Result: result}
}

func findByName(options []domain.Asset, name string) (domain.Asset, bool) {
	for _, a := range options {
		if a.Name == name {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// State returns the current display state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Options returns the current suggestions.
func (o *Orchestrator) Options() []domain.Asset {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Asset(nil), o.options...)
}

// Intervals returns the interval labels the form offers.
func (o *Orchestrator) Intervals() []string {
	return o.mapper.Labels()
}

// Snapshot returns a copy of the render state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		View:    ViewOf(o.state),
		Query:   o.query,
		Options: append([]domain.Asset(nil), o.options...),
	}
}

// Close cancels pending and in-flight debounced lookups.
func (o *Orchestrator) Close() {
	o.debounce.Stop()
	o.cancel()
}

func (o *Orchestrator) notify() {
	if o.onChange != nil {
		o.onChange(o.Snapshot())
	}
}
