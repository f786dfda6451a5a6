package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Poller runs the background upkeep goroutines: catalog warm-up and form
// session expiry.
type Poller struct {
	tracer          trace.Tracer
	catalog         CatalogRefresher
	sessions        SessionSweeper
	catalogInterval time.Duration
	sweepInterval   time.Duration
}

type CatalogRefresher interface {
	RefreshCatalog(ctx context.Context) error
}

type SessionSweeper interface {
	Sweep() int
}

func NewPoller(tracer trace.Tracer, catalog CatalogRefresher, sessions SessionSweeper, catalogRefreshSecs, sweepSecs int) *Poller {
	return &Poller{
		tracer:          tracer,
		catalog:         catalog,
		sessions:        sessions,
		catalogInterval: time.Duration(catalogRefreshSecs) * time.Second,
		sweepInterval:   time.Duration(sweepSecs) * time.Second,
	}
}

// Start launches background polling goroutines. Blocks until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	log.Println("Poller starting...")

	if p.catalog != nil && p.catalogInterval > 0 {
		go p.pollLoop(ctx, "catalog-refresh", p.catalogInterval, func(ctx context.Context) error {
			return p.catalog.RefreshCatalog(ctx)
		})
	}

	if p.sessions != nil && p.sweepInterval > 0 {
		go p.pollLoop(ctx, "session-sweep", p.sweepInterval, func(ctx context.Context) error {
			if n := p.sessions.Sweep(); n > 0 {
				log.Printf("Expired %d form sessions", n)
			}
			return nil
		})
	}

	<-ctx.Done()
	log.Println("Poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	run := func() error {
		ctx, span := p.tracer.Start(ctx, "poller."+name)
		defer span.End()
		return fn(ctx)
	}

	// Run immediately on start
	if err := run(); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}
