package session

import (
	"context"
	"testing"
	"time"

	"coinchart/internal/domain"
	"coinchart/internal/form"
	"coinchart/internal/interval"

	"go.opentelemetry.io/otel/trace"
)

type nopBackend struct{}

func (nopBackend) SearchAssets(ctx context.Context, query string) ([]domain.Asset, error) {
	return nil, nil
}

func (nopBackend) FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error) {
	return nil, nil
}

func newTestStore(ttl time.Duration) *Store {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	mapper := interval.NewMapper(interval.DefaultTable())
	return NewStore(func() *form.Orchestrator {
		return form.New(tracer, nopBackend{}, mapper, form.Options{})
	}, ttl)
}

func TestStoreCreateGetDelete(t *testing.T) {
	s := newTestStore(time.Minute)

	id, f := s.Create()
	if id == "" || f == nil {
		t.Fatal("expected session id and form")
	}
	got, ok := s.Get(id)
	if !ok || got != f {
		t.Fatalf("expected same form back")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
	if !s.Delete(id) {
		t.Fatal("expected delete to succeed")
	}
	if _, ok := s.Get(id); ok {
		t.Fatal("deleted session should be gone")
	}
	if s.Delete(id) {
		t.Fatal("second delete should report missing")
	}
}

func TestStoreCreateUniqueIDs(t *testing.T) {
	s := newTestStore(time.Minute)
	a, _ := s.Create()
	b, _ := s.Create()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
}

func TestStoreSweep(t *testing.T) {
	s := newTestStore(10 * time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	stale, _ := s.Create()
	now = now.Add(8 * time.Minute)
	fresh, _ := s.Create()
	now = now.Add(5 * time.Minute)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 expired session, got %d", removed)
	}
	if _, ok := s.Get(stale); ok {
		t.Fatal("stale session should be swept")
	}
	if _, ok := s.Get(fresh); !ok {
		t.Fatal("fresh session should survive")
	}
}

func TestStoreGetRefreshesLastSeen(t *testing.T) {
	s := newTestStore(10 * time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	id, _ := s.Create()
	now = now.Add(9 * time.Minute)
	s.Get(id)
	now = now.Add(9 * time.Minute)

	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("recently used session should survive, removed %d", removed)
	}
}
