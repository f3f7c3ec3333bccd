package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"arsys/backend/internal/models"
	"arsys/backend/internal/sales"
)

type stubSource struct {
	mu      sync.Mutex
	loads   [][]models.FullTicket
	err     error
	calls   int
	started []chan struct{}
	blocks  []chan struct{}
}

func (s *stubSource) LoadTickets(ctx context.Context) ([]models.FullTicket, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	err := s.err
	s.mu.Unlock()

	if idx < len(s.started) && s.started[idx] != nil {
		close(s.started[idx])
	}
	if idx < len(s.blocks) && s.blocks[idx] != nil {
		<-s.blocks[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx >= len(s.loads) {
		idx = len(s.loads) - 1
	}
	return s.loads[idx], nil
}

func ticketsNamed(users ...string) []models.FullTicket {
	out := make([]models.FullTicket, 0, len(users))
	for _, u := range users {
		out = append(out, models.FullTicket{User: u, Profile: "1hr", Ticket: models.Ticket{TicketID: u + "-t"}})
	}
	return out
}

// TestRefreshReplacesSnapshot verifies refresh replaces snapshot behavior.
func TestRefreshReplacesSnapshot(t *testing.T) {
	src := &stubSource{loads: [][]models.FullTicket{ticketsNamed("ana"), ticketsNamed("ana", "beto")}}
	s := New(src)

	if _, gen := s.Snapshot(); gen != 0 {
		t.Fatalf("expected generation 0 before first refresh, got %d", gen)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	snap, gen := s.Snapshot()
	if gen != 1 || len(snap) != 1 {
		t.Fatalf("expected gen=1 with 1 ticket, got gen=%d len=%d", gen, len(snap))
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	snap, gen = s.Snapshot()
	if gen != 2 || len(snap) != 2 {
		t.Fatalf("expected gen=2 with 2 tickets, got gen=%d len=%d", gen, len(snap))
	}
}

// TestRefreshErrorKeepsSnapshot verifies refresh error keeps snapshot behavior.
func TestRefreshErrorKeepsSnapshot(t *testing.T) {
	src := &stubSource{loads: [][]models.FullTicket{ticketsNamed("ana")}}
	s := New(src)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	src.err = errors.New("backend down")
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	snap, gen := s.Snapshot()
	if gen != 1 || len(snap) != 1 {
		t.Fatalf("failed refresh must not touch the snapshot, got gen=%d len=%d", gen, len(snap))
	}
}

// TestStaleRefreshDiscarded verifies that a slow fetch which started
// before a newer one completed does not overwrite the newer snapshot.
func TestStaleRefreshDiscarded(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	src := &stubSource{
		loads:   [][]models.FullTicket{ticketsNamed("stale"), ticketsNamed("fresh")},
		started: []chan struct{}{started, nil},
		blocks:  []chan struct{}{block, nil},
	}
	s := New(src)

	done := make(chan error, 1)
	go func() {
		done <- s.Refresh(context.Background())
	}()
	<-started

	// Second refresh starts later but completes first.
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("fresh refresh: %v", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("stale refresh: %v", err)
	}

	snap, gen := s.Snapshot()
	if gen != 1 {
		t.Fatalf("expected exactly one install, got gen=%d", gen)
	}
	if len(snap) != 1 || snap[0].User != "fresh" {
		t.Fatalf("stale snapshot overwrote the fresh one: %+v", snap)
	}
}

// TestSubscribeNotified verifies subscribe notified behavior.
func TestSubscribeNotified(t *testing.T) {
	src := &stubSource{loads: [][]models.FullTicket{ticketsNamed("ana")}}
	s := New(src)

	notified := 0
	s.Subscribe(func() { notified++ })

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if notified != 2 {
		t.Fatalf("expected 2 notifications, got %d", notified)
	}
}

// TestReportCacheInProcess verifies report cache in process behavior.
func TestReportCacheInProcess(t *testing.T) {
	c := NewReportCache(nil)
	q := sales.Query{User: "ana", Date: "2025-06-10", Mode: sales.ModeDay}
	ctx := context.Background()

	if _, ok := c.Get(ctx, 1, q); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, 1, q, []byte("payload"))
	got, ok := c.Get(ctx, 1, q)
	if !ok || string(got) != "payload" {
		t.Fatalf("expected hit with payload, got ok=%v %q", ok, got)
	}

	// A different query on the same generation misses.
	if _, ok := c.Get(ctx, 1, sales.Query{User: "beto", Mode: sales.ModeDay}); ok {
		t.Fatalf("expected miss for different query")
	}

	// A new generation invalidates the old entry.
	if _, ok := c.Get(ctx, 2, q); ok {
		t.Fatalf("expected miss after generation change")
	}
	c.Set(ctx, 2, q, []byte("fresh"))
	if _, ok := c.Get(ctx, 1, q); ok {
		t.Fatalf("stale generation must not be served")
	}
	got, ok = c.Get(ctx, 2, q)
	if !ok || string(got) != "fresh" {
		t.Fatalf("expected fresh payload, got ok=%v %q", ok, got)
	}
}
