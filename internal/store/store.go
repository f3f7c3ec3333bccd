// Package store owns the ticket snapshot the reporting engine reads.
// Consumers get read-only snapshots and a change notification, never
// the underlying slice.
package store

import (
	"context"
	"sync"

	"arsys/backend/internal/models"
)

// Source loads one complete ticket snapshot. Partial results are never
// exposed; the store only ever swaps in a fully loaded list.
type Source interface {
	LoadTickets(ctx context.Context) ([]models.FullTicket, error)
}

// Store holds the latest complete ticket snapshot.
type Store struct {
	source Source

	mu        sync.Mutex
	tickets   []models.FullTicket
	gen       uint64
	fetchSeq  uint64
	installed uint64
	subs      []func()
}

func New(source Source) *Store {
	return &Store{source: source}
}

// Refresh loads a fresh snapshot from the source and installs it
// atomically. Out-of-order completions are discarded: a fetch only
// installs if no fetch that started after it has already installed, so
// a slow stale response cannot overwrite a newer one.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	tickets, err := s.source.LoadTickets(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if seq < s.installed {
		s.mu.Unlock()
		return nil
	}
	s.installed = seq
	s.tickets = tickets
	s.gen++
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return nil
}

// Snapshot returns the current tickets and a generation number that
// changes on every install. Callers must treat the slice as read-only.
func (s *Store) Snapshot() ([]models.FullTicket, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets, s.gen
}

// Subscribe registers fn to run after every snapshot install.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
