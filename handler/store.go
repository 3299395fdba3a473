// Package handler serves the latest observer updates and price history over HTTP
package handler

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sljivkov/dextick/domain"
)

// Store keeps the latest update of every pool
type Store struct {
	mu      sync.RWMutex
	latest  map[common.Address]domain.Update
	readyCh chan struct{} // closed once the first update is stored
	once    sync.Once
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		latest:  make(map[common.Address]domain.Update),
		readyCh: make(chan struct{}),
	}
}

// Put records update. A derivation missing from update keeps its last known value.
func (s *Store) Put(update domain.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.latest[update.Pool]
	if ok {
		if !update.HasCurrentPrice {
			update.CurrentPrice, update.CurrentTick, update.HasCurrentPrice = prev.CurrentPrice, prev.CurrentTick, prev.HasCurrentPrice
		}

		if !update.HasObservations {
			update.Observations, update.HasObservations = prev.Observations, prev.HasObservations
		}
	}

	s.latest[update.Pool] = update
	s.once.Do(func() { close(s.readyCh) })
}

// Latest returns the last update of pool
func (s *Store) Latest(pool common.Address) (domain.Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	update, ok := s.latest[pool]

	return update, ok
}

// All returns the last update of every pool
func (s *Store) All() []domain.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Update, 0, len(s.latest))
	for _, u := range s.latest {
		out = append(out, u)
	}

	return out
}

// Ready is closed once the first update arrives
func (s *Store) Ready() <-chan struct{} {
	return s.readyCh
}
