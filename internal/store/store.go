package store

import (
	"sync"
	"time"

	"github.com/salesops/stackranker/internal/contracts"
	"github.com/salesops/stackranker/internal/metrics"
)

// Store holds the mutable session state the core deliberately does not:
// the current dataset, the current snapshot, and the previous snapshot used
// for drop detection. Snapshots handed out are read-only values scoped to
// one render/alert cycle; the core itself never touches this package.
type Store struct {
	mu          sync.RWMutex
	dataset     *contracts.Dataset
	current     *contracts.MetricsSnapshot
	previous    *contracts.MetricsSnapshot
	subscribers map[chan *contracts.MetricsSnapshot]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subscribers: make(map[chan *contracts.MetricsSnapshot]struct{}),
	}
}

// Replace swaps in a new dataset, recomputes the snapshot, rotates the old
// snapshot into the previous slot, and notifies subscribers.
func (s *Store) Replace(ds *contracts.Dataset, asOf time.Time) (*contracts.MetricsSnapshot, error) {
	snap, err := metrics.Compute(ds, asOf)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dataset = ds
	s.previous = s.current
	s.current = snap
	subscribers := make([]chan *contracts.MetricsSnapshot, 0, len(s.subscribers))
	for ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}
	s.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on the next replace.
		}
	}

	return snap, nil
}

// Dataset returns the current dataset, nil before the first load.
func (s *Store) Dataset() *contracts.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Snapshot returns the current snapshot, nil before the first load.
func (s *Store) Snapshot() *contracts.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshots returns the current and previous snapshots for alert
// evaluation; previous is nil until the second load.
func (s *Store) Snapshots() (current, previous *contracts.MetricsSnapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.previous
}

// Subscribe registers a channel receiving each new snapshot. The returned
// cancel function must be called when the subscriber goes away.
func (s *Store) Subscribe() (<-chan *contracts.MetricsSnapshot, func()) {
	ch := make(chan *contracts.MetricsSnapshot, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}

	return ch, cancel
}
