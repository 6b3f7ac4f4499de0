package history

import (
	"sync"
	"time"

	"coinwatch/internal/aggregate"
)

// DefaultMaxEntries caps the store when no explicit limit is configured.
const DefaultMaxEntries = 2000

// Store is an append-only, FIFO-capped sequence of aggregate snapshots.
// Appends come from the single monitoring loop; reads may come from web
// handlers polling concurrently, hence the RWMutex.
type Store struct {
	mu      sync.RWMutex
	max     int
	entries []aggregate.Snapshot
}

// New constructs a Store capped at max entries.
func New(max int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Store{max: max}
}

// Append records a snapshot, evicting the oldest entries beyond the cap.
// Timestamps are assumed non-decreasing; the store does not sort.
func (s *Store) Append(snap aggregate.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, snap)
	if overflow := len(s.entries) - s.max; overflow > 0 {
		s.entries = append(s.entries[:0:0], s.entries[overflow:]...)
	}
}

// Latest returns the most recent snapshot.
func (s *Store) Latest() (aggregate.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return aggregate.Snapshot{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Len reports the number of retained snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Window returns the snapshots observed within d of now, oldest first. The
// scan walks back from the newest entry and stops at the first one older than
// the cutoff; entries are already time-ordered so no sort is needed.
func (s *Store) Window(d time.Duration) []aggregate.Snapshot {
	return s.WindowAt(time.Now().UTC(), d)
}

// WindowAt is Window with an explicit reference instant.
func (s *Store) WindowAt(now time.Time, d time.Duration) []aggregate.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.Add(-d)
	start := len(s.entries)
	for i := len(s.entries) - 1; i >= 0; i-- {
		ts := s.entries[i].Timestamp
		if ts.IsZero() || ts.Before(cutoff) {
			// A zero timestamp marks a malformed record; treat it as the
			// window boundary rather than failing the query.
			break
		}
		start = i
	}

	out := make([]aggregate.Snapshot, len(s.entries)-start)
	copy(out, s.entries[start:])
	return out
}
