package weights

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the live weights at a point in time.
// The version increases monotonically with every accepted update, which
// lets experiment tooling attribute a ranking result to the exact
// configuration that produced it.
type Snapshot struct {
	Weights Weights `json:"weights"`
	Version uint64  `json:"version"`
}

// Store is the process-wide, hot-swappable weight configuration.
// Readers get a consistent snapshot via an atomic pointer; updates
// build a merged copy under a mutex and publish it with a single swap,
// so a concurrent Get never observes a half-applied update.
//
// The scoring engine calls Get fresh on every ranking invocation, so
// updates take effect immediately for all subsequent calls.
type Store struct {
	mu   sync.Mutex // serializes updates only; reads are lock-free
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a Store seeded with the given weights at version 1.
// Invalid initial weights are replaced with defaults.
func NewStore(initial Weights) *Store {
	if err := initial.Validate(); err != nil {
		initial = Defaults()
	}
	s := &Store{}
	s.snap.Store(&Snapshot{Weights: initial, Version: 1})
	return s
}

// Get returns the current live snapshot. The returned value is a copy;
// callers may read it freely without further synchronization.
func (s *Store) Get() Snapshot {
	return *s.snap.Load()
}

// Version returns the version of the current snapshot.
func (s *Store) Version() uint64 {
	return s.snap.Load().Version
}

// Update shallow-merges the non-zero values of override into the
// current weights and publishes the result as a new snapshot. The merge
// is last-write-wins per key. If the merged weights fail validation the
// update is rejected and the live snapshot is left untouched.
func (s *Store) Update(override Weights) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	merged := Merge(current.Weights, override)
	if err := merged.Validate(); err != nil {
		return err
	}

	s.snap.Store(&Snapshot{
		Weights: merged,
		Version: current.Version + 1,
	})
	return nil
}

// Reset replaces the live weights with defaults, bumping the version.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	s.snap.Store(&Snapshot{
		Weights: Defaults(),
		Version: current.Version + 1,
	})
}
