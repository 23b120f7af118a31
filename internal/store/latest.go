package store

import (
	"errors"

	"go.uber.org/atomic"

	"greenpulse/internal/airquality"
)

var (
	// ErrNoSnapshot is returned before the first cycle has published.
	ErrNoSnapshot = errors.New("no snapshot published yet")
)

// LatestStore holds the single current snapshot. Replace swaps the whole
// value in one atomic operation, so readers always observe a complete
// snapshot, never a partially updated one. Only the latest snapshot is
// kept; there is no history.
type LatestStore struct {
	current atomic.Value // airquality.Snapshot
}

// NewLatestStore creates an empty store.
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Replace makes snap the current snapshot.
func (s *LatestStore) Replace(snap airquality.Snapshot) {
	s.current.Store(snap)
}

// Current returns the current snapshot, or ErrNoSnapshot until the first
// Replace.
func (s *LatestStore) Current() (airquality.Snapshot, error) {
	v := s.current.Load()
	if v == nil {
		return airquality.Snapshot{}, ErrNoSnapshot
	}
	return v.(airquality.Snapshot), nil
}
