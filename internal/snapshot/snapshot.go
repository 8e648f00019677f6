// Package snapshot keeps the most recent raw series fetched from the source
// so that the HTTP relay can serve and evaluate them without refetching.
package snapshot

import (
	"errors"
	"sort"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/google/uuid"
)

var (
	// ErrEmpty is returned by Latest before the first snapshot is stored
	ErrEmpty = errors.New("no snapshot available yet")

	// ErrNotFound is returned by Get for an unknown or evicted snapshot
	ErrNotFound = errors.New("snapshot not found")
)

// Snapshot is one fetch result
type Snapshot struct {
	ID        uuid.UUID
	FetchedAt time.Time
	Source    string
	Series    airquality.RawSeries
}

// New stamps a freshly fetched series
func New(series airquality.RawSeries, source string, fetchedAt time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		FetchedAt: fetchedAt,
		Source:    source,
		Series:    series,
	}
}

// Sensors returns the series names present in the snapshot, sorted
func (s Snapshot) Sensors() []string {
	names := make([]string, 0, len(s.Series))
	for name := range s.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Age is how long ago the snapshot was fetched
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
