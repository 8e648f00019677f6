package restserver

import (
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
)

// SnapshotInfo describes one cached snapshot in GET /api/snapshots
type SnapshotInfo struct {
	ID        string    `json:"id"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"`
	Sensors   []string  `json:"sensors"`
}

// SeriesResponse relays the normalized series of the latest snapshot
type SeriesResponse struct {
	SnapshotID string                                `json:"snapshotId"`
	FetchedAt  time.Time                             `json:"fetchedAt"`
	Series     map[string][]airquality.PreparedPoint `json:"series"`
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status    string     `json:"status"`
	Snapshots int        `json:"snapshots"`
	LastFetch *time.Time `json:"lastFetch,omitempty"`
}
