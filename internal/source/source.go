// Package source fetches raw sensor series from the places a deployment keeps
// them: a Prometheus-compatible metrics backend, a JSON file dropped by some
// other collector, or an AirGradient monitor polled directly.
package source

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
)

// Window bounds one fetch. A zero End means "now".
type Window struct {
	Range time.Duration
	Step  time.Duration
	End   time.Time
}

// Bounds returns the resolved start and end of the window
func (w Window) Bounds() (time.Time, time.Time) {
	end := w.End
	if end.IsZero() {
		end = time.Now()
	}
	return end.Add(-w.Range), end
}

// Source is anything that can produce a RawSeries snapshot
type Source interface {
	Name() string
	Fetch(ctx context.Context, w Window) (airquality.RawSeries, error)
}

// Starter is implemented by sources that collect in the background and must
// be started before their first Fetch
type Starter interface {
	Start(ctx context.Context, wg *sync.WaitGroup) error
}

// encodeSample renders one [tsMillis, value] pair. Non-finite values are
// dropped because they cannot be represented in JSON.
func encodeSample(tsMillis int64, value float64) (json.RawMessage, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, false
	}
	b := make([]byte, 0, 32)
	b = append(b, '[')
	b = strconv.AppendInt(b, tsMillis, 10)
	b = append(b, ',')
	b = strconv.AppendFloat(b, value, 'g', -1, 64)
	b = append(b, ']')
	return json.RawMessage(b), true
}
