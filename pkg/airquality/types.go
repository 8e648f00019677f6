// Package airquality turns raw indoor sensor time series into per-sensor
// health scores, trend labels, advice, and one weighted overall score.
//
// Evaluation is a pure function of its input: no I/O, no logging, and no state
// carried between calls. Malformed or missing data never produces an error;
// it simply leaves the affected sensor out of the result.
package airquality

import "encoding/json"

// RawSeries maps a sensor name or alias (not necessarily canonical) to its
// samples. Each sample is kept as raw JSON because sources disagree on shape:
// {"ts":..,"value":..}, {"timestamp":..,"value":..}, {"x":..,"y":..} and
// [time, value] are all accepted.
type RawSeries map[string][]json.RawMessage

// PreparedPoint is a sample after normalization. TS is epoch milliseconds.
type PreparedPoint struct {
	TS    float64 `json:"ts"`
	Value float64 `json:"value"`
}

// Trend is the categorical direction of a sensor's recent readings
type Trend string

const (
	TrendRising   Trend = "rising"
	TrendFalling  Trend = "falling"
	TrendStable   Trend = "stable"
	TrendVolatile Trend = "volatile"
)

// Status is the tier derived from the overall score
type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusOkay      Status = "Okay"
	StatusWeak      Status = "Weak"
)

// SensorEvaluation is the result for one canonical sensor
type SensorEvaluation struct {
	Value       float64  `json:"value"`       // latest raw (unsmoothed) reading
	Score       float64  `json:"score"`       // 0-100
	Trend       Trend    `json:"trend"`
	SlopePerMin float64  `json:"slopePerMin"` // smoothed change per minute
	R2          float64  `json:"r2"`          // regression fit quality, 0-1
	Advice      []string `json:"advice"`
	AQI         *int32   `json:"aqi,omitempty"` // US EPA index, PM2.5 only
}

// EvalResponse is the complete evaluation of one RawSeries snapshot
type EvalResponse struct {
	Overall    float64                     `json:"overall"`
	Status     Status                      `json:"status"`
	Highlights []string                    `json:"highlights"`
	Sensors    map[string]SensorEvaluation `json:"sensors"`
}
