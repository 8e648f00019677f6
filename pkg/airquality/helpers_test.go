package airquality

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	baseTS   = int64(1_700_000_000_000)
	minuteMS = int64(60_000)
)

// minuteSeries builds {ts,value} samples one minute apart
func minuteSeries(values ...float64) []json.RawMessage {
	samples := make([]json.RawMessage, len(values))
	for i, v := range values {
		samples[i] = json.RawMessage(fmt.Sprintf(`{"ts":%d,"value":%g}`, baseTS+int64(i)*minuteMS, v))
	}
	return samples
}

func constant(n int, v float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return values
}

func ramp(n int, start, step float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

func raw(samples ...string) []json.RawMessage {
	msgs := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		msgs[i] = json.RawMessage(s)
	}
	return msgs
}

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
