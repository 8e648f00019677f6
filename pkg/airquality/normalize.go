package airquality

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// sampleShape identifies which of the accepted layouts a raw sample uses
type sampleShape int

const (
	shapeUnknown sampleShape = iota
	shapePair                // [time, value]
	shapeTS                  // {"ts": .., "value": ..}
	shapeTimestamp           // {"timestamp": .., "value": ..}
	shapeXY                  // {"x": .., "y": ..} or {"x": .., "value": ..}
)

// sampleFields captures every field name any shape may use. A field that is
// absent stays nil; a JSON null is kept as the literal "null".
type sampleFields struct {
	TS        json.RawMessage `json:"ts"`
	Timestamp json.RawMessage `json:"timestamp"`
	X         json.RawMessage `json:"x"`
	Y         json.RawMessage `json:"y"`
	Value     json.RawMessage `json:"value"`
}

// Fallback layouts for date strings that are not ISO 8601
var dateLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// Prepare selects the first alias present in raw and returns its valid samples
// sorted by timestamp. It returns nil when no alias is present.
func Prepare(raw RawSeries, aliases []string) []PreparedPoint {
	samples, ok := selectSeries(raw, aliases)
	if !ok {
		return nil
	}

	points := make([]PreparedPoint, 0, len(samples))
	for _, s := range samples {
		if p, ok := parseSample(s); ok {
			points = append(points, p)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TS < points[j].TS
	})
	return points
}

func selectSeries(raw RawSeries, aliases []string) ([]json.RawMessage, bool) {
	for _, alias := range aliases {
		if samples, exists := raw[alias]; exists && samples != nil {
			return samples, true
		}
	}
	return nil, false
}

// parseSample classifies the sample once and extracts its time and value.
// Anything that does not resolve to two finite numbers is rejected.
func parseSample(raw json.RawMessage) (PreparedPoint, bool) {
	shape, timeField, valueField := classifySample(raw)
	if shape == shapeUnknown {
		return PreparedPoint{}, false
	}

	ts, ok := parseTime(timeField)
	if !ok {
		return PreparedPoint{}, false
	}
	value, ok := parseNumber(valueField)
	if !ok {
		return PreparedPoint{}, false
	}
	return PreparedPoint{TS: ts, Value: value}, true
}

func classifySample(raw json.RawMessage) (sampleShape, json.RawMessage, json.RawMessage) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeUnknown, nil, nil
	}

	switch trimmed[0] {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil || len(pair) < 2 {
			return shapeUnknown, nil, nil
		}
		return shapePair, pair[0], pair[1]

	case '{':
		var f sampleFields
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return shapeUnknown, nil, nil
		}
		switch {
		case f.TS != nil:
			return shapeTS, f.TS, f.Value
		case f.Timestamp != nil:
			return shapeTimestamp, f.Timestamp, f.Value
		case f.X != nil:
			if f.Y != nil {
				return shapeXY, f.X, f.Y
			}
			return shapeXY, f.X, f.Value
		}
	}
	return shapeUnknown, nil, nil
}

// parseTime returns epoch milliseconds. Strings are read as calendar
// date-times, numbers are taken as epoch milliseconds already.
func parseTime(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	if trimmed[0] != '"' {
		return parseNumber(trimmed)
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return 0, false
	}
	t, ok := parseDate(strings.TrimSpace(s))
	if !ok {
		return 0, false
	}
	return float64(t.UnixMilli()), true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := iso8601.ParseString(s); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts a JSON number or a string holding one
func parseNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
