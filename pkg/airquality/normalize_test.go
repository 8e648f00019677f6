package airquality

import (
	"encoding/json"
	"testing"
)

func TestPrepareShapes(t *testing.T) {
	tests := []struct {
		name     string
		sample   string
		expected *PreparedPoint
	}{
		{"ts object", `{"ts":1000,"value":5}`, &PreparedPoint{TS: 1000, Value: 5}},
		{"timestamp object", `{"timestamp":2000,"value":6.5}`, &PreparedPoint{TS: 2000, Value: 6.5}},
		{"xy object", `{"x":3000,"y":7}`, &PreparedPoint{TS: 3000, Value: 7}},
		{"x with value fallback", `{"x":3000,"value":8}`, &PreparedPoint{TS: 3000, Value: 8}},
		{"array pair", `[4000, 9]`, &PreparedPoint{TS: 4000, Value: 9}},
		{"array with extra elements", `[4000, 9, 1]`, &PreparedPoint{TS: 4000, Value: 9}},
		{"numeric string value", `{"ts":1000,"value":" 412.5 "}`, &PreparedPoint{TS: 1000, Value: 412.5}},
		{"iso date time", `{"ts":"2024-01-01T00:00:00Z","value":1}`, &PreparedPoint{TS: 1704067200000, Value: 1}},
		{"iso date with offset", `["2024-01-01T01:00:00+01:00","2"]`, &PreparedPoint{TS: 1704067200000, Value: 2}},
		{"rfc1123 date", `{"timestamp":"Mon, 01 Jan 2024 00:00:00 GMT","value":3}`, &PreparedPoint{TS: 1704067200000, Value: 3}},
		{"ts wins over x", `{"ts":1,"x":2,"y":3,"value":4}`, &PreparedPoint{TS: 1, Value: 4}},

		{"unparsable date", `{"ts":"not-a-date","value":5}`, nil},
		{"blank date string", `{"ts":"  ","value":5}`, nil},
		{"null value", `{"ts":1000,"value":null}`, nil},
		{"boolean value", `{"ts":1000,"value":true}`, nil},
		{"NaN string value", `{"ts":1000,"value":"NaN"}`, nil},
		{"infinite string value", `{"ts":1000,"value":"Infinity"}`, nil},
		{"empty string value", `{"ts":1000,"value":""}`, nil},
		{"missing value", `{"ts":1000}`, nil},
		{"x without y or value", `{"x":1000}`, nil},
		{"short array", `[1000]`, nil},
		{"unknown object", `{"time":1000,"val":5}`, nil},
		{"bare number", `42`, nil},
		{"malformed json", `{"ts":`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := RawSeries{"co2": raw(tt.sample)}
			points := Prepare(series, []string{"co2"})

			if tt.expected == nil {
				if len(points) != 0 {
					t.Fatalf("expected sample to be dropped, got %+v", points)
				}
				return
			}
			if len(points) != 1 {
				t.Fatalf("expected 1 point, got %d", len(points))
			}
			if points[0] != *tt.expected {
				t.Errorf("expected %+v, got %+v", *tt.expected, points[0])
			}
		})
	}
}

func TestPrepareAliasPriority(t *testing.T) {
	series := RawSeries{
		"CO2": raw(`{"ts":1,"value":900}`),
		"co2": raw(`{"ts":1,"value":400}`),
	}

	points := Prepare(series, []string{"co2", "CO2"})
	if len(points) != 1 || points[0].Value != 400 {
		t.Fatalf("expected first alias to win, got %+v", points)
	}

	points = Prepare(series, []string{"CO2", "co2"})
	if len(points) != 1 || points[0].Value != 900 {
		t.Fatalf("expected alias order to be honored, got %+v", points)
	}
}

func TestPrepareMissingAlias(t *testing.T) {
	series := RawSeries{"humidity": raw(`{"ts":1,"value":40}`)}
	if points := Prepare(series, []string{"co2", "CO2"}); points != nil {
		t.Errorf("expected nil for missing alias, got %+v", points)
	}
}

func TestPrepareNullSeriesIsSkipped(t *testing.T) {
	var series RawSeries
	if err := json.Unmarshal([]byte(`{"co2":null,"CO2":[{"ts":1,"value":700}]}`), &series); err != nil {
		t.Fatal(err)
	}

	points := Prepare(series, []string{"co2", "CO2"})
	if len(points) != 1 || points[0].Value != 700 {
		t.Fatalf("expected null series to be skipped, got %+v", points)
	}
}

func TestPrepareEmptySeriesShadowsLaterAliases(t *testing.T) {
	series := RawSeries{
		"co2": {},
		"CO2": raw(`{"ts":1,"value":700}`),
	}

	points := Prepare(series, []string{"co2", "CO2"})
	if points == nil || len(points) != 0 {
		t.Fatalf("expected empty (non-nil) result from present empty alias, got %+v", points)
	}
}

func TestPrepareSortsStably(t *testing.T) {
	series := RawSeries{"co2": raw(
		`{"ts":2000,"value":1}`,
		`{"ts":1000,"value":2}`,
		`{"ts":"garbage","value":99}`,
		`{"ts":2000,"value":3}`,
		`[500, "4"]`,
	)}

	points := Prepare(series, []string{"co2"})
	expected := []PreparedPoint{
		{TS: 500, Value: 4},
		{TS: 1000, Value: 2},
		{TS: 2000, Value: 1},
		{TS: 2000, Value: 3},
	}

	if len(points) != len(expected) {
		t.Fatalf("expected %d points, got %d: %+v", len(expected), len(points), points)
	}
	for i := range expected {
		if points[i] != expected[i] {
			t.Errorf("point %d: expected %+v, got %+v", i, expected[i], points[i])
		}
	}
}
