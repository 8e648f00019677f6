package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/prometheus/common/model"
)

// ErrUnsupportedEnvelope is returned when a payload is valid JSON but not one
// of the recognized series layouts
var ErrUnsupportedEnvelope = errors.New("unsupported series envelope")

// Unwrap extracts a RawSeries from the payload layouts seen in the wild:
//
//	{"co2": [...], "pm25": [...]}                              flat
//	{"data": {"co2": [...]}}                                   wrapped
//	{"series": [{"name": "co2", "data": [...]}]}               list
//	{"status": "success", "data": {"resultType": "matrix"...}} Prometheus API
//
// Entries whose value is not an array are skipped. An empty object yields an
// empty RawSeries.
func Unwrap(data []byte) (airquality.RawSeries, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEnvelope, err)
	}
	if top == nil {
		return nil, ErrUnsupportedEnvelope
	}

	if isPrometheusBody(top) {
		return unwrapPrometheus(data)
	}
	if list, ok := top["series"]; ok && isArray(list) {
		return unwrapSeriesList(list)
	}
	if inner, ok := top["data"]; ok && isObject(inner) {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(inner, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedEnvelope, err)
		}
		return flatten(m)
	}
	return flatten(top)
}

func flatten(m map[string]json.RawMessage) (airquality.RawSeries, error) {
	raw := airquality.RawSeries{}
	for name, v := range m {
		if !isArray(v) {
			continue
		}
		var samples []json.RawMessage
		if err := json.Unmarshal(v, &samples); err != nil {
			continue
		}
		raw[name] = samples
	}
	if len(raw) == 0 && len(m) > 0 {
		return nil, ErrUnsupportedEnvelope
	}
	return raw, nil
}

type seriesEntry struct {
	Name   string          `json:"name"`
	Sensor string          `json:"sensor"`
	Key    string          `json:"key"`
	Data   json.RawMessage `json:"data"`
	Values json.RawMessage `json:"values"`
	Points json.RawMessage `json:"points"`
}

func (e seriesEntry) label() string {
	for _, s := range []string{e.Name, e.Sensor, e.Key} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (e seriesEntry) samples() json.RawMessage {
	for _, s := range []json.RawMessage{e.Data, e.Values, e.Points} {
		if isArray(s) {
			return s
		}
	}
	return nil
}

func unwrapSeriesList(list json.RawMessage) (airquality.RawSeries, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEnvelope, err)
	}

	raw := airquality.RawSeries{}
	for _, item := range entries {
		var e seriesEntry
		if !isObject(item) || json.Unmarshal(item, &e) != nil {
			continue
		}
		name, body := e.label(), e.samples()
		if name == "" || body == nil {
			continue
		}
		var samples []json.RawMessage
		if err := json.Unmarshal(body, &samples); err != nil {
			continue
		}
		// Repeated names are concatenated; the normalizer sorts by time.
		raw[name] = append(raw[name], samples...)
	}
	return raw, nil
}

type prometheusBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Data   struct {
		ResultType string          `json:"resultType"`
		Result     json.RawMessage `json:"result"`
	} `json:"data"`
}

func isPrometheusBody(top map[string]json.RawMessage) bool {
	if _, ok := top["status"]; !ok || !isObject(top["data"]) {
		return false
	}
	var probe struct {
		ResultType *string `json:"resultType"`
	}
	return json.Unmarshal(top["data"], &probe) == nil && probe.ResultType != nil
}

func unwrapPrometheus(data []byte) (airquality.RawSeries, error) {
	var body prometheusBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEnvelope, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("prometheus response status %q: %s", body.Status, body.Error)
	}

	raw := airquality.RawSeries{}
	switch body.Data.ResultType {
	case model.ValMatrix.String():
		var m model.Matrix
		if err := json.Unmarshal(body.Data.Result, &m); err != nil {
			return nil, fmt.Errorf("decoding matrix: %w", err)
		}
		for _, stream := range m {
			name := string(stream.Metric[model.MetricNameLabel])
			if name == "" {
				continue
			}
			raw[name] = appendPairs(raw[name], stream.Values)
		}
	case model.ValVector.String():
		var v model.Vector
		if err := json.Unmarshal(body.Data.Result, &v); err != nil {
			return nil, fmt.Errorf("decoding vector: %w", err)
		}
		for _, s := range v {
			name := string(s.Metric[model.MetricNameLabel])
			if name == "" {
				continue
			}
			raw[name] = appendPairs(raw[name], []model.SamplePair{{Timestamp: s.Timestamp, Value: s.Value}})
		}
	default:
		return nil, fmt.Errorf("%w: prometheus result type %q", ErrUnsupportedEnvelope, body.Data.ResultType)
	}
	return raw, nil
}

// appendPairs converts Prometheus sample pairs into [tsMillis, value] samples
func appendPairs(dst []json.RawMessage, pairs []model.SamplePair) []json.RawMessage {
	for _, p := range pairs {
		if s, ok := encodeSample(int64(p.Timestamp), float64(p.Value)); ok {
			dst = append(dst, s)
		}
	}
	return dst
}

func isArray(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
