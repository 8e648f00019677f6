package airquality

// MaxHighlights is how many distinct advice strings are surfaced at the top level
const MaxHighlights = 2

// Status thresholds, checked from the top down
var statusTiers = []struct {
	min    float64
	status Status
}{
	{85, StatusExcellent},
	{70, StatusGood},
	{50, StatusOkay},
}

// Evaluator scores RawSeries snapshots against a fixed sensor catalog. It holds
// no mutable state and is safe for concurrent use.
type Evaluator struct {
	catalog Catalog
}

// NewEvaluator creates an evaluator for the given catalog
func NewEvaluator(catalog Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Evaluate scores raw with the default catalog
func Evaluate(raw RawSeries) EvalResponse {
	return NewEvaluator(DefaultCatalog()).Evaluate(raw)
}

// Evaluate runs every sensor in catalog order and folds the results into one
// overall score. Sensors without usable data are left out entirely and carry
// no weight.
func (e *Evaluator) Evaluate(raw RawSeries) EvalResponse {
	resp := EvalResponse{
		Highlights: []string{},
		Sensors:    make(map[string]SensorEvaluation),
	}

	highlights := newHighlightCollector(MaxHighlights)
	var weightedSum, totalWeight float64

	for _, sensor := range e.catalog {
		eval, ok := EvaluateSensor(sensor, raw)
		if !ok {
			continue
		}
		resp.Sensors[sensor.Key] = eval
		weightedSum += eval.Score * sensor.Weight
		totalWeight += sensor.Weight
		highlights.add(eval.Advice)
	}

	if totalWeight > 0 {
		resp.Overall = clamp(weightedSum/totalWeight, 0, 100)
	}
	resp.Status = StatusFor(resp.Overall)
	resp.Highlights = highlights.items

	return resp
}

// EvaluateSensor runs the per-sensor pipeline. It reports false when the
// sensor has no valid samples in raw.
func EvaluateSensor(sensor Sensor, raw RawSeries) (SensorEvaluation, bool) {
	points := Prepare(raw, sensor.Aliases)
	if len(points) == 0 {
		return SensorEvaluation{}, false
	}

	latest := points[len(points)-1].Value
	fit := EstimateTrend(Smooth(points))
	trend := ClassifyTrend(fit, sensor.SlopeThreshold)

	eval := SensorEvaluation{
		Value:       latest,
		Score:       sensor.ScoreOf(latest),
		Trend:       trend,
		SlopePerMin: fit.SlopePerMin,
		R2:          fit.R2,
		Advice:      sensor.AdviceFor(latest, trend),
	}
	if sensor.index != nil {
		idx := sensor.index(latest)
		eval.AQI = &idx
	}
	return eval, true
}

// StatusFor maps an overall score to its tier
func StatusFor(overall float64) Status {
	for _, tier := range statusTiers {
		if overall >= tier.min {
			return tier.status
		}
	}
	return StatusWeak
}

// highlightCollector keeps the first distinct advice strings up to a limit.
// Once full it ignores further input; callers keep iterating sensors so every
// sensor still gets its complete advice list.
type highlightCollector struct {
	limit int
	seen  map[string]struct{}
	items []string
}

func newHighlightCollector(limit int) *highlightCollector {
	return &highlightCollector{
		limit: limit,
		seen:  make(map[string]struct{}, limit),
		items: make([]string, 0, limit),
	}
}

func (h *highlightCollector) add(advice []string) {
	for _, a := range advice {
		if len(h.items) >= h.limit {
			return
		}
		if _, dup := h.seen[a]; dup {
			continue
		}
		h.seen[a] = struct{}{}
		h.items = append(h.items, a)
	}
}
