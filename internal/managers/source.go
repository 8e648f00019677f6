package managers

import (
	"fmt"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"go.uber.org/zap"
)

// NewSource builds the series source named by the configuration. Sources that
// also implement source.Starter must be started by the caller.
func NewSource(sc config.SourceData, logger *zap.SugaredLogger) (source.Source, error) {
	switch sc.Type {
	case config.SourcePrometheus:
		if sc.Prometheus == nil {
			return nil, fmt.Errorf("prometheus source requires a prometheus section")
		}
		ps, err := source.NewPrometheusSource(*sc.Prometheus, logger)
		if err != nil {
			return nil, err
		}
		return ps, nil
	case config.SourceFile:
		if sc.File == nil || sc.File.Path == "" {
			return nil, fmt.Errorf("file source requires file.path")
		}
		return source.NewFileSource(sc.File.Path), nil
	case config.SourceAirGradient:
		if sc.AirGradient == nil {
			return nil, fmt.Errorf("airgradient source requires an airgradient section")
		}
		return source.NewAirGradientSource(*sc.AirGradient, sc.Range, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sc.Type)
	}
}
