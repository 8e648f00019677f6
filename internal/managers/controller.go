package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/controllers/mqttpublish"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/controllers/refresh"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/controllers/restserver"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// Services bundles the shared components controllers are built from
type Services struct {
	Source     source.Source
	Cache      *snapshot.Cache
	Evaluator  *airquality.Evaluator
	Metrics    *metrics.Metrics
	Publishers *PublishManager
}

// NewControllerManager creates a new controller manager. The refresh
// controller is always created; the others come from the configuration.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData, s Services, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		config:      c,
		services:    s,
		logger:      logger,
		controllers: make([]Controller, 0, len(c.Controllers)+1),
	}

	var distributor chan<- airquality.EvalResponse
	if s.Publishers != nil {
		distributor = s.Publishers.EvaluationDistributor
	}
	rc, err := refresh.NewController(ctx, wg, c, s.Source, s.Cache, s.Evaluator, s.Metrics, distributor, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating refresh controller: %v", err)
	}
	cm.controllers = append(cm.controllers, rc)

	// Create controllers based on configuration
	for _, con := range c.Controllers {
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	config      *config.ConfigData
	services    Services
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case config.ControllerREST:
		var rc config.RESTServerData
		if cc.RESTServer != nil {
			rc = *cc.RESTServer
		}
		return restserver.NewController(cm.ctx, cm.wg, rc, cm.services.Cache, cm.services.Evaluator, cm.services.Metrics, cm.logger)
	case config.ControllerMQTT:
		if cc.MQTT == nil {
			return nil, fmt.Errorf("mqtt controller requires an mqtt section")
		}
		if cm.services.Publishers == nil {
			return nil, fmt.Errorf("mqtt controller requires a publish manager")
		}
		mc, err := mqttpublish.NewController(cm.ctx, cm.wg, *cc.MQTT, cm.logger)
		if err != nil {
			return nil, err
		}
		cm.services.Publishers.AddPublisher("mqtt", mc.Evaluations())
		return mc, nil
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
