package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/log"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	cache      *snapshot.Cache
	evaluator  *airquality.Evaluator
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, cache *snapshot.Cache, evaluator *airquality.Evaluator, m *metrics.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	if cache == nil {
		return nil, fmt.Errorf("REST server requires a snapshot cache")
	}
	if evaluator == nil {
		evaluator = airquality.NewEvaluator(airquality.DefaultCatalog())
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		cache:      cache,
		evaluator:  evaluator,
		metrics:    m,
		logger:     logger.Named("rest"),
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		ctrl.logger.Infof("rest.listen-addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		rc.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if rc.HTTPPort == 0 {
		ctrl.logger.Infof("rest.http-port not provided; defaulting to %d", config.DefaultHTTPPort)
		rc.HTTPPort = config.DefaultHTTPPort
	}
	ctrl.restConfig = rc

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.HTTPPort)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("Starting REST server controller...", "addr", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.requestMiddleware)

	// API endpoints
	router.HandleFunc("/api/eval", c.handlers.GetEval).Methods(http.MethodGet)
	router.HandleFunc("/api/eval", c.handlers.PostEval).Methods(http.MethodPost)
	router.HandleFunc("/api/series", c.handlers.GetSeries).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshots", c.handlers.GetSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshots/{id}/eval", c.handlers.GetSnapshotEval).Methods(http.MethodGet)

	// Browser dashboards post from other origins
	router.PathPrefix("/api/").Methods(http.MethodOptions).HandlerFunc(c.handlers.Preflight)

	// Operations
	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)

	return router
}

// responseRecorder captures the status code and size of a response
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// requestMiddleware logs every request and records it in the HTTP metrics,
// labelled by route template rather than raw path
func (c *Controller) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		c.metrics.ObserveHTTP(route, recorder.status, duration)
		log.LogHTTPRequest(r.Method, r.URL.Path, recorder.status, duration, recorder.size, r.RemoteAddr)
	})
}
