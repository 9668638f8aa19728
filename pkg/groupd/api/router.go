package api

import (
	"net/http"
	"time"

	api_v1_group "github.com/craigwongva/pz-access/pkg/groupd/api/v1/group"
	"github.com/craigwongva/pz-access/pkg/groupd/database"
	"github.com/craigwongva/pz-access/pkg/groupd/middleware"
	"github.com/craigwongva/pz-access/pkg/groupd/synchronizer"
	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var requestTimeout = time.Second * 30

type Config struct {
	DeploymentGroupStore database.DeploymentGroupStore
	Synchronizer         api_v1_group.Synchronizer
	MetricsPath          string
	// Reports whether the service can serve requests; nil means always healthy.
	HealthCheck func(r *http.Request) error
}

func New(cfg Config) chi.Router {
	prometheusMiddleware := middleware.NewPrometheusMiddleware("groupd")

	groupHandler := &api_v1_group.Handler{
		DeploymentGroupStore: cfg.DeploymentGroupStore,
		Synchronizer:         cfg.Synchronizer,
		Locker:               synchronizer.NewKeyedLocker(),
	}

	// Pre-populate request metrics
	for _, code := range api_v1_group.StatusCodes {
		prometheusMiddleware.Initialize("/api/v1/deployment/group/", http.MethodPost, code)
		prometheusMiddleware.Initialize("/api/v1/deployment/group/{id}/layers", http.MethodPut, code)
		prometheusMiddleware.Initialize("/api/v1/deployment/group/{id}", http.MethodDelete, code)
	}

	// Base settings for all requests
	router := chi.NewRouter()
	router.Use(
		chi_middleware.RequestID,
		middleware.RequestLogger(),
		prometheusMiddleware.Handler(),
		chi_middleware.StripSlashes,
	)

	// Mount /metrics endpoint with no authentication
	router.Get(cfg.MetricsPath, promhttp.Handler().ServeHTTP)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Only application/json content type allowed
	router.Route("/api/v1/deployment/group", func(r chi.Router) {
		r.Use(
			chi_middleware.AllowContentType("application/json"),
			chi_middleware.Timeout(requestTimeout),
		)
		r.Post("/", groupHandler.Create)
		r.Get("/{id}", groupHandler.Get)
		r.Put("/{id}/layers", groupHandler.Merge)
		r.Delete("/{id}", groupHandler.Delete)
	})

	return router
}
