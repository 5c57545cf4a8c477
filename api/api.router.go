// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/verdelab/greenhub/api/middleware"
	"github.com/verdelab/greenhub/api/resources"
	"github.com/verdelab/greenhub/internal/greenservice"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
}

func NewRouter(svc *greenservice.GreenService, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

// Resources exposes the handler set so the server can attach health and
// metrics endpoints.
func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.HealthCheck != nil {
			r.resources.HealthCheck(w, req)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	api.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.resources.Metrics != nil {
			r.resources.Metrics.ServeHTTP(w, req)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Monitoring control
	monitoring := protected.PathPrefix("/monitoring").Subrouter()
	monitoring.HandleFunc("/status", r.resources.Monitoring.Status).Methods(http.MethodGet)
	monitoring.HandleFunc("/start", r.resources.Monitoring.Start).Methods(http.MethodPost)
	monitoring.HandleFunc("/stop", r.resources.Monitoring.Stop).Methods(http.MethodPost)
	monitoring.HandleFunc("/check", r.resources.Monitoring.Check).Methods(http.MethodPost)

	protected.HandleFunc("/notifications/test", r.resources.Monitoring.TestNotification).Methods(http.MethodPost)

	// Settings
	protected.HandleFunc("/settings", r.resources.Settings.Get).Methods(http.MethodGet)
	protected.HandleFunc("/settings", r.resources.Settings.Update).Methods(http.MethodPut)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("/tables", r.resources.Sensors.ListSources).Methods(http.MethodGet)
	sensors.HandleFunc("/status", r.resources.Sensors.Statuses).Methods(http.MethodGet)
	sensors.HandleFunc("/{source}/latest", r.resources.Sensors.History).Methods(http.MethodGet)
	sensors.HandleFunc("/{source}/averages", r.resources.Sensors.Averages).Methods(http.MethodGet)

	// Cultivation cycles
	cycles := protected.PathPrefix("/cycles").Subrouter()
	cycles.HandleFunc("", r.resources.Cycles.List).Methods(http.MethodGet)
	cycles.HandleFunc("", r.resources.Cycles.Create).Methods(http.MethodPost)
	cycles.HandleFunc("/active", r.resources.Cycles.GetActive).Methods(http.MethodGet)
	cycles.HandleFunc("/active/finish", r.resources.Cycles.FinishActive).Methods(http.MethodPost)
	cycles.HandleFunc("/active/stage", r.resources.Cycles.ChangeActiveStage).Methods(http.MethodPut)
	cycles.HandleFunc("/{id}", r.resources.Cycles.Get).Methods(http.MethodGet)
	cycles.HandleFunc("/{id}", r.resources.Cycles.Update).Methods(http.MethodPut)
	cycles.Handle("/{id}", r.auth.RequireRoles([]string{"admin"})(
		http.HandlerFunc(r.resources.Cycles.Delete),
	)).Methods(http.MethodDelete)

	// Admin
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(r.auth.RequireRoles([]string{"admin"}))
	admin.HandleFunc("/query", r.resources.Admin.Query).Methods(http.MethodPost)
	admin.HandleFunc("/sensors/rediscover", r.resources.Admin.RediscoverSensors).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
