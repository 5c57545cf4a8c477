// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/api"
	"github.com/verdelab/greenhub/api/middleware"
	"github.com/verdelab/greenhub/internal/config"
	"github.com/verdelab/greenhub/internal/database"
	"github.com/verdelab/greenhub/internal/dedup"
	"github.com/verdelab/greenhub/internal/discovery"
	"github.com/verdelab/greenhub/internal/greenservice"
	"github.com/verdelab/greenhub/internal/monitoring"
	"github.com/verdelab/greenhub/internal/notify"
	"github.com/verdelab/greenhub/internal/repository/postgres"
	"github.com/verdelab/greenhub/internal/scheduler"
	"github.com/verdelab/greenhub/internal/settings"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	service    *greenservice.GreenService
	monitoring *monitoring.Service
	db         database.DB
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start wires the service graph, restores monitoring state and begins
// listening for requests.
func (s *Server) Start() error {
	ctx := context.Background()

	db, err := database.NewPostgresDB(s.config.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s.db = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	cache := database.NewRedisClient(ctx, s.config.Redis)

	s.service = s.initializeService(db, cache)
	if err := s.service.Validate(); err != nil {
		return err
	}

	s.monitoring = s.service.Scheduler.Metrics()
	s.setupAlertHandlers()

	router := api.NewRouter(s.service, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	})
	router.Resources().SetHealthCheck(s.handleHealth())
	router.Resources().SetMetrics(s.monitoring.Handler())

	handler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(router)
	handler = handlers.RecoveryHandler()(handler)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.restoreMonitoring(ctx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.service.Scheduler.Shutdown()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if err := s.db.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing database: %v", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// restoreMonitoring resumes the check loop after a restart when the stored
// settings say it was enabled.
func (s *Server) restoreMonitoring(ctx context.Context) {
	s.service.Settings.Load(ctx)

	current := s.service.Settings.Current()
	if !current.Enabled {
		return
	}

	nuts.L.Infof("[Server] Restoring enabled monitoring, interval %dm", current.IntervalMinutes)
	s.service.Scheduler.Start(ctx, current.IntervalMinutes)
	if current.HasTelegramCredentials() {
		s.service.Notifier.SendStartupMessage(scheduler.ClampInterval(current.IntervalMinutes))
	}
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupAlertHandlers() {
	s.monitoring.OnEvent("alert.sent", func(labels map[string]string) {
		nuts.L.Infof("[Server] Alert dispatched for %s/%s (%s)",
			labels["source"], labels["parameter"], labels["severity"])
	})
}

// initializeService creates and configures the green service graph.
func (s *Server) initializeService(db database.DB, cache *redis.Client) *greenservice.GreenService {
	readings := postgres.NewReadingRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	cycles := postgres.NewCycleRepository(db)
	admin := postgres.NewAdminRepository(db)

	store := settings.NewStore(settingsRepo, s.config.Telegram.BotToken, s.config.Telegram.ChatID)
	discoverer := discovery.New(readings, cache, s.config.Monitor.DiscoveryCache, s.config.Monitor.ProbeTimeout)
	deduplicator := dedup.New(s.config.Monitor.Cooldown, s.config.Monitor.EscalationDelta)
	notifier := notify.New(store, s.config.Monitor.NotifyTimeout)
	metrics := monitoring.NewService()

	sched := scheduler.New(
		store, cycles, readings, discoverer,
		deduplicator, notifier, metrics,
		s.config.Monitor.StaleAfter,
	)

	svc := greenservice.New(readings, cycles, admin, store, discoverer, sched, notifier, deduplicator)
	svc.StaleAfter = s.config.Monitor.StaleAfter
	return svc
}
