// Package server wires the configuration, storage, geocoding and HTTP
// layers together and runs the dispatch API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/dispatch/engine/geo"
	"github.com/fieldops/dispatch/engine/infra/postgres"
	"github.com/fieldops/dispatch/engine/infra/server/appstate"
	"github.com/fieldops/dispatch/engine/notification"
	"github.com/fieldops/dispatch/pkg/config"
	"github.com/fieldops/dispatch/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    *config.Config
	router *gin.Engine
}

func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the HTTP server and blocks until the context is canceled or
// a termination signal arrives.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	pgCfg := postgres.FromAppConfig(s.cfg)
	if s.cfg.Database.AutoMigrate {
		if err := postgres.ApplyMigrationsWithLock(ctx, pgCfg.DSN()); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	store, err := postgres.NewStore(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer store.Close(ctx)

	state, err := s.buildState(store)
	if err != nil {
		return err
	}
	if err := s.buildRouter(ctx, state, store); err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) buildState(store *postgres.Store) (*appstate.State, error) {
	pool := store.Pool()
	tasks := postgres.NewTaskRepo(pool)
	users := postgres.NewUserRepo(pool)
	client := geo.NewNominatimClient(&geo.NominatimConfig{
		Endpoint:  s.cfg.Geocoding.Endpoint,
		UserAgent: s.cfg.Geocoding.UserAgent,
		Timeout:   s.cfg.Geocoding.Timeout,
	})
	geocoder := geo.NewGeocoder(client, &geo.Config{
		CacheSize: s.cfg.Geocoding.CacheSize,
		Country:   s.cfg.Geocoding.Country,
	})
	return appstate.NewState(s.cfg, tasks, users, geocoder, notification.LogDispatcher{})
}

func (s *Server) buildRouter(ctx context.Context, state *appstate.State, store *postgres.Store) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger.FromContext(ctx)))
	r.Use(appstate.StateMiddleware(state))
	health := healthHandler(func() error {
		return store.HealthCheck(context.Background())
	})
	if err := RegisterRoutes(r, state, health); err != nil {
		return err
	}
	s.router = r
	return nil
}
