package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	internalhttp "github.com/EternisAI/dockpanel/internal/api/http"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/EternisAI/dockpanel/internal/containers"
	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/EternisAI/dockpanel/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var AppVersion string

const (
	shutdownTimeout = 10 * time.Second
	probeTimeout    = 5 * time.Second
	defaultOrigin   = "http://127.0.0.1:8080"
)

func main() {
	config := InitConfig()

	slog.Info("Dockpanel Server", "version", AppVersion)

	if err := config.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	handle, err := daemon.Connect(config.Daemon)
	if err != nil {
		slog.Error("Failed to connect to daemon", "error", err)
		os.Exit(1)
	}
	defer handle.Close()

	probeDaemon(handle)

	services, err := buildServices(config, handle)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Http.Port),
		Handler:           newEngine(config.Http, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		slog.Error("Server error", "error", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}

func buildServices(config Config, handle *daemon.Handle) (*internalhttp.Services, error) {
	operator, err := users.NewOperator(config.Auth.Operator)
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}

	guard, err := auth.NewGuard(operator, config.Auth.JWTConfig)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	mapper, err := apierror.NewMapper(config.Http.ErrorMapping)
	if err != nil {
		return nil, fmt.Errorf("error mapping: %w", err)
	}

	return &internalhttp.Services{
		Guard:      guard,
		Daemon:     handle,
		Catalog:    containers.NewCatalog(handle),
		Controller: containers.NewController(handle),
		Mapper:     mapper,
	}, nil
}

func newEngine(config internalhttp.Config, services *internalhttp.Services) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(corsConfig(config.AllowedOrigins)))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, services)
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        time.Hour,
	}
	switch {
	case slices.Contains(origins, "*"):
		cfg.AllowAllOrigins = true
	case len(origins) == 0:
		cfg.AllowOrigins = []string{defaultOrigin}
	default:
		cfg.AllowOrigins = origins
	}
	return cfg
}

// probeDaemon logs whether the daemon answers. An unreachable daemon is not
// fatal: requests will fail with a daemon error until it comes up.
func probeDaemon(handle *daemon.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	version, err := handle.Probe(ctx)
	if err != nil {
		slog.Warn("Daemon not reachable at startup", "host", handle.Endpoint().Host, "error", err)
		return
	}
	slog.Info("Daemon reachable", "host", handle.Endpoint().Host, "api_version", version)
}
