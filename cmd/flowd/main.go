package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/agencyflow/agencyflow/internal/adapters/duckdb"
	natsadapter "github.com/agencyflow/agencyflow/internal/adapters/nats"
	"github.com/agencyflow/agencyflow/internal/adapters/objstore"
	appconfig "github.com/agencyflow/agencyflow/internal/config"
	"github.com/agencyflow/agencyflow/internal/core/ports"
	"github.com/agencyflow/agencyflow/internal/core/services"
	"github.com/agencyflow/agencyflow/pkg/kernel"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting agencyflow")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfgPath := os.Getenv("AGENCYFLOW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	repo, err := duckdb.NewRepository(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}
	defer repo.Close()

	files := objstore.NewClient(cfg.Files.BaseURL)

	// Core services
	eventBus := services.NewEventBus(logger)
	pushers := []ports.Pusher{eventBus}
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer pub.Close()
		pushers = append(pushers, pub)
	}

	notifier := services.NewNotifier(logger, repo, pushers...)
	roles := services.NewRoleDirectory(logger, repo, cfg.GlobalRoles())
	graph := services.NewWorkflowGraph(logger, roles, repo)
	checker := services.NewStepChecker(logger, repo, files)
	taskStore := services.NewTaskStore(logger, repo)
	driver := services.NewWorkflowDriver(logger, repo, graph, checker, taskStore, roles, notifier)

	apiServer := kernel.NewServer(logger, driver, notifier, eventBus, files, repo)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:5174"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
