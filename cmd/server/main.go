package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/config"
	"github.com/microsave/microsave/internal/httpapi"
	"github.com/microsave/microsave/internal/reconcile"
	"github.com/microsave/microsave/internal/service"
	"github.com/microsave/microsave/internal/storage/sqlite"
	"github.com/microsave/microsave/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.SQLiteDBPath)

	// Audit events go to the broker when one is configured, otherwise to
	// the structured log. Either way, publishing never fails a mutation.
	var publisher audit.Publisher = audit.LogPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := audit.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect audit publisher: %w", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		slog.Info("Audit events publishing to AMQP", "exchange", cfg.AMQPExchange)
	}

	guard := service.NewGuard(store)
	api := httpapi.NewServer(
		service.NewGroupService(store, guard, publisher),
		service.NewExpenseService(store, guard, publisher, service.DefaultExpenseOptions()),
		service.NewBudgetService(store, guard, publisher),
		service.NewSavingsService(store, guard, publisher),
		reconcile.New(store),
	)

	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
