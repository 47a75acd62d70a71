package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NarcissusTCG/client/internal/config"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/mockapi"
	"github.com/joho/godotenv"
)

func main() {
	// Bootstrap di logging e config.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
	}

	cfg := config.Load()
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	// 1) Catalogo carte: file SEED_PATH o quello incluso.
	var (
		catalog mockapi.Catalog
		err     error
	)
	if cfg.SeedPath != "" {
		catalog, err = mockapi.LoadCatalog(cfg.SeedPath)
	} else {
		catalog, err = mockapi.DefaultCatalog()
	}
	if err != nil {
		logger.Error("catalogo non valido", "path", cfg.SeedPath, "error", err)
		os.Exit(1)
	}

	// 2) Backend in memoria con lock per listing.
	backend := mockapi.NewServer(logger, catalog, lock.NewMemoryLock(cfg.LockTTL))
	server := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           backend.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 3) Arresto pulito su SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		backend.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown fallito", "error", err)
		}
	}()

	logger.Info("mock backend in ascolto", "addr", cfg.MockAddr, "cards", len(catalog.Cards))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http serve failed", "error", err)
		os.Exit(1)
	}
}
