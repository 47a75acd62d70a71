package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"NarcissusTCG/client/internal/config"
	"NarcissusTCG/client/internal/db"
	"NarcissusTCG/client/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = "client/.env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1) Connessione al DB delle sessioni.
	database, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// 2) Applica lo schema; il DDL e' idempotente.
	if _, err := database.ExecContext(ctx, session.Schema); err != nil {
		logger.Error("schema non applicato", "error", err)
		os.Exit(1)
	}
	logger.Info("schema sessioni applicato")
}
