package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"NarcissusTCG/client/internal/app"
	"NarcissusTCG/client/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 1) Carica env per backend e storage della sessione.
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

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("avvio client fallito", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 2) Stampa il record persistito cosi' com'e'.
	record := a.Session.Restore(ctx)
	fmt.Printf("profile=%s backend=%s version=%d authenticated=%v checked=%v cookies=%d saved_at=%s\n",
		cfg.Profile, cfg.SessionBackend, record.Version, record.IsAuthenticated, record.HasCheckedAuth,
		len(record.Cookies), record.SavedAt.Format(time.RFC3339))
	if !record.IsAuthenticated {
		logger.Error("nessuna sessione persistita", "profile", cfg.Profile)
		os.Exit(1)
	}

	// 3) Verifica la sessione contro il backend.
	if !a.User.Initialize(ctx) {
		logger.Error("sessione rifiutata dal backend, record cancellato", "profile", cfg.Profile)
		os.Exit(1)
	}

	me := a.Snapshot().User.User
	fmt.Printf("uid=%s name=%s level=%d exp=%d byte=%d\n", me.UID, me.Name, me.Level, me.Exp, me.Byte)
}
