package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"NarcissusTCG/client/internal/app"
	"NarcissusTCG/client/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	// Bootstrap di logging e config.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Debug("impossibile caricare .env", "path", envPath, "error", err)
	}
	cfg := config.Load()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]
	cmd, found := commands[name]
	if !found {
		fmt.Fprintf(os.Stderr, "comando sconosciuto: %s\n\n", name)
		usage()
		os.Exit(2)
	}
	if len(args) < cmd.minArgs {
		fmt.Fprintf(os.Stderr, "uso: tcg-cli %s %s\n", name, cmd.usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("avvio client fallito", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// La sessione persistita va verificata prima di ogni comando autenticato.
	if !cmd.anonymous && !a.User.Initialize(ctx) {
		fmt.Fprintln(os.Stderr, "nessuna sessione valida: eseguire tcg-cli login")
		a.Close()
		os.Exit(1)
	}

	if err := cmd.run(ctx, a, args); err != nil {
		fmt.Fprintln(os.Stderr, "errore:", err)
		a.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: tcg-cli <comando> [argomenti]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].usage)
	}
}
