package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"NarcissusTCG/client/internal/app"
	"NarcissusTCG/client/internal/groups"
)

// runChat resta collegato alla chat finche' stdin non si chiude.
// Ogni riga letta viene inviata al primo gruppo indicato.
func runChat(ctx context.Context, a *app.App, args []string) error {
	gid := args[0]

	// 1) /metrics opzionale durante la sessione interattiva.
	if addr := a.Config.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Metrics.Handler())
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Warn("server metriche fallito", "addr", addr, "error", err)
			}
		}()
		defer server.Close()
		a.Logger.Info("metriche esposte", "addr", addr)
	}

	// 2) Stampa i messaggi nuovi appena arrivano nello store.
	var (
		mu      sync.Mutex
		printed = map[string]int{}
	)
	lost := make(chan string, 1)
	cancel := a.GroupsStore.Subscribe(func(st groups.State) {
		mu.Lock()
		defer mu.Unlock()
		for g, history := range st.Chat {
			for _, m := range history[min(printed[g], len(history)):] {
				fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.UserName, m.Content)
			}
			printed[g] = len(history)
		}
		if !st.ChatConnected && st.ChatError != "" {
			select {
			case lost <- st.ChatError:
			default:
			}
		}
	})
	defer cancel()

	if err := a.Chat.Connect(ctx, gid, args...); err != nil {
		return err
	}
	defer a.Chat.Close()
	fmt.Fprintln(os.Stderr, "chat collegata, una riga per messaggio (Ctrl-D per uscire)")

	// 3) Legge stdin in una goroutine per poter reagire a ctx e disconnessioni.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-lost:
			return errors.New(msg)
		case line, open := <-lines:
			if !open {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := a.Chat.Send(gid, line); err != nil {
				return err
			}
		}
	}
}
