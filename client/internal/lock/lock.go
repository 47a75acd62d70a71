package lock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager gestisce l'acquisizione e il rilascio dei lock per azione.
type Manager interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

var errMissingKey = errors.New("key and token are required")

func newToken() string {
	return uuid.NewString()
}

// MemoryLock e' un lock di processo con scadenza, per un singolo client.
type MemoryLock struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[string]memoryEntry
	clock func() time.Time
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// NewMemoryLock crea il lock; ttl evita lock orfani se un'azione si blocca.
func NewMemoryLock(ttl time.Duration) *MemoryLock {
	return &MemoryLock{ttl: ttl, held: make(map[string]memoryEntry), clock: time.Now}
}

func (l *MemoryLock) Acquire(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[key]; ok && now.Before(entry.expires) {
		return "", false, nil
	}
	token := newToken()
	l.held[key] = memoryEntry{token: token, expires: now.Add(l.ttl)}
	return token, true, nil
}

func (l *MemoryLock) Release(_ context.Context, key, token string) error {
	if key == "" || token == "" {
		return errMissingKey
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.held[key]; ok && entry.token == token {
		delete(l.held, key)
	}
	return nil
}

// Guard impedisce che la stessa azione parta due volte mentre e' in volo.
type Guard struct {
	manager Manager
	prefix  string
	logger  *slog.Logger
}

// NewGuard usa prefix per separare i profili che condividono lo stesso backend di lock.
func NewGuard(manager Manager, prefix string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{manager: manager, prefix: prefix, logger: logger}
}

// Enter prova a prendere il lock per key. Se ok e' false l'azione e' gia'
// in corso (o il lock non e' disponibile) e non va eseguita.
func (g *Guard) Enter(ctx context.Context, key string) (release func(), ok bool) {
	if g == nil || g.manager == nil {
		return func() {}, true
	}
	full := g.prefix + key
	token, ok, err := g.manager.Acquire(ctx, full)
	if err != nil {
		g.logger.Error("acquisizione lock fallita", "key", full, "error", err)
		return nil, false
	}
	if !ok {
		g.logger.Warn("azione gia' in corso", "key", full)
		return nil, false
	}
	return func() {
		// Rilascio con context proprio: ctx potrebbe essere gia' scaduto.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.manager.Release(releaseCtx, full, token); err != nil {
			g.logger.Warn("rilascio lock fallito", "key", full, "error", err)
		}
	}, true
}
