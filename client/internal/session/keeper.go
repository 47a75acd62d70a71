package session

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Keeper unisce codec e storage: e' l'unico punto che legge e scrive il record.
type Keeper struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewKeeper(storage Storage, logger *slog.Logger) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{storage: storage, logger: logger, now: time.Now}
}

// Restore legge il record persistito. Record assenti o incompatibili
// producono un record vuoto; quelli incompatibili vengono anche cancellati.
func (k *Keeper) Restore(ctx context.Context) Record {
	raw, err := k.storage.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return Empty()
	}
	if err != nil {
		k.logger.Warn("lettura sessione fallita", "error", err)
		return Empty()
	}

	record, err := Decode(raw)
	if err != nil {
		k.logger.Warn("sessione incompatibile, reset", "error", err)
		if clearErr := k.storage.Clear(ctx); clearErr != nil {
			k.logger.Warn("reset sessione fallito", "error", clearErr)
		}
		return Empty()
	}
	return record
}

// Persist scrive il record con la versione corrente.
func (k *Keeper) Persist(ctx context.Context, r Record) error {
	raw, err := Encode(r, k.now())
	if err != nil {
		return err
	}
	return k.storage.Save(ctx, raw)
}

// Reset rimuove il record persistito.
func (k *Keeper) Reset(ctx context.Context) error {
	return k.storage.Clear(ctx)
}
