package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage persiste il record grezzo di un profilo.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
	Clear(ctx context.Context) error
}

// MemoryStorage tiene il record in memoria (test e sessioni effimere).
type MemoryStorage struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.raw...), nil
}

func (s *MemoryStorage) Save(_ context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append([]byte(nil), raw...)
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	return nil
}

// FileStorage salva il record in un file JSON con scrittura atomica.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (s *FileStorage) Save(_ context.Context, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStorage) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// PGStorage salva il record nella tabella client_sessions, una riga per profilo.
type PGStorage struct {
	db      *sql.DB
	profile string
}

func NewPGStorage(db *sql.DB, profile string) *PGStorage {
	return &PGStorage{db: db, profile: profile}
}

func (s *PGStorage) Load(ctx context.Context) ([]byte, error) {
	const query = `
SELECT payload
FROM client_sessions
WHERE profile = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, s.profile).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *PGStorage) Save(ctx context.Context, raw []byte) error {
	const query = `
INSERT INTO client_sessions (profile, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (profile)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

	_, err := s.db.ExecContext(ctx, query, s.profile, string(raw))
	return err
}

func (s *PGStorage) Clear(ctx context.Context) error {
	const query = `DELETE FROM client_sessions WHERE profile = $1`
	_, err := s.db.ExecContext(ctx, query, s.profile)
	return err
}
