package session

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"NarcissusTCG/client/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUser() *api.UserSelf {
	return &api.UserSelf{User: api.User{UID: "u1", Name: "neo", Level: 4}, Email: "n@x.io", Byte: 300}
}

func TestEncodeDecodeCurrentVersion(t *testing.T) {
	in := Record{User: sampleUser(), IsAuthenticated: true, HasCheckedAuth: true, Cookies: []StoredCookie{{Name: "session_id", Value: "abc"}}}
	raw, err := Encode(in, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, out.Version)
	assert.Equal(t, "neo", out.User.Name)
	assert.True(t, out.IsAuthenticated)
	assert.Equal(t, "abc", out.Cookies[0].Value)
}

func TestDecodeMigratesLegacyRecord(t *testing.T) {
	legacy := `{"user":{"uid":"u1","name":"neo","level":2},"token":"bearer-xyz","isAuthenticated":true}`

	out, err := Decode([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, out.Version)
	assert.True(t, out.IsAuthenticated)
	assert.False(t, out.HasCheckedAuth)
	assert.Empty(t, out.Cookies)
	assert.Equal(t, "u1", out.User.UID)
}

func TestDecodeMigratesV1(t *testing.T) {
	v1 := `{"version":1,"user":null,"is_authenticated":false,"has_checked_auth":true}`
	out, err := Decode([]byte(v1))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, out.Version)
	assert.True(t, out.HasCheckedAuth)
	assert.Nil(t, out.User)
}

func TestDecodeFutureVersionResets(t *testing.T) {
	out, err := Decode([]byte(`{"version":99,"is_authenticated":true}`))
	assert.True(t, errors.Is(err, ErrIncompatibleRecord))
	assert.Equal(t, Empty(), out)
}

func TestDecodeGarbageResets(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.True(t, errors.Is(err, ErrIncompatibleRecord))

	_, err = Decode([]byte(`{"isAuthenticated":"yes"}`))
	assert.True(t, errors.Is(err, ErrIncompatibleRecord))
}

func TestKeeperRestoreClearsIncompatible(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(context.Background(), []byte(`{"version":7}`)))

	keeper := NewKeeper(storage, slog.Default())
	assert.Equal(t, Empty(), keeper.Restore(context.Background()))

	_, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeeperRoundTripOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "default.json")
	keeper := NewKeeper(NewFileStorage(path), slog.Default())
	ctx := context.Background()

	assert.Equal(t, Empty(), keeper.Restore(ctx))

	require.NoError(t, keeper.Persist(ctx, Record{User: sampleUser(), IsAuthenticated: true}))
	restored := keeper.Restore(ctx)
	assert.Equal(t, "u1", restored.User.UID)
	assert.True(t, restored.IsAuthenticated)

	require.NoError(t, keeper.Reset(ctx))
	require.NoError(t, keeper.Reset(ctx))
	assert.Equal(t, Empty(), keeper.Restore(ctx))
}
