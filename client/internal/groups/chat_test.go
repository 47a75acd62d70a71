package groups

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEndpoint struct{ base string }

func (e staticEndpoint) ChatURL(gid string, groupUIDs ...string) *url.URL {
	u, _ := url.Parse(e.base)
	u.Scheme = "ws"
	u.Path = "/groups/" + gid + "/chat"
	if len(groupUIDs) == 0 {
		groupUIDs = []string{gid}
	}
	u.RawQuery = url.Values{"group_uids": groupUIDs}.Encode()
	return u
}

type staticCookies []*http.Cookie

func (c staticCookies) SessionCookies() []*http.Cookie { return c }

// echoServer rimanda ogni messaggio come evento group_msg.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("session_id"); err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, []string{"g1"}, r.URL.Query()["group_uids"])
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var in chatOutgoing
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			_ = conn.WriteJSON(map[string]any{"type": "ping"})
			_ = conn.WriteJSON(chatEvent{
				Type:        chatEventGroupMsg,
				GroupUID:    in.GroupUID,
				UserName:    "neo",
				Content:     in.Content,
				MessageType: in.MessageType,
				Timestamp:   time.Now(),
			})
		}
	}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestChatRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	store := NewStore()
	chat := NewChat(slog.Default(), staticEndpoint{srv.URL}, staticCookies{{Name: "session_id", Value: "abc"}}, store)

	require.NoError(t, chat.Connect(context.Background(), "g1"))
	assert.True(t, store.Snapshot().ChatConnected)

	require.NoError(t, chat.Send("g1", "hello"))
	waitFor(t, func() bool { return len(store.Snapshot().Chat["g1"]) == 1 })

	msg := store.Snapshot().Chat["g1"][0]
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "neo", msg.UserName)
	assert.Equal(t, chatTypeText, msg.MessageType)

	require.NoError(t, chat.Close())
	assert.False(t, store.Snapshot().ChatConnected)
	assert.ErrorIs(t, chat.Send("g1", "again"), ErrChatNotConnected)
}

func TestChatConnectWithoutSessionFails(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	store := NewStore()
	chat := NewChat(slog.Default(), staticEndpoint{srv.URL}, staticCookies{}, store)

	err := chat.Connect(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
	snap := store.Snapshot()
	assert.False(t, snap.ChatConnected)
	assert.NotEmpty(t, snap.ChatError)
}

func TestChatServerDropIsReported(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	store := NewStore()
	chat := NewChat(slog.Default(), staticEndpoint{srv.URL}, staticCookies{}, store)
	require.NoError(t, chat.Connect(context.Background(), "g1"))

	waitFor(t, func() bool { return !store.Snapshot().ChatConnected })
	assert.Equal(t, "chat disconnected", store.Snapshot().ChatError)
	assert.NoError(t, chat.Close())
}
