package groups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"NarcissusTCG/client/internal/api"
	"github.com/gorilla/websocket"
)

const (
	chatEventGroupMsg = "group_msg"
	chatTypeText      = "text"
	pingInterval      = 30 * time.Second
	writeTimeout      = 5 * time.Second
)

// ErrChatNotConnected e' ritornato da Send senza una connessione attiva.
var ErrChatNotConnected = errors.New("chat not connected")

// ChatEndpoint costruisce l'URL websocket di un gruppo.
type ChatEndpoint interface {
	ChatURL(gid string, groupUIDs ...string) *url.URL
}

// CookieSource fornisce i cookie di sessione per l'handshake.
type CookieSource interface {
	SessionCookies() []*http.Cookie
}

// chatEvent e' il messaggio inviato dal server.
type chatEvent struct {
	Type        string    `json:"type"`
	GroupUID    string    `json:"group_uid"`
	UserName    string    `json:"user_name"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	Timestamp   time.Time `json:"timestamp"`
}

// chatOutgoing e' il messaggio inviato dal client.
type chatOutgoing struct {
	GroupUID    string `json:"group_uid"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

// Chat e' la sessione websocket della chat di gruppo. I messaggi ricevuti
// finiscono nello store dei gruppi.
type Chat struct {
	logger   *slog.Logger
	endpoint ChatEndpoint
	cookies  CookieSource
	store    *Store
	dialer   websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

func NewChat(logger *slog.Logger, endpoint ChatEndpoint, cookies CookieSource, store *Store) *Chat {
	return &Chat{
		logger:   logger,
		endpoint: endpoint,
		cookies:  cookies,
		store:    store,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Connect apre la connessione per gid ed eventuali altri gruppi.
// Una connessione gia' aperta viene riusata.
func (c *Chat) Connect(ctx context.Context, gid string, groupUIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	header := http.Header{}
	req := &http.Request{Header: header}
	for _, cookie := range c.cookies.SessionCookies() {
		req.AddCookie(cookie)
	}

	target := c.endpoint.ChatURL(gid, groupUIDs...)
	conn, resp, err := c.dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.setStatus(false, "chat connection failed")
		return fmt.Errorf("websocket dial (status %d): %w", status, err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	c.setStatus(true, "")
	c.logger.Info("chat connessa", "group_uid", gid)

	go c.readLoop(conn, c.done)
	go c.heartbeat(conn, c.done)
	return nil
}

// Send invia un messaggio di testo al gruppo.
func (c *Chat) Send(gid, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrChatNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(chatOutgoing{GroupUID: gid, Content: content, MessageType: chatTypeText}); err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

// Close chiude la connessione con un close frame normale.
func (c *Chat) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Chat) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	close(c.done)
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
	c.conn = nil
	c.setStatus(false, "")
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("close chat: %w", err)
	}
	return nil
}

func (c *Chat) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				c.logger.Warn("chat disconnessa", "error", err)
				c.dropConn(conn)
			}
			return
		}

		var event chatEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.logger.Debug("messaggio chat non valido", "error", err)
			continue
		}
		if event.Type != chatEventGroupMsg {
			continue
		}
		msg := api.GroupMessage{
			GroupUID:    event.GroupUID,
			UserName:    event.UserName,
			Content:     event.Content,
			MessageType: event.MessageType,
			CreatedAt:   event.Timestamp,
		}
		c.store.Update(func(st *State) { appendChat(st, msg) })
	}
}

func (c *Chat) heartbeat(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.logger.Debug("ping chat fallito", "error", err)
			}
		}
	}
}

// dropConn rimuove una connessione caduta lato server.
func (c *Chat) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	close(c.done)
	c.conn.Close()
	c.conn = nil
	c.setStatus(false, "chat disconnected")
}

func (c *Chat) setStatus(connected bool, errMsg string) {
	c.store.Update(func(st *State) {
		st.ChatConnected = connected
		st.ChatError = errMsg
	})
}
