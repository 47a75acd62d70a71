package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"NarcissusTCG/client/internal/api"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

type chatClient struct {
	uid    string
	name   string
	conn   *websocket.Conn
	send   chan []byte
	groups map[string]bool
	once   sync.Once
}

type chatIn struct {
	GroupUID    string `json:"group_uid"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

type chatOut struct {
	Type        string    `json:"type"`
	GroupUID    string    `json:"group_uid"`
	UserName    string    `json:"user_name"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	Timestamp   time.Time `json:"timestamp"`
}

// hub tiene le connessioni chat e le iscrizioni per gruppo.
type hub struct {
	logger   *slog.Logger
	server   *Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*chatClient]struct{}
	subs    map[string]map[*chatClient]struct{}
}

func newHub(logger *slog.Logger, server *Server) *hub {
	return &hub{
		logger:   logger,
		server:   server,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*chatClient]struct{}),
		subs:     make(map[string]map[*chatClient]struct{}),
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	uid, authed := s.sessionUser(r)
	if !authed {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	gid := mux.Vars(r)["gid"]
	groupUIDs := r.URL.Query()["group_uids"]
	if len(groupUIDs) == 0 {
		groupUIDs = []string{gid}
	}

	// 1) Ogni gruppo richiesto deve avere l'utente come membro.
	s.mu.Lock()
	name := s.players[uid].self.Name
	subscribed := make(map[string]bool, len(groupUIDs))
	for _, id := range groupUIDs {
		g, exists := s.groups[id]
		if !exists || !g.isMember(uid) {
			s.mu.Unlock()
			http.Error(w, "not a group member", http.StatusForbidden)
			return
		}
		subscribed[id] = true
	}
	s.mu.Unlock()

	// 2) Upgrade e registrazione nel hub.
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade websocket fallito", "error", err)
		return
	}
	c := &chatClient{uid: uid, name: name, conn: conn, send: make(chan []byte, sendBuffer), groups: subscribed}
	s.hub.register(c)
	s.logger.Info("chat collegata", "uid", uid, "groups", strings.Join(groupUIDs, ","))

	go s.hub.writePump(c)
	s.hub.readPump(c)
}

func (h *hub) register(c *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for gid := range c.groups {
		if h.subs[gid] == nil {
			h.subs[gid] = make(map[*chatClient]struct{})
		}
		h.subs[gid][c] = struct{}{}
	}
}

func (h *hub) unregister(c *chatClient) {
	h.mu.Lock()
	delete(h.clients, c)
	for gid := range c.groups {
		delete(h.subs[gid], c)
		if len(h.subs[gid]) == 0 {
			delete(h.subs, gid)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

func (h *hub) readPump(c *chatClient) {
	defer h.unregister(c)
	for {
		var in chatIn
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("chat chiusa in modo inatteso", "uid", c.uid, "error", err)
			}
			return
		}
		if !h.subscribed(c, in.GroupUID) || strings.TrimSpace(in.Content) == "" {
			continue
		}
		if in.MessageType == "" {
			in.MessageType = "text"
		}
		out := chatOut{
			Type:        "group_msg",
			GroupUID:    in.GroupUID,
			UserName:    c.name,
			Content:     in.Content,
			MessageType: in.MessageType,
			Timestamp:   h.server.now(),
		}
		h.server.saveMessage(out)
		h.broadcast(out)
	}
}

func (h *hub) writePump(c *chatClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("scrittura chat fallita", "uid", c.uid, "error", err)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

func (h *hub) subscribed(c *chatClient, gid string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[gid][c]
	return ok
}

// broadcast scarta il messaggio per i client con buffer pieno.
func (h *hub) broadcast(out chatOut) {
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[out.GroupUID] {
		select {
		case c.send <- raw:
		default:
			h.logger.Warn("client chat lento, messaggio scartato", "uid", c.uid)
		}
	}
}

func (h *hub) dropGroup(gid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, gid)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*chatClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}

func (s *Server) saveMessage(out chatOut) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.groups[out.GroupUID]
	if !exists {
		return
	}
	g.messages = append(g.messages, api.GroupMessage{
		GroupUID:    out.GroupUID,
		UserName:    out.UserName,
		Content:     out.Content,
		MessageType: out.MessageType,
		CreatedAt:   out.Timestamp,
	})
}
