package mockapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/pkg/httpx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Server e' un backend in memoria che rispetta lo stesso contratto REST del
// backend reale. Serve per sviluppo locale e test end-to-end del client.
type Server struct {
	logger *slog.Logger
	locker lock.Manager
	now    func() time.Time

	catalog   Catalog
	cards     map[int64]api.Card
	recipes   map[int64][]Stack
	decompose map[int64][]Stack
	packages  map[string]int64

	mu          sync.Mutex
	rng         *rand.Rand
	players     map[string]*player
	byName      map[string]string
	sessions    map[string]string
	listings    map[int64]*listing
	nextListing int64
	orders      map[int64]*order
	nextOrder   int64
	records     []record
	groups      map[string]*group

	hub *hub
}

type player struct {
	self     api.UserSelf
	password string
	cards    map[int64]int
	friends  map[string]bool
	// richieste inviate: uid destinatario -> messaggio
	requests map[string]string
}

type listing struct {
	id      int64
	cardID  int64
	owner   string
	number  int
	price   int64
	publish bool
}

type order struct {
	api.Order
	reward api.OrderReward
}

type record struct {
	buyer  string
	seller string
	cardID int64
	number int
	price  int64
	at     time.Time
}

// NewServer prepara lo stato iniziale dal catalogo.
func NewServer(logger *slog.Logger, catalog Catalog, locker lock.Manager) *Server {
	s := &Server{
		logger:    logger,
		locker:    locker,
		now:       time.Now,
		catalog:   catalog,
		cards:     make(map[int64]api.Card, len(catalog.Cards)),
		recipes:   make(map[int64][]Stack),
		decompose: make(map[int64][]Stack),
		packages:  make(map[string]int64),
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 7)),
		players:   make(map[string]*player),
		byName:    make(map[string]string),
		sessions:  make(map[string]string),
		listings:  make(map[int64]*listing),
		orders:    make(map[int64]*order),
		groups:    make(map[string]*group),
	}
	for _, c := range catalog.Cards {
		s.cards[c.CardID] = c.card()
	}
	for _, r := range catalog.Recipes {
		s.recipes[r.CardID] = r.Materials
	}
	for _, r := range catalog.Decompose {
		s.decompose[r.CardID] = r.Materials
	}
	for _, p := range catalog.Packages {
		s.packages[p.Name] = p.Price
	}
	s.hub = newHub(logger, s)
	return s
}

// Router registra tutte le rotte del contratto.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)

	// Auth e profilo.
	r.HandleFunc("/player/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/player/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/player/logout", s.authed(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/player/info/me", s.authed(s.handleSelfInfo)).Methods(http.MethodGet)
	r.HandleFunc("/player/info/me", s.authed(s.handleUpdateSelf)).Methods(http.MethodPut)
	r.HandleFunc("/player/info/me/avatars", s.authed(s.handleAvatar)).Methods(http.MethodPut)
	r.HandleFunc("/player/info/{uid}", s.authed(s.handleUserInfo)).Methods(http.MethodGet)

	// Carte.
	r.HandleFunc("/card/info", s.authed(s.handleCardInfo)).Methods(http.MethodGet)
	r.HandleFunc("/card/materials/compose", s.authed(s.handleComposeMaterials)).Methods(http.MethodGet)
	r.HandleFunc("/card/materials/decompose", s.authed(s.handleDecomposeMaterials)).Methods(http.MethodGet)
	r.HandleFunc("/player/cards", s.authed(s.handleUserCards)).Methods(http.MethodGet)
	r.HandleFunc("/player/cards", s.authed(s.handleCraft)).Methods(http.MethodPut)
	r.HandleFunc("/player/cards", s.authed(s.handleDecompose)).Methods(http.MethodDelete)
	r.HandleFunc("/player/cards", s.authed(s.handlePull)).Methods(http.MethodPost)

	// Mercato e ordini.
	r.HandleFunc("/store/cards", s.authed(s.handleStoreCards)).Methods(http.MethodGet)
	r.HandleFunc("/store/cards", s.authed(s.handleListCard)).Methods(http.MethodPost)
	r.HandleFunc("/store/cards", s.authed(s.handleDelistCard)).Methods(http.MethodDelete)
	r.HandleFunc("/store/cards", s.authed(s.handleBuyCard)).Methods(http.MethodPut)
	r.HandleFunc("/store/buy_record", s.authed(s.handleBuyRecords)).Methods(http.MethodGet)
	r.HandleFunc("/store/sell_record", s.authed(s.handleSellRecords)).Methods(http.MethodGet)
	r.HandleFunc("/store/{uid}/cards", s.authed(s.handleFriendStore)).Methods(http.MethodGet)
	r.HandleFunc("/store/{uid}/cards", s.authed(s.handleBuyFriendCard)).Methods(http.MethodPut)
	r.HandleFunc("/player/orders/waiting", s.authed(s.handleWaitingOrders)).Methods(http.MethodGet)
	r.HandleFunc("/player/orders/{id:[0-9]+}", s.authed(s.handleCompleteOrder)).Methods(http.MethodPost)
	r.HandleFunc("/player/orders/{id:[0-9]+}", s.authed(s.handleCancelOrder)).Methods(http.MethodDelete)

	// Amicizie.
	r.HandleFunc("/player/friendship", s.authed(s.handleFriends)).Methods(http.MethodGet)
	r.HandleFunc("/player/friendship/under_review", s.authed(s.handleFriendRequests)).Methods(http.MethodGet)
	r.HandleFunc("/player/friendship/{uid}", s.authed(s.handleSendFriendRequest)).Methods(http.MethodPost)
	r.HandleFunc("/player/friendship/{uid}", s.authed(s.handleReviewFriendRequest)).Methods(http.MethodPut)
	r.HandleFunc("/player/friendship/{uid}", s.authed(s.handleDeleteFriend)).Methods(http.MethodDelete)

	// Gruppi.
	r.HandleFunc("/groups/others", s.authed(s.handleSearchGroups)).Methods(http.MethodGet)
	r.HandleFunc("/groups/me", s.authed(s.handleMyGroups)).Methods(http.MethodGet)
	r.HandleFunc("/groups/members/owner", s.authed(s.handleCreateGroup)).Methods(http.MethodPost)
	r.HandleFunc("/groups/{gid}", s.authed(s.handleDissolveGroup)).Methods(http.MethodDelete)
	r.HandleFunc("/groups/{gid}/chat", s.handleChat).Methods(http.MethodGet)
	r.HandleFunc("/groups/{gid}/group_notice", s.authed(s.handleGroupNotice)).Methods(http.MethodGet)
	r.HandleFunc("/groups/{gid}/group_message/notice", s.authed(s.handlePostNotice)).Methods(http.MethodPost)
	r.HandleFunc("/groups/{gid}/info", s.authed(s.handleUpdateGroup)).Methods(http.MethodPut)
	r.HandleFunc("/groups/{gid}/members/me", s.authed(s.handleJoinGroup)).Methods(http.MethodPost)
	r.HandleFunc("/groups/{gid}/members/me", s.authed(s.handleLeaveGroup)).Methods(http.MethodDelete)
	r.HandleFunc("/groups/{gid}/members/{uid}", s.authed(s.handleKickMember)).Methods(http.MethodDelete)
	r.HandleFunc("/groups/{gid}/under_review_members", s.authed(s.handleJoinRequests)).Methods(http.MethodGet)
	r.HandleFunc("/groups/{gid}/under_review_members/{uid}", s.authed(s.handleReviewJoin)).Methods(http.MethodPut)
	r.HandleFunc("/groups/{gid}/member/{uid}", s.authed(s.handleAppointAdmin)).Methods(http.MethodPut)
	r.HandleFunc("/groups/{gid}/admin/{uid}", s.authed(s.handleDismissAdmin)).Methods(http.MethodPut)
	r.HandleFunc("/groups/{gid}/owner/{uid}", s.authed(s.handleTransferOwner)).Methods(http.MethodPut)

	return r
}

// Close chiude le connessioni websocket aperte.
func (s *Server) Close() {
	s.hub.closeAll()
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httpx.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(httpx.RequestIDHeader, id)
		s.logger.Debug("richiesta mock", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r.WithContext(httpx.WithRequestID(r.Context(), id)))
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, uid string)

// authed risolve il cookie di sessione; senza sessione valida risponde 401.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := s.sessionUser(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "not authenticated"})
			return
		}
		h(w, r, uid)
	}
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(httpx.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[cookie.Value]
	return uid, ok
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok", Data: data})
}

// fail e' un rifiuto applicativo: HTTP 200 con success=false.
func fail(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: false, Message: msg})
}

// invalid replica il formato degli errori di validazione FastAPI.
func invalid(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"detail": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		invalid(w, http.StatusBadRequest, "cannot read body")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		invalid(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return false
	}
	return true
}
