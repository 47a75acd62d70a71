package user

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/session"
	"NarcissusTCG/client/internal/state"
)

const persistTimeout = 3 * time.Second

// State e' l'identita' locale dell'utente.
type State struct {
	User            *api.UserSelf
	IsAuthenticated bool
	HasCheckedAuth  bool
	// Request traccia l'ultima operazione su profilo/sessione.
	Request state.Status
}

// CookieJar e' la parte del transport che porta le credenziali di sessione.
type CookieJar interface {
	SessionCookies() []*http.Cookie
	RestoreCookies([]*http.Cookie)
	ResetCookies()
}

// Store e' l'unico scrittore del record di sessione persistito.
type Store struct {
	*state.Store[State]
	keeper  *session.Keeper
	cookies CookieJar
	logger  *slog.Logger
}

func cloneState(s State) State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// NewStore crea lo store vuoto; Restore carica il record persistito.
func NewStore(logger *slog.Logger, keeper *session.Keeper, cookies CookieJar) *Store {
	return &Store{
		Store:   state.NewStore(State{}, cloneState),
		keeper:  keeper,
		cookies: cookies,
		logger:  logger,
	}
}

// Restore applica il record persistito allo stato e ai cookie del transport.
func (s *Store) Restore(ctx context.Context) {
	if s.keeper == nil {
		return
	}
	record := s.keeper.Restore(ctx)
	if s.cookies != nil {
		s.cookies.RestoreCookies(record.HTTPCookies())
	}
	s.Update(func(st *State) {
		st.User = record.User
		st.IsAuthenticated = record.IsAuthenticated && record.User != nil
		st.HasCheckedAuth = false
	})
}

// SetUser registra l'utente autenticato e persiste la sessione.
func (s *Store) SetUser(u *api.UserSelf) {
	s.Update(func(st *State) {
		st.User = u
		st.IsAuthenticated = u != nil
	})
	s.persist()
}

// ClearUser riporta lo store alla forma iniziale non autenticata.
// Una richiesta in volo non viene invalidata: il suo esito resta visibile.
func (s *Store) ClearUser() {
	s.Update(func(st *State) {
		st.User = nil
		st.IsAuthenticated = false
		st.HasCheckedAuth = false
		if st.Request.Phase != state.PhaseLoading {
			st.Request.Reset()
		}
	})
	if s.cookies != nil {
		s.cookies.ResetCookies()
	}
	if s.keeper == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.keeper.Reset(ctx); err != nil {
		s.logger.Warn("reset sessione persistita fallito", "error", err)
	}
}

// MarkAuthChecked segna che la sessione e' stata verificata col backend.
func (s *Store) MarkAuthChecked() {
	s.Update(func(st *State) { st.HasCheckedAuth = true })
	s.persist()
}

func (s *Store) begin() state.Token {
	var tok state.Token
	s.Update(func(st *State) { tok = st.Request.Begin() })
	return tok
}

func (s *Store) succeed(tok state.Token) {
	s.Update(func(st *State) { st.Request.Succeed(tok, struct{}{}) })
}

func (s *Store) fail(tok state.Token, msg string) {
	s.Update(func(st *State) { st.Request.Fail(tok, msg) })
}

// reject annota un'azione rifiutata dal guard senza toccare la fase.
func (s *Store) reject() {
	s.Update(func(st *State) { st.Request.Error = state.MsgBusy })
}

func (s *Store) persist() {
	if s.keeper == nil {
		return
	}
	snap := s.Snapshot()
	record := session.Record{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
		HasCheckedAuth:  snap.HasCheckedAuth,
	}
	if s.cookies != nil {
		record.Cookies = session.FromHTTP(s.cookies.SessionCookies())
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.keeper.Persist(ctx, record); err != nil {
		s.logger.Warn("persistenza sessione fallita", "error", err)
	}
}
