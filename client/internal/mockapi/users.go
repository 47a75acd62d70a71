package mockapi

import (
	"net/http"
	"strings"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/pkg/httpx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const sessionMaxAge = 24 * 60 * 60

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var params api.RegisterParams
	if !decodeBody(w, r, &params) {
		return
	}
	params.UserName = strings.TrimSpace(params.UserName)
	if params.UserName == "" || params.Password == "" {
		invalid(w, http.StatusUnprocessableEntity, "user_name and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[params.UserName]; exists {
		fail(w, "user name already exists")
		return
	}
	p := s.newPlayerLocked(params.UserName, params.Password, params.Email)
	s.logger.Info("utente registrato", "uid", p.self.UID, "name", params.UserName)
	ok(w, nil)
}

// Register crea un utente senza passare dall'HTTP (seed per test e sviluppo).
func (s *Server) Register(name, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uid, exists := s.byName[name]; exists {
		return uid
	}
	return s.newPlayerLocked(name, password, name+"@example.com").self.UID
}

func (s *Server) newPlayerLocked(name, password, email string) *player {
	p := &player{
		self: api.UserSelf{
			User:  api.User{UID: uuid.NewString(), Name: name, Title: "Rookie", Level: s.catalog.StartLevel},
			Email: email,
			Byte:  s.catalog.StartByte,
		},
		password: password,
		cards:    make(map[int64]int),
		friends:  make(map[string]bool),
		requests: make(map[string]string),
	}
	for _, st := range s.catalog.Starter {
		p.cards[st.CardID] += st.Number
	}
	s.players[p.self.UID] = p
	s.byName[name] = p.self.UID
	return p
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var params api.LoginParams
	if !decodeBody(w, r, &params) {
		return
	}

	s.mu.Lock()
	uid, exists := s.byName[params.UserName]
	p := s.players[uid]
	if !exists || p.password != params.Password {
		s.mu.Unlock()
		fail(w, "wrong user name or password")
		return
	}
	sessionID := uuid.NewString()
	s.sessions[sessionID] = uid
	self := p.self
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("login mock", "uid", uid)
	ok(w, self)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ string) {
	if cookie, err := r.Cookie(httpx.SessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: httpx.SessionCookieName, Value: "", Path: "/", MaxAge: -1})
	ok(w, nil)
}

// ExpireSessions invalida tutte le sessioni (simula la scadenza lato server).
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}

func (s *Server) handleSelfInfo(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	self := s.players[uid].self
	s.mu.Unlock()
	ok(w, api.SelfInfoData{SelfInfo: self})
}

func (s *Server) handleUpdateSelf(w http.ResponseWriter, r *http.Request, uid string) {
	var profile api.UserSelf
	if !decodeBody(w, r, &profile) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[uid]
	if name := strings.TrimSpace(profile.Name); name != "" && name != p.self.Name {
		if _, taken := s.byName[name]; taken {
			fail(w, "user name already exists")
			return
		}
		delete(s.byName, p.self.Name)
		s.byName[name] = uid
		p.self.Name = name
	}
	if profile.Title != "" {
		p.self.Title = profile.Title
	}
	if profile.Email != "" {
		p.self.Email = profile.Email
	}
	p.self.Signature = profile.Signature
	ok(w, nil)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request, uid string) {
	file, header, err := r.FormFile(api.AvatarField)
	if err != nil {
		invalid(w, http.StatusUnprocessableEntity, "avatars_file is required")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	kind := http.DetectContentType(head[:n])
	if n == 0 || !strings.HasPrefix(kind, "image/") {
		invalid(w, http.StatusUnsupportedMediaType, "avatar must be an image")
		return
	}

	avatarURL := "/static/avatars/" + uid + "/" + header.Filename
	s.mu.Lock()
	s.players[uid].self.Avatar = avatarURL
	s.mu.Unlock()
	ok(w, api.AvatarData{AvatarURL: avatarURL})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request, _ string) {
	target := mux.Vars(r)["uid"]
	s.mu.Lock()
	p, exists := s.players[target]
	var info api.User
	if exists {
		info = p.self.User
	}
	s.mu.Unlock()
	if !exists {
		fail(w, "user not found")
		return
	}
	ok(w, api.UserInfoData{UserInfo: info})
}
