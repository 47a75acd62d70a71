package user

import (
	"context"
	"log/slog"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/transport"
)

// AuthAPI e' il sottoinsieme di endpoint usato dal servizio utente.
type AuthAPI interface {
	Login(ctx context.Context, params api.LoginParams) (*transport.Envelope[*api.UserSelf], error)
	Register(ctx context.Context, params api.RegisterParams) (*transport.Envelope[struct{}], error)
	CurrentUser(ctx context.Context) (*transport.Envelope[api.SelfInfoData], error)
	UpdateProfile(ctx context.Context, profile api.UserSelf) (*transport.Envelope[struct{}], error)
	UploadAvatar(ctx context.Context, filename string, content []byte) (*transport.Envelope[api.AvatarData], error)
	Logout(ctx context.Context) (*transport.Envelope[struct{}], error)
}

// Service lega le azioni di autenticazione e profilo allo store utente.
// Ogni metodo ritorna true solo se l'azione e' andata a buon fine.
type Service struct {
	logger *slog.Logger
	api    AuthAPI
	store  *Store
	guard  *lock.Guard
}

func NewService(logger *slog.Logger, client AuthAPI, store *Store, guard *lock.Guard) *Service {
	return &Service{logger: logger, api: client, store: store, guard: guard}
}

// Login autentica l'utente. Se la risposta non contiene il profilo lo
// recupera con CurrentUser.
func (s *Service) Login(ctx context.Context, name, password string) bool {
	release, ok := s.enter(ctx, "user:login")
	if !ok {
		return false
	}
	defer release()

	// 1) Loading.
	tok := s.store.begin()

	// 2) Login.
	env, err := s.api.Login(ctx, api.LoginParams{UserName: name, Password: password})
	if msg, failed := transport.Outcome(env, err, msgLoginFailed); failed {
		s.logger.Warn("login fallito", "user_name", name, "error", msg)
		s.store.fail(tok, msg)
		return false
	}

	// 3) Profilo dalla risposta o da /player/info/me.
	profile := env.Data
	if profile == nil || profile.UID == "" {
		me, err := s.api.CurrentUser(ctx)
		if msg, failed := transport.Outcome(me, err, msgProfileFailed); failed {
			s.store.fail(tok, msg)
			return false
		}
		profile = &me.Data.SelfInfo
	}

	s.store.SetUser(profile)
	s.store.MarkAuthChecked()
	s.store.succeed(tok)
	s.logger.Info("login completato", "uid", profile.UID)
	return true
}

// Register crea l'account; non autentica.
func (s *Service) Register(ctx context.Context, params api.RegisterParams) bool {
	release, ok := s.enter(ctx, "user:register")
	if !ok {
		return false
	}
	defer release()

	tok := s.store.begin()
	env, err := s.api.Register(ctx, params)
	if msg, failed := transport.Outcome(env, err, msgRegisterFailed); failed {
		s.store.fail(tok, msg)
		return false
	}
	s.store.succeed(tok)
	return true
}

// LoadCurrentUser verifica la sessione e aggiorna il profilo.
// In ogni caso marca la sessione come verificata.
func (s *Service) LoadCurrentUser(ctx context.Context) bool {
	tok := s.store.begin()
	env, err := s.api.CurrentUser(ctx)
	if msg, failed := transport.Outcome(env, err, msgProfileFailed); failed {
		s.store.fail(tok, msg)
		s.store.MarkAuthChecked()
		return false
	}
	profile := env.Data.SelfInfo
	s.store.SetUser(&profile)
	s.store.MarkAuthChecked()
	s.store.succeed(tok)
	return true
}

// Initialize ripristina la sessione persistita e la valida col backend.
// Una sessione non piu' valida viene cancellata.
func (s *Service) Initialize(ctx context.Context) bool {
	s.store.Restore(ctx)
	if !s.store.Snapshot().IsAuthenticated {
		s.store.MarkAuthChecked()
		return false
	}
	if s.LoadCurrentUser(ctx) {
		return true
	}
	s.logger.Info("sessione persistita non valida, reset")
	s.store.ClearUser()
	s.store.MarkAuthChecked()
	return false
}

// UpdateProfile invia il profilo e poi lo rilegge dal backend.
func (s *Service) UpdateProfile(ctx context.Context, profile api.UserSelf) bool {
	release, ok := s.enter(ctx, "user:profile")
	if !ok {
		return false
	}
	defer release()

	tok := s.store.begin()
	env, err := s.api.UpdateProfile(ctx, profile)
	if msg, failed := transport.Outcome(env, err, msgUpdateFailed); failed {
		s.store.fail(tok, msg)
		return false
	}
	s.store.succeed(tok)
	s.LoadCurrentUser(ctx)
	return true
}

// UploadAvatar carica l'immagine. Un file non immagine viene rifiutato prima
// di qualsiasi chiamata e lo stato dello store non cambia.
func (s *Service) UploadAvatar(ctx context.Context, filename string, content []byte) bool {
	release, ok := s.enter(ctx, "user:avatar")
	if !ok {
		return false
	}
	defer release()

	// Validazione prima di toccare lo store: un file non immagine non cambia la fase.
	if _, err := transport.ValidateUpload(&transport.Upload{Field: api.AvatarField, Filename: filename, Content: content}); err != nil {
		s.logger.Warn("avatar rifiutato", "filename", filename, "error", err)
		return false
	}

	tok := s.store.begin()
	env, err := s.api.UploadAvatar(ctx, filename, content)
	if msg, failed := transport.Outcome(env, err, msgAvatarFailed); failed {
		s.store.fail(tok, msg)
		return false
	}
	s.store.succeed(tok)
	s.LoadCurrentUser(ctx)
	return true
}

// Logout chiama il backend ma pulisce sempre l'identita' locale.
// Ritorna sempre true.
func (s *Service) Logout(ctx context.Context) bool {
	if _, err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("logout remoto fallito", "error", err)
	}
	s.store.ClearUser()
	return true
}

// enter prende il guard per key; un doppio avvio resta visibile in Request.
func (s *Service) enter(ctx context.Context, key string) (func(), bool) {
	release, ok := s.guard.Enter(ctx, key)
	if !ok {
		s.store.reject()
	}
	return release, ok
}
