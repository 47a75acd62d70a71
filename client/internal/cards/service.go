package cards

import (
	"context"
	"fmt"
	"log/slog"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
)

// CardsAPI e' il sottoinsieme di endpoint usato per la collezione.
type CardsAPI interface {
	CardInfo(ctx context.Context, cardID int64) (*transport.Envelope[api.CardInfoData], error)
	ComposeMaterials(ctx context.Context, cardID int64) (*transport.Envelope[api.ComposeMaterialsData], error)
	DecomposeMaterials(ctx context.Context, cardID int64) (*transport.Envelope[api.DecomposeMaterialsData], error)
	UserCards(ctx context.Context, filter api.CardFilter) (*transport.Envelope[api.CardsData], error)
	Craft(ctx context.Context, params api.CraftParams) (*transport.Envelope[struct{}], error)
	Decompose(ctx context.Context, params api.DecomposeParams) (*transport.Envelope[api.CardsData], error)
	Pull(ctx context.Context, params api.PullParams) (*transport.Envelope[api.PullResult], error)
}

// Service lega le azioni sulle carte allo store.
// Le quantita' arrivano sempre dal backend: nessun calcolo locale.
type Service struct {
	logger *slog.Logger
	api    CardsAPI
	store  *Store
	guard  *lock.Guard
}

func NewService(logger *slog.Logger, client CardsAPI, store *Store, guard *lock.Guard) *Service {
	return &Service{logger: logger, api: client, store: store, guard: guard}
}

// LoadUserCards carica la collezione con il filtro dato e lo ricorda.
func (s *Service) LoadUserCards(ctx context.Context, filter api.CardFilter) bool {
	s.store.Update(func(st *State) { st.Filter = filter })
	ok := state.Track(s.store, owned, func() ([]api.UserCard, string, bool) {
		env, err := s.api.UserCards(ctx, filter)
		data, msg, ok := transport.Unwrap(env, err, msgCardsFailed)
		return data.Cards, msg, ok
	})
	if ok {
		s.store.Update(func(st *State) { st.Page = st.Page.WithTotal(len(st.Owned.Data)) })
	}
	return ok
}

// RefreshUserCards ricarica la collezione con l'ultimo filtro usato.
func (s *Service) RefreshUserCards(ctx context.Context) bool {
	return s.LoadUserCards(ctx, s.store.Snapshot().Filter)
}

// LoadCardInfo carica il dettaglio di una carta nel suo sotto-stato.
func (s *Service) LoadCardInfo(ctx context.Context, cardID int64) bool {
	return state.TrackKey(s.store, details, cardID, func() (api.Card, string, bool) {
		env, err := s.api.CardInfo(ctx, cardID)
		data, msg, ok := transport.Unwrap(env, err, msgCardInfoFailed)
		return data.CardInfo, msg, ok
	})
}

func (s *Service) LoadComposeMaterials(ctx context.Context, cardID int64) bool {
	return state.TrackKey(s.store, compose, cardID, func() ([]api.Material, string, bool) {
		env, err := s.api.ComposeMaterials(ctx, cardID)
		data, msg, ok := transport.Unwrap(env, err, msgMaterialsFailed)
		return data.Materials, msg, ok
	})
}

func (s *Service) LoadDecomposeMaterials(ctx context.Context, cardID int64) bool {
	return state.TrackKey(s.store, decompose, cardID, func() ([]api.Material, string, bool) {
		env, err := s.api.DecomposeMaterials(ctx, cardID)
		data, msg, ok := transport.Unwrap(env, err, msgMaterialsFailed)
		return data.Materials, msg, ok
	})
}

// Craft compone la carta target consumando i materiali.
// Su successo ricarica la collezione; su errore la collezione non cambia.
func (s *Service) Craft(ctx context.Context, params api.CraftParams) bool {
	key := fmt.Sprintf("cards:craft:%d", params.CardID)
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actions, action, key, func() (string, bool) {
		env, err := s.api.Craft(ctx, params)
		_, msg, ok := transport.Unwrap(env, err, msgCraftFailed)
		return msg, ok
	})
	if !ok {
		s.logger.Warn("craft fallito", "card_id", params.CardID, "error", s.store.Snapshot().Actions[key].Error)
		return false
	}
	s.logger.Info("carta composta", "card_id", params.CardID)
	s.RefreshUserCards(ctx)
	return true
}

// Decompose scompone number copie di una carta.
func (s *Service) Decompose(ctx context.Context, params api.DecomposeParams) bool {
	key := fmt.Sprintf("cards:decompose:%d", params.CardID)
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actions, action, key, func() (string, bool) {
		env, err := s.api.Decompose(ctx, params)
		_, msg, ok := transport.Unwrap(env, err, msgDecomposeFailed)
		return msg, ok
	})
	if !ok {
		return false
	}
	s.RefreshUserCards(ctx)
	return true
}

// Pull estrae carte da un pacchetto e mostra il risultato in Draw.
func (s *Service) Pull(ctx context.Context, params api.PullParams) bool {
	release, ok := s.enter(ctx, "cards:pull")
	if !ok {
		return false
	}
	defer release()

	ok = state.Track(s.store, draw, func() (api.PullResult, string, bool) {
		env, err := s.api.Pull(ctx, params)
		return transport.Unwrap(env, err, msgPullFailed)
	})
	if !ok {
		return false
	}
	s.RefreshUserCards(ctx)
	return true
}

// enter prende il guard per key; un doppio avvio resta visibile in Actions.
func (s *Service) enter(ctx context.Context, key string) (func(), bool) {
	release, ok := s.guard.Enter(ctx, key)
	if !ok {
		state.Reject(s.store, actions, key)
	}
	return release, ok
}

// NextPage, PrevPage e SetPageSize muovono solo la paginazione locale.
func (s *Service) NextPage() {
	s.store.Update(func(st *State) { st.Page = st.Page.Next() })
}

func (s *Service) PrevPage() {
	s.store.Update(func(st *State) { st.Page = st.Page.Prev() })
}

func (s *Service) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	s.store.Update(func(st *State) { st.Page = st.Page.WithSize(size) })
}
