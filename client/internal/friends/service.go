package friends

import (
	"context"
	"log/slog"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
	"golang.org/x/sync/errgroup"
)

// FriendsAPI e' il sottoinsieme di endpoint usato per le amicizie.
type FriendsAPI interface {
	Friends(ctx context.Context) (*transport.Envelope[api.FriendsData], error)
	FriendRequests(ctx context.Context) (*transport.Envelope[api.FriendRequestsData], error)
	UserInfo(ctx context.Context, uid string) (*transport.Envelope[api.UserInfoData], error)
	SendFriendRequest(ctx context.Context, uid, message string) (*transport.Envelope[struct{}], error)
	HandleFriendRequest(ctx context.Context, uid string, accepted bool) (*transport.Envelope[struct{}], error)
	DeleteFriend(ctx context.Context, uid string) (*transport.Envelope[struct{}], error)
}

type Service struct {
	logger *slog.Logger
	api    FriendsAPI
	store  *Store
	guard  *lock.Guard
}

func NewService(logger *slog.Logger, client FriendsAPI, store *Store, guard *lock.Guard) *Service {
	return &Service{logger: logger, api: client, store: store, guard: guard}
}

func (s *Service) LoadFriends(ctx context.Context) bool {
	return state.Track(s.store, friendsSlot, func() ([]api.Friend, string, bool) {
		env, err := s.api.Friends(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgFriendsFailed)
		return data.Friends, msg, ok
	})
}

func (s *Service) LoadRequests(ctx context.Context) bool {
	return state.Track(s.store, requestsSlot, func() (api.FriendRequests, string, bool) {
		env, err := s.api.FriendRequests(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgRequestsFailed)
		return data.WaitingAccept, msg, ok
	})
}

// LookupUser cerca un giocatore per uid prima di inviare una richiesta.
func (s *Service) LookupUser(ctx context.Context, uid string) bool {
	return state.Track(s.store, lookupSlot, func() (*api.User, string, bool) {
		env, err := s.api.UserInfo(ctx, uid)
		data, msg, ok := transport.Unwrap(env, err, msgLookupFailed)
		if !ok {
			return nil, msg, false
		}
		return &data.UserInfo, "", true
	})
}

// SendRequest invia una richiesta di amicizia e ricarica le pendenti.
func (s *Service) SendRequest(ctx context.Context, uid, message string) bool {
	key := "friends:send:" + uid
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actionSlots, actionSlot, key, func() (string, bool) {
		env, err := s.api.SendFriendRequest(ctx, uid, message)
		_, msg, ok := transport.Unwrap(env, err, msgSendFailed)
		return msg, ok
	})
	if ok {
		s.LoadRequests(ctx)
	}
	return ok
}

// AcceptRequest accetta la richiesta di uid.
func (s *Service) AcceptRequest(ctx context.Context, uid string) bool {
	return s.handle(ctx, uid, true)
}

// RejectRequest rifiuta la richiesta di uid.
func (s *Service) RejectRequest(ctx context.Context, uid string) bool {
	return s.handle(ctx, uid, false)
}

// handle aggiorna la richiesta e, solo su successo, rimuove la voce locale
// e ricarica in parallelo amici e richieste.
func (s *Service) handle(ctx context.Context, uid string, accepted bool) bool {
	key := "friends:handle:" + uid
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actionSlots, actionSlot, key, func() (string, bool) {
		env, err := s.api.HandleFriendRequest(ctx, uid, accepted)
		_, msg, ok := transport.Unwrap(env, err, msgHandleFailed)
		return msg, ok
	})
	if !ok {
		return false
	}
	s.store.Update(func(st *State) { removeRequest(st, uid) })
	s.logger.Info("richiesta di amicizia gestita", "uid", uid, "accepted", accepted)

	var g errgroup.Group
	g.Go(func() error {
		s.LoadFriends(ctx)
		return nil
	})
	g.Go(func() error {
		s.LoadRequests(ctx)
		return nil
	})
	_ = g.Wait()
	return true
}

// DeleteFriend rimuove un amico; la lista locale cambia solo su successo.
func (s *Service) DeleteFriend(ctx context.Context, uid string) bool {
	key := "friends:delete:" + uid
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actionSlots, actionSlot, key, func() (string, bool) {
		env, err := s.api.DeleteFriend(ctx, uid)
		_, msg, ok := transport.Unwrap(env, err, msgDeleteFailed)
		return msg, ok
	})
	if !ok {
		return false
	}
	s.store.Update(func(st *State) { removeFriend(st, uid) })
	s.LoadFriends(ctx)
	return true
}

// enter prende il guard per key; un doppio avvio resta visibile in Actions.
func (s *Service) enter(ctx context.Context, key string) (func(), bool) {
	release, ok := s.guard.Enter(ctx, key)
	if !ok {
		state.Reject(s.store, actionSlots, key)
	}
	return release, ok
}
