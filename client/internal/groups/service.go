package groups

import (
	"context"
	"log/slog"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
)

// GroupsAPI e' il sottoinsieme di endpoint usato per i gruppi.
type GroupsAPI interface {
	SearchGroups(ctx context.Context, filter api.GroupFilter) (*transport.Envelope[api.GroupsData], error)
	MyGroups(ctx context.Context) (*transport.Envelope[api.GroupsData], error)
	GroupNotice(ctx context.Context, gid string) (*transport.Envelope[api.GroupNoticeData], error)
	CreateGroup(ctx context.Context, settings api.GroupSettings) (*transport.Envelope[api.CreateGroupData], error)
	JoinGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error)
	LeaveGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error)
	JoinRequests(ctx context.Context, gid string) (*transport.Envelope[api.JoinRequestsData], error)
	PostNotice(ctx context.Context, gid, content string) (*transport.Envelope[struct{}], error)
	HandleJoinRequest(ctx context.Context, gid, uid string, agree bool) (*transport.Envelope[struct{}], error)
	UpdateGroupInfo(ctx context.Context, gid string, settings api.GroupSettings) (*transport.Envelope[struct{}], error)
	KickMember(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error)
	AppointAdmin(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error)
	DismissAdmin(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error)
	TransferOwner(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error)
	DissolveGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error)
}

type Service struct {
	logger *slog.Logger
	api    GroupsAPI
	store  *Store
	guard  *lock.Guard
}

func NewService(logger *slog.Logger, client GroupsAPI, store *Store, guard *lock.Guard) *Service {
	return &Service{logger: logger, api: client, store: store, guard: guard}
}

func (s *Service) Search(ctx context.Context, filter api.GroupFilter) bool {
	return state.Track(s.store, searchSlot, func() ([]api.Group, string, bool) {
		env, err := s.api.SearchGroups(ctx, filter)
		data, msg, ok := transport.Unwrap(env, err, msgSearchFailed)
		return data.Groups, msg, ok
	})
}

func (s *Service) LoadMine(ctx context.Context) bool {
	return state.Track(s.store, mineSlot, func() ([]api.Group, string, bool) {
		env, err := s.api.MyGroups(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgMineFailed)
		return data.Groups, msg, ok
	})
}

func (s *Service) LoadNotice(ctx context.Context, gid string) bool {
	return state.TrackKey(s.store, noticeSlots, gid, func() ([]api.GroupMessage, string, bool) {
		env, err := s.api.GroupNotice(ctx, gid)
		data, msg, ok := transport.Unwrap(env, err, msgNoticeFailed)
		return data.Notices, msg, ok
	})
}

func (s *Service) LoadJoinRequests(ctx context.Context, gid string) bool {
	return state.TrackKey(s.store, requestSlots, gid, func() ([]api.User, string, bool) {
		env, err := s.api.JoinRequests(ctx, gid)
		data, msg, ok := transport.Unwrap(env, err, msgRequestsFailed)
		return data.Members, msg, ok
	})
}

// Create crea un gruppo di cui l'utente e' owner.
func (s *Service) Create(ctx context.Context, settings api.GroupSettings) bool {
	var created string
	ok := s.mutate(ctx, "groups:create", func() (string, bool) {
		env, err := s.api.CreateGroup(ctx, settings)
		data, msg, ok := transport.Unwrap(env, err, msgActionFailed)
		created = data.GroupUID
		return msg, ok
	})
	if !ok {
		return false
	}
	s.store.Update(func(st *State) { st.LastCreated = created })
	s.LoadMine(ctx)
	return true
}

func (s *Service) Join(ctx context.Context, gid string) bool {
	return s.simple(ctx, "groups:join:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.JoinGroup(ctx, gid)
	}, s.LoadMine)
}

func (s *Service) Leave(ctx context.Context, gid string) bool {
	ok := s.simple(ctx, "groups:leave:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.LeaveGroup(ctx, gid)
	}, s.LoadMine)
	if ok {
		s.store.Update(func(st *State) { delete(st.Chat, gid) })
	}
	return ok
}

func (s *Service) PostNotice(ctx context.Context, gid, content string) bool {
	return s.simple(ctx, "groups:notice:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.PostNotice(ctx, gid, content)
	}, func(ctx context.Context) bool { return s.LoadNotice(ctx, gid) })
}

// HandleJoinRequest accetta o rifiuta una candidatura e ricarica la coda.
func (s *Service) HandleJoinRequest(ctx context.Context, gid, uid string, agree bool) bool {
	return s.simple(ctx, "groups:review:"+gid+":"+uid, func() (*transport.Envelope[struct{}], error) {
		return s.api.HandleJoinRequest(ctx, gid, uid, agree)
	}, func(ctx context.Context) bool { return s.LoadJoinRequests(ctx, gid) })
}

func (s *Service) UpdateInfo(ctx context.Context, gid string, settings api.GroupSettings) bool {
	return s.simple(ctx, "groups:info:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.UpdateGroupInfo(ctx, gid, settings)
	}, s.LoadMine)
}

func (s *Service) Kick(ctx context.Context, gid, uid string) bool {
	return s.simple(ctx, "groups:member:"+gid+":"+uid, func() (*transport.Envelope[struct{}], error) {
		return s.api.KickMember(ctx, gid, uid)
	}, s.LoadMine)
}

func (s *Service) AppointAdmin(ctx context.Context, gid, uid string) bool {
	return s.simple(ctx, "groups:member:"+gid+":"+uid, func() (*transport.Envelope[struct{}], error) {
		return s.api.AppointAdmin(ctx, gid, uid)
	}, s.LoadMine)
}

func (s *Service) DismissAdmin(ctx context.Context, gid, uid string) bool {
	return s.simple(ctx, "groups:member:"+gid+":"+uid, func() (*transport.Envelope[struct{}], error) {
		return s.api.DismissAdmin(ctx, gid, uid)
	}, s.LoadMine)
}

func (s *Service) TransferOwner(ctx context.Context, gid, uid string) bool {
	return s.simple(ctx, "groups:owner:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.TransferOwner(ctx, gid, uid)
	}, s.LoadMine)
}

func (s *Service) Dissolve(ctx context.Context, gid string) bool {
	ok := s.simple(ctx, "groups:dissolve:"+gid, func() (*transport.Envelope[struct{}], error) {
		return s.api.DissolveGroup(ctx, gid)
	}, s.LoadMine)
	if ok {
		s.store.Update(func(st *State) {
			delete(st.Chat, gid)
			delete(st.Notices, gid)
			delete(st.JoinRequests, gid)
		})
	}
	return ok
}

func (s *Service) simple(ctx context.Context, key string, call func() (*transport.Envelope[struct{}], error), after func(context.Context) bool) bool {
	ok := s.mutate(ctx, key, func() (string, bool) {
		env, err := call()
		msg, failed := transport.Outcome(env, err, msgActionFailed)
		return msg, !failed
	})
	if ok {
		after(ctx)
	}
	return ok
}

func (s *Service) mutate(ctx context.Context, key string, call func() (string, bool)) bool {
	release, ok := s.guard.Enter(ctx, key)
	if !ok {
		state.Reject(s.store, actionSlots, key)
		return false
	}
	defer release()

	ok = state.TrackAction(s.store, actionSlots, actionSlot, key, call)
	if !ok {
		s.logger.Warn("azione di gruppo fallita", "key", key, "error", s.store.Snapshot().Actions[key].Error)
	}
	return ok
}
