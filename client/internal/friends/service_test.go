package friends

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
)

// Test suite per richieste di amicizia e lista amici.

type fakeFriends struct {
	mu            sync.Mutex
	friends       []api.Friend
	requests      api.FriendRequests
	friendsCalls  int
	requestsCalls int
	handleResp    *transport.Envelope[struct{}]
	lastAccepted  *bool
	deleteResp    *transport.Envelope[struct{}]
	// barrier, se impostata, obbliga i due refetch a sovrapporsi.
	barrier *sync.WaitGroup
}

func (f *fakeFriends) meet() {
	if f.barrier == nil {
		return
	}
	f.barrier.Done()
	done := make(chan struct{})
	go func() {
		f.barrier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (f *fakeFriends) Friends(_ context.Context) (*transport.Envelope[api.FriendsData], error) {
	f.meet()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendsCalls++
	return &transport.Envelope[api.FriendsData]{Success: true, Data: api.FriendsData{Friends: f.friends}}, nil
}

func (f *fakeFriends) FriendRequests(_ context.Context) (*transport.Envelope[api.FriendRequestsData], error) {
	f.meet()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestsCalls++
	return &transport.Envelope[api.FriendRequestsData]{Success: true, Data: api.FriendRequestsData{WaitingAccept: f.requests}}, nil
}

func (f *fakeFriends) UserInfo(_ context.Context, uid string) (*transport.Envelope[api.UserInfoData], error) {
	if uid != "u2" {
		return nil, &transport.HTTPError{Status: 404, Message: "user not found"}
	}
	return &transport.Envelope[api.UserInfoData]{Success: true, Data: api.UserInfoData{UserInfo: api.User{UID: "u2", Name: "trinity"}}}, nil
}

func (f *fakeFriends) SendFriendRequest(_ context.Context, _, _ string) (*transport.Envelope[struct{}], error) {
	return &transport.Envelope[struct{}]{Success: true}, nil
}

func (f *fakeFriends) HandleFriendRequest(_ context.Context, _ string, accepted bool) (*transport.Envelope[struct{}], error) {
	f.lastAccepted = &accepted
	return f.handleResp, nil
}

func (f *fakeFriends) DeleteFriend(_ context.Context, _ string) (*transport.Envelope[struct{}], error) {
	return f.deleteResp, nil
}

func newTestService(f *fakeFriends) (*Service, *Store) {
	store := NewStore()
	guard := lock.NewGuard(lock.NewMemoryLock(time.Minute), "", slog.Default())
	return NewService(slog.Default(), f, store, guard), store
}

func trinity() api.Friend {
	return api.Friend{User: api.User{UID: "u2", Name: "trinity"}, Message: "hi"}
}

// Accettare una richiesta ricarica amici e richieste in parallelo.
func TestAcceptRequestRefetchesBothConcurrently(t *testing.T) {
	f := &fakeFriends{
		requests:   api.FriendRequests{Received: []api.Friend{trinity()}},
		handleResp: &transport.Envelope[struct{}]{Success: true},
	}
	svc, store := newTestService(f)
	svc.LoadRequests(context.Background())

	f.requests = api.FriendRequests{}
	f.friends = []api.Friend{trinity()}
	f.barrier = &sync.WaitGroup{}
	f.barrier.Add(2)

	start := time.Now()
	if !svc.AcceptRequest(context.Background(), "u2") {
		t.Fatalf("expected accept to succeed")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected refetches to run concurrently")
	}
	if f.lastAccepted == nil || !*f.lastAccepted {
		t.Fatalf("expected is_accepted=true")
	}
	snap := store.Snapshot()
	if !snap.IsFriend("u2") {
		t.Fatalf("expected u2 in friend list")
	}
	if len(snap.Requests.Data.Received) != 0 {
		t.Fatalf("expected request list refetched")
	}
	if f.friendsCalls != 1 || f.requestsCalls != 2 {
		t.Fatalf("unexpected call counts %d/%d", f.friendsCalls, f.requestsCalls)
	}
}

// Se il server rifiuta, la richiesta resta in lista.
func TestRejectRequestFailureKeepsRequest(t *testing.T) {
	f := &fakeFriends{
		requests:   api.FriendRequests{Received: []api.Friend{trinity()}},
		handleResp: &transport.Envelope[struct{}]{Success: false, Message: "request expired"},
	}
	svc, store := newTestService(f)
	svc.LoadRequests(context.Background())

	if svc.RejectRequest(context.Background(), "u2") {
		t.Fatalf("expected reject to fail")
	}
	snap := store.Snapshot()
	if len(snap.Requests.Data.Received) != 1 {
		t.Fatalf("expected request to remain")
	}
	if snap.Action.Phase != state.PhaseError || snap.Action.Error != "request expired" {
		t.Fatalf("unexpected action state %+v", snap.Action)
	}
	if got := snap.Actions["friends:handle:u2"]; got.Phase != state.PhaseError || got.Error != "request expired" {
		t.Fatalf("expected failure in the per-request slot, got %+v", got)
	}
	if f.friendsCalls != 0 {
		t.Fatalf("did not expect refetch after failure")
	}
}

func TestDeleteFriend(t *testing.T) {
	f := &fakeFriends{friends: []api.Friend{trinity()}, deleteResp: &transport.Envelope[struct{}]{Success: true}}
	svc, store := newTestService(f)
	svc.LoadFriends(context.Background())

	f.friends = nil
	if !svc.DeleteFriend(context.Background(), "u2") {
		t.Fatalf("expected delete to succeed")
	}
	if store.Snapshot().IsFriend("u2") {
		t.Fatalf("expected u2 removed")
	}
}

func TestLookupAndSend(t *testing.T) {
	f := &fakeFriends{}
	svc, store := newTestService(f)

	if !svc.LookupUser(context.Background(), "u2") {
		t.Fatalf("expected lookup to succeed")
	}
	if store.Snapshot().Lookup.Data.Name != "trinity" {
		t.Fatalf("unexpected lookup result")
	}
	if svc.LookupUser(context.Background(), "ghost") {
		t.Fatalf("expected lookup to fail")
	}
	snap := store.Snapshot()
	if snap.Lookup.Error != "user not found" || snap.Lookup.Data == nil {
		t.Fatalf("expected error with last known result, got %+v", snap.Lookup)
	}

	if !svc.SendRequest(context.Background(), "u2", "let's trade") {
		t.Fatalf("expected send to succeed")
	}
	if f.requestsCalls != 1 {
		t.Fatalf("expected request list refetch")
	}
}

func TestSnapshotDoesNotShareRequests(t *testing.T) {
	f := &fakeFriends{requests: api.FriendRequests{Received: []api.Friend{trinity()}}}
	svc, store := newTestService(f)
	svc.LoadRequests(context.Background())

	snap := store.Snapshot()
	snap.Requests.Data.Received[0].UID = "changed"
	if store.Snapshot().Requests.Data.Received[0].UID != "u2" {
		t.Fatalf("expected store requests untouched by snapshot writes")
	}
}
