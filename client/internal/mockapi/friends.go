package mockapi

import (
	"net/http"
	"slices"
	"strings"

	"NarcissusTCG/client/internal/api"
	"github.com/gorilla/mux"
)

func sortFriends(list []api.Friend) []api.Friend {
	slices.SortFunc(list, func(a, b api.Friend) int { return strings.Compare(a.Name, b.Name) })
	return list
}

func (s *Server) handleFriends(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Friend, 0)
	for fid := range s.players[uid].friends {
		out = append(out, api.Friend{User: s.players[fid].self.User})
	}
	ok(w, api.FriendsData{Friends: sortFriends(out)})
}

func (s *Server) handleFriendRequests(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := api.FriendRequests{Sent: []api.Friend{}, Received: []api.Friend{}}
	for to, msg := range s.players[uid].requests {
		reqs.Sent = append(reqs.Sent, api.Friend{User: s.players[to].self.User, Message: msg})
	}
	for from, p := range s.players {
		if msg, pending := p.requests[uid]; pending {
			reqs.Received = append(reqs.Received, api.Friend{User: s.players[from].self.User, Message: msg})
		}
	}
	sortFriends(reqs.Sent)
	sortFriends(reqs.Received)
	ok(w, api.FriendRequestsData{WaitingAccept: reqs})
}

func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request, uid string) {
	target := mux.Vars(r)["uid"]

	s.mu.Lock()
	defer s.mu.Unlock()
	other, exists := s.players[target]
	switch {
	case !exists:
		fail(w, "user not found")
		return
	case target == uid:
		fail(w, "can not add yourself")
		return
	case s.players[uid].friends[target]:
		fail(w, "already friends")
		return
	}
	if _, pending := s.players[uid].requests[target]; pending {
		fail(w, "request already sent")
		return
	}
	if _, pending := other.requests[uid]; pending {
		fail(w, "request already received")
		return
	}
	s.players[uid].requests[target] = r.URL.Query().Get("request_message")
	ok(w, nil)
}

func (s *Server) handleReviewFriendRequest(w http.ResponseWriter, r *http.Request, uid string) {
	from := mux.Vars(r)["uid"]
	accepted := r.URL.Query().Get("is_accepted") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	sender, exists := s.players[from]
	if !exists {
		fail(w, "request not found")
		return
	}
	if _, pending := sender.requests[uid]; !pending {
		fail(w, "request not found")
		return
	}
	delete(sender.requests, uid)
	if accepted {
		sender.friends[uid] = true
		s.players[uid].friends[from] = true
	}
	ok(w, nil)
}

func (s *Server) handleDeleteFriend(w http.ResponseWriter, r *http.Request, uid string) {
	target := mux.Vars(r)["uid"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.players[uid].friends[target] {
		fail(w, "friend not found")
		return
	}
	delete(s.players[uid].friends, target)
	delete(s.players[target].friends, uid)
	ok(w, nil)
}
