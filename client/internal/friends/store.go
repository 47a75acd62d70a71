package friends

import (
	"maps"
	"slices"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/state"
)

// State contiene amici, richieste pendenti e l'ultima ricerca per uid.
type State struct {
	Friends  state.AsyncResult[[]api.Friend]
	Requests state.AsyncResult[api.FriendRequests]
	Lookup   state.AsyncResult[*api.User]
	// Actions ha uno slot per chiave d'azione (es. "friends:send:<uid>");
	// Action riporta l'ultima conclusa.
	Actions map[string]state.Status
	Action  state.Status
}

type Store = state.Store[State]

func NewStore() *Store {
	return state.NewStore(State{Actions: map[string]state.Status{}}, func(s State) State {
		s.Friends = state.CloneResult(s.Friends)
		s.Requests.Data.Sent = slices.Clone(s.Requests.Data.Sent)
		s.Requests.Data.Received = slices.Clone(s.Requests.Data.Received)
		s.Actions = maps.Clone(s.Actions)
		if s.Lookup.Data != nil {
			u := *s.Lookup.Data
			s.Lookup.Data = &u
		}
		return s
	})
}

// IsFriend riporta se uid e' nella lista amici caricata.
func (s State) IsFriend(uid string) bool {
	return slices.ContainsFunc(s.Friends.Data, func(f api.Friend) bool { return f.UID == uid })
}

// removeRequest toglie la richiesta ricevuta da uid. Va usata solo dopo una
// risposta positiva del server.
func removeRequest(st *State, uid string) {
	st.Requests.Data.Received = slices.DeleteFunc(slices.Clone(st.Requests.Data.Received), func(f api.Friend) bool {
		return f.UID == uid
	})
}

// removeFriend toglie uid dalla lista amici dopo una cancellazione confermata.
func removeFriend(st *State, uid string) {
	st.Friends.Data = slices.DeleteFunc(slices.Clone(st.Friends.Data), func(f api.Friend) bool {
		return f.UID == uid
	})
}

func friendsSlot(s *State) *state.AsyncResult[[]api.Friend]        { return &s.Friends }
func requestsSlot(s *State) *state.AsyncResult[api.FriendRequests] { return &s.Requests }
func lookupSlot(s *State) *state.AsyncResult[*api.User]            { return &s.Lookup }
func actionSlot(s *State) *state.Status                            { return &s.Action }

func actionSlots(s *State) map[string]state.Status { return s.Actions }
