package groups

import (
	"maps"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/state"
)

// chatHistory e' il numero massimo di messaggi tenuti per gruppo.
const chatHistory = 200

// State contiene ricerca, gruppi propri, avvisi, candidature e chat.
type State struct {
	Search       state.AsyncResult[[]api.Group]
	Mine         state.AsyncResult[[]api.Group]
	Notices      map[string]state.AsyncResult[[]api.GroupMessage]
	JoinRequests map[string]state.AsyncResult[[]api.User]
	// Actions ha uno slot per chiave d'azione; Action riporta l'ultima conclusa.
	Actions     map[string]state.Status
	Action      state.Status
	LastCreated string

	Chat          map[string][]api.GroupMessage
	ChatConnected bool
	ChatError     string
}

type Store = state.Store[State]

func NewStore() *Store {
	return state.NewStore(State{
		Notices:      map[string]state.AsyncResult[[]api.GroupMessage]{},
		JoinRequests: map[string]state.AsyncResult[[]api.User]{},
		Chat:         map[string][]api.GroupMessage{},
		Actions:      map[string]state.Status{},
	}, func(s State) State {
		s.Search = state.CloneResult(s.Search)
		s.Mine = state.CloneResult(s.Mine)
		s.Notices = state.CloneResults(s.Notices)
		s.JoinRequests = state.CloneResults(s.JoinRequests)
		s.Chat = state.CloneSlices(s.Chat)
		s.Actions = maps.Clone(s.Actions)
		return s
	})
}

// appendChat aggiunge un messaggio mantenendo solo gli ultimi chatHistory.
func appendChat(st *State, msg api.GroupMessage) {
	history := append(append([]api.GroupMessage(nil), st.Chat[msg.GroupUID]...), msg)
	if len(history) > chatHistory {
		history = history[len(history)-chatHistory:]
	}
	st.Chat[msg.GroupUID] = history
}

func searchSlot(s *State) *state.AsyncResult[[]api.Group] { return &s.Search }
func mineSlot(s *State) *state.AsyncResult[[]api.Group]   { return &s.Mine }
func actionSlot(s *State) *state.Status                   { return &s.Action }

func actionSlots(s *State) map[string]state.Status { return s.Actions }

func noticeSlots(s *State) map[string]state.AsyncResult[[]api.GroupMessage] { return s.Notices }
func requestSlots(s *State) map[string]state.AsyncResult[[]api.User]        { return s.JoinRequests }
