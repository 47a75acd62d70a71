package cards

import (
	"maps"
	"slices"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/state"
)

// State raccoglie collezione, dettagli per carta e azioni sulle carte.
type State struct {
	Owned     state.AsyncResult[[]api.UserCard]
	Filter    api.CardFilter
	Page      state.Pagination
	Details   map[int64]state.AsyncResult[api.Card]
	Compose   map[int64]state.AsyncResult[[]api.Material]
	Decompose map[int64]state.AsyncResult[[]api.Material]
	Draw      state.AsyncResult[api.PullResult]
	// Actions ha uno slot per chiave d'azione (es. "cards:craft:9").
	Actions map[string]state.Status
	// Action riporta l'esito dell'ultima azione conclusa.
	Action state.Status
}

// Store e' lo store osservabile delle carte.
type Store = state.Store[State]

func NewStore() *Store {
	return state.NewStore(State{
		Page:      state.NewPagination(),
		Details:   map[int64]state.AsyncResult[api.Card]{},
		Compose:   map[int64]state.AsyncResult[[]api.Material]{},
		Decompose: map[int64]state.AsyncResult[[]api.Material]{},
		Actions:   map[string]state.Status{},
	}, cloneState)
}

func cloneState(s State) State {
	s.Owned = state.CloneResult(s.Owned)
	s.Details = maps.Clone(s.Details)
	s.Compose = state.CloneResults(s.Compose)
	s.Decompose = state.CloneResults(s.Decompose)
	s.Draw.Data.Cards = slices.Clone(s.Draw.Data.Cards)
	s.Actions = maps.Clone(s.Actions)
	return s
}

// Visible ritorna le carte della pagina corrente.
func (s State) Visible() []api.UserCard {
	return state.Page(s.Owned.Data, s.Page)
}

// Quantity ritorna quante copie di cardID risultano possedute.
func (s State) Quantity(cardID int64) int {
	for _, c := range s.Owned.Data {
		if c.CardID == cardID {
			return c.Number
		}
	}
	return 0
}

func owned(s *State) *state.AsyncResult[[]api.UserCard] { return &s.Owned }
func draw(s *State) *state.AsyncResult[api.PullResult]  { return &s.Draw }
func action(s *State) *state.Status                     { return &s.Action }

func actions(s *State) map[string]state.Status { return s.Actions }

func details(s *State) map[int64]state.AsyncResult[api.Card]         { return s.Details }
func compose(s *State) map[int64]state.AsyncResult[[]api.Material]   { return s.Compose }
func decompose(s *State) map[int64]state.AsyncResult[[]api.Material] { return s.Decompose }
