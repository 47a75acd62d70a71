package market

import (
	"maps"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/state"
)

// State raccoglie mercato pubblico, negozi degli amici, ordini e storico.
type State struct {
	Listings       state.AsyncResult[[]api.StoreCard]
	Filter         api.StoreFilter
	FriendListings map[string]state.AsyncResult[[]api.StoreCard]
	Orders         state.AsyncResult[[]api.Order]
	BuyRecords     state.AsyncResult[[]api.StoreRecord]
	SellRecords    state.AsyncResult[[]api.StoreRecord]
	// Actions ha uno slot per chiave d'azione (es. "market:order:7").
	Actions map[string]state.Status
	// Action riporta l'esito dell'ultima azione conclusa.
	Action     state.Status
	LastCost   int64
	LastReward api.OrderReward
}

type Store = state.Store[State]

func NewStore() *Store {
	return state.NewStore(State{
		FriendListings: map[string]state.AsyncResult[[]api.StoreCard]{},
		Actions:        map[string]state.Status{},
	}, func(s State) State {
		s.Listings = state.CloneResult(s.Listings)
		s.FriendListings = state.CloneResults(s.FriendListings)
		s.Orders = state.CloneResult(s.Orders)
		s.BuyRecords = state.CloneResult(s.BuyRecords)
		s.SellRecords = state.CloneResult(s.SellRecords)
		s.Actions = maps.Clone(s.Actions)
		return s
	})
}

// PendingOrders ritorna gli ordini ancora aperti.
func (s State) PendingOrders() []api.Order {
	var out []api.Order
	for _, o := range s.Orders.Data {
		if o.Status == api.OrderPending {
			out = append(out, o)
		}
	}
	return out
}

func listings(s *State) *state.AsyncResult[[]api.StoreCard]     { return &s.Listings }
func orders(s *State) *state.AsyncResult[[]api.Order]           { return &s.Orders }
func buyRecords(s *State) *state.AsyncResult[[]api.StoreRecord] { return &s.BuyRecords }
func sellRecords(s *State) *state.AsyncResult[[]api.StoreRecord] {
	return &s.SellRecords
}
func action(s *State) *state.Status { return &s.Action }

func actions(s *State) map[string]state.Status { return s.Actions }

func friendListings(s *State) map[string]state.AsyncResult[[]api.StoreCard] {
	return s.FriendListings
}
