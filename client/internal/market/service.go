package market

import (
	"context"
	"fmt"
	"log/slog"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
	"golang.org/x/sync/errgroup"
)

// MarketAPI e' il sottoinsieme di endpoint usato dal mercato.
type MarketAPI interface {
	StoreCards(ctx context.Context, filter api.StoreFilter) (*transport.Envelope[api.StoreCardsData], error)
	FriendStoreCards(ctx context.Context, uid string) (*transport.Envelope[api.StoreCardsData], error)
	ListCard(ctx context.Context, card api.StoreCard) (*transport.Envelope[struct{}], error)
	DelistCard(ctx context.Context, card api.StoreCard) (*transport.Envelope[api.DelistData], error)
	BuyCard(ctx context.Context, card api.StoreCard, exceptSlippage int64) (*transport.Envelope[api.BuyData], error)
	BuyFriendCard(ctx context.Context, uid string, card api.StoreCard) (*transport.Envelope[api.BuyData], error)
	WaitingOrders(ctx context.Context) (*transport.Envelope[api.OrdersData], error)
	CompleteOrder(ctx context.Context, orderID int64) (*transport.Envelope[api.OrderReward], error)
	CancelOrder(ctx context.Context, orderID int64) (*transport.Envelope[struct{}], error)
	BuyRecords(ctx context.Context) (*transport.Envelope[api.BuyRecordData], error)
	SellRecords(ctx context.Context) (*transport.Envelope[api.SellRecordData], error)
}

// Service lega le azioni di mercato allo store.
type Service struct {
	logger    *slog.Logger
	api       MarketAPI
	store     *Store
	guard     *lock.Guard
	inventory func(context.Context)
}

func NewService(logger *slog.Logger, client MarketAPI, store *Store, guard *lock.Guard) *Service {
	return &Service{logger: logger, api: client, store: store, guard: guard}
}

// AfterInventoryChange registra il refetch della collezione, chiamato dopo
// ogni operazione che sposta carte dentro o fuori l'inventario.
func (s *Service) AfterInventoryChange(fn func(context.Context)) {
	s.inventory = fn
}

func (s *Service) LoadListings(ctx context.Context, filter api.StoreFilter) bool {
	s.store.Update(func(st *State) { st.Filter = filter })
	return state.Track(s.store, listings, func() ([]api.StoreCard, string, bool) {
		env, err := s.api.StoreCards(ctx, filter)
		data, msg, ok := transport.Unwrap(env, err, msgListingsFailed)
		return data.Cards, msg, ok
	})
}

func (s *Service) RefreshListings(ctx context.Context) bool {
	return s.LoadListings(ctx, s.store.Snapshot().Filter)
}

// LoadFriendListings carica il negozio riservato di un amico.
func (s *Service) LoadFriendListings(ctx context.Context, uid string) bool {
	return state.TrackKey(s.store, friendListings, uid, func() ([]api.StoreCard, string, bool) {
		env, err := s.api.FriendStoreCards(ctx, uid)
		data, msg, ok := transport.Unwrap(env, err, msgListingsFailed)
		return data.Cards, msg, ok
	})
}

// ListCard mette in vendita una carta posseduta.
func (s *Service) ListCard(ctx context.Context, card api.StoreCard) bool {
	return s.mutate(ctx, fmt.Sprintf("market:list:%d", card.CardID), func() (string, bool) {
		env, err := s.api.ListCard(ctx, card)
		msg, failed := transport.Outcome(env, err, msgListFailed)
		return msg, !failed
	}, s.afterListingChange)
}

// DelistCard ritira un listing.
func (s *Service) DelistCard(ctx context.Context, card api.StoreCard) bool {
	return s.mutate(ctx, fmt.Sprintf("market:delist:%d", card.CardID), func() (string, bool) {
		env, err := s.api.DelistCard(ctx, card)
		msg, failed := transport.Outcome(env, err, msgDelistFailed)
		return msg, !failed
	}, s.afterListingChange)
}

// BuyCard acquista un listing pubblico. Lo store non tocca gli ordini:
// su successo ricarica ordini e listing, su errore mostra il messaggio del server.
func (s *Service) BuyCard(ctx context.Context, card api.StoreCard, exceptSlippage int64) bool {
	return s.buy(ctx, fmt.Sprintf("market:buy:%d:%d", card.StoreID, card.CardID), func() (*transport.Envelope[api.BuyData], error) {
		return s.api.BuyCard(ctx, card, exceptSlippage)
	})
}

// BuyFriendCard acquista dal negozio di un amico.
func (s *Service) BuyFriendCard(ctx context.Context, uid string, card api.StoreCard) bool {
	ok := s.buy(ctx, fmt.Sprintf("market:buy:%s:%d", uid, card.CardID), func() (*transport.Envelope[api.BuyData], error) {
		return s.api.BuyFriendCard(ctx, uid, card)
	})
	if ok {
		s.LoadFriendListings(ctx, uid)
	}
	return ok
}

func (s *Service) buy(ctx context.Context, key string, call func() (*transport.Envelope[api.BuyData], error)) bool {
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	var cost int64
	ok = state.TrackAction(s.store, actions, action, key, func() (string, bool) {
		env, err := call()
		data, msg, ok := transport.Unwrap(env, err, msgBuyFailed)
		cost = data.CostByte
		return msg, ok
	})
	if !ok {
		s.logger.Warn("acquisto fallito", "key", key, "error", s.store.Snapshot().Actions[key].Error)
		return false
	}

	s.store.Update(func(st *State) { st.LastCost = cost })
	s.logger.Info("acquisto completato", "key", key, "cost_byte", cost)
	s.refresh(ctx, s.LoadOrders, s.RefreshListings)
	s.inventoryChanged(ctx)
	return true
}

func (s *Service) LoadOrders(ctx context.Context) bool {
	return state.Track(s.store, orders, func() ([]api.Order, string, bool) {
		env, err := s.api.WaitingOrders(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgOrdersFailed)
		return data.Orders, msg, ok
	})
}

// CompleteOrder chiude un ordine e registra la ricompensa.
func (s *Service) CompleteOrder(ctx context.Context, orderID int64) bool {
	var reward api.OrderReward
	ok := s.mutate(ctx, fmt.Sprintf("market:order:%d", orderID), func() (string, bool) {
		env, err := s.api.CompleteOrder(ctx, orderID)
		data, msg, ok := transport.Unwrap(env, err, msgOrderFailed)
		reward = data
		return msg, ok
	}, func(ctx context.Context) {
		s.LoadOrders(ctx)
		s.inventoryChanged(ctx)
	})
	if ok {
		s.store.Update(func(st *State) { st.LastReward = reward })
	}
	return ok
}

// CancelOrder annulla un ordine ancora aperto.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) bool {
	return s.mutate(ctx, fmt.Sprintf("market:order:%d", orderID), func() (string, bool) {
		env, err := s.api.CancelOrder(ctx, orderID)
		msg, failed := transport.Outcome(env, err, msgOrderFailed)
		return msg, !failed
	}, func(ctx context.Context) { s.LoadOrders(ctx) })
}

func (s *Service) LoadBuyRecords(ctx context.Context) bool {
	return state.Track(s.store, buyRecords, func() ([]api.StoreRecord, string, bool) {
		env, err := s.api.BuyRecords(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgRecordsFailed)
		return data.Records, msg, ok
	})
}

func (s *Service) LoadSellRecords(ctx context.Context) bool {
	return state.Track(s.store, sellRecords, func() ([]api.StoreRecord, string, bool) {
		env, err := s.api.SellRecords(ctx)
		data, msg, ok := transport.Unwrap(env, err, msgRecordsFailed)
		return data.Records, msg, ok
	})
}

// mutate esegue una mutazione sotto guard e, solo su successo, il refetch.
func (s *Service) mutate(ctx context.Context, key string, call func() (string, bool), after func(context.Context)) bool {
	release, ok := s.enter(ctx, key)
	if !ok {
		return false
	}
	defer release()

	if !state.TrackAction(s.store, actions, action, key, call) {
		return false
	}
	after(ctx)
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

func (s *Service) afterListingChange(ctx context.Context) {
	s.RefreshListings(ctx)
	s.inventoryChanged(ctx)
}

func (s *Service) inventoryChanged(ctx context.Context) {
	if s.inventory != nil {
		s.inventory(ctx)
	}
}

// refresh esegue i refetch in parallelo; ognuno registra il proprio esito.
func (s *Service) refresh(ctx context.Context, loads ...func(context.Context) bool) {
	var g errgroup.Group
	for _, load := range loads {
		load := load
		g.Go(func() error {
			load(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
