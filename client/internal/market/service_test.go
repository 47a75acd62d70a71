package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
)

// Test suite per acquisti, listing e ordini.

type fakeMarket struct {
	mu           sync.Mutex
	listings     []api.StoreCard
	orders       []api.Order
	storeCalls   int
	ordersCalls  int
	buyResp      *transport.Envelope[api.BuyData]
	buyErr       error
	buyGate      chan struct{}
	buyCalls     int32
	listResp     *transport.Envelope[struct{}]
	lastSlippage int64
	completeResp *transport.Envelope[api.OrderReward]
	friendCalls  int
}

func (f *fakeMarket) StoreCards(_ context.Context, _ api.StoreFilter) (*transport.Envelope[api.StoreCardsData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeCalls++
	return &transport.Envelope[api.StoreCardsData]{Success: true, Data: api.StoreCardsData{Cards: f.listings}}, nil
}

func (f *fakeMarket) FriendStoreCards(_ context.Context, _ string) (*transport.Envelope[api.StoreCardsData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendCalls++
	return &transport.Envelope[api.StoreCardsData]{Success: true}, nil
}

func (f *fakeMarket) ListCard(_ context.Context, _ api.StoreCard) (*transport.Envelope[struct{}], error) {
	return f.listResp, nil
}

func (f *fakeMarket) DelistCard(_ context.Context, _ api.StoreCard) (*transport.Envelope[api.DelistData], error) {
	return &transport.Envelope[api.DelistData]{Success: true}, nil
}

func (f *fakeMarket) BuyCard(_ context.Context, _ api.StoreCard, slippage int64) (*transport.Envelope[api.BuyData], error) {
	atomic.AddInt32(&f.buyCalls, 1)
	f.lastSlippage = slippage
	if f.buyGate != nil {
		<-f.buyGate
	}
	return f.buyResp, f.buyErr
}

func (f *fakeMarket) BuyFriendCard(_ context.Context, _ string, _ api.StoreCard) (*transport.Envelope[api.BuyData], error) {
	return f.buyResp, f.buyErr
}

func (f *fakeMarket) WaitingOrders(_ context.Context) (*transport.Envelope[api.OrdersData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	return &transport.Envelope[api.OrdersData]{Success: true, Data: api.OrdersData{Orders: f.orders}}, nil
}

func (f *fakeMarket) CompleteOrder(_ context.Context, _ int64) (*transport.Envelope[api.OrderReward], error) {
	return f.completeResp, nil
}

func (f *fakeMarket) CancelOrder(_ context.Context, _ int64) (*transport.Envelope[struct{}], error) {
	return &transport.Envelope[struct{}]{Success: true}, nil
}

func (f *fakeMarket) BuyRecords(_ context.Context) (*transport.Envelope[api.BuyRecordData], error) {
	return &transport.Envelope[api.BuyRecordData]{Success: true, Data: api.BuyRecordData{
		Records: []api.StoreRecord{{BuyerName: "neo", CardName: "Dragon", Number: 1, Price: 30}},
	}}, nil
}

func (f *fakeMarket) SellRecords(_ context.Context) (*transport.Envelope[api.SellRecordData], error) {
	return nil, &transport.HTTPError{Status: 500, Message: "records unavailable"}
}

func newTestService(f *fakeMarket) (*Service, *Store) {
	store := NewStore()
	guard := lock.NewGuard(lock.NewMemoryLock(time.Minute), "", slog.Default())
	return NewService(slog.Default(), f, store, guard), store
}

func listing() api.StoreCard {
	return api.StoreCard{StoreID: 1, CardID: 5, Number: 1, Price: 30, IsPublish: true}
}

// Acquisto rifiutato: ordini invariati e nessun refetch.
func TestBuyCardFailureLeavesOrdersUntouched(t *testing.T) {
	f := &fakeMarket{
		orders:  []api.Order{{OrderID: 1, Status: api.OrderPending}},
		buyResp: &transport.Envelope[api.BuyData]{Success: false, Message: "sold out"},
	}
	svc, store := newTestService(f)
	svc.LoadOrders(context.Background())

	if svc.BuyCard(context.Background(), listing(), 2) {
		t.Fatalf("expected buy to fail")
	}
	snap := store.Snapshot()
	if snap.Action.Phase != state.PhaseError || snap.Action.Error != "sold out" {
		t.Fatalf("expected server error surfaced, got %+v", snap.Action)
	}
	if f.ordersCalls != 1 || len(snap.Orders.Data) != 1 {
		t.Fatalf("expected orders untouched, calls=%d", f.ordersCalls)
	}
	if f.lastSlippage != 2 {
		t.Fatalf("expected slippage to be forwarded")
	}
}

// Acquisto riuscito: ordini, listing e inventario vengono ricaricati.
func TestBuyCardSuccessRefetches(t *testing.T) {
	f := &fakeMarket{
		buyResp: &transport.Envelope[api.BuyData]{Success: true, Data: api.BuyData{CostByte: 30}},
	}
	svc, store := newTestService(f)
	var inventory int32
	svc.AfterInventoryChange(func(context.Context) { atomic.AddInt32(&inventory, 1) })

	f.orders = []api.Order{{OrderID: 7, CardID: 5, Number: 1, Price: 30, Status: api.OrderCompleted}}
	if !svc.BuyCard(context.Background(), listing(), 0) {
		t.Fatalf("expected buy to succeed")
	}
	snap := store.Snapshot()
	if snap.LastCost != 30 {
		t.Fatalf("expected cost 30, got %d", snap.LastCost)
	}
	if f.ordersCalls != 1 || f.storeCalls != 1 {
		t.Fatalf("expected orders and listings refetch, got %d/%d", f.ordersCalls, f.storeCalls)
	}
	if len(snap.Orders.Data) != 1 || snap.Orders.Data[0].OrderID != 7 {
		t.Fatalf("expected orders from server")
	}
	if atomic.LoadInt32(&inventory) != 1 {
		t.Fatalf("expected inventory refresh")
	}
}

// Doppio click sullo stesso listing: parte una sola richiesta.
func TestBuyCardDuplicateClickRejected(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeMarket{
		buyGate: gate,
		buyResp: &transport.Envelope[api.BuyData]{Success: true},
	}
	svc, store := newTestService(f)

	done := make(chan bool)
	go func() { done <- svc.BuyCard(context.Background(), listing(), 0) }()
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&f.buyCalls) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first buy never started")
		}
		time.Sleep(time.Millisecond)
	}

	if svc.BuyCard(context.Background(), listing(), 0) {
		t.Fatalf("expected duplicate buy to be rejected")
	}
	key := fmt.Sprintf("market:buy:%d:%d", listing().StoreID, listing().CardID)
	busy := store.Snapshot().Actions[key]
	if busy.Phase != state.PhaseLoading || busy.Error != state.MsgBusy {
		t.Fatalf("expected rejection noted on the in-flight slot, got %+v", busy)
	}
	close(gate)
	if !<-done {
		t.Fatalf("expected first buy to succeed")
	}
	if got := atomic.LoadInt32(&f.buyCalls); got != 1 {
		t.Fatalf("expected exactly one buy request, got %d", got)
	}
	if got := store.Snapshot().Actions[key]; got.Phase != state.PhaseSuccess || got.Error != "" {
		t.Fatalf("expected first buy outcome to replace the rejection, got %+v", got)
	}
}

func TestSnapshotDoesNotShareListings(t *testing.T) {
	f := &fakeMarket{listings: []api.StoreCard{listing()}}
	svc, store := newTestService(f)
	svc.LoadListings(context.Background(), api.StoreFilter{})

	snap := store.Snapshot()
	snap.Listings.Data[0].Price = -1
	if store.Snapshot().Listings.Data[0].Price == -1 {
		t.Fatalf("expected store listings untouched by snapshot writes")
	}
}

func TestListCardRefetchesListings(t *testing.T) {
	f := &fakeMarket{
		listResp: &transport.Envelope[struct{}]{Success: true},
		listings: []api.StoreCard{listing()},
	}
	svc, store := newTestService(f)

	if !svc.ListCard(context.Background(), listing()) {
		t.Fatalf("expected list to succeed")
	}
	if len(store.Snapshot().Listings.Data) != 1 {
		t.Fatalf("expected listings from server")
	}

	f.listResp = &transport.Envelope[struct{}]{Success: false, Message: "not enough cards"}
	if svc.ListCard(context.Background(), listing()) {
		t.Fatalf("expected list to fail")
	}
	if f.storeCalls != 1 {
		t.Fatalf("did not expect a refetch after failure")
	}
}

func TestCompleteOrderStoresReward(t *testing.T) {
	f := &fakeMarket{completeResp: &transport.Envelope[api.OrderReward]{Success: true, Data: api.OrderReward{Exp: 10, Byte: 40}}}
	svc, store := newTestService(f)

	if !svc.CompleteOrder(context.Background(), 3) {
		t.Fatalf("expected complete to succeed")
	}
	if store.Snapshot().LastReward.Byte != 40 || f.ordersCalls != 1 {
		t.Fatalf("expected reward stored and orders refetched")
	}
	if !svc.CancelOrder(context.Background(), 3) {
		t.Fatalf("expected cancel to succeed")
	}
}

func TestRecords(t *testing.T) {
	svc, store := newTestService(&fakeMarket{})
	if !svc.LoadBuyRecords(context.Background()) {
		t.Fatalf("expected buy records")
	}
	if svc.LoadSellRecords(context.Background()) {
		t.Fatalf("expected sell records to fail")
	}
	snap := store.Snapshot()
	if snap.BuyRecords.Data[0].CardName != "Dragon" {
		t.Fatalf("unexpected buy records")
	}
	if snap.SellRecords.Error != "records unavailable" {
		t.Fatalf("expected sell records error, got %q", snap.SellRecords.Error)
	}
}

func TestPendingOrders(t *testing.T) {
	st := State{Orders: state.AsyncResult[[]api.Order]{Data: []api.Order{
		{OrderID: 1, Status: api.OrderPending},
		{OrderID: 2, Status: api.OrderCompleted},
	}}}
	if got := st.PendingOrders(); len(got) != 1 || got[0].OrderID != 1 {
		t.Fatalf("unexpected pending orders %+v", got)
	}
}
