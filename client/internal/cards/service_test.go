package cards

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/state"
	"NarcissusTCG/client/internal/transport"
)

// Test suite per collezione, craft, scomposizione ed estrazioni.

type fakeCards struct {
	owned          []api.UserCard
	userCardsCalls int
	lastFilter     api.CardFilter
	userCardsErr   error
	craftResp      *transport.Envelope[struct{}]
	craftErr       error
	craftCalls     int
	decomposeResp  *transport.Envelope[api.CardsData]
	pullResp       *transport.Envelope[api.PullResult]
	cardInfo       map[int64]api.Card
}

func (f *fakeCards) CardInfo(_ context.Context, cardID int64) (*transport.Envelope[api.CardInfoData], error) {
	card, ok := f.cardInfo[cardID]
	if !ok {
		return nil, &transport.HTTPError{Status: 404, Message: "card not found"}
	}
	return &transport.Envelope[api.CardInfoData]{Success: true, Data: api.CardInfoData{CardInfo: card}}, nil
}

func (f *fakeCards) ComposeMaterials(_ context.Context, cardID int64) (*transport.Envelope[api.ComposeMaterialsData], error) {
	return &transport.Envelope[api.ComposeMaterialsData]{Success: true, Data: api.ComposeMaterialsData{
		Materials: []api.Material{{CardID: cardID - 1, Number: 3}},
	}}, nil
}

func (f *fakeCards) DecomposeMaterials(_ context.Context, _ int64) (*transport.Envelope[api.DecomposeMaterialsData], error) {
	return &transport.Envelope[api.DecomposeMaterialsData]{Success: true}, nil
}

func (f *fakeCards) UserCards(_ context.Context, filter api.CardFilter) (*transport.Envelope[api.CardsData], error) {
	f.userCardsCalls++
	f.lastFilter = filter
	if f.userCardsErr != nil {
		return nil, f.userCardsErr
	}
	return &transport.Envelope[api.CardsData]{Success: true, Data: api.CardsData{Cards: f.owned}}, nil
}

func (f *fakeCards) Craft(_ context.Context, _ api.CraftParams) (*transport.Envelope[struct{}], error) {
	f.craftCalls++
	return f.craftResp, f.craftErr
}

func (f *fakeCards) Decompose(_ context.Context, _ api.DecomposeParams) (*transport.Envelope[api.CardsData], error) {
	return f.decomposeResp, nil
}

func (f *fakeCards) Pull(_ context.Context, _ api.PullParams) (*transport.Envelope[api.PullResult], error) {
	return f.pullResp, nil
}

func card(id int64, number int) api.UserCard {
	return api.UserCard{Card: api.Card{CardID: id, Name: "card"}, Number: number}
}

func newTestService(f *fakeCards) (*Service, *Store) {
	store := NewStore()
	guard := lock.NewGuard(lock.NewMemoryLock(time.Minute), "", slog.Default())
	return NewService(slog.Default(), f, store, guard), store
}

func TestLoadUserCardsStoresFilterAndPagination(t *testing.T) {
	owned := make([]api.UserCard, 25)
	for i := range owned {
		owned[i] = card(int64(i+1), 1)
	}
	f := &fakeCards{owned: owned}
	svc, store := newTestService(f)

	filter := api.CardFilter{Rarity: "SR"}
	if !svc.LoadUserCards(context.Background(), filter) {
		t.Fatalf("expected load to succeed")
	}
	snap := store.Snapshot()
	if snap.Filter != filter || f.lastFilter != filter {
		t.Fatalf("expected filter to be stored and sent")
	}
	if snap.Page.Pages != 2 || len(snap.Visible()) != 20 {
		t.Fatalf("unexpected pagination %+v", snap.Page)
	}
	svc.NextPage()
	if got := len(store.Snapshot().Visible()); got != 5 {
		t.Fatalf("expected 5 cards on page 2, got %d", got)
	}
}

// Craft rifiutato: errore visibile, collezione invariata, nessun refetch.
func TestCraftInsufficientMaterials(t *testing.T) {
	f := &fakeCards{
		owned:     []api.UserCard{card(1, 2)},
		craftResp: &transport.Envelope[struct{}]{Success: false, Message: "insufficient materials"},
	}
	svc, store := newTestService(f)
	svc.LoadUserCards(context.Background(), api.CardFilter{})
	before := f.userCardsCalls

	ok := svc.Craft(context.Background(), api.CraftParams{CardID: 9, Materials: []api.Material{{CardID: 1, Number: 5}}})
	if ok {
		t.Fatalf("expected craft to fail")
	}
	snap := store.Snapshot()
	if snap.Action.Phase != state.PhaseError || snap.Action.Error != "insufficient materials" {
		t.Fatalf("expected action error, got %+v", snap.Action)
	}
	if f.userCardsCalls != before {
		t.Fatalf("did not expect a refetch after a failed craft")
	}
	if snap.Quantity(1) != 2 {
		t.Fatalf("expected quantities untouched")
	}
}

// Craft riuscito: la collezione arriva dal backend.
func TestCraftSuccessRefetches(t *testing.T) {
	f := &fakeCards{
		owned:     []api.UserCard{card(1, 5)},
		craftResp: &transport.Envelope[struct{}]{Success: true},
	}
	svc, store := newTestService(f)
	svc.LoadUserCards(context.Background(), api.CardFilter{Package: "base"})

	f.owned = []api.UserCard{card(9, 1)}
	if !svc.Craft(context.Background(), api.CraftParams{CardID: 9}) {
		t.Fatalf("expected craft to succeed")
	}
	snap := store.Snapshot()
	if snap.Quantity(9) != 1 || snap.Quantity(1) != 0 {
		t.Fatalf("expected server quantities, got %+v", snap.Owned.Data)
	}
	if f.lastFilter.Package != "base" {
		t.Fatalf("expected refetch to reuse the last filter")
	}
	if snap.Action.Phase != state.PhaseSuccess {
		t.Fatalf("expected success phase")
	}
}

func TestCraftNetworkError(t *testing.T) {
	f := &fakeCards{craftErr: &transport.NetworkError{Op: "PUT /player/cards", Err: errors.New("refused")}}
	svc, store := newTestService(f)

	if svc.Craft(context.Background(), api.CraftParams{CardID: 2}) {
		t.Fatalf("expected craft to fail")
	}
	if store.Snapshot().Action.Error == "" {
		t.Fatalf("expected visible network error")
	}
}

func TestDecomposeAndPullRefetch(t *testing.T) {
	f := &fakeCards{
		owned:         []api.UserCard{card(1, 1)},
		decomposeResp: &transport.Envelope[api.CardsData]{Success: true},
		pullResp: &transport.Envelope[api.PullResult]{Success: true, Data: api.PullResult{
			Cards: []api.UserCard{card(4, 1)}, Cost: 100,
		}},
	}
	svc, store := newTestService(f)

	if !svc.Decompose(context.Background(), api.DecomposeParams{CardID: 1, Number: 1}) {
		t.Fatalf("expected decompose to succeed")
	}
	if !svc.Pull(context.Background(), api.PullParams{Times: 1, Package: "base"}) {
		t.Fatalf("expected pull to succeed")
	}
	if f.userCardsCalls != 2 {
		t.Fatalf("expected two refetches, got %d", f.userCardsCalls)
	}
	draw := store.Snapshot().Draw
	if draw.Phase != state.PhaseSuccess || draw.Data.Cost != 100 || len(draw.Data.Cards) != 1 {
		t.Fatalf("unexpected draw result %+v", draw)
	}
}

// I dettagli sono indipendenti per id.
func TestLoadCardInfoPerID(t *testing.T) {
	f := &fakeCards{cardInfo: map[int64]api.Card{7: {CardID: 7, Name: "Dragon"}}}
	svc, store := newTestService(f)

	if !svc.LoadCardInfo(context.Background(), 7) {
		t.Fatalf("expected card 7 to load")
	}
	if svc.LoadCardInfo(context.Background(), 8) {
		t.Fatalf("expected card 8 to fail")
	}
	snap := store.Snapshot()
	if snap.Details[7].Data.Name != "Dragon" || snap.Details[7].Phase != state.PhaseSuccess {
		t.Fatalf("unexpected card 7 state %+v", snap.Details[7])
	}
	if snap.Details[8].Phase != state.PhaseError || snap.Details[8].Error != "card not found" {
		t.Fatalf("unexpected card 8 state %+v", snap.Details[8])
	}

	if !svc.LoadComposeMaterials(context.Background(), 7) {
		t.Fatalf("expected materials to load")
	}
	if got := store.Snapshot().Compose[7].Data; len(got) != 1 || got[0].Number != 3 {
		t.Fatalf("unexpected materials %+v", got)
	}
}

func TestLoadUserCardsFailureKeepsData(t *testing.T) {
	f := &fakeCards{owned: []api.UserCard{card(1, 3)}}
	svc, store := newTestService(f)
	svc.LoadUserCards(context.Background(), api.CardFilter{})

	f.userCardsErr = &transport.HTTPError{Status: 500, Message: "internal error"}
	if svc.RefreshUserCards(context.Background()) {
		t.Fatalf("expected refresh to fail")
	}
	snap := store.Snapshot()
	if snap.Owned.Phase != state.PhaseError || snap.Quantity(1) != 3 {
		t.Fatalf("expected error phase with last known data, got %+v", snap.Owned)
	}
}

// gatedCraft blocca il craft delle carte in gate finche' il canale non si chiude.
type gatedCraft struct {
	*fakeCards
	started chan int64
	gate    map[int64]chan struct{}
	resp    map[int64]*transport.Envelope[struct{}]
}

func (g *gatedCraft) Craft(_ context.Context, params api.CraftParams) (*transport.Envelope[struct{}], error) {
	g.started <- params.CardID
	if gate, ok := g.gate[params.CardID]; ok {
		<-gate
	}
	return g.resp[params.CardID], nil
}

// Due craft concorrenti: il fallimento del primo resta visibile anche se
// il secondo parte dopo e finisce prima. Un doppio click sullo stesso
// craft viene rifiutato e annotato senza toccarne la fase.
func TestConcurrentCraftsKeepEveryOutcome(t *testing.T) {
	g := &gatedCraft{
		fakeCards: &fakeCards{owned: []api.UserCard{card(1, 5)}},
		started:   make(chan int64, 2),
		gate:      map[int64]chan struct{}{9: make(chan struct{})},
		resp: map[int64]*transport.Envelope[struct{}]{
			9:  {Success: false, Message: "insufficient materials"},
			10: {Success: true},
		},
	}
	store := NewStore()
	guard := lock.NewGuard(lock.NewMemoryLock(time.Minute), "", slog.Default())
	svc := NewService(slog.Default(), g, store, guard)
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- svc.Craft(ctx, api.CraftParams{CardID: 9}) }()
	if id := <-g.started; id != 9 {
		t.Fatalf("expected craft 9 to start first, got %d", id)
	}

	if svc.Craft(ctx, api.CraftParams{CardID: 9}) {
		t.Fatalf("expected duplicate craft to be rejected")
	}
	busy := store.Snapshot().Actions["cards:craft:9"]
	if busy.Phase != state.PhaseLoading || busy.Error != state.MsgBusy {
		t.Fatalf("expected rejection noted on the in-flight slot, got %+v", busy)
	}

	if !svc.Craft(ctx, api.CraftParams{CardID: 10}) {
		t.Fatalf("expected craft 10 to succeed")
	}
	close(g.gate[9])
	if <-done {
		t.Fatalf("expected craft 9 to fail")
	}

	snap := store.Snapshot()
	if got := snap.Actions["cards:craft:9"]; got.Phase != state.PhaseError || got.Error != "insufficient materials" {
		t.Fatalf("expected craft 9 failure to stay visible, got %+v", got)
	}
	if got := snap.Actions["cards:craft:10"]; got.Phase != state.PhaseSuccess {
		t.Fatalf("expected craft 10 success, got %+v", got)
	}
	if snap.Action.Error != "insufficient materials" {
		t.Fatalf("expected last action to report the late failure, got %+v", snap.Action)
	}
}

func TestSnapshotDoesNotShareCollection(t *testing.T) {
	f := &fakeCards{owned: []api.UserCard{card(1, 2)}}
	svc, store := newTestService(f)
	svc.LoadUserCards(context.Background(), api.CardFilter{})

	snap := store.Snapshot()
	snap.Owned.Data[0].Number = 99
	if store.Snapshot().Quantity(1) != 2 {
		t.Fatalf("expected store collection untouched by snapshot writes")
	}
}
