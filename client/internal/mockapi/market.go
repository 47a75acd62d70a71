package mockapi

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"NarcissusTCG/client/internal/api"
	"github.com/gorilla/mux"
)

const tradeWindow = 24 * time.Hour

func (s *Server) storeCardLocked(l *listing) api.StoreCard {
	card := s.cards[l.cardID]
	owner := ""
	if p, exists := s.players[l.owner]; exists {
		owner = p.self.Name
	}
	return api.StoreCard{
		StoreID:   l.id,
		CardID:    l.cardID,
		Name:      card.Name,
		Image:     card.Image,
		Rarity:    card.Rarity,
		Package:   card.Package,
		Number:    l.number,
		Price:     l.price,
		OwnerName: owner,
		IsPublish: l.publish,
	}
}

func (s *Server) sortedListingsLocked(keep func(*listing) bool) []api.StoreCard {
	out := make([]api.StoreCard, 0)
	for _, l := range s.listings {
		if keep(l) {
			out = append(out, s.storeCardLocked(l))
		}
	}
	slices.SortFunc(out, func(a, b api.StoreCard) int { return int(a.StoreID - b.StoreID) })
	return out
}

func (s *Server) handleStoreCards(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query()
	pkg := q.Get("package")
	nameIn := strings.ToLower(q.Get("name_in"))
	priceLE, _ := strconv.ParseInt(q.Get("price_le"), 10, 64)
	priceGE, _ := strconv.ParseInt(q.Get("price_ge"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	cards := s.sortedListingsLocked(func(l *listing) bool {
		card := s.cards[l.cardID]
		switch {
		case !l.publish:
			return false
		case pkg != "" && card.Package != pkg:
			return false
		case nameIn != "" && !strings.Contains(strings.ToLower(card.Name), nameIn):
			return false
		case priceLE > 0 && l.price > priceLE:
			return false
		case priceGE > 0 && l.price < priceGE:
			return false
		}
		return true
	})
	ok(w, api.StoreCardsData{Cards: cards})
}

func (s *Server) handleFriendStore(w http.ResponseWriter, r *http.Request, uid string) {
	owner := mux.Vars(r)["uid"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[owner]; !exists {
		fail(w, "user not found")
		return
	}
	friend := s.players[uid].friends[owner] || owner == uid
	cards := s.sortedListingsLocked(func(l *listing) bool {
		return l.owner == owner && (l.publish || friend)
	})
	ok(w, api.StoreCardsData{Cards: cards})
}

func (s *Server) handleListCard(w http.ResponseWriter, r *http.Request, uid string) {
	var card api.StoreCard
	if !decodeBody(w, r, &card) {
		return
	}
	if card.Number <= 0 || card.Price <= 0 {
		invalid(w, http.StatusUnprocessableEntity, "number and price must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[uid]
	owned, has := p.cards[card.CardID]
	if !has {
		fail(w, "card not found")
		return
	}
	if owned < card.Number {
		fail(w, "card not enough")
		return
	}

	// 1) Scala le carte dalla collezione del venditore.
	p.cards[card.CardID] -= card.Number
	if p.cards[card.CardID] == 0 {
		delete(p.cards, card.CardID)
	}
	// 2) Unisce al listing esistente dello stesso venditore, altrimenti ne crea uno.
	for _, l := range s.listings {
		if l.owner == uid && l.cardID == card.CardID {
			l.number += card.Number
			l.price = card.Price
			l.publish = card.IsPublish
			ok(w, nil)
			return
		}
	}
	s.nextListing++
	s.listings[s.nextListing] = &listing{
		id:      s.nextListing,
		cardID:  card.CardID,
		owner:   uid,
		number:  card.Number,
		price:   card.Price,
		publish: card.IsPublish,
	}
	s.logger.Info("carta in vendita", "uid", uid, "store_id", s.nextListing, "card_id", card.CardID)
	ok(w, nil)
}

func (s *Server) handleDelistCard(w http.ResponseWriter, r *http.Request, uid string) {
	var card api.StoreCard
	if !decodeBody(w, r, &card) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, exists := s.listings[card.StoreID]
	if !exists || l.owner != uid {
		fail(w, "card not found")
		return
	}
	number := card.Number
	if number <= 0 || number > l.number {
		number = l.number
	}
	delisted := s.storeCardLocked(l)
	delisted.Number = number

	l.number -= number
	if l.number == 0 {
		delete(s.listings, l.id)
	}
	s.players[uid].cards[l.cardID] += number
	ok(w, api.DelistData{CardToDelist: delisted, RequireNum: number})
}

func (s *Server) handleBuyCard(w http.ResponseWriter, r *http.Request, uid string) {
	var card api.StoreCard
	if !decodeBody(w, r, &card) {
		return
	}
	var slippage *int64
	if raw := r.URL.Query().Get("except_slippage"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			invalid(w, http.StatusUnprocessableEntity, "except_slippage must be an integer")
			return
		}
		slippage = &v
	}
	s.buy(r.Context(), w, uid, card, slippage, "")
}

func (s *Server) handleBuyFriendCard(w http.ResponseWriter, r *http.Request, uid string) {
	var card api.StoreCard
	if !decodeBody(w, r, &card) {
		return
	}
	s.buy(r.Context(), w, uid, card, nil, mux.Vars(r)["uid"])
}

// buy serializza gli acquisti dello stesso listing con il lock manager.
func (s *Server) buy(ctx context.Context, w http.ResponseWriter, uid string, card api.StoreCard, slippage *int64, friendUID string) {
	if card.Number <= 0 {
		invalid(w, http.StatusUnprocessableEntity, "number must be positive")
		return
	}

	// 1) Lock per listing, come un backend con piu' worker.
	lockKey := "lock:listing:" + strconv.FormatInt(card.StoreID, 10)
	token, acquired, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		s.logger.Error("errore acquisizione lock", "error", err, "store_id", card.StoreID)
		invalid(w, http.StatusInternalServerError, "failed to acquire listing lock")
		return
	}
	if !acquired {
		fail(w, "listing is locked")
		return
	}
	defer func() {
		if err := s.locker.Release(context.Background(), lockKey, token); err != nil {
			s.logger.Warn("errore rilascio lock", "error", err, "store_id", card.StoreID)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	// 2) Risolve il listing, eventualmente con slippage.
	l := s.listings[card.StoreID]
	if l != nil && friendUID != "" && l.owner != friendUID {
		l = nil
	}
	if l != nil && !l.publish && (friendUID == "" || !s.players[uid].friends[friendUID]) {
		l = nil
	}
	if l == nil {
		if slippage == nil {
			fail(w, "card not found")
			return
		}
		l = s.cheapestLocked(uid, card.CardID)
		if l == nil || l.number < card.Number || l.price > card.Price+*slippage {
			fail(w, "card not found with except_slippage")
			return
		}
	} else if l.number < card.Number || card.Price < l.price {
		fail(w, "card not found")
		return
	}

	// 3) Vincoli su acquirente e limite giornaliero.
	if l.owner == uid {
		fail(w, "can not buy self card")
		return
	}
	if s.catalog.MaxTradeDay > 0 && s.tradesTodayLocked(uid) >= s.catalog.MaxTradeDay {
		fail(w, "trade today too much")
		return
	}
	buyer := s.players[uid]
	need := l.price * int64(card.Number)
	if buyer.self.Byte < need {
		fail(w, "user byte not enough")
		return
	}
	if buyer.self.Level < s.cards[l.cardID].UnlockLevel {
		fail(w, "user level not enough")
		return
	}

	// 4) Trasferisce carte e byte, poi registra ordine e record.
	now := s.now()
	buyer.cards[l.cardID] += card.Number
	buyer.self.Byte -= need
	if seller, exists := s.players[l.owner]; exists {
		seller.self.Byte += need
	}
	l.number -= card.Number
	if l.number == 0 {
		delete(s.listings, l.id)
	}
	s.records = append(s.records, record{buyer: uid, seller: l.owner, cardID: l.cardID, number: card.Number, price: l.price, at: now})
	s.nextOrder++
	s.orders[s.nextOrder] = &order{
		Order: api.Order{
			OrderID:   s.nextOrder,
			BuyerUID:  uid,
			SellerUID: l.owner,
			CardID:    l.cardID,
			Number:    card.Number,
			Price:     l.price,
			Status:    api.OrderPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		reward: api.OrderReward{Exp: int64(card.Number) * 10},
	}
	s.logger.Info("acquisto completato", "uid", uid, "store_id", l.id, "cost", need)
	ok(w, api.BuyData{CostByte: need})
}

func (s *Server) cheapestLocked(uid string, cardID int64) *listing {
	var best *listing
	for _, l := range s.listings {
		if l.cardID != cardID || !l.publish || l.owner == uid {
			continue
		}
		if best == nil || l.price < best.price || (l.price == best.price && l.id < best.id) {
			best = l
		}
	}
	return best
}

func (s *Server) tradesTodayLocked(uid string) int {
	since := s.now().Add(-tradeWindow)
	n := 0
	for _, rec := range s.records {
		if rec.buyer == uid && rec.at.After(since) {
			n++
		}
	}
	return n
}

func (s *Server) handleWaitingOrders(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Order, 0)
	for _, o := range s.orders {
		if o.BuyerUID == uid && o.Status == api.OrderPending {
			out = append(out, o.Order)
		}
	}
	slices.SortFunc(out, func(a, b api.Order) int { return int(a.OrderID - b.OrderID) })
	ok(w, api.OrdersData{Orders: out})
}

func (s *Server) pendingOrderLocked(r *http.Request, uid string) (*order, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return nil, false
	}
	o, exists := s.orders[id]
	if !exists || o.BuyerUID != uid || o.Status != api.OrderPending {
		return nil, false
	}
	return o, true
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.pendingOrderLocked(r, uid)
	if !found {
		fail(w, "order not found")
		return
	}
	o.Status = api.OrderCompleted
	o.UpdatedAt = s.now()
	p := s.players[uid]
	p.self.Exp += o.reward.Exp
	p.self.Byte += o.reward.Byte
	ok(w, o.reward)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.pendingOrderLocked(r, uid)
	if !found {
		fail(w, "order not found")
		return
	}
	o.Status = api.OrderCancelled
	o.UpdatedAt = s.now()
	ok(w, nil)
}

func (s *Server) recordsLocked(keep func(record) bool) []api.StoreRecord {
	out := make([]api.StoreRecord, 0)
	for _, rec := range s.records {
		if !keep(rec) {
			continue
		}
		out = append(out, api.StoreRecord{
			BuyerName:  s.players[rec.buyer].self.Name,
			SellerName: s.players[rec.seller].self.Name,
			CardName:   s.cards[rec.cardID].Name,
			Number:     rec.number,
			Price:      rec.price,
			TradeTime:  rec.at,
		})
	}
	return out
}

func (s *Server) handleBuyRecords(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, api.BuyRecordData{Records: s.recordsLocked(func(rec record) bool { return rec.buyer == uid })})
}

func (s *Server) handleSellRecords(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, api.SellRecordData{Records: s.recordsLocked(func(rec record) bool { return rec.seller == uid })})
}
