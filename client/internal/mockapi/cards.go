package mockapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"NarcissusTCG/client/internal/api"
)

func cardIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("card_id"), 10, 64)
	if err != nil {
		invalid(w, http.StatusUnprocessableEntity, "card_id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleCardInfo(w http.ResponseWriter, r *http.Request, _ string) {
	id, valid := cardIDParam(w, r)
	if !valid {
		return
	}
	card, exists := s.cards[id]
	if !exists {
		fail(w, "card not found")
		return
	}
	ok(w, api.CardInfoData{CardInfo: card})
}

func (s *Server) handleComposeMaterials(w http.ResponseWriter, r *http.Request, _ string) {
	id, valid := cardIDParam(w, r)
	if !valid {
		return
	}
	if _, exists := s.cards[id]; !exists {
		fail(w, "card not found")
		return
	}
	ok(w, api.ComposeMaterialsData{Materials: materials(s.recipes[id])})
}

func (s *Server) handleDecomposeMaterials(w http.ResponseWriter, r *http.Request, _ string) {
	id, valid := cardIDParam(w, r)
	if !valid {
		return
	}
	if _, exists := s.cards[id]; !exists {
		fail(w, "card not found")
		return
	}
	ok(w, api.DecomposeMaterialsData{Materials: materials(s.decompose[id])})
}

func (s *Server) handleUserCards(w http.ResponseWriter, r *http.Request, uid string) {
	q := r.URL.Query()
	nameIn := strings.ToLower(q.Get("name_in"))
	rarity := q.Get("rarity")
	pkg := q.Get("package")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.UserCard, 0)
	for _, uc := range s.ownedLocked(uid) {
		if nameIn != "" && !strings.Contains(strings.ToLower(uc.Name), nameIn) {
			continue
		}
		if rarity != "" && uc.Rarity != rarity {
			continue
		}
		if pkg != "" && uc.Package != pkg {
			continue
		}
		out = append(out, uc)
	}
	ok(w, api.CardsData{Cards: out})
}

// ownedLocked ritorna la collezione ordinata per card_id.
func (s *Server) ownedLocked(uid string) []api.UserCard {
	p := s.players[uid]
	out := make([]api.UserCard, 0, len(p.cards))
	for id, n := range p.cards {
		if n <= 0 {
			continue
		}
		out = append(out, api.UserCard{Card: s.cards[id], Number: n})
	}
	slices.SortFunc(out, func(a, b api.UserCard) int { return int(a.CardID - b.CardID) })
	return out
}

func (s *Server) handleCraft(w http.ResponseWriter, r *http.Request, uid string) {
	var params api.CraftParams
	if !decodeBody(w, r, &params) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	card, exists := s.cards[params.CardID]
	if !exists {
		fail(w, "card not found")
		return
	}
	recipe, allowed := s.recipes[params.CardID]
	if !allowed {
		fail(w, "not allow compose")
		return
	}
	p := s.players[uid]
	if p.self.Level < card.UnlockLevel {
		fail(w, "level not enough")
		return
	}

	// 1) Verifica tutti i materiali prima di toccare la collezione.
	for _, m := range recipe {
		if p.cards[m.CardID] < m.Number {
			fail(w, "materials not enough")
			return
		}
	}
	// 2) Consuma i materiali e aggiunge la carta composta.
	for _, m := range recipe {
		p.cards[m.CardID] -= m.Number
		if p.cards[m.CardID] == 0 {
			delete(p.cards, m.CardID)
		}
	}
	p.cards[params.CardID]++
	s.logger.Info("carta composta", "uid", uid, "card_id", params.CardID)
	ok(w, nil)
}

func (s *Server) handleDecompose(w http.ResponseWriter, r *http.Request, uid string) {
	var params api.DecomposeParams
	if !decodeBody(w, r, &params) {
		return
	}
	if params.Number <= 0 {
		invalid(w, http.StatusUnprocessableEntity, "number must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[uid]
	if p.cards[params.CardID] < params.Number {
		fail(w, "card not found")
		return
	}
	products, allowed := s.decompose[params.CardID]
	if !allowed {
		fail(w, "not allow decompose")
		return
	}

	p.cards[params.CardID] -= params.Number
	if p.cards[params.CardID] == 0 {
		delete(p.cards, params.CardID)
	}
	produced := make([]api.UserCard, 0, len(products))
	for _, m := range products {
		n := m.Number * params.Number
		p.cards[m.CardID] += n
		produced = append(produced, api.UserCard{Card: s.cards[m.CardID], Number: n})
	}
	ok(w, api.CardsData{Cards: produced})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request, uid string) {
	var params api.PullParams
	if !decodeBody(w, r, &params) {
		return
	}
	if params.Times <= 0 {
		invalid(w, http.StatusUnprocessableEntity, "times must be positive")
		return
	}
	pkg := params.Package
	if pkg == "" && len(s.catalog.Packages) > 0 {
		pkg = s.catalog.Packages[0].Name
	}
	price, exists := s.packages[pkg]
	if !exists {
		fail(w, "package not found")
		return
	}
	var pool []int64
	for _, c := range s.catalog.Cards {
		if c.Package == pkg {
			pool = append(pool, c.CardID)
		}
	}
	if len(pool) == 0 {
		fail(w, "package not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[uid]
	cost := price * int64(params.Times)
	if p.self.Byte < cost {
		fail(w, "byte not enough")
		return
	}
	p.self.Byte -= cost

	drawn := make(map[int64]int)
	for range params.Times {
		drawn[pool[s.rng.IntN(len(pool))]]++
	}
	result := api.PullResult{Cost: cost}
	for id, n := range drawn {
		p.cards[id] += n
		result.Cards = append(result.Cards, api.UserCard{Card: s.cards[id], Number: n})
	}
	slices.SortFunc(result.Cards, func(a, b api.UserCard) int { return int(a.CardID - b.CardID) })
	ok(w, result)
}

// Grant aggiunge carte a un utente (seed per test e sviluppo).
func (s *Server) Grant(uid string, cardID int64, number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, exists := s.players[uid]; exists {
		p.cards[cardID] += number
	}
}
