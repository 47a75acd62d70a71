package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"NarcissusTCG/client/internal/transport"
)

// StoreFilter filtra i listing pubblici.
type StoreFilter struct {
	Package string
	NameIn  string
	PriceLE int64
	PriceGE int64
}

type StoreCardsData struct {
	Cards []StoreCard `json:"cards"`
}

type BuyData struct {
	CostByte int64 `json:"cost_byte"`
}

type DelistData struct {
	CardToDelist StoreCard `json:"card_to_delist"`
	RequireNum   int       `json:"require_num"`
}

type OrdersData struct {
	Orders []Order `json:"orders"`
}

// OrderReward e' la ricompensa per un ordine completato.
type OrderReward struct {
	Exp  int64 `json:"exp"`
	Byte int64 `json:"byte"`
}

type BuyRecordData struct {
	Records []StoreRecord `json:"buy_record"`
}

type SellRecordData struct {
	Records []StoreRecord `json:"sell_record"`
}

func (c *Client) StoreCards(ctx context.Context, filter StoreFilter) (*transport.Envelope[StoreCardsData], error) {
	q := url.Values{}
	setString(q, "package", filter.Package)
	setString(q, "name_in", filter.NameIn)
	setInt(q, "price_le", filter.PriceLE)
	setInt(q, "price_ge", filter.PriceGE)
	return call[StoreCardsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/store/cards", Query: q})
}

// FriendStoreCards lista i listing riservati agli amici di uid.
func (c *Client) FriendStoreCards(ctx context.Context, uid string) (*transport.Envelope[StoreCardsData], error) {
	return call[StoreCardsData](ctx, c, transport.Request{
		Method: http.MethodGet,
		Route:  "/store/{uid}/cards",
		Path:   "/store/" + seg(uid) + "/cards",
	})
}

func (c *Client) ListCard(ctx context.Context, card StoreCard) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{Method: http.MethodPost, Path: "/store/cards", Body: card})
}

func (c *Client) DelistCard(ctx context.Context, card StoreCard) (*transport.Envelope[DelistData], error) {
	return call[DelistData](ctx, c, transport.Request{Method: http.MethodDelete, Path: "/store/cards", Body: card})
}

// BuyCard acquista dal mercato pubblico. exceptSlippage e' la variazione di
// prezzo massima accettata.
func (c *Client) BuyCard(ctx context.Context, card StoreCard, exceptSlippage int64) (*transport.Envelope[BuyData], error) {
	q := url.Values{}
	q.Set("except_slippage", strconv.FormatInt(exceptSlippage, 10))
	return call[BuyData](ctx, c, transport.Request{Method: http.MethodPut, Path: "/store/cards", Query: q, Body: card})
}

func (c *Client) BuyFriendCard(ctx context.Context, uid string, card StoreCard) (*transport.Envelope[BuyData], error) {
	return call[BuyData](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/store/{uid}/cards",
		Path:   "/store/" + seg(uid) + "/cards",
		Body:   card,
	})
}

func (c *Client) WaitingOrders(ctx context.Context) (*transport.Envelope[OrdersData], error) {
	return call[OrdersData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/player/orders/waiting"})
}

func (c *Client) CompleteOrder(ctx context.Context, orderID int64) (*transport.Envelope[OrderReward], error) {
	return call[OrderReward](ctx, c, transport.Request{
		Method: http.MethodPost,
		Route:  "/player/orders/{id}",
		Path:   "/player/orders/" + formatID(orderID),
	})
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodDelete,
		Route:  "/player/orders/{id}",
		Path:   "/player/orders/" + formatID(orderID),
	})
}

func (c *Client) BuyRecords(ctx context.Context) (*transport.Envelope[BuyRecordData], error) {
	return call[BuyRecordData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/store/buy_record"})
}

func (c *Client) SellRecords(ctx context.Context) (*transport.Envelope[SellRecordData], error) {
	return call[SellRecordData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/store/sell_record"})
}
