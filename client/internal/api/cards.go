package api

import (
	"context"
	"net/http"
	"net/url"

	"NarcissusTCG/client/internal/transport"
)

// CardFilter filtra la collezione dell'utente.
type CardFilter struct {
	NameIn  string
	Rarity  string
	Package string
}

type CraftParams struct {
	CardID    int64      `json:"card_id"`
	Materials []Material `json:"materials"`
}

type DecomposeParams struct {
	CardID int64 `json:"card_id"`
	Number int   `json:"number"`
}

type PullParams struct {
	Times   int    `json:"times"`
	Package string `json:"package,omitempty"`
}

type CardInfoData struct {
	CardInfo Card `json:"card_info"`
}

type CardsData struct {
	Cards []UserCard `json:"cards"`
}

// PullResult e' l'esito di un'estrazione.
type PullResult struct {
	Cards []UserCard `json:"cards"`
	Cost  int64      `json:"cost,omitempty"`
}

type ComposeMaterialsData struct {
	Materials []Material `json:"compose_materials"`
}

type DecomposeMaterialsData struct {
	Materials []Material `json:"decompose_materials"`
}

func cardQuery(cardID int64) url.Values {
	q := url.Values{}
	q.Set("card_id", formatID(cardID))
	return q
}

func (c *Client) CardInfo(ctx context.Context, cardID int64) (*transport.Envelope[CardInfoData], error) {
	return call[CardInfoData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/card/info", Query: cardQuery(cardID)})
}

func (c *Client) ComposeMaterials(ctx context.Context, cardID int64) (*transport.Envelope[ComposeMaterialsData], error) {
	return call[ComposeMaterialsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/card/materials/compose", Query: cardQuery(cardID)})
}

func (c *Client) DecomposeMaterials(ctx context.Context, cardID int64) (*transport.Envelope[DecomposeMaterialsData], error) {
	return call[DecomposeMaterialsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/card/materials/decompose", Query: cardQuery(cardID)})
}

// UserCards lista le carte possedute; i filtri vuoti non vengono inviati.
func (c *Client) UserCards(ctx context.Context, filter CardFilter) (*transport.Envelope[CardsData], error) {
	q := url.Values{}
	setString(q, "name_in", filter.NameIn)
	setString(q, "rarity", filter.Rarity)
	setString(q, "package", filter.Package)
	return call[CardsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/player/cards", Query: q})
}

func (c *Client) Craft(ctx context.Context, params CraftParams) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{Method: http.MethodPut, Path: "/player/cards", Body: params})
}

func (c *Client) Decompose(ctx context.Context, params DecomposeParams) (*transport.Envelope[CardsData], error) {
	return call[CardsData](ctx, c, transport.Request{Method: http.MethodDelete, Path: "/player/cards", Body: params})
}

func (c *Client) Pull(ctx context.Context, params PullParams) (*transport.Envelope[PullResult], error) {
	return call[PullResult](ctx, c, transport.Request{Method: http.MethodPost, Path: "/player/cards", Body: params})
}
