package api

import (
	"context"
	"net/url"
	"strconv"

	"NarcissusTCG/client/internal/transport"
)

// Client espone una funzione per ogni operazione del backend.
// Non contiene stato: ogni chiamata passa dal transport condiviso.
type Client struct {
	tr *transport.Client
}

// New collega le funzioni endpoint al transport.
func New(tr *transport.Client) *Client {
	return &Client{tr: tr}
}

// Transport ritorna il client di trasporto sottostante.
func (c *Client) Transport() *transport.Client {
	return c.tr
}

func call[T any](ctx context.Context, c *Client, req transport.Request) (*transport.Envelope[T], error) {
	return transport.Call[T](ctx, c.tr, req)
}

func seg(s string) string {
	return url.PathEscape(s)
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value int64) {
	if value != 0 {
		q.Set(key, strconv.FormatInt(value, 10))
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
