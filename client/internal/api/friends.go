package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"NarcissusTCG/client/internal/transport"
)

type FriendsData struct {
	Friends []Friend `json:"friends"`
}

type FriendRequestsData struct {
	WaitingAccept FriendRequests `json:"waiting_accept"`
}

func friendPath(uid string) string {
	return "/player/friendship/" + seg(uid)
}

func (c *Client) Friends(ctx context.Context) (*transport.Envelope[FriendsData], error) {
	return call[FriendsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/player/friendship"})
}

func (c *Client) FriendRequests(ctx context.Context) (*transport.Envelope[FriendRequestsData], error) {
	return call[FriendRequestsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/player/friendship/under_review"})
}

// SendFriendRequest invia la richiesta con un messaggio opzionale.
func (c *Client) SendFriendRequest(ctx context.Context, uid, message string) (*transport.Envelope[struct{}], error) {
	q := url.Values{}
	setString(q, "request_message", message)
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPost,
		Route:  "/player/friendship/{uid}",
		Path:   friendPath(uid),
		Query:  q,
	})
}

// HandleFriendRequest accetta o rifiuta la richiesta ricevuta da uid.
func (c *Client) HandleFriendRequest(ctx context.Context, uid string, accepted bool) (*transport.Envelope[struct{}], error) {
	q := url.Values{}
	q.Set("is_accepted", strconv.FormatBool(accepted))
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/player/friendship/{uid}",
		Path:   friendPath(uid),
		Query:  q,
	})
}

func (c *Client) DeleteFriend(ctx context.Context, uid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodDelete,
		Route:  "/player/friendship/{uid}",
		Path:   friendPath(uid),
	})
}
