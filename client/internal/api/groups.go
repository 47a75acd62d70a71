package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"NarcissusTCG/client/internal/transport"
)

// GroupFilter filtra la ricerca dei gruppi.
type GroupFilter struct {
	GroupUID string
	NameIn   string
	LevelGE  int
}

type GroupsData struct {
	Groups []Group `json:"groups"`
}

type GroupNoticeData struct {
	Notices []GroupMessage `json:"group_notice"`
}

type CreateGroupData struct {
	GroupUID string `json:"group"`
}

type JoinRequestsData struct {
	Members []User `json:"under_review_members"`
}

func groupPath(gid string) string {
	return "/groups/" + seg(gid)
}

func (c *Client) SearchGroups(ctx context.Context, filter GroupFilter) (*transport.Envelope[GroupsData], error) {
	q := url.Values{}
	setString(q, "group_uid", filter.GroupUID)
	setString(q, "name_in", filter.NameIn)
	setInt(q, "level_ge", int64(filter.LevelGE))
	return call[GroupsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/groups/others", Query: q})
}

func (c *Client) MyGroups(ctx context.Context) (*transport.Envelope[GroupsData], error) {
	return call[GroupsData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/groups/me"})
}

func (c *Client) GroupNotice(ctx context.Context, gid string) (*transport.Envelope[GroupNoticeData], error) {
	return call[GroupNoticeData](ctx, c, transport.Request{
		Method: http.MethodGet,
		Route:  "/groups/{gid}/group_notice",
		Path:   groupPath(gid) + "/group_notice",
	})
}

func (c *Client) CreateGroup(ctx context.Context, settings GroupSettings) (*transport.Envelope[CreateGroupData], error) {
	return call[CreateGroupData](ctx, c, transport.Request{Method: http.MethodPost, Path: "/groups/members/owner", Body: settings})
}

func (c *Client) JoinGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPost,
		Route:  "/groups/{gid}/members/me",
		Path:   groupPath(gid) + "/members/me",
	})
}

func (c *Client) LeaveGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodDelete,
		Route:  "/groups/{gid}/members/me",
		Path:   groupPath(gid) + "/members/me",
	})
}

func (c *Client) JoinRequests(ctx context.Context, gid string) (*transport.Envelope[JoinRequestsData], error) {
	return call[JoinRequestsData](ctx, c, transport.Request{
		Method: http.MethodGet,
		Route:  "/groups/{gid}/under_review_members",
		Path:   groupPath(gid) + "/under_review_members",
	})
}

// PostNotice pubblica un avviso; il body e' la stringa JSON del contenuto.
func (c *Client) PostNotice(ctx context.Context, gid, content string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPost,
		Route:  "/groups/{gid}/group_message/notice",
		Path:   groupPath(gid) + "/group_message/notice",
		Body:   content,
	})
}

func (c *Client) HandleJoinRequest(ctx context.Context, gid, uid string, agree bool) (*transport.Envelope[struct{}], error) {
	q := url.Values{}
	q.Set("is_agree", strconv.FormatBool(agree))
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/groups/{gid}/under_review_members/{uid}",
		Path:   groupPath(gid) + "/under_review_members/" + seg(uid),
		Query:  q,
	})
}

func (c *Client) UpdateGroupInfo(ctx context.Context, gid string, settings GroupSettings) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/groups/{gid}/info",
		Path:   groupPath(gid) + "/info",
		Body:   settings,
	})
}

func (c *Client) KickMember(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodDelete,
		Route:  "/groups/{gid}/members/{uid}",
		Path:   groupPath(gid) + "/members/" + seg(uid),
	})
}

func (c *Client) AppointAdmin(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/groups/{gid}/member/{uid}",
		Path:   groupPath(gid) + "/member/" + seg(uid),
	})
}

func (c *Client) DismissAdmin(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/groups/{gid}/admin/{uid}",
		Path:   groupPath(gid) + "/admin/" + seg(uid),
	})
}

func (c *Client) TransferOwner(ctx context.Context, gid, uid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodPut,
		Route:  "/groups/{gid}/owner/{uid}",
		Path:   groupPath(gid) + "/owner/" + seg(uid),
	})
}

func (c *Client) DissolveGroup(ctx context.Context, gid string) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{
		Method: http.MethodDelete,
		Route:  "/groups/{gid}",
		Path:   groupPath(gid),
	})
}

// ChatURL costruisce l'URL websocket della chat per uno o piu' gruppi.
func (c *Client) ChatURL(gid string, groupUIDs ...string) *url.URL {
	u := c.tr.BaseURL()
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/groups/" + gid + "/chat"
	if len(groupUIDs) == 0 {
		groupUIDs = []string{gid}
	}
	u.RawQuery = url.Values{"group_uids": groupUIDs}.Encode()
	return u
}
