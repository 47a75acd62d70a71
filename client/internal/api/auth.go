package api

import (
	"context"
	"net/http"

	"NarcissusTCG/client/internal/transport"
)

// AvatarField e' il nome del campo multipart per l'avatar.
const AvatarField = "avatars_file"

type LoginParams struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type RegisterParams struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type SelfInfoData struct {
	SelfInfo UserSelf `json:"self_info"`
}

type UserInfoData struct {
	UserInfo User `json:"user_info"`
}

type AvatarData struct {
	AvatarURL string `json:"avatar_url"`
}

// Login autentica e, se la risposta lo include, ritorna il profilo.
func (c *Client) Login(ctx context.Context, params LoginParams) (*transport.Envelope[*UserSelf], error) {
	return call[*UserSelf](ctx, c, transport.Request{Method: http.MethodPost, Path: "/player/login", Body: params})
}

func (c *Client) Register(ctx context.Context, params RegisterParams) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{Method: http.MethodPost, Path: "/player/signup", Body: params})
}

// CurrentUser legge il profilo della sessione corrente.
func (c *Client) CurrentUser(ctx context.Context) (*transport.Envelope[SelfInfoData], error) {
	return call[SelfInfoData](ctx, c, transport.Request{Method: http.MethodGet, Path: "/player/info/me"})
}

// UserInfo legge il profilo pubblico di un altro giocatore.
func (c *Client) UserInfo(ctx context.Context, uid string) (*transport.Envelope[UserInfoData], error) {
	return call[UserInfoData](ctx, c, transport.Request{
		Method: http.MethodGet,
		Route:  "/player/info/{uid}",
		Path:   "/player/info/" + seg(uid),
	})
}

func (c *Client) UpdateProfile(ctx context.Context, profile UserSelf) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{Method: http.MethodPut, Path: "/player/info/me", Body: profile})
}

// UploadAvatar invia l'immagine come multipart; i file non immagine sono
// rifiutati dal transport prima dell'invio.
func (c *Client) UploadAvatar(ctx context.Context, filename string, content []byte) (*transport.Envelope[AvatarData], error) {
	return call[AvatarData](ctx, c, transport.Request{
		Method: http.MethodPut,
		Path:   "/player/info/me/avatars",
		Upload: &transport.Upload{Field: AvatarField, Filename: filename, Content: content},
	})
}

func (c *Client) Logout(ctx context.Context) (*transport.Envelope[struct{}], error) {
	return call[struct{}](ctx, c, transport.Request{Method: http.MethodPost, Path: "/player/logout"})
}
