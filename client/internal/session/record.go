package session

import (
	"net/http"
	"time"

	"NarcissusTCG/client/internal/api"
)

// CurrentVersion e' la versione scritta da Encode.
const CurrentVersion = 2

// Record e' l'unico record persistito per profilo: identita' e flag di sessione.
type Record struct {
	Version         int            `json:"version"`
	User            *api.UserSelf  `json:"user"`
	IsAuthenticated bool           `json:"is_authenticated"`
	HasCheckedAuth  bool           `json:"has_checked_auth"`
	Cookies         []StoredCookie `json:"cookies,omitempty"`
	SavedAt         time.Time      `json:"saved_at"`
}

// StoredCookie e' la parte persistibile di un cookie di sessione.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Empty ritorna il record di un client non autenticato.
func Empty() Record {
	return Record{Version: CurrentVersion}
}

// FromHTTP converte i cookie del jar.
func FromHTTP(cookies []*http.Cookie) []StoredCookie {
	out := make([]StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, StoredCookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// HTTPCookies riconverte i cookie persistiti per il jar.
func (r Record) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(r.Cookies))
	for _, c := range r.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}
