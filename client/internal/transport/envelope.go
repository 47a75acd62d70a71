package transport

import "net/url"

// Envelope e' la forma unica di ogni risposta JSON del backend.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Request descrive una chiamata: metodo, percorso e posizione dei parametri.
type Request struct {
	Method string
	// Route e' il template del percorso, usato per log e metriche.
	Route  string
	Path   string
	Query  url.Values
	Body   any
	Upload *Upload
}

// Upload e' un file inviato come multipart/form-data.
type Upload struct {
	Field    string
	Filename string
	Content  []byte
}

// Outcome riduce errore di trasporto ed envelope a un messaggio per lo store.
// failed e' true sia per errori di rete/HTTP sia per success=false.
func Outcome[T any](env *Envelope[T], err error, fallback string) (msg string, failed bool) {
	if err != nil {
		return Message(err), true
	}
	if env == nil || !env.Success {
		if env != nil && env.Message != "" {
			return env.Message, true
		}
		return fallback, true
	}
	return "", false
}

// Unwrap e' Outcome che ritorna anche il dato in caso di successo.
func Unwrap[T any](env *Envelope[T], err error, fallback string) (data T, msg string, ok bool) {
	if msg, failed := Outcome(env, err, fallback); failed {
		return data, msg, false
	}
	return env.Data, "", true
}
