package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Messaggi mostrati quando il backend non ha risposto.
const (
	msgUnreachable = "server unreachable, check your connection"
	msgTimeout     = "request timed out"
)

// HTTPError e' una risposta non-2xx del backend.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// NetworkError indica che nessuna risposta e' arrivata (rete, timeout, context).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout riporta se l'errore sottostante e' una scadenza.
func (e *NetworkError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ValidationError e' un rifiuto lato client, prima di qualsiasi I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DecodeError indica una risposta 2xx che non e' un envelope valido.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (http %d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrMalformedEnvelope e' usato quando manca il campo success.
var ErrMalformedEnvelope = errors.New("malformed envelope: missing success field")

// IsUnauthorized riporta se err e' un 401 del backend.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == 401
}

// Message estrae un messaggio leggibile da qualsiasi errore del trasporto.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		httpErr  *HTTPError
		netErr   *NetworkError
		valErr   *ValidationError
		decodeEr *DecodeError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Message
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return msgTimeout
		}
		return msgUnreachable
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &decodeEr):
		return "unexpected response from server"
	default:
		return err.Error()
	}
}
