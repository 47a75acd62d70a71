package httpx

import "context"

// Chiavi condivise tra client e mock backend per tracciare le richieste.
type contextKey string

// ContextRequestIDKey definisce la chiave per il request id nel context locale.
const ContextRequestIDKey contextKey = "request_id"

// RequestIDHeader e' l'header HTTP che trasporta il request id.
const RequestIDHeader = "X-Request-ID"

// SessionCookieName e' il cookie httponly impostato dal backend al login.
const SessionCookieName = "session_id"

// WithRequestID salva il request id nel context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, id)
}

// RequestID legge il request id dal context, se presente.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextRequestIDKey).(string)
	return id
}
