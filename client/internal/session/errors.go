package session

import "errors"

var (
	// ErrNotFound indica che non esiste un record per il profilo.
	ErrNotFound = errors.New("session record not found")
	// ErrIncompatibleRecord indica un record di una versione sconosciuta.
	ErrIncompatibleRecord = errors.New("session record has an incompatible version")
)
