package state

// Token identifica una richiesta avviata con Begin.
type Token uint64

// AsyncResult e' il contenitore di un dato caricato dal backend.
// Durante loading e dopo un errore il dato precedente resta visibile.
type AsyncResult[T any] struct {
	Data  T
	Phase Phase
	Error string

	seq Token
}

// Begin passa a loading e ritorna il token della nuova richiesta.
// Ogni token precedente diventa obsoleto.
func (r *AsyncResult[T]) Begin() Token {
	r.seq++
	r.Phase = PhaseLoading
	return r.seq
}

// Current riporta se tok e' l'ultima richiesta avviata e ancora in corso.
func (r *AsyncResult[T]) Current(tok Token) bool {
	return tok == r.seq && r.Phase == PhaseLoading
}

// Succeed applica il dato solo se tok e' ancora corrente.
func (r *AsyncResult[T]) Succeed(tok Token, data T) bool {
	if !r.Current(tok) {
		return false
	}
	r.Data = data
	r.Phase = PhaseSuccess
	r.Error = ""
	return true
}

// Fail registra l'errore mantenendo l'ultimo dato noto.
func (r *AsyncResult[T]) Fail(tok Token, msg string) bool {
	if !r.Current(tok) {
		return false
	}
	r.Phase = PhaseError
	r.Error = msg
	return true
}

// Settle registra l'esito senza controllo del token. Serve agli slot che
// riassumono azioni indipendenti, dove ogni esito va mostrato.
func (r *AsyncResult[T]) Settle(ok bool, msg string) {
	if ok {
		r.Phase = PhaseSuccess
		r.Error = ""
		return
	}
	r.Phase = PhaseError
	r.Error = msg
}

// Reset torna allo stato iniziale e invalida le richieste in volo.
func (r *AsyncResult[T]) Reset() {
	var zero T
	r.seq++
	r.Data = zero
	r.Phase = PhaseIdle
	r.Error = ""
}

// Status e' un AsyncResult senza dato, usato per le azioni di mutazione.
type Status = AsyncResult[struct{}]

// UpdateKey modifica il sotto-stato di una chiave in una mappa di risultati.
func UpdateKey[K comparable, T any](m map[K]AsyncResult[T], key K, fn func(*AsyncResult[T])) {
	r := m[key]
	fn(&r)
	m[key] = r
}
