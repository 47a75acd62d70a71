package state

import "sync"

// Store e' un contenitore osservabile di stato, sicuro per la concorrenza.
// Le mutazioni passano da Update; le letture ricevono una copia.
type Store[S any] struct {
	// notifyMu serializza mutazione e consegna, cosi' gli observer
	// ricevono gli snapshot nello stesso ordine delle mutazioni.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    S
	clone    func(S) S
	subs     map[int]func(S)
	nextSub  int
}

// NewStore crea lo store. clone deve copiare in profondita' mappe e puntatori
// mutabili; nil va bene per stati composti solo da valori.
func NewStore[S any](initial S, clone func(S) S) *Store[S] {
	if clone == nil {
		clone = func(s S) S { return s }
	}
	return &Store[S]{state: initial, clone: clone, subs: make(map[int]func(S))}
}

// Snapshot ritorna una copia dello stato corrente.
func (s *Store[S]) Snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.state)
}

// Update applica fn in modo atomico e notifica gli observer.
// Gli observer non devono chiamare Update in modo sincrono.
func (s *Store[S]) Update(fn func(*S)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snap := s.clone(s.state)
	subs := make([]func(S), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// Subscribe registra un observer e ritorna la funzione per rimuoverlo.
func (s *Store[S]) Subscribe(fn func(S)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
