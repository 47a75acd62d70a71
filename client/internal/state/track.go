package state

// Track porta slot in loading, esegue fetch fuori dal lock e applica
// l'esito solo se la richiesta e' ancora la piu' recente per quello slot.
func Track[S, T any](st *Store[S], slot func(*S) *AsyncResult[T], fetch func() (T, string, bool)) bool {
	var tok Token
	st.Update(func(s *S) { tok = slot(s).Begin() })

	data, msg, ok := fetch()

	st.Update(func(s *S) {
		if ok {
			slot(s).Succeed(tok, data)
			return
		}
		slot(s).Fail(tok, msg)
	})
	return ok
}

// TrackKey e' Track per i sotto-stati indicizzati per chiave (es. per id).
func TrackKey[S any, K comparable, T any](st *Store[S], slots func(*S) map[K]AsyncResult[T], key K, fetch func() (T, string, bool)) bool {
	var tok Token
	st.Update(func(s *S) {
		UpdateKey(slots(s), key, func(r *AsyncResult[T]) { tok = r.Begin() })
	})

	data, msg, ok := fetch()

	st.Update(func(s *S) {
		UpdateKey(slots(s), key, func(r *AsyncResult[T]) {
			if ok {
				r.Succeed(tok, data)
				return
			}
			r.Fail(tok, msg)
		})
	})
	return ok
}

// MsgBusy e' l'errore registrato quando un'azione con la stessa chiave e'
// gia' in volo.
const MsgBusy = "action already in progress"

// TrackAction esegue una mutazione identificata da key. Ogni key ha il suo
// slot in actions, cosi' un'azione non scarta l'esito di un'altra; last
// riporta l'esito dell'ultima azione conclusa, qualunque sia.
func TrackAction[S any](st *Store[S], actions func(*S) map[string]Status, last func(*S) *Status, key string, call func() (string, bool)) bool {
	var tok Token
	st.Update(func(s *S) {
		UpdateKey(actions(s), key, func(r *Status) { tok = r.Begin() })
		last(s).Begin()
	})

	msg, ok := call()

	st.Update(func(s *S) {
		UpdateKey(actions(s), key, func(r *Status) {
			if ok {
				r.Succeed(tok, struct{}{})
				return
			}
			r.Fail(tok, msg)
		})
		last(s).Settle(ok, msg)
	})
	return ok
}

// Reject annota su key un'azione rifiutata dal guard. La fase resta quella
// dell'azione gia' in volo, che alla fine scrivera' il proprio esito.
func Reject[S any](st *Store[S], actions func(*S) map[string]Status, key string) {
	st.Update(func(s *S) {
		UpdateKey(actions(s), key, func(r *Status) { r.Error = MsgBusy })
	})
}
