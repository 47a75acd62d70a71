package state

import (
	"maps"
	"slices"
)

// CloneResult copia la slice di r, cosi' chi riceve uno snapshot non
// condivide il backing array con lo store.
func CloneResult[T any](r AsyncResult[[]T]) AsyncResult[[]T] {
	r.Data = slices.Clone(r.Data)
	return r
}

// CloneResults copia la mappa e la slice di ogni chiave.
func CloneResults[K comparable, T any](m map[K]AsyncResult[[]T]) map[K]AsyncResult[[]T] {
	if m == nil {
		return nil
	}
	out := make(map[K]AsyncResult[[]T], len(m))
	for k, r := range m {
		out[k] = CloneResult(r)
	}
	return out
}

// CloneSlices copia una mappa di slice semplici, es. le history della chat.
func CloneSlices[K comparable, T any](m map[K][]T) map[K][]T {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
