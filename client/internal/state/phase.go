package state

// Phase e' il ciclo di vita di un risultato asincrono.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText rende leggibile la fase nei dump JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CanTransition riporta se from -> to e' ammesso.
// Il ritorno a idle avviene solo con Reset.
func CanTransition(from, to Phase) bool {
	switch to {
	case PhaseLoading:
		return true
	case PhaseSuccess, PhaseError:
		return from == PhaseLoading
	default:
		return false
	}
}
