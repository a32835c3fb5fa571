package jogsync

type State int

const (
	StateUninitialized State = iota
	StateLoadingUser
	StateUserLoaded
	StateSyncingJogs
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadingUser:
		return "loading-user"
	case StateUserLoaded:
		return "user-loaded"
	case StateSyncingJogs:
		return "syncing-jogs"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
