package respond

// State represents the current state of a Binding.
type State int32

const (
	// StateLoading indicates the Binding has not yet processed a document.
	StateLoading State = iota

	// StateHealthy indicates the last document was applied.
	StateHealthy

	// StateDegraded indicates the last document was rejected. Values from the
	// previous valid document remain in the engine.
	StateDegraded

	// StateEmpty indicates the initial document was rejected and no valid
	// document has ever been applied.
	StateEmpty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Mode is the structural mode of an Engine.
type Mode int32

const (
	// ModeStandalone writes every value onto the host node.
	ModeStandalone Mode = iota

	// ModeFallbackChain injects one node per breakpoint in use before the
	// host, which remains the final unconditional alternative.
	ModeFallbackChain
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeFallbackChain:
		return "fallback-chain"
	default:
		return "unknown"
	}
}
