package respond

// Cause records why the engine is writing a value.
type Cause int

const (
	// CauseInit is the initial write onto the host.
	CauseInit Cause = iota

	// CauseInjection is the write onto a freshly created fallback node.
	CauseInjection

	// CauseActivation follows a breakpoint activation.
	CauseActivation

	// CauseUpdate follows a value change for a single key.
	CauseUpdate
)

// String returns the string representation of the cause.
func (c Cause) String() string {
	switch c {
	case CauseInit:
		return "init"
	case CauseInjection:
		return "injection"
	case CauseActivation:
		return "activation"
	case CauseUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Write carries a single attribute write through the apply pipeline.
// Middleware may rewrite Value before the renderer receives it.
type Write[N comparable] struct {
	// Key is the cache key the value was resolved for.
	Key Key

	// Attribute is the attribute name being written.
	Attribute string

	// Value is the resolved value. It is the default value when Key has no
	// value of its own.
	Value string

	// Target is the node receiving the attribute.
	Target N

	// Host reports whether Target is the host node.
	Host bool

	// Cause records what triggered the write.
	Cause Cause
}
