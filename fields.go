package respond

import "github.com/zoobzio/capitan"

// Field keys for Engine and Binding events.
var (
	// KeyEngineID identifies the emitting engine.
	KeyEngineID = capitan.NewStringKey("engine_id")

	// KeyFamily is the attribute family of the engine.
	KeyFamily = capitan.NewStringKey("family")

	// KeyAttribute is the attribute name being synchronized.
	KeyAttribute = capitan.NewStringKey("attribute")

	// KeyMode is the structural mode of the engine.
	KeyMode = capitan.NewStringKey("mode")

	// KeySuffix is the breakpoint suffix involved.
	KeySuffix = capitan.NewStringKey("suffix")

	// KeyKey is the composite cache key of a write.
	KeyKey = capitan.NewStringKey("key")

	// KeyCause is what triggered a write.
	KeyCause = capitan.NewStringKey("cause")

	// KeyNodes is the number of injected fallback nodes.
	KeyNodes = capitan.NewIntKey("nodes")

	// KeyReason explains why an operation was skipped.
	KeyReason = capitan.NewStringKey("reason")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyState is the current state of a Binding.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyChanged is the number of keys a value document changed.
	KeyChanged = capitan.NewIntKey("changed")
)
