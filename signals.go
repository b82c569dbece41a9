package respond

import "github.com/zoobzio/capitan"

// Engine lifecycle signals.
var (
	// EngineStarted is emitted when an Engine finishes initialization.
	EngineStarted = capitan.NewSignal(
		"respond.engine.started",
		"Engine initialization completed",
	)

	// EngineStopped is emitted when an Engine is torn down.
	EngineStopped = capitan.NewSignal(
		"respond.engine.stopped",
		"Engine torn down",
	)

	// EngineModeResolved is emitted once the structural mode is derived from the host's parent.
	EngineModeResolved = capitan.NewSignal(
		"respond.engine.mode.resolved",
		"Structural mode resolved",
	)
)

// Injection signals.
var (
	// InjectionCompleted is emitted after fallback nodes are inserted.
	InjectionCompleted = capitan.NewSignal(
		"respond.injection.completed",
		"Fallback nodes injected",
	)

	// InjectionSkipped is emitted when fallback-chain mode cannot inject nodes.
	InjectionSkipped = capitan.NewSignal(
		"respond.injection.skipped",
		"Fallback node injection skipped",
	)
)

// Apply signals.
var (
	// ActivationReceived is emitted when a breakpoint activation reaches a live engine.
	ActivationReceived = capitan.NewSignal(
		"respond.activation.received",
		"Breakpoint activation received",
	)

	// ValueApplied is emitted after a value is written to a node.
	ValueApplied = capitan.NewSignal(
		"respond.value.applied",
		"Value written to node",
	)

	// ValueApplyFailed is emitted when the apply pipeline rejects a write.
	ValueApplyFailed = capitan.NewSignal(
		"respond.value.apply.failed",
		"Apply pipeline failed",
	)
)

// Binding signals.
var (
	// BindingStarted is emitted when a Binding begins watching.
	BindingStarted = capitan.NewSignal(
		"respond.binding.started",
		"Binding watching started",
	)

	// BindingStopped is emitted when a Binding stops watching.
	BindingStopped = capitan.NewSignal(
		"respond.binding.stopped",
		"Binding watching stopped",
	)

	// BindingStateChanged is emitted when a Binding transitions between states.
	BindingStateChanged = capitan.NewSignal(
		"respond.binding.state.changed",
		"Binding state transition",
	)

	// BindingChangeReceived is emitted when raw data is received from the watcher.
	BindingChangeReceived = capitan.NewSignal(
		"respond.binding.change.received",
		"Raw change received from watcher",
	)

	// BindingDecodeFailed is emitted when a value document cannot be decoded or validated.
	BindingDecodeFailed = capitan.NewSignal(
		"respond.binding.decode.failed",
		"Value document rejected",
	)

	// BindingApplied is emitted when a value document is pushed into the engine.
	BindingApplied = capitan.NewSignal(
		"respond.binding.applied",
		"Value document applied",
	)
)
