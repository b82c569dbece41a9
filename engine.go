package respond

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Defaults for Engine configuration.
const (
	DefaultAttribute    = "srcset"
	DefaultContainerTag = "picture"
	DefaultElementTag   = "source"
	MediaAttribute      = "media"
)

// Engine errors.
var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrStopped        = errors.New("engine stopped")
)

// Engine keeps the responsive values of one host node synchronized with the
// active breakpoint.
//
// In standalone mode the host carries whichever value is in effect. When the
// host sits inside a container (a picture element by default) the engine
// instead injects one alternative per breakpoint in use before the host,
// largest range first, and the host keeps the default value as the final
// unconditional alternative.
//
// All entry points are safe to call from any goroutine.
type Engine[N comparable] struct {
	id           string
	host         N
	renderer     Renderer[N]
	pipeline     pipz.Chainable[*Write[N]]
	attribute    string
	family       string
	source       Source
	registry     Registry
	breakpoints  *Breakpoints
	capability   func() bool
	containerTag string
	elementTag   string
	metrics      MetricsProvider
	errorHistory *errorRing
	lastError    atomic.Pointer[error]

	mu      sync.Mutex
	ctx     context.Context
	cache   *Cache
	mode    Mode
	active  Suffix
	nodes   map[Suffix]N
	order   []Suffix
	sub     Subscription
	started bool
	stopped bool

	stopOnce sync.Once
}

// New creates an Engine for host. Values are synchronized onto the
// DefaultAttribute unless Attribute is called before Start.
//
// Pipeline options (With*) wrap the renderer write. Instance configuration
// uses chainable methods before calling Start().
//
// Example:
//
//	engine := respond.New[*html.Node](img, renderer).
//	    Source(bus).
//	    Capability(func() bool { return true })
//
//	engine.SetValue(ctx, respond.SuffixNone, "a.jpg 1x")
//	engine.SetValue(ctx, respond.SuffixMD, "a-md.jpg 1x")
//
//	if err := engine.Start(ctx); err != nil {
//	    return err
//	}
//	defer engine.Stop()
func New[N comparable](host N, renderer Renderer[N], opts ...Option[N]) *Engine[N] {
	e := &Engine[N]{
		id:           uuid.NewString(),
		host:         host,
		renderer:     renderer,
		attribute:    DefaultAttribute,
		breakpoints:  DefaultBreakpoints(),
		capability:   func() bool { return true },
		containerTag: DefaultContainerTag,
		elementTag:   DefaultElementTag,
		metrics:      NoOpMetricsProvider{},
		errorHistory: newErrorRing(0),
		cache:        NewCache(),
		nodes:        make(map[Suffix]N),
	}
	terminal := pipz.Effect(pipz.Name("render"), func(_ context.Context, w *Write[N]) error {
		e.renderer.SetAttribute(w.Target, w.Attribute, w.Value)
		return nil
	})
	e.pipeline = buildPipeline(terminal, opts)
	return e
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Attribute sets the attribute name values are written to. Values already
// supplied through SetValue move to the new name.
// Default: "srcset". Must be called before Start().
func (e *Engine[N]) Attribute(name string) *Engine[N] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Rename(e.attribute, name)
	e.attribute = name
	return e
}

// Family sets the attribute family used for subscriptions and registry
// lookups. Default: the attribute name. Must be called before Start().
func (e *Engine[N]) Family(family string) *Engine[N] {
	e.family = family
	return e
}

// Source binds the activation source. Without a source the engine never
// reacts to breakpoint changes and fallback injection is skipped.
// Must be called before Start().
func (e *Engine[N]) Source(src Source) *Engine[N] {
	e.source = src
	return e
}

// Registry sets the registry consulted for breakpoints in use. By default
// the engine reports the breakpoints of its own breakpoint set that hold a
// value. Must be called before Start().
func (e *Engine[N]) Registry(r Registry) *Engine[N] {
	e.registry = r
	return e
}

// Breakpoints replaces the breakpoint set used by the default registry.
// Must be called before Start().
func (e *Engine[N]) Breakpoints(b *Breakpoints) *Engine[N] {
	e.breakpoints = b
	return e
}

// Capability sets the predicate reporting whether the environment supports
// interactive events. It is consulted once, at injection time; when it
// returns false no fallback nodes are created. Must be called before Start().
func (e *Engine[N]) Capability(fn func() bool) *Engine[N] {
	e.capability = fn
	return e
}

// ContainerTag sets the parent tag that selects fallback-chain mode.
// Default: "picture". Must be called before Start().
func (e *Engine[N]) ContainerTag(tag string) *Engine[N] {
	e.containerTag = tag
	return e
}

// ElementTag sets the tag of injected fallback nodes.
// Default: "source". Must be called before Start().
func (e *Engine[N]) ElementTag(tag string) *Engine[N] {
	e.elementTag = tag
	return e
}

// Metrics sets a metrics provider. Must be called before Start().
func (e *Engine[N]) Metrics(provider MetricsProvider) *Engine[N] {
	e.metrics = provider
	return e
}

// ErrorHistorySize sets the number of recent apply errors to retain.
// Must be called before Start().
func (e *Engine[N]) ErrorHistorySize(n int) *Engine[N] {
	e.errorHistory = newErrorRing(n)
	return e
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// ID returns the engine's unique identifier, as carried on its signals.
func (e *Engine[N]) ID() string {
	return e.id
}

// Mode returns the structural mode resolved at Start.
func (e *Engine[N]) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Active returns the suffix of the last activation received.
func (e *Engine[N]) Active() Suffix {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Value returns the cached value stored for suffix, without fallback.
func (e *Engine[N]) Value(suffix Suffix) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Get(e.key(suffix))
}

// Node returns the fallback node injected for suffix.
func (e *Engine[N]) Node(suffix Suffix) (N, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[suffix]
	return n, ok
}

// Nodes returns the injected fallback nodes in insertion order.
func (e *Engine[N]) Nodes() []N {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]N, 0, len(e.order))
	for _, s := range e.order {
		out = append(out, e.nodes[s])
	}
	return out
}

// LastError returns the last apply error, or nil.
func (e *Engine[N]) LastError() error {
	ptr := e.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent apply errors, oldest first, or nil when error
// history is not enabled.
func (e *Engine[N]) ErrorHistory() []error {
	return e.errorHistory.all()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start initializes the engine: it resolves the structural mode from the
// host's current parent, subscribes to activations, writes the value in
// effect onto the host and, in fallback-chain mode, injects the fallback
// nodes.
//
// Start can only be called once.
func (e *Engine[N]) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	if e.family == "" {
		e.family = e.attribute
	}
	e.ctx = context.WithoutCancel(ctx)
	e.mode = e.resolveMode()
	mode := e.mode
	e.mu.Unlock()

	capitan.Emit(ctx, EngineModeResolved,
		KeyEngineID.Field(e.id),
		KeyFamily.Field(e.family),
		KeyMode.Field(mode.String()),
	)

	// Subscribe before structural setup so an activation delivered during
	// setup is not lost. The callback tolerates an empty node registry.
	var sub Subscription
	if e.source != nil {
		sub = e.source.Subscribe(e.family, e.onActivation)
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		return ErrStopped
	}
	e.sub = sub

	if mode == ModeFallbackChain {
		e.inject(ctx)
	}
	e.applyHost(ctx, CauseInit)
	e.mu.Unlock()

	capitan.Emit(ctx, EngineStarted,
		KeyEngineID.Field(e.id),
		KeyFamily.Field(e.family),
		KeyAttribute.Field(e.attribute),
		KeyMode.Field(mode.String()),
	)
	return nil
}

// Stop tears the engine down. The activation subscription is canceled
// exactly once and the node registry is dropped; injected nodes stay in the
// tree and are released with their container. Activations that arrive
// during or after Stop are ignored.
func (e *Engine[N]) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.stopped = true
		sub := e.sub
		e.sub = nil
		e.mu.Unlock()

		if sub != nil {
			sub.Cancel()
		}

		e.mu.Lock()
		e.nodes = nil
		e.order = nil
		e.mu.Unlock()

		capitan.Emit(context.Background(), EngineStopped,
			KeyEngineID.Field(e.id),
			KeyFamily.Field(e.family),
		)
	})
}

// SetValue stores value for suffix. Values supplied before Start are picked
// up by initialization. After Start the key is re-applied on its own: its
// fallback node if one was injected, otherwise the host when the key is the
// one the host currently resolves.
func (e *Engine[N]) SetValue(ctx context.Context, suffix Suffix, value string) error {
	if !suffix.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownSuffix, string(suffix))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache.Set(e.attribute, suffix, value)
	if !e.started || e.stopped {
		return nil
	}
	e.update(ctx, suffix)
	return nil
}

// ClearValue removes the value stored for suffix and re-applies that key,
// so targets fall back to the default value.
func (e *Engine[N]) ClearValue(ctx context.Context, suffix Suffix) error {
	if !suffix.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownSuffix, string(suffix))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache.Delete(e.key(suffix))
	if !e.started || e.stopped {
		return nil
	}
	e.update(ctx, suffix)
	return nil
}

// -----------------------------------------------------------------------------
// Internals (callers hold e.mu)
// -----------------------------------------------------------------------------

func (e *Engine[N]) key(suffix Suffix) Key {
	return Key{Base: e.attribute, Suffix: suffix}
}

// resolveMode inspects the host's live parent.
func (e *Engine[N]) resolveMode() Mode {
	parent, ok := e.renderer.Parent(e.host)
	if ok && e.renderer.Tag(parent) == e.containerTag {
		return ModeFallbackChain
	}
	return ModeStandalone
}

// inject creates one fallback node per breakpoint in use, largest first,
// each inserted immediately before the host.
func (e *Engine[N]) inject(ctx context.Context) {
	reason := ""
	switch {
	case e.source == nil:
		reason = "no activation source"
	case e.capability != nil && !e.capability():
		reason = "environment lacks interactive events"
	}
	if reason != "" {
		capitan.Emit(ctx, InjectionSkipped,
			KeyEngineID.Field(e.id),
			KeyFamily.Field(e.family),
			KeyReason.Field(reason),
		)
		return
	}

	parent, ok := e.renderer.Parent(e.host)
	if !ok {
		return
	}

	var inUse []Breakpoint
	if e.registry != nil {
		inUse = e.registry.InUse(e.family)
	} else {
		inUse = e.breakpoints.InUseBy(e.cache, e.attribute)
	}

	for _, bp := range inUse {
		if bp.Alias == SuffixNone {
			continue
		}
		if _, dup := e.nodes[bp.Alias]; dup {
			continue
		}
		node := e.renderer.CreateElement(e.elementTag)
		e.renderer.SetAttribute(node, MediaAttribute, bp.MediaQuery)
		e.write(ctx, node, false, e.key(bp.Alias), CauseInjection)
		e.renderer.InsertBefore(parent, node, e.host)
		e.nodes[bp.Alias] = node
		e.order = append(e.order, bp.Alias)
	}

	capitan.Emit(ctx, InjectionCompleted,
		KeyEngineID.Field(e.id),
		KeyFamily.Field(e.family),
		KeyNodes.Field(len(e.order)),
	)
	e.metrics.OnInjection(len(e.order))
}

// onActivation is the Source callback.
func (e *Engine[N]) onActivation(a Activation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	ctx := e.ctx
	e.active = a.Suffix

	capitan.Emit(ctx, ActivationReceived,
		KeyEngineID.Field(e.id),
		KeyFamily.Field(e.family),
		KeySuffix.Field(a.Suffix.String()),
	)
	e.metrics.OnActivation(a.Suffix)

	if node, ok := e.nodes[a.Suffix]; ok {
		e.write(ctx, node, false, e.key(a.Suffix), CauseActivation)
	}
	e.applyHost(ctx, CauseActivation)
}

// hostSuffix is the suffix whose value the host carries: the active one,
// unless an injected node already serves it.
func (e *Engine[N]) hostSuffix() Suffix {
	if _, served := e.nodes[e.active]; served {
		return SuffixNone
	}
	return e.active
}

func (e *Engine[N]) affectsHost(suffix Suffix) bool {
	return suffix == SuffixNone || suffix == e.hostSuffix()
}

// applyHost writes the value in effect for the host.
func (e *Engine[N]) applyHost(ctx context.Context, cause Cause) {
	e.write(ctx, e.host, true, e.key(e.hostSuffix()), cause)
}

// update re-applies a single key.
func (e *Engine[N]) update(ctx context.Context, suffix Suffix) {
	if node, ok := e.nodes[suffix]; ok {
		e.write(ctx, node, false, e.key(suffix), CauseUpdate)
		return
	}
	if e.affectsHost(suffix) {
		e.applyHost(ctx, CauseUpdate)
	}
}

// write resolves k and sends the value through the apply pipeline. A key
// with neither its own value nor a default leaves the target untouched.
func (e *Engine[N]) write(ctx context.Context, target N, host bool, k Key, cause Cause) {
	value, ok := e.cache.Resolve(k)
	if !ok {
		return
	}

	w := &Write[N]{
		Key:       k,
		Attribute: e.attribute,
		Value:     value,
		Target:    target,
		Host:      host,
		Cause:     cause,
	}
	if _, err := e.pipeline.Process(ctx, w); err != nil {
		ptr := err
		e.lastError.Store(&ptr)
		e.errorHistory.push(err)
		capitan.Emit(ctx, ValueApplyFailed,
			KeyEngineID.Field(e.id),
			KeyKey.Field(k.String()),
			KeyCause.Field(cause.String()),
			KeyError.Field(err.Error()),
		)
		e.metrics.OnApplyFailure(cause)
		return
	}

	capitan.Emit(ctx, ValueApplied,
		KeyEngineID.Field(e.id),
		KeyKey.Field(k.String()),
		KeyCause.Field(cause.String()),
	)
	e.metrics.OnApply(cause)
}
