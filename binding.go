package respond

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for value documents.
const DefaultDebounce = 100 * time.Millisecond

// Binding feeds value documents from a Watcher into an Engine. Each document
// is a full snapshot: keys that changed are pushed with SetValue and keys
// that disappeared are removed with ClearValue. An invalid document is
// rejected as a whole and the previous values stay in effect.
type Binding[N comparable] struct {
	watcher        Watcher
	engine         *Engine[N]
	debounce       time.Duration
	startupTimeout time.Duration
	syncMode       bool
	clock          clockz.Clock
	codec          Codec
	metrics        MetricsProvider
	onStop         func(State)

	state        atomic.Int32
	current      atomic.Pointer[Values]
	lastError    atomic.Pointer[error]
	errorHistory *errorRing

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan []byte
}

// Bind creates a Binding that pushes documents from watcher into engine.
//
// Start the binding before the engine so the initial values are in the
// cache when the engine initializes:
//
//	binding := respond.Bind(file.New("hero.yaml"), engine).Codec(respond.YAMLCodec{})
//	if err := binding.Start(ctx); err != nil {
//	    return err
//	}
//	return engine.Start(ctx)
func Bind[N comparable](watcher Watcher, engine *Engine[N]) *Binding[N] {
	b := &Binding[N]{
		watcher:      watcher,
		engine:       engine,
		debounce:     DefaultDebounce,
		clock:        clockz.RealClock,
		codec:        AutoCodec{},
		metrics:      NoOpMetricsProvider{},
		errorHistory: newErrorRing(0),
	}
	b.state.Store(int32(StateLoading))
	return b
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Debounce sets the debounce duration for document processing.
// Documents arriving within this duration are coalesced; the last one wins.
// Default: 100ms. Must be called before Start().
func (b *Binding[N]) Debounce(d time.Duration) *Binding[N] {
	b.debounce = d
	return b
}

// SyncMode enables synchronous processing for testing.
// In sync mode, documents are processed only through Process(), without
// debouncing or goroutines. Must be called before Start().
func (b *Binding[N]) SyncMode() *Binding[N] {
	b.syncMode = true
	return b
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (b *Binding[N]) Clock(clock clockz.Clock) *Binding[N] {
	b.clock = clock
	return b
}

// Codec sets the codec for value documents.
// Default: AutoCodec. Must be called before Start().
func (b *Binding[N]) Codec(codec Codec) *Binding[N] {
	b.codec = codec
	return b
}

// StartupTimeout bounds the wait for the initial document.
// Default: no timeout. Must be called before Start().
func (b *Binding[N]) StartupTimeout(d time.Duration) *Binding[N] {
	b.startupTimeout = d
	return b
}

// Metrics sets a metrics provider. Must be called before Start().
func (b *Binding[N]) Metrics(provider MetricsProvider) *Binding[N] {
	b.metrics = provider
	return b
}

// OnStop sets a callback invoked with the final state when the binding
// stops watching. Must be called before Start().
func (b *Binding[N]) OnStop(fn func(State)) *Binding[N] {
	b.onStop = fn
	return b
}

// ErrorHistorySize sets the number of recent errors to retain.
// Must be called before Start().
func (b *Binding[N]) ErrorHistorySize(n int) *Binding[N] {
	b.errorHistory = newErrorRing(n)
	return b
}

// State returns the current state of the Binding.
func (b *Binding[N]) State() State {
	return State(b.state.Load())
}

// Current returns the last applied document and true, or nil and false if
// no valid document has been applied.
func (b *Binding[N]) Current() (Values, bool) {
	ptr := b.current.Load()
	if ptr == nil {
		return nil, false
	}
	return *ptr, true
}

// LastError returns the last error encountered, or nil.
func (b *Binding[N]) LastError() error {
	ptr := b.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent errors, oldest first.
func (b *Binding[N]) ErrorHistory() []error {
	return b.errorHistory.all()
}

// Start begins watching. It blocks until the first document is processed
// (success or failure), then continues watching asynchronously until ctx is
// canceled.
//
// In sync mode, Start only processes the initial document. Use Process() to
// handle subsequent ones.
func (b *Binding[N]) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("binding already started")
	}
	b.started = true
	b.mu.Unlock()

	capitan.Emit(ctx, BindingStarted,
		KeyEngineID.Field(b.engine.ID()),
		KeyDebounce.Field(b.debounce),
	)

	changes, err := b.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	startupCtx := ctx
	if b.startupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = b.clock.WithTimeout(ctx, b.startupTimeout)
		defer cancel()
	}

	var initialErr error
	select {
	case <-startupCtx.Done():
		if b.startupTimeout > 0 && startupCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("startup timeout: watcher did not emit initial document within %v", b.startupTimeout)
		}
		return startupCtx.Err()
	case raw, ok := <-changes:
		if !ok {
			return fmt.Errorf("watcher closed before emitting initial document")
		}
		capitan.Emit(ctx, BindingChangeReceived)
		initialErr = b.process(ctx, raw)
	}

	if b.syncMode {
		b.changes = changes
		return initialErr
	}

	go b.watch(ctx, changes)

	return initialErr
}

// Process reads and processes the next document from the watcher.
// This is only available in sync mode and is used for deterministic testing.
// Returns false if no document is available or the channel is closed.
func (b *Binding[N]) Process(ctx context.Context) bool {
	if !b.syncMode {
		return false
	}

	select {
	case raw, ok := <-b.changes:
		if !ok {
			return false
		}
		capitan.Emit(ctx, BindingChangeReceived)
		_ = b.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

// process decodes one document and pushes its differences into the engine.
func (b *Binding[N]) process(ctx context.Context, raw []byte) error {
	start := b.clock.Now()
	oldState := b.State()

	values, err := DecodeValues(raw, b.codec)
	if err != nil {
		b.setError(err)
		b.transitionState(ctx, oldState, b.failureState())
		capitan.Emit(ctx, BindingDecodeFailed,
			KeyEngineID.Field(b.engine.ID()),
			KeyError.Field(err.Error()),
		)
		b.metrics.OnDocument("decode", b.clock.Since(start))
		return fmt.Errorf("decode failed: %w", err)
	}

	var prev Values
	if ptr := b.current.Load(); ptr != nil {
		prev = *ptr
	}
	changed, removed := values.Diff(prev)

	for _, s := range changed {
		if err := b.engine.SetValue(ctx, s, values[s]); err != nil {
			return fmt.Errorf("set %s: %w", s, err)
		}
	}
	for _, s := range removed {
		if err := b.engine.ClearValue(ctx, s); err != nil {
			return fmt.Errorf("clear %s: %w", s, err)
		}
	}

	b.current.Store(&values)
	b.lastError.Store(nil)
	b.errorHistory.clear()
	b.transitionState(ctx, oldState, StateHealthy)
	capitan.Emit(ctx, BindingApplied,
		KeyEngineID.Field(b.engine.ID()),
		KeyChanged.Field(len(changed)+len(removed)),
	)
	b.metrics.OnDocument("", b.clock.Since(start))
	return nil
}

// failureState returns the appropriate failure state based on whether
// a valid document has ever been applied.
func (b *Binding[N]) failureState() State {
	if b.current.Load() == nil {
		return StateEmpty
	}
	return StateDegraded
}

// transitionState updates the state and emits a state change event if changed.
func (b *Binding[N]) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	b.state.Store(int32(newState))
	capitan.Emit(ctx, BindingStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	b.metrics.OnStateChange(oldState, newState)
}

// setError stores an error atomically and adds it to the error history.
func (b *Binding[N]) setError(err error) {
	e := err
	b.lastError.Store(&e)
	b.errorHistory.push(err)
}

// watch processes documents from the watcher channel with debouncing.
func (b *Binding[N]) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		finalState := b.State()
		capitan.Emit(ctx, BindingStopped,
			KeyState.Field(finalState.String()),
		)
		if b.onStop != nil {
			b.onStop(finalState)
		}
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = b.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			capitan.Emit(ctx, BindingChangeReceived)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = b.clock.NewTimer(b.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(b.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = b.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
