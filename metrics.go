package respond

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on engine and binding events.
type MetricsProvider interface {
	// OnActivation is called when a live engine receives a breakpoint activation.
	OnActivation(suffix Suffix)

	// OnApply is called after a value is written to a node.
	OnApply(cause Cause)

	// OnApplyFailure is called when the apply pipeline rejects a write.
	OnApplyFailure(cause Cause)

	// OnInjection is called once fallback nodes are inserted.
	OnInjection(nodes int)

	// OnStateChange is called when a binding transitions between states.
	OnStateChange(from, to State)

	// OnDocument is called after a binding processes a value document.
	// Stage is "decode" when the document was rejected, or "" on success.
	OnDocument(stage string, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnActivation(_ Suffix)                {}
func (NoOpMetricsProvider) OnApply(_ Cause)                      {}
func (NoOpMetricsProvider) OnApplyFailure(_ Cause)               {}
func (NoOpMetricsProvider) OnInjection(_ int)                    {}
func (NoOpMetricsProvider) OnStateChange(_, _ State)             {}
func (NoOpMetricsProvider) OnDocument(_ string, _ time.Duration) {}
