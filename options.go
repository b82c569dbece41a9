package respond

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the apply pipeline of an Engine. Options wrap the final
// renderer write with middleware that may observe, rewrite or veto values.
//
// Instance configuration (attribute, source, registry, etc.) is handled via
// chainable methods on the Engine before calling Start().
type Option[N comparable] func(pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline[N comparable](terminal pipz.Chainable[*Write[N]], opts []Option[N]) pipz.Chainable[*Write[N]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------
// These wrap the whole apply pipeline. They matter when middleware calls out
// to something that can fail or stall, such as a URL signing service.

// WithRetry retries a failed write immediately, up to maxAttempts times.
func WithRetry[N comparable](maxAttempts int) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff retries a failed write with exponentially increasing delays
// starting at baseDelay.
func WithBackoff[N comparable](maxAttempts int, baseDelay time.Duration) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout fails a write that takes longer than d. The engine lock is held
// while a write runs, so keep d short.
func WithTimeout[N comparable](d time.Duration) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithFallback tries each fallback in order when the pipeline fails.
func WithFallback[N comparable](fallbacks ...pipz.Chainable[*Write[N]]) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		all := append([]pipz.Chainable[*Write[N]]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithCircuitBreaker rejects writes for recovery after failures consecutive
// failures. Rejected writes leave their targets untouched and are recorded
// like any other failed write.
func WithCircuitBreaker[N comparable](failures int, recovery time.Duration) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithErrorHandler passes write failures to handler. The error still
// propagates to the engine.
func WithErrorHandler[N comparable](handler pipz.Chainable[*pipz.Error[*Write[N]]]) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors (Use*)
// -----------------------------------------------------------------------------

// WithMiddleware runs processors in order before the renderer write.
//
// Example:
//
//	respond.New[*html.Node](img, renderer,
//	    respond.WithMiddleware(
//	        respond.UseTransform[*html.Node]("cdn", rewriteHost),
//	        respond.UseEffect[*html.Node]("audit", record),
//	    ),
//	)
func WithMiddleware[N comparable](processors ...pipz.Chainable[*Write[N]]) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		all := make([]pipz.Chainable[*Write[N]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// WithFilter skips the renderer write entirely when condition returns false.
func WithFilter[N comparable](name string, condition func(context.Context, *Write[N]) bool) Option[N] {
	return func(p pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
		return pipz.NewFilter(pipz.Name(name), condition, p)
	}
}

// UseTransform creates a processor that rewrites the write. Cannot fail.
func UseTransform[N comparable](name string, fn func(context.Context, *Write[N]) *Write[N]) pipz.Chainable[*Write[N]] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can rewrite the write and fail. A failed
// write leaves the target attribute untouched and is recorded in LastError.
func UseApply[N comparable](name string, fn func(context.Context, *Write[N]) (*Write[N], error)) pipz.Chainable[*Write[N]] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that observes the write without changing it.
func UseEffect[N comparable](name string, fn func(context.Context, *Write[N]) error) pipz.Chainable[*Write[N]] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseMutate creates a processor that rewrites the write only when condition
// returns true.
func UseMutate[N comparable](name string, transformer func(context.Context, *Write[N]) *Write[N], condition func(context.Context, *Write[N]) bool) pipz.Chainable[*Write[N]] {
	return pipz.Mutate(pipz.Name(name), transformer, condition)
}

// UseEnrich creates a processor that attempts an optional rewrite. When fn
// fails the original write continues unchanged.
func UseEnrich[N comparable](name string, fn func(context.Context, *Write[N]) (*Write[N], error)) pipz.Chainable[*Write[N]] {
	return pipz.Enrich(pipz.Name(name), fn)
}

// UseRetry wraps a single processor with immediate retries.
func UseRetry[N comparable](maxAttempts int, processor pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
	return pipz.NewRetry("retry", processor, maxAttempts)
}

// UseTimeout bounds a single processor.
func UseTimeout[N comparable](d time.Duration, processor pipz.Chainable[*Write[N]]) pipz.Chainable[*Write[N]] {
	return pipz.NewTimeout("timeout", processor, d)
}

// UseRateLimit creates a token bucket limiter; writes wait for a token.
func UseRateLimit[N comparable](rate float64, burst int) pipz.Chainable[*Write[N]] {
	return pipz.NewRateLimiter[*Write[N]]("rate-limiter", rate, burst)
}
