package respond

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

// recordingPipeline builds a pipeline over a terminal that records the
// values it receives.
func recordingPipeline(received *[]string, opts ...Option[string]) pipz.Chainable[*Write[string]] {
	terminal := pipz.Effect(pipz.Name("render"), func(_ context.Context, w *Write[string]) error {
		*received = append(*received, w.Value)
		return nil
	})
	return buildPipeline(terminal, opts)
}

func TestWithMiddleware_RunsInOrderBeforeTerminal(t *testing.T) {
	var order []string
	var received []string

	mark := func(name string) pipz.Chainable[*Write[string]] {
		return UseEffect[string](name, func(_ context.Context, _ *Write[string]) error {
			order = append(order, name)
			return nil
		})
	}
	p := recordingPipeline(&received, WithMiddleware(mark("first"), mark("second")))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first second], got %v", order)
	}
	if len(received) != 1 || received[0] != "a.jpg" {
		t.Errorf("expected terminal to receive a.jpg, got %v", received)
	}
}

func TestUseTransform_RewritesValue(t *testing.T) {
	var received []string
	upper := UseTransform[string]("suffix", func(_ context.Context, w *Write[string]) *Write[string] {
		w.Value += " 2x"
		return w
	})
	p := recordingPipeline(&received, WithMiddleware(upper))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if received[0] != "a.jpg 2x" {
		t.Errorf("expected rewritten value, got %q", received[0])
	}
}

func TestUseApply_FailureStopsWrite(t *testing.T) {
	var received []string
	veto := UseApply[string]("veto", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		return w, errors.New("vetoed")
	})
	p := recordingPipeline(&received, WithMiddleware(veto))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err == nil {
		t.Error("expected error from vetoed write")
	}
	if len(received) != 0 {
		t.Errorf("expected terminal not reached, got %v", received)
	}
}

func TestUseMutate_OnlyWhenConditionHolds(t *testing.T) {
	var received []string
	hostOnly := UseMutate[string]("host-only",
		func(_ context.Context, w *Write[string]) *Write[string] {
			w.Value = "host:" + w.Value
			return w
		},
		func(_ context.Context, w *Write[string]) bool { return w.Host },
	)
	p := recordingPipeline(&received, WithMiddleware(hostOnly))

	ctx := context.Background()
	_, _ = p.Process(ctx, &Write[string]{Value: "a.jpg", Host: true})  //nolint:errcheck // no failing processors
	_, _ = p.Process(ctx, &Write[string]{Value: "b.jpg", Host: false}) //nolint:errcheck // no failing processors

	if received[0] != "host:a.jpg" || received[1] != "b.jpg" {
		t.Errorf("expected [host:a.jpg b.jpg], got %v", received)
	}
}

func TestUseEnrich_FailureContinuesWithOriginal(t *testing.T) {
	var received []string
	enrich := UseEnrich[string]("lookup", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		return nil, errors.New("lookup unavailable")
	})
	p := recordingPipeline(&received, WithMiddleware(enrich))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("expected enrichment failure to be swallowed, got %v", err)
	}
	if len(received) != 1 || received[0] != "a.jpg" {
		t.Errorf("expected original value written, got %v", received)
	}
}

func TestWithFilter_SkipsTerminal(t *testing.T) {
	var received []string
	p := recordingPipeline(&received, WithFilter[string]("default-only", func(_ context.Context, w *Write[string]) bool {
		return w.Key.IsDefault()
	}))

	ctx := context.Background()
	if _, err := p.Process(ctx, &Write[string]{Key: Key{Base: "srcset", Suffix: SuffixMD}, Value: "md.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := p.Process(ctx, &Write[string]{Key: DefaultKey("srcset"), Value: "a.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(received) != 1 || received[0] != "a.jpg" {
		t.Errorf("expected only default written, got %v", received)
	}
}

func TestOptions_LaterOptionWrapsEarlier(t *testing.T) {
	var order []string
	var received []string

	mark := func(name string) Option[string] {
		return WithMiddleware(UseEffect[string](name, func(_ context.Context, _ *Write[string]) error {
			order = append(order, name)
			return nil
		}))
	}
	p := recordingPipeline(&received, mark("inner"), mark("outer"))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("expected [outer inner], got %v", order)
	}
}

func TestWithRetry_RecoversFlakyMiddleware(t *testing.T) {
	var received []string
	attempts := 0
	flaky := UseApply[string]("flaky", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		attempts++
		if attempts < 3 {
			return w, errors.New("temporarily unavailable")
		}
		return w, nil
	})
	p := recordingPipeline(&received, WithMiddleware(flaky), WithRetry[string](3))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(received) != 1 {
		t.Errorf("expected a single write, got %v", received)
	}
}

func TestWithFallback_UsesAlternative(t *testing.T) {
	var received []string
	broken := UseApply[string]("sign", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		return w, errors.New("signer down")
	})
	unsigned := UseEffect[string]("unsigned", func(_ context.Context, w *Write[string]) error {
		received = append(received, "unsigned:"+w.Value)
		return nil
	})
	p := recordingPipeline(&received, WithMiddleware(broken), WithFallback(unsigned))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if len(received) != 1 || received[0] != "unsigned:a.jpg" {
		t.Errorf("expected fallback write, got %v", received)
	}
}

func TestWithErrorHandler_ObservesFailures(t *testing.T) {
	var received []string
	var observed int
	handler := pipz.Effect(pipz.Name("observe"), func(_ context.Context, _ *pipz.Error[*Write[string]]) error {
		observed++
		return nil
	})
	veto := UseApply[string]("veto", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		return w, errors.New("vetoed")
	})
	p := recordingPipeline(&received, WithMiddleware(veto), WithErrorHandler(handler))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err == nil {
		t.Error("expected error to propagate")
	}
	if observed != 1 {
		t.Errorf("expected handler to observe 1 failure, got %d", observed)
	}
}

func TestWithCircuitBreaker_OpensAfterFailures(t *testing.T) {
	var received []string
	calls := 0
	failing := UseApply[string]("failing", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		calls++
		return w, errors.New("down")
	})
	p := recordingPipeline(&received, WithMiddleware(failing), WithCircuitBreaker[string](2, time.Minute))

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := p.Process(ctx, &Write[string]{Value: "a.jpg"}); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}
	if calls != 2 {
		t.Errorf("expected circuit to stop calls after 2 failures, got %d", calls)
	}
}

func TestUseTimeout_FailsSlowProcessor(t *testing.T) {
	var received []string
	slow := UseEffect[string]("slow", func(ctx context.Context, _ *Write[string]) error {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	p := recordingPipeline(&received, WithMiddleware(UseTimeout(10*time.Millisecond, slow)))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err == nil {
		t.Error("expected timeout error")
	}
}

func TestUseRetryAndRateLimit_Compose(t *testing.T) {
	var received []string
	attempts := 0
	flaky := UseApply[string]("flaky", func(_ context.Context, w *Write[string]) (*Write[string], error) {
		attempts++
		if attempts == 1 {
			return w, errors.New("once")
		}
		return w, nil
	})
	p := recordingPipeline(&received, WithMiddleware(
		UseRateLimit[string](1000, 10),
		UseRetry(2, flaky),
	))

	if _, err := p.Process(context.Background(), &Write[string]{Value: "a.jpg"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(received) != 1 {
		t.Errorf("expected one write, got %v", received)
	}
}
