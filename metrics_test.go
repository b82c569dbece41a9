package respond

import (
	"testing"
	"time"
)

func TestNoOpMetricsProvider_DoesNotPanic(_ *testing.T) {
	var m NoOpMetricsProvider

	m.OnActivation(SuffixMD)
	m.OnApply(CauseInit)
	m.OnApplyFailure(CauseUpdate)
	m.OnInjection(3)
	m.OnStateChange(StateLoading, StateHealthy)
	m.OnDocument("decode", 5*time.Millisecond)
}

func TestNoOpMetricsProvider_Embeddable(t *testing.T) {
	type partial struct {
		NoOpMetricsProvider
		injected int
	}
	p := &partial{}

	var m MetricsProvider = p
	m.OnApply(CauseActivation)
	if p.injected != 0 {
		t.Error("expected embedded no-op not to touch fields")
	}
}
