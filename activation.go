package respond

// Activation reports the breakpoint currently in effect for an attribute
// family. SuffixNone means no breakpoint is active.
type Activation struct {
	Family string `json:"family"`
	Suffix Suffix `json:"suffix"`
}

// Source delivers activations for a family until the returned Subscription
// is canceled. Callbacks may arrive on any goroutine.
type Source interface {
	Subscribe(family string, fn func(Activation)) Subscription
}

// Subscription is a handle to an active Source registration.
type Subscription interface {
	// Cancel stops delivery. Calling Cancel more than once is a no-op.
	Cancel()
}

// SubscriptionFunc adapts a cancel function to the Subscription interface.
type SubscriptionFunc func()

// Cancel calls f.
func (f SubscriptionFunc) Cancel() {
	f()
}
