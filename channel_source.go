package respond

import "sync"

// ChannelSource adapts a channel of activations into a Source. Each
// subscription forwards matching activations from the channel on its own
// goroutine until canceled or the channel closes.
//
// Activations with an empty Family are delivered to every subscriber.
type ChannelSource struct {
	ch <-chan Activation
}

// NewChannelSource creates a ChannelSource reading from ch.
func NewChannelSource(ch <-chan Activation) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Subscribe starts forwarding activations for family to fn.
func (s *ChannelSource) Subscribe(family string, fn func(Activation)) Subscription {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case a, ok := <-s.ch:
				if !ok {
					return
				}
				if a.Family != "" && a.Family != family {
					continue
				}
				select {
				case <-done:
					return
				default:
				}
				fn(a)
			}
		}
	}()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { close(done) })
	})
}

var _ Source = (*ChannelSource)(nil)
