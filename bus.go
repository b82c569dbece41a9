package respond

import (
	"sync"

	"github.com/google/uuid"
)

// Bus is an in-process Source. Publish fans an activation out to every
// subscriber of its family, synchronously and outside the bus lock.
//
// The bus remembers the last activation per family and replays it to new
// subscribers, so an engine that subscribes after the breakpoint engine has
// already settled still sees the current breakpoint.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[uuid.UUID]func(Activation)
	last     map[string]Activation
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]map[uuid.UUID]func(Activation)),
		last:     make(map[string]Activation),
	}
}

// Subscribe registers fn for activations of family.
func (b *Bus) Subscribe(family string, fn func(Activation)) Subscription {
	id := uuid.New()

	b.mu.Lock()
	subs, ok := b.handlers[family]
	if !ok {
		subs = make(map[uuid.UUID]func(Activation))
		b.handlers[family] = subs
	}
	subs[id] = fn
	last, replay := b.last[family]
	b.mu.Unlock()

	if replay {
		fn(last)
	}

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { b.remove(family, id) })
	})
}

// Publish delivers a to all current subscribers of a.Family.
func (b *Bus) Publish(a Activation) {
	b.mu.Lock()
	b.last[a.Family] = a
	subs := b.handlers[a.Family]
	fns := make([]func(Activation), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(a)
	}
}

// Subscribers returns the number of live subscriptions for family.
func (b *Bus) Subscribers(family string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[family])
}

func (b *Bus) remove(family string, id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[family]
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.handlers, family)
	}
}

var _ Source = (*Bus)(nil)
