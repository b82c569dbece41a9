// Package testing provides test utilities for respond engines: an in-memory
// node tree, a manually driven activation source, and polling helpers.
package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/respond"
)

// Node is an element in a Tree.
type Node struct {
	Tag      string
	Parent   *Node
	Children []*Node

	attrs map[string]string
}

// Tree is an in-memory respond.Renderer. It is safe for concurrent use;
// read attributes through Tree.Attr when an engine may be writing.
type Tree struct {
	mu     sync.Mutex
	writes int
}

// NewTree creates an empty Tree.
func NewTree() *Tree {
	return &Tree{}
}

// CreateElement returns a detached node.
func (t *Tree) CreateElement(tag string) *Node {
	return &Node{Tag: tag, attrs: make(map[string]string)}
}

// SetAttribute sets or overwrites an attribute.
func (t *Tree) SetAttribute(node *Node, name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.attrs == nil {
		node.attrs = make(map[string]string)
	}
	node.attrs[name] = value
	t.writes++
}

// InsertBefore inserts node into parent before ref, or appends when ref is
// not a child of parent.
func (t *Tree) InsertBefore(parent, node, ref *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node.Parent = parent
	for i, c := range parent.Children {
		if c == ref {
			parent.Children = append(parent.Children[:i], append([]*Node{node}, parent.Children[i:]...)...)
			return
		}
	}
	parent.Children = append(parent.Children, node)
}

// Parent returns node's parent.
func (t *Tree) Parent(node *Node) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return node.Parent, node.Parent != nil
}

// Tag returns node's tag.
func (t *Tree) Tag(node *Node) string {
	return node.Tag
}

// Append attaches children to parent, in order.
func (t *Tree) Append(parent *Node, children ...*Node) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range children {
		c.Parent = parent
		parent.Children = append(parent.Children, c)
	}
	return parent
}

// Attr returns an attribute of node.
func (t *Tree) Attr(node *Node, name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := node.attrs[name]
	return v, ok
}

// Children returns a copy of parent's children.
func (t *Tree) Children(parent *Node) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Node, len(parent.Children))
	copy(out, parent.Children)
	return out
}

// Writes returns the number of SetAttribute calls so far.
func (t *Tree) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}

var _ respond.Renderer[*Node] = (*Tree)(nil)

// ManualSource is a respond.Source driven by the test. Fire delivers to live
// subscriptions synchronously; Stale returns every callback ever registered,
// canceled or not, to simulate late deliveries.
type ManualSource struct {
	mu      sync.Mutex
	subs    map[int]func(respond.Activation)
	all     []func(respond.Activation)
	next    int
	cancels int
}

// NewManualSource creates a ManualSource.
func NewManualSource() *ManualSource {
	return &ManualSource{subs: make(map[int]func(respond.Activation))}
}

// Subscribe registers fn; family is ignored.
func (s *ManualSource) Subscribe(_ string, fn func(respond.Activation)) respond.Subscription {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.all = append(s.all, fn)
	s.mu.Unlock()

	var once sync.Once
	return respond.SubscriptionFunc(func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.cancels++
			s.mu.Unlock()
		})
	})
}

// Fire delivers an activation for suffix to every live subscription.
func (s *ManualSource) Fire(suffix respond.Suffix) {
	s.mu.Lock()
	fns := make([]func(respond.Activation), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(respond.Activation{Suffix: suffix})
	}
}

// Live returns the number of uncanceled subscriptions.
func (s *ManualSource) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Cancels returns how many subscriptions were canceled.
func (s *ManualSource) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

// Stale returns every callback ever registered.
func (s *ManualSource) Stale() []func(respond.Activation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(respond.Activation), len(s.all))
	copy(out, s.all)
	return out
}

var _ respond.Source = (*ManualSource)(nil)

// Standalone builds a host img with no container parent.
func Standalone(tree *Tree) *Node {
	return tree.CreateElement("img")
}

// Picture builds a picture container holding a single img and returns both.
func Picture(tree *Tree) (picture, img *Node) {
	picture = tree.CreateElement("picture")
	img = tree.CreateElement("img")
	tree.Append(picture, img)
	return picture, img
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireAttr fails the test immediately if node's attribute is not want.
func RequireAttr(t *testing.T, tree *Tree, node *Node, name, want string) {
	t.Helper()
	got, ok := tree.Attr(node, name)
	if !ok {
		t.Fatalf("expected %s=%q, attribute not set", name, want)
	}
	if got != want {
		t.Fatalf("expected %s=%q, got %q", name, want, got)
	}
}

// WaitForAttr waits until node's attribute equals want or timeout occurs.
func WaitForAttr(t *testing.T, tree *Tree, node *Node, name, want string, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		got, ok := tree.Attr(node, name)
		return ok && got == want
	})
}

// WaitForState waits until the binding reaches the expected state.
func WaitForState[N comparable](t *testing.T, b *respond.Binding[N], expected respond.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return b.State() == expected
	})
}
