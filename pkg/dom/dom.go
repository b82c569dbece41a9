// Package dom provides a respond.Renderer over golang.org/x/net/html nodes,
// for resolving responsive attributes in server-rendered markup.
package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Renderer mutates an x/net/html node tree.
type Renderer struct{}

// CreateElement returns a detached element node.
func (Renderer) CreateElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// SetAttribute sets or overwrites a non-namespaced attribute.
func (Renderer) SetAttribute(node *html.Node, name, value string) {
	for i := range node.Attr {
		if node.Attr[i].Namespace == "" && node.Attr[i].Key == name {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: name, Val: value})
}

// InsertBefore inserts node as a child of parent immediately before ref.
// A nil ref appends.
func (Renderer) InsertBefore(parent, node, ref *html.Node) {
	parent.InsertBefore(node, ref)
}

// Parent returns the element parent of node.
func (Renderer) Parent(node *html.Node) (*html.Node, bool) {
	if node.Parent == nil || node.Parent.Type != html.ElementNode {
		return nil, false
	}
	return node.Parent, true
}

// Tag returns the element name of node.
func (Renderer) Tag(node *html.Node) string {
	return node.Data
}

// Attr returns the value of a non-namespaced attribute.
func Attr(node *html.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// FindAll returns every element with the given tag under root, in document
// order.
func FindAll(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// ElementChildren returns the element children of n in order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
