package respond

// Renderer is the node tree the engine reads and mutates. N is the
// implementation's node handle. All calls are synchronous and assumed to
// succeed on a valid node.
type Renderer[N comparable] interface {
	// CreateElement returns a new detached element with the given tag.
	CreateElement(tag string) N

	// SetAttribute sets or overwrites an attribute on node.
	SetAttribute(node N, name, value string)

	// InsertBefore inserts node into parent immediately before ref.
	InsertBefore(parent, node, ref N)

	// Parent returns the structural parent of node, if attached.
	Parent(node N) (N, bool)

	// Tag returns the element name of node.
	Tag(node N) string
}
