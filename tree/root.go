package tree

// Root is the sentinel element owning the top-level nodes of a session's
// tree mirror. It has no number or identifier of its own; GetDirectory
// at the root accepts any top-level children whose parent is root.
type Root struct {
	Envelope
}

// NewRoot returns an empty Root ready to receive top-level children.
func NewRoot() *Root {
	return &Root{}
}

func (r *Root) Kind() Kind { return KindRoot }

func (r *Root) Identifier() string { return "" }

// ApplyScalars is a no-op for Root: the root carries no scalar fields of
// its own, only children.
func (r *Root) ApplyScalars(Element) {}

// Clear detaches every child, the root-only destruction operation used
// when a session ends or a caller explicitly resets the local mirror.
func (r *Root) Clear() {
	r.children = nil
	r.byNumber = nil
}
