package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// Node is a container in the Ember+ tree: it carries no value of its own,
// only identity and children.
type Node struct {
	tree.Envelope

	IdentifierField string
	Description     *string
	IsOnline        *bool
	SchemaIdentifiers []string
}

var _ tree.Element = (*Node)(nil)

func (n *Node) Kind() tree.Kind      { return tree.KindNode }
func (n *Node) Identifier() string   { return n.IdentifierField }

// ApplyScalars overwrites fields present on fragment; a nil pointer means
// "absent from the fragment", not "explicitly cleared".
func (n *Node) ApplyScalars(fragment tree.Element) {
	f, ok := fragment.(*Node)
	if !ok {
		q, ok := fragment.(*QualifiedNode)
		if !ok {
			return
		}
		f = &q.Node
	}
	if f.IdentifierField != "" {
		n.IdentifierField = f.IdentifierField
	}
	if f.Description != nil {
		n.Description = f.Description
	}
	if f.IsOnline != nil {
		n.IsOnline = f.IsOnline
	}
	if f.SchemaIdentifiers != nil {
		n.SchemaIdentifiers = f.SchemaIdentifiers
	}
}

// Encode writes the node's own application-tagged sequence, including its
// children nested as a context-5 ElementCollection.
func (n *Node) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagNode))
	n.encodeFields(w)
	w.EndSequence()
}

func (n *Node) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(n.Number()))
	w.EndSequence()

	if n.IdentifierField != "" {
		w.StartSequence(ctx(1))
		w.WriteString(n.IdentifierField)
		w.EndSequence()
	}
	if n.Description != nil {
		w.StartSequence(ctx(2))
		w.WriteString(*n.Description)
		w.EndSequence()
	}
	if n.IsOnline != nil {
		w.StartSequence(ctx(3))
		w.WriteBoolean(*n.IsOnline)
		w.EndSequence()
	}
	if n.SchemaIdentifiers != nil {
		w.StartSequence(ctx(4))
		for _, s := range n.SchemaIdentifiers {
			w.WriteString(s)
		}
		w.EndSequence()
	}
	if len(n.Children()) > 0 {
		w.StartSequence(ctx(5))
		encodeElementList(w, n.Children())
		w.EndSequence()
	}
}

// Decode reads a node's application-tagged sequence, including any
// Application(tagElementCollection)-wrapped children.
func (n *Node) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagNode)); err != nil {
		return err
	}
	if err := n.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (n *Node) decodeFields(r *ber.Reader) error {
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			if err := r.EnterSequence(ctx(0)); err != nil {
				return err
			}
			num, err := r.ReadInteger()
			if err != nil {
				return err
			}
			n.SetNumber(int(num))
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 1:
			if err := r.EnterSequence(ctx(1)); err != nil {
				return err
			}
			s, err := r.ReadString()
			if err != nil {
				return err
			}
			n.IdentifierField = s
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 2:
			if err := r.EnterSequence(ctx(2)); err != nil {
				return err
			}
			s, err := r.ReadString()
			if err != nil {
				return err
			}
			n.Description = &s
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 3:
			if err := r.EnterSequence(ctx(3)); err != nil {
				return err
			}
			b, err := r.ReadBoolean()
			if err != nil {
				return err
			}
			n.IsOnline = &b
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 4:
			if err := r.EnterSequence(ctx(4)); err != nil {
				return err
			}
			var ids []string
			for r.Remaining() {
				s, err := r.ReadString()
				if err != nil {
					return err
				}
				ids = append(ids, s)
			}
			n.SchemaIdentifiers = ids
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 5:
			if err := r.EnterSequence(ctx(5)); err != nil {
				return err
			}
			children, err := decodeElementList(r)
			if err != nil {
				return err
			}
			for _, c := range children {
				if err := n.AddChild(c); err != nil {
					return err
				}
			}
			if err := r.ExitSequence(); err != nil {
				return err
			}
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return nil
}
