package ember

import (
	"fmt"

	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/tree"
)

// ElementCollection is the application-tagged container holding a list
// of sibling elements: the top-level message envelope and a Node's
// nested children both use this shape.
type ElementCollection struct {
	tree.Envelope
}

var _ tree.Element = (*ElementCollection)(nil)

func (c *ElementCollection) Kind() tree.Kind         { return tree.KindRoot }
func (c *ElementCollection) Identifier() string      { return "" }
func (c *ElementCollection) ApplyScalars(tree.Element) {}

func (c *ElementCollection) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagElementCollection))
	encodeElementList(w, c.Children())
	w.EndSequence()
}

func (c *ElementCollection) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagElementCollection)); err != nil {
		return err
	}
	children, err := decodeElementList(r)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := c.AddChild(child); err != nil {
			return err
		}
	}
	return r.ExitSequence()
}

// encodeElementList writes each element of elements using its own
// Encode method, dispatching on concrete type the way Decode's type
// switch below dispatches on application tag number.
func encodeElementList(w *ber.Writer, elements []tree.Element) {
	for _, el := range elements {
		switch v := el.(type) {
		case *Node:
			v.Encode(w)
		case *Parameter:
			v.Encode(w)
		case *Matrix:
			v.Encode(w)
		case *Function:
			v.Encode(w)
		case *QualifiedNode:
			v.Encode(w)
		case *QualifiedParameter:
			v.Encode(w)
		case *QualifiedMatrix:
			v.Encode(w)
		case *QualifiedFunction:
			v.Encode(w)
		case *Command:
			v.Encode(w)
		case *InvocationResult:
			v.Encode(w)
		case *ElementCollection:
			v.Encode(w)
		}
	}
}

// decodeElementList reads elements until the current frame is exhausted,
// dispatching on each element's application tag number the way a JSON
// decoder would switch on a "type" field.
func decodeElementList(r *ber.Reader) ([]tree.Element, error) {
	var out []tree.Element
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return nil, err
		}

		var el tree.Element
		switch tag.Number {
		case tagNode:
			v := &Node{}
			err = v.Decode(r)
			el = v
		case tagParameter:
			v := &Parameter{}
			err = v.Decode(r)
			el = v
		case tagMatrix:
			v := &Matrix{}
			err = v.Decode(r)
			el = v
		case tagFunction:
			v := &Function{}
			err = v.Decode(r)
			el = v
		case tagQualifiedNode:
			v := &QualifiedNode{}
			err = v.Decode(r)
			el = v
		case tagQualifiedParameter:
			v := &QualifiedParameter{}
			err = v.Decode(r)
			el = v
		case tagQualifiedMatrix:
			v := &QualifiedMatrix{}
			err = v.Decode(r)
			el = v
		case tagQualifiedFunction:
			v := &QualifiedFunction{}
			err = v.Decode(r)
			el = v
		case tagCommand:
			v := &Command{}
			err = v.Decode(r)
			el = v
		case tagInvocationResult:
			v := &InvocationResult{}
			err = v.Decode(r)
			el = v
		case tagElementCollection:
			v := &ElementCollection{}
			err = v.Decode(r)
			el = v
		default:
			err = emberrors.WrapInvalid(
				fmt.Errorf("unknown application tag %d", tag.Number), "ember", "decodeElementList", "decode")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// DecodeMessage decodes one top-level Ember+ message: an
// ElementCollection wrapping the root's children, possibly mixing
// positional and Qualified* siblings in one pass.
func DecodeMessage(data []byte) (*ElementCollection, error) {
	r := ber.NewReader(data)
	var c ElementCollection
	if err := c.Decode(r); err != nil {
		return nil, err
	}
	return &c, nil
}

// EncodeMessage encodes a top-level message envelope to bytes.
func EncodeMessage(c *ElementCollection) []byte {
	w := ber.NewWriter()
	c.Encode(w)
	return w.Bytes()
}
