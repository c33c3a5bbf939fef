package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// Parameter is a scalar leaf in the Ember+ tree.
type Parameter struct {
	tree.Envelope

	IdentifierField  string
	Description      *string
	Value            Value
	Minimum          *Value
	Maximum          *Value
	AccessField      *Access
	Format           *string
	Enumeration      *string
	Formula          *string
	Step             *Value
	Default          *Value
	Type             *string
	StreamIdentifier *int
	StreamDescriptor *StreamDescription

	// Command is the optional single command child a parameter may carry
	// (e.g. a per-parameter subscribe/unsubscribe affordance); it is not
	// part of the tree's numbered children, so it is not reachable through
	// GetElementByNumber.
	Command *Command
}

var _ tree.Element = (*Parameter)(nil)

func (p *Parameter) Kind() tree.Kind    { return tree.KindParameter }
func (p *Parameter) Identifier() string { return p.IdentifierField }

func (p *Parameter) ApplyScalars(fragment tree.Element) {
	f, ok := fragment.(*Parameter)
	if !ok {
		q, ok := fragment.(*QualifiedParameter)
		if !ok {
			return
		}
		f = &q.Parameter
	}
	if f.IdentifierField != "" {
		p.IdentifierField = f.IdentifierField
	}
	if f.Description != nil {
		p.Description = f.Description
	}
	if f.Value.Kind != ValueKindNone {
		p.Value = f.Value
	}
	if f.Minimum != nil {
		p.Minimum = f.Minimum
	}
	if f.Maximum != nil {
		p.Maximum = f.Maximum
	}
	if f.AccessField != nil {
		p.AccessField = f.AccessField
	}
	if f.Format != nil {
		p.Format = f.Format
	}
	if f.Enumeration != nil {
		p.Enumeration = f.Enumeration
	}
	if f.Formula != nil {
		p.Formula = f.Formula
	}
	if f.Step != nil {
		p.Step = f.Step
	}
	if f.Default != nil {
		p.Default = f.Default
	}
	if f.Type != nil {
		p.Type = f.Type
	}
	if f.StreamIdentifier != nil {
		p.StreamIdentifier = f.StreamIdentifier
	}
	if f.StreamDescriptor != nil {
		p.StreamDescriptor = f.StreamDescriptor
	}
	if f.Command != nil {
		p.Command = f.Command
	}
}

func (p *Parameter) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagParameter))
	p.encodeFields(w)
	w.EndSequence()
}

func (p *Parameter) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(p.Number()))
	w.EndSequence()

	if p.IdentifierField != "" {
		w.StartSequence(ctx(1))
		w.WriteString(p.IdentifierField)
		w.EndSequence()
	}
	if p.Description != nil {
		w.StartSequence(ctx(2))
		w.WriteString(*p.Description)
		w.EndSequence()
	}
	if p.Value.Kind != ValueKindNone {
		p.Value.encode(w, ctx(3))
	}
	if p.Minimum != nil {
		p.Minimum.encode(w, ctx(4))
	}
	if p.Maximum != nil {
		p.Maximum.encode(w, ctx(5))
	}
	if p.AccessField != nil {
		w.StartSequence(ctx(6))
		w.WriteEnumerated(int64(*p.AccessField))
		w.EndSequence()
	}
	if p.Format != nil {
		w.StartSequence(ctx(7))
		w.WriteString(*p.Format)
		w.EndSequence()
	}
	if p.Enumeration != nil {
		w.StartSequence(ctx(8))
		w.WriteString(*p.Enumeration)
		w.EndSequence()
	}
	if p.Formula != nil {
		w.StartSequence(ctx(9))
		w.WriteString(*p.Formula)
		w.EndSequence()
	}
	if p.Step != nil {
		p.Step.encode(w, ctx(10))
	}
	if p.Default != nil {
		p.Default.encode(w, ctx(11))
	}
	if p.Type != nil {
		w.StartSequence(ctx(12))
		w.WriteString(*p.Type)
		w.EndSequence()
	}
	if p.StreamIdentifier != nil {
		w.StartSequence(ctx(13))
		w.WriteInteger(int64(*p.StreamIdentifier))
		w.EndSequence()
	}
	if p.StreamDescriptor != nil {
		w.StartSequence(ctx(14))
		p.StreamDescriptor.encodeFields(w)
		w.EndSequence()
	}
	if p.Command != nil {
		w.StartSequence(ctx(15))
		p.Command.Encode(w)
		w.EndSequence()
	}
}

func (p *Parameter) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagParameter)); err != nil {
		return err
	}
	if err := p.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (p *Parameter) decodeFields(r *ber.Reader) error {
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			n, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			p.SetNumber(int(n))
		case 1:
			s, err := enterReadExit(r, 1, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.IdentifierField = s
		case 2:
			s, err := enterReadExit(r, 2, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.Description = &s
		case 3:
			if err := r.EnterSequence(ctx(3)); err != nil {
				return err
			}
			v, err := decodeValue(r)
			if err != nil {
				return err
			}
			p.Value = v
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 4:
			v, err := decodeValueField(r, 4)
			if err != nil {
				return err
			}
			p.Minimum = &v
		case 5:
			v, err := decodeValueField(r, 5)
			if err != nil {
				return err
			}
			p.Maximum = &v
		case 6:
			n, err := enterReadExit(r, 6, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return err
			}
			a := Access(n)
			p.AccessField = &a
		case 7:
			s, err := enterReadExit(r, 7, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.Format = &s
		case 8:
			s, err := enterReadExit(r, 8, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.Enumeration = &s
		case 9:
			s, err := enterReadExit(r, 9, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.Formula = &s
		case 10:
			v, err := decodeValueField(r, 10)
			if err != nil {
				return err
			}
			p.Step = &v
		case 11:
			v, err := decodeValueField(r, 11)
			if err != nil {
				return err
			}
			p.Default = &v
		case 12:
			s, err := enterReadExit(r, 12, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			p.Type = &s
		case 13:
			n, err := enterReadExit(r, 13, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			si := int(n)
			p.StreamIdentifier = &si
		case 14:
			if err := r.EnterSequence(ctx(14)); err != nil {
				return err
			}
			var sd StreamDescription
			if err := sd.decodeFields(r); err != nil {
				return err
			}
			p.StreamDescriptor = &sd
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 15:
			if err := r.EnterSequence(ctx(15)); err != nil {
				return err
			}
			var c Command
			if err := c.Decode(r); err != nil {
				return err
			}
			p.Command = &c
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

func decodeValueField(r *ber.Reader, n uint32) (Value, error) {
	if err := r.EnterSequence(ctx(n)); err != nil {
		return Value{}, err
	}
	v, err := decodeValue(r)
	if err != nil {
		return Value{}, err
	}
	return v, r.ExitSequence()
}

func enterReadExit[T any](r *ber.Reader, n uint32, read func(*ber.Reader) (T, error)) (T, error) {
	var zero T
	if err := r.EnterSequence(ctx(n)); err != nil {
		return zero, err
	}
	v, err := read(r)
	if err != nil {
		return zero, err
	}
	return v, r.ExitSequence()
}

// SetValueRequest builds a minimal tree fragment requesting the peer
// change this parameter's value; the pipeline dispatches it and the
// peer's echoed value (possibly clamped) resolves the waiter.
func (p *Parameter) SetValueRequest(v Value) *Parameter {
	fragment := &Parameter{Value: v}
	fragment.SetNumber(p.Number())
	return fragment
}
