package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// TupleItem names one slot of a Function's argument or result schema.
type TupleItem struct {
	Name string
	Type string
}

// Function is an invocable remote procedure in the Ember+ tree.
type Function struct {
	tree.Envelope

	IdentifierField string
	Description     *string
	Arguments       []TupleItem
	Result          []TupleItem
}

var _ tree.Element = (*Function)(nil)

func (fn *Function) Kind() tree.Kind    { return tree.KindFunction }
func (fn *Function) Identifier() string { return fn.IdentifierField }

func (fn *Function) ApplyScalars(fragment tree.Element) {
	f, ok := fragment.(*Function)
	if !ok {
		q, ok := fragment.(*QualifiedFunction)
		if !ok {
			return
		}
		f = &q.Function
	}
	if f.IdentifierField != "" {
		fn.IdentifierField = f.IdentifierField
	}
	if f.Description != nil {
		fn.Description = f.Description
	}
	if f.Arguments != nil {
		fn.Arguments = f.Arguments
	}
	if f.Result != nil {
		fn.Result = f.Result
	}
}

func (fn *Function) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagFunction))
	fn.encodeFields(w)
	w.EndSequence()
}

func (fn *Function) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(fn.Number()))
	w.EndSequence()

	if fn.IdentifierField != "" {
		w.StartSequence(ctx(1))
		w.WriteString(fn.IdentifierField)
		w.EndSequence()
	}
	if fn.Description != nil {
		w.StartSequence(ctx(2))
		w.WriteString(*fn.Description)
		w.EndSequence()
	}
	if fn.Arguments != nil {
		w.StartSequence(ctx(3))
		encodeTuple(w, fn.Arguments)
		w.EndSequence()
	}
	if fn.Result != nil {
		w.StartSequence(ctx(4))
		encodeTuple(w, fn.Result)
		w.EndSequence()
	}
}

func (fn *Function) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagFunction)); err != nil {
		return err
	}
	if err := fn.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (fn *Function) decodeFields(r *ber.Reader) error {
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
			fn.SetNumber(int(n))
		case 1:
			s, err := enterReadExit(r, 1, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			fn.IdentifierField = s
		case 2:
			s, err := enterReadExit(r, 2, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			fn.Description = &s
		case 3:
			if err := r.EnterSequence(ctx(3)); err != nil {
				return err
			}
			items, err := decodeTuple(r)
			if err != nil {
				return err
			}
			fn.Arguments = items
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 4:
			if err := r.EnterSequence(ctx(4)); err != nil {
				return err
			}
			items, err := decodeTuple(r)
			if err != nil {
				return err
			}
			fn.Result = items
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

func encodeTuple(w *ber.Writer, items []TupleItem) {
	for _, it := range items {
		w.StartSequence(ctx(0))
		w.WriteString(it.Name)
		w.EndSequence()
		w.StartSequence(ctx(1))
		w.WriteString(it.Type)
		w.EndSequence()
	}
}

func decodeTuple(r *ber.Reader) ([]TupleItem, error) {
	var items []TupleItem
	var cur TupleItem
	have := false
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return nil, err
		}
		switch tag.Number {
		case 0:
			if have {
				items = append(items, cur)
				cur = TupleItem{}
			}
			s, err := enterReadExit(r, 0, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return nil, err
			}
			cur.Name = s
			have = true
		case 1:
			s, err := enterReadExit(r, 1, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return nil, err
			}
			cur.Type = s
		default:
			if err := r.SkipValue(); err != nil {
				return nil, err
			}
		}
	}
	if have {
		items = append(items, cur)
	}
	return items, nil
}

// InvokeRequest builds the command invoking this function with args,
// tagged with the given client-allocated invocation id; the caller
// (package client) wraps it as the sole child of a QualifiedFunction
// fragment at this function's path before sending.
func (fn *Function) InvokeRequest(invocationID uint32, args []Value) *Command {
	return &Command{
		CommandKind: CommandInvoke,
		Invocation: &InvocationRequest{
			InvocationID: invocationID,
			Arguments:    args,
		},
	}
}
