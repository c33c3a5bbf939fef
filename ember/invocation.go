package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// InvocationRequest carries a client-allocated, monotonically increasing
// invocation id and the argument tuple for a function call.
type InvocationRequest struct {
	InvocationID uint32
	Arguments    []Value
}

func (inv *InvocationRequest) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagInvocationRequest))
	inv.encodeFields(w)
	w.EndSequence()
}

func (inv *InvocationRequest) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(inv.InvocationID))
	w.EndSequence()

	w.StartSequence(ctx(1))
	for _, a := range inv.Arguments {
		a.encode(w, ctx(0))
	}
	w.EndSequence()
}

func (inv *InvocationRequest) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagInvocationRequest)); err != nil {
		return err
	}
	if err := inv.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (inv *InvocationRequest) decodeFields(r *ber.Reader) error {
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
			inv.InvocationID = uint32(n)
		case 1:
			if err := r.EnterSequence(ctx(1)); err != nil {
				return err
			}
			var args []Value
			for r.Remaining() {
				v, err := decodeValueField(r, 0)
				if err != nil {
					return err
				}
				args = append(args, v)
			}
			inv.Arguments = args
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

// InvocationResult is the peer's answer to an InvocationRequest,
// correlated by InvocationID rather than by path. It implements
// tree.Element, like Command, purely so it can sit in a decoded
// ElementCollection's child list; package pipeline pulls it back out by
// type assertion and never merges it into the tree.
type InvocationResult struct {
	tree.Envelope

	InvocationID uint32
	Success      bool
	Result       []Value
}

var _ tree.Element = (*InvocationResult)(nil)

func (res *InvocationResult) Kind() tree.Kind          { return tree.KindInvocationResult }
func (res *InvocationResult) Identifier() string       { return "" }
func (res *InvocationResult) ApplyScalars(tree.Element) {}

func (res *InvocationResult) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagInvocationResult))
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(res.InvocationID))
	w.EndSequence()
	w.StartSequence(ctx(1))
	w.WriteBoolean(res.Success)
	w.EndSequence()
	w.StartSequence(ctx(2))
	for _, v := range res.Result {
		v.encode(w, ctx(0))
	}
	w.EndSequence()
	w.EndSequence()
}

func (res *InvocationResult) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagInvocationResult)); err != nil {
		return err
	}
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
			res.InvocationID = uint32(n)
		case 1:
			b, err := enterReadExit(r, 1, func(r *ber.Reader) (bool, error) { return r.ReadBoolean() })
			if err != nil {
				return err
			}
			res.Success = b
		case 2:
			if err := r.EnterSequence(ctx(2)); err != nil {
				return err
			}
			var vals []Value
			for r.Remaining() {
				v, err := decodeValueField(r, 0)
				if err != nil {
					return err
				}
				vals = append(vals, v)
			}
			res.Result = vals
			if err := r.ExitSequence(); err != nil {
				return err
			}
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return r.ExitSequence()
}
