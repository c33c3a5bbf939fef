package client

import (
	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/tree"
)

// directoryCommandFor builds the GetDirectory command fragment for el,
// dispatching on its concrete ember type the way encodeElementList does.
func directoryCommandFor(el tree.Element) (*ember.Command, error) {
	switch v := el.(type) {
	case *ember.Node:
		return v.GetDirectoryRequest(), nil
	case *ember.Parameter:
		return v.GetDirectoryRequest(), nil
	case *ember.Matrix:
		return v.GetDirectoryRequest(), nil
	case *ember.Function:
		return v.GetDirectoryRequest(), nil
	default:
		return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "GetDirectory", "target has no directory")
	}
}

// subscriptionCommandFor builds a subscribe or unsubscribe command for
// el; only Node and Parameter carry these affordances.
func subscriptionCommandFor(el tree.Element, subscribe bool) (*ember.Command, error) {
	switch v := el.(type) {
	case *ember.Node:
		if subscribe {
			return v.SubscribeRequest(), nil
		}
		return v.UnsubscribeRequest(), nil
	case *ember.Parameter:
		if subscribe {
			return v.SubscribeRequest(), nil
		}
		return v.UnsubscribeRequest(), nil
	default:
		return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "Subscribe", "target does not support subscriptions")
	}
}

// wrapQualifiedCommand builds a minimal Qualified* fragment at path
// carrying cmd as its sole child, picking the wrapper type from el's
// concrete kind. The wrapper is a fresh zero value: it never copies el's
// own Envelope, so attaching cmd never mutates the tree element el was
// resolved from.
func wrapQualifiedCommand(el tree.Element, path tree.Path, cmd *ember.Command) (*ember.ElementCollection, error) {
	var qualified tree.Element
	switch el.(type) {
	case *ember.Node:
		q := &ember.QualifiedNode{Path: path}
		if err := q.AddChild(cmd); err != nil {
			return nil, err
		}
		qualified = q
	case *ember.Parameter:
		q := &ember.QualifiedParameter{Path: path}
		if err := q.AddChild(cmd); err != nil {
			return nil, err
		}
		qualified = q
	case *ember.Matrix:
		q := &ember.QualifiedMatrix{Path: path}
		if err := q.AddChild(cmd); err != nil {
			return nil, err
		}
		qualified = q
	case *ember.Function:
		q := &ember.QualifiedFunction{Path: path}
		if err := q.AddChild(cmd); err != nil {
			return nil, err
		}
		qualified = q
	default:
		return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "wrapQualifiedCommand", "unsupported element kind")
	}

	msg := &ember.ElementCollection{}
	if err := msg.AddChild(qualified); err != nil {
		return nil, err
	}
	return msg, nil
}

// rootCommandMessage wraps cmd unqualified as the message's sole
// top-level child, the form a root-level getDirectory uses.
func rootCommandMessage(cmd *ember.Command) *ember.ElementCollection {
	msg := &ember.ElementCollection{}
	_ = msg.AddChild(cmd)
	return msg
}

// setValueMessage builds the qualified fragment requesting the peer
// change a parameter's value.
func setValueMessage(param *ember.Parameter, path tree.Path, v ember.Value) *ember.ElementCollection {
	fragment := param.SetValueRequest(v)
	q := &ember.QualifiedParameter{Parameter: *fragment, Path: path}
	msg := &ember.ElementCollection{}
	_ = msg.AddChild(q)
	return msg
}

// matrixOpMessage builds the qualified fragment requesting a matrix
// connection change.
func matrixOpMessage(matrix *ember.Matrix, path tree.Path, connections map[int]ember.Connection) *ember.ElementCollection {
	mc := matrix.ConnectRequest(connections)

	fragment := &ember.Matrix{Connections: mc.Connections}
	fragment.SetNumber(matrix.Number())
	q := &ember.QualifiedMatrix{Matrix: *fragment, Path: path}
	msg := &ember.ElementCollection{}
	_ = msg.AddChild(q)
	return msg
}

// invokeMessage builds the qualified fragment invoking a function.
func invokeMessage(fn *ember.Function, path tree.Path, invocationID uint32, args []ember.Value) *ember.ElementCollection {
	cmd := fn.InvokeRequest(invocationID, args)
	q := &ember.QualifiedFunction{Path: path}
	_ = q.AddChild(cmd)
	msg := &ember.ElementCollection{}
	_ = msg.AddChild(q)
	return msg
}
