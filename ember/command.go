package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// CommandKind selects what a Command asks the peer to do.
type CommandKind int

const (
	CommandGetDirectory CommandKind = iota
	CommandSubscribe
	CommandUnsubscribe
	CommandInvoke
)

// Command is a request fragment: it is never merged into the tree, only
// sent. It implements tree.Element purely so it can sit in an
// ElementCollection's child list alongside the node types outbound
// requests are built from.
type Command struct {
	tree.Envelope

	CommandKind CommandKind
	Invocation  *InvocationRequest // populated only when CommandKind == CommandInvoke
}

var _ tree.Element = (*Command)(nil)

func (c *Command) Kind() tree.Kind        { return tree.KindCommand }
func (c *Command) Identifier() string     { return "" }
func (c *Command) ApplyScalars(tree.Element) {}

func (c *Command) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagCommand))
	w.StartSequence(ctx(0))
	w.WriteEnumerated(int64(c.CommandKind))
	w.EndSequence()
	if c.Invocation != nil {
		w.StartSequence(ctx(1))
		c.Invocation.encodeFields(w)
		w.EndSequence()
	}
	w.EndSequence()
}

func (c *Command) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagCommand)); err != nil {
		return err
	}
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			n, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return err
			}
			c.CommandKind = CommandKind(n)
		case 1:
			if err := r.EnterSequence(ctx(1)); err != nil {
				return err
			}
			var inv InvocationRequest
			if err := inv.decodeFields(r); err != nil {
				return err
			}
			c.Invocation = &inv
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

func newDirectoryCommand() *Command {
	return &Command{CommandKind: CommandGetDirectory}
}

func newSubscribeCommand() *Command {
	return &Command{CommandKind: CommandSubscribe}
}

func newUnsubscribeCommand() *Command {
	return &Command{CommandKind: CommandUnsubscribe}
}

// GetDirectoryRequest builds the command requesting this node's direct
// children from the peer. The caller (package client) wraps it as the
// sole child of a Qualified* fragment at this node's path before sending.
func (n *Node) GetDirectoryRequest() *Command { return newDirectoryCommand() }

// SubscribeRequest builds the command subscribing to this node's updates.
func (n *Node) SubscribeRequest() *Command { return newSubscribeCommand() }

// UnsubscribeRequest builds the command cancelling a prior subscription.
func (n *Node) UnsubscribeRequest() *Command { return newUnsubscribeCommand() }

// GetDirectoryRequest builds the command requesting this parameter's
// directory (its Command/description are returned, not children — a
// parameter has none — useful to refresh a single value on demand).
func (p *Parameter) GetDirectoryRequest() *Command { return newDirectoryCommand() }

// SubscribeRequest builds the command subscribing to value-change updates
// for this parameter.
func (p *Parameter) SubscribeRequest() *Command { return newSubscribeCommand() }

// UnsubscribeRequest builds the command cancelling a prior subscription.
func (p *Parameter) UnsubscribeRequest() *Command { return newUnsubscribeCommand() }

// GetDirectoryRequest builds the command requesting this matrix's current
// state (labels, connections).
func (m *Matrix) GetDirectoryRequest() *Command { return newDirectoryCommand() }

// GetDirectoryRequest builds the command requesting this function's
// argument/result schema.
func (fn *Function) GetDirectoryRequest() *Command { return newDirectoryCommand() }
