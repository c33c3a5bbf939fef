package client

import (
	"context"
	"fmt"
	"io"

	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/pipeline"
	"github.com/emberplus-go/goember/tree"
)

// GetElementByPathnum resolves path, driving a getDirectory-based
// discovery walk against the peer for any segment the local mirror
// hasn't seen yet: it repeatedly fetches the directory of the deepest
// currently known ancestor and descends, failing with PathNotFound if
// the same segment is still missing after the ancestor's directory has
// been fetched. Root's empty path returns the root itself with no
// round trip.
func (c *Client) GetElementByPathnum(ctx context.Context, path tree.Path) (tree.Element, error) {
	return c.expand(ctx, path)
}

// expand implements the tree-walk discovery described on
// GetElementByPathnum. Once a segment's ancestor directory has been
// fetched and the segment still isn't there, expand gives up with
// PathNotFound instead of fetching the same ancestor again, since that
// would not discover anything new.
func (c *Client) expand(ctx context.Context, path tree.Path) (tree.Element, error) {
	missingAt := -1
	consecutiveMisses := 0

	for {
		var el tree.Element
		var depth int
		if err := c.runOnActor(ctx, func() { el, depth = tree.DeepestKnown(c.root, path) }); err != nil {
			return nil, err
		}
		if depth == len(path) {
			return el, nil
		}

		if depth == missingAt {
			consecutiveMisses++
		} else {
			missingAt = depth
			consecutiveMisses = 1
		}
		if consecutiveMisses >= 2 {
			return nil, emberrors.WrapInvalid(emberrors.ErrPathNotFound, "client", "expand", path.String())
		}

		if _, err := c.GetDirectory(ctx, path[:depth]); err != nil {
			return nil, err
		}
	}
}

// GetElementByPath parses s as a dotted numeric path and looks it up the
// same way GetElementByPathnum does.
func (c *Client) GetElementByPath(ctx context.Context, s string) (tree.Element, error) {
	path, err := tree.ParsePath(s)
	if err != nil {
		return nil, emberrors.WrapInvalid(err, "client", "GetElementByPath", s)
	}
	return c.GetElementByPathnum(ctx, path)
}

// runOnActor runs fn synchronously on the session actor goroutine — the
// only place reading or writing tree/pipeline state outside a
// pipeline.Request's own lifecycle is safe.
func (c *Client) runOnActor(ctx context.Context, fn func()) error {
	errs := make(chan error, 1)
	select {
	case c.submissions <- submission{
		build: func() (*pipeline.Request, error) {
			fn()
			return nil, nil
		},
		results: make(chan pipeline.Outcome, 1),
		errs:    errs,
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve looks up path in the local tree mirror from the session actor;
// it must only be called from within a build closure handed to submit,
// never directly, since the tree is not safe for concurrent reads while
// the actor may be merging an inbound update.
func (c *Client) resolve(path tree.Path) tree.Element {
	if len(path) == 0 {
		return c.root
	}
	return tree.GetElementByPath(c.root, path)
}

// GetDirectory requests the direct children of the element at path (or
// the top-level tree when path is empty), blocking until the peer's
// response is merged into the local mirror. The merged fragment is
// returned for convenience; the authoritative state lives in the tree
// reachable via GetElementByPath after this call returns.
func (c *Client) GetDirectory(ctx context.Context, path tree.Path) (tree.Element, error) {
	out, err := c.submit(ctx, func() (*pipeline.Request, error) {
		var cmd *ember.Command
		var msg *ember.ElementCollection
		kind := tree.KindRoot

		if len(path) == 0 {
			cmd = &ember.Command{CommandKind: ember.CommandGetDirectory}
			msg = rootCommandMessage(cmd)
		} else {
			el := c.resolve(path)
			if el == nil {
				return nil, emberrors.WrapInvalid(emberrors.ErrPathNotFound, "client", "GetDirectory", path.String())
			}
			kind = el.Kind()

			var err error
			cmd, err = directoryCommandFor(el)
			if err != nil {
				return nil, err
			}
			msg, err = wrapQualifiedCommand(el, path, cmd)
			if err != nil {
				return nil, err
			}
		}

		return &pipeline.Request{
			Op:            "getDirectory",
			TargetPath:    path.String(),
			Send:          c.sendFunc(msg),
			MatchResponse: matchGetDirectory(path, kind),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.Root, nil
}

// SetValue requests the peer change the parameter at path to v, blocking
// until the peer's echo resolves the request.
func (c *Client) SetValue(ctx context.Context, path tree.Path, v ember.Value) error {
	_, err := c.submit(ctx, func() (*pipeline.Request, error) {
		el := c.resolve(path)
		param, ok := el.(*ember.Parameter)
		if !ok {
			return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "SetValue", "target is not a parameter")
		}
		msg := setValueMessage(param, path, v)
		return &pipeline.Request{
			Op:            "setValue",
			TargetPath:    path.String(),
			Send:          c.sendFunc(msg),
			MatchResponse: matchSetValue(path),
		}, nil
	})
	return err
}

// InvokeFunction calls the function at path with args, blocking until
// the peer's InvocationResult arrives; invocations never occupy the
// single non-invocation in-flight slot, so they can overlap other
// requests and each other.
func (c *Client) InvokeFunction(ctx context.Context, path tree.Path, args []ember.Value) (*ember.InvocationResult, error) {
	id := c.nextInvocationID()

	out, err := c.submit(ctx, func() (*pipeline.Request, error) {
		el := c.resolve(path)
		fn, ok := el.(*ember.Function)
		if !ok {
			return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "InvokeFunction", "target is not a function")
		}
		msg := invokeMessage(fn, path, id, args)
		return &pipeline.Request{
			Op:           "invoke",
			TargetPath:   path.String(),
			InvocationID: id,
			Send:         c.sendFunc(msg),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.InvocationResult, nil
}

// MatrixConnect requests the peer connect sources to target within the
// matrix at path, validating both against the matrix's declared ranges
// before sending.
func (c *Client) MatrixConnect(ctx context.Context, path tree.Path, target int, sources []int) error {
	return c.matrixOp(ctx, path, target, sources, ember.ConnectionConnect)
}

// MatrixDisconnect requests the peer disconnect sources from target
// within the matrix at path.
func (c *Client) MatrixDisconnect(ctx context.Context, path tree.Path, target int, sources []int) error {
	return c.matrixOp(ctx, path, target, sources, ember.ConnectionDisconnect)
}

// SetConnection requests the peer set target's complete source list
// within the matrix at path, replacing whatever it currently holds.
func (c *Client) SetConnection(ctx context.Context, path tree.Path, target int, sources []int) error {
	return c.matrixOp(ctx, path, target, sources, ember.ConnectionAbsolute)
}

func (c *Client) matrixOp(ctx context.Context, path tree.Path, target int, sources []int, op ember.ConnectionOperation) error {
	_, err := c.submit(ctx, func() (*pipeline.Request, error) {
		el := c.resolve(path)
		matrix, ok := el.(*ember.Matrix)
		if !ok {
			return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "client", "MatrixConnect", "target is not a matrix")
		}
		if err := validateMatrixRange(matrix, target, sources); err != nil {
			return nil, err
		}

		connections := map[int]ember.Connection{
			target: {Target: target, Sources: sources, Operation: op},
		}
		msg := matrixOpMessage(matrix, path, connections)
		return &pipeline.Request{
			Op:            "matrixConnect",
			TargetPath:    path.String(),
			Send:          c.sendFunc(msg),
			MatchResponse: matchMatrixOp(path),
		}, nil
	})
	return err
}

// validateMatrixRange checks target/source ids against the matrix's
// declared counts using Ember+'s 1-based target/source numbering (ids
// run 1..count, not 0..count-1): a matrix with sourceCount=2 accepts
// source ids 1 and 2, never 0.
func validateMatrixRange(m *ember.Matrix, target int, sources []int) error {
	if target < 1 || target > m.TargetCount {
		return emberrors.WrapInvalid(emberrors.ErrInvalidConnection, "client", "MatrixConnect",
			fmt.Sprintf("target %d out of range [1,%d]", target, m.TargetCount))
	}
	for _, s := range sources {
		if s < 1 || s > m.SourceCount {
			return emberrors.WrapInvalid(emberrors.ErrInvalidConnection, "client", "MatrixConnect",
				fmt.Sprintf("source %d out of range [1,%d]", s, m.SourceCount))
		}
	}
	return nil
}

// Subscribe requests value-change notifications for the element at path.
// The request is fire-and-forget: it completes as soon as the frame is
// sent, per Ember+'s subscribe semantics (the peer is not required to
// acknowledge).
func (c *Client) Subscribe(ctx context.Context, path tree.Path) error {
	return c.subscription(ctx, path, true)
}

// Unsubscribe cancels a prior Subscribe for the element at path.
func (c *Client) Unsubscribe(ctx context.Context, path tree.Path) error {
	return c.subscription(ctx, path, false)
}

func (c *Client) subscription(ctx context.Context, path tree.Path, subscribe bool) error {
	_, err := c.submit(ctx, func() (*pipeline.Request, error) {
		el := c.resolve(path)
		if el == nil {
			return nil, emberrors.WrapInvalid(emberrors.ErrPathNotFound, "client", "Subscribe", path.String())
		}
		cmd, err := subscriptionCommandFor(el, subscribe)
		if err != nil {
			return nil, err
		}
		msg, err := wrapQualifiedCommand(el, path, cmd)
		if err != nil {
			return nil, err
		}
		op := "subscribe"
		if !subscribe {
			op = "unsubscribe"
		}
		return &pipeline.Request{
			Op:         op,
			TargetPath: path.String(),
			Send:       c.sendFunc(msg),
		}, nil
	})
	return err
}

// SaveTree returns a snapshot of every node currently known in the local
// tree mirror, as a plain positional ElementCollection independent of
// whatever qualified/positional mix produced it — useful for persisting
// a discovered device layout to disk.
func (c *Client) SaveTree(ctx context.Context) (*ember.ElementCollection, error) {
	var snapshot *ember.ElementCollection
	if err := c.runOnActor(ctx, func() { snapshot = cloneTree(c.root) }); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SaveTreeTo writes a BER-encoded snapshot of the local tree mirror to w,
// the way an embedder persisting a discovered device layout to disk would
// call it.
func (c *Client) SaveTreeTo(ctx context.Context, w io.Writer) error {
	snapshot, err := c.SaveTree(ctx)
	if err != nil {
		return err
	}
	_, err = w.Write(ember.EncodeMessage(snapshot))
	return emberrors.WrapTransient(err, "client", "SaveTreeTo", "write snapshot")
}

func cloneTree(root *tree.Root) *ember.ElementCollection {
	snapshot := &ember.ElementCollection{}
	for _, child := range root.Children() {
		_ = snapshot.AddChild(child)
	}
	return snapshot
}
