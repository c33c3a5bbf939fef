package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/tree"
)

func qualifiedNodeCollection(path tree.Path, identifier string) *ember.ElementCollection {
	q := &ember.QualifiedNode{Path: path}
	q.IdentifierField = identifier
	c := &ember.ElementCollection{}
	_ = c.AddChild(q)
	return c
}

// TestClientGetElementByPathDiscoversViaExpand exercises the tree-walk
// discovery path: neither node 1 nor its child 2 is known locally, so
// GetElementByPathnum must fetch the root directory to learn about node
// 1, then node 1's own directory to learn about node 2, descending one
// getDirectory round trip per previously-unknown segment.
func TestClientGetElementByPathDiscoversViaExpand(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	callCount := 0
	stream.onWrite = func([]byte) {
		callCount++
		switch callCount {
		case 1:
			go stream.feed(ember.EncodeMessage(nodeCollection(1, "top")))
		case 2:
			go stream.feed(ember.EncodeMessage(qualifiedNodeCollection(tree.Path{1, 2}, "leaf")))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	el, err := c.GetElementByPathnum(ctx, tree.Path{1, 2})
	require.NoError(t, err)
	require.NotNil(t, el)
	require.Equal(t, "leaf", el.Identifier())
	require.Equal(t, 2, callCount)
}

// TestClientGetElementByPathFailsAfterRepeatedMiss confirms expand gives
// up with PathNotFound rather than looping forever once a segment is
// still missing after its ancestor's directory has actually been
// fetched from the peer.
func TestClientGetElementByPathFailsAfterRepeatedMiss(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	callCount := 0
	stream.onWrite = func([]byte) {
		callCount++
		go stream.feed(ember.EncodeMessage(nodeCollection(1, "other")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.GetElementByPathnum(ctx, tree.Path{99})
	require.Error(t, err)
	require.True(t, errors.Is(err, emberrors.ErrPathNotFound))
	require.Equal(t, 1, callCount)
}

func seedMatrix(t *testing.T, c *Client, ctx context.Context, number, targetCount, sourceCount int) {
	t.Helper()
	matrix := &ember.Matrix{IdentifierField: "xp", TargetCount: targetCount, SourceCount: sourceCount}
	matrix.SetNumber(number)
	wrapper := &ember.ElementCollection{}
	require.NoError(t, wrapper.AddChild(matrix))
	require.NoError(t, c.runOnActor(ctx, func() {
		require.NoError(t, tree.Update(c.root, wrapper))
	}))
}

// TestClientMatrixConnectAcceptsOneBasedSourceIDs pins matrixConnect's
// 1-based target/source numbering: a matrix with sourceCount=2 accepts
// source id 2, since valid ids run 1..sourceCount, not 0..sourceCount-1.
func TestClientMatrixConnectAcceptsOneBasedSourceIDs(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	seedMatrix(t, c, ctx, 5, 3, 2)

	stream.onWrite = func([]byte) {
		echo := &ember.Matrix{Connections: map[int]ember.Connection{
			3: {Target: 3, Sources: []int{1, 2}, Operation: ember.ConnectionConnect},
		}}
		echo.SetNumber(5)
		q := &ember.QualifiedMatrix{Matrix: *echo, Path: tree.Path{5}}
		msg := &ember.ElementCollection{}
		_ = msg.AddChild(q)
		go stream.feed(ember.EncodeMessage(msg))
	}

	require.NoError(t, c.MatrixConnect(ctx, tree.Path{5}, 3, []int{1, 2}))

	el, err := c.GetElementByPathnum(ctx, tree.Path{5})
	require.NoError(t, err)
	m, ok := el.(*ember.Matrix)
	require.True(t, ok)
	require.Equal(t, []int{1, 2}, m.Connections[3].Sources)
	require.Equal(t, ember.ConnectionConnect, m.Connections[3].Operation)
}

// TestClientMatrixConnectRejectsSourceAboveCount pins the other half of
// scenario 5: a source id beyond sourceCount still fails synchronously
// with InvalidConnection, even under 1-based numbering.
func TestClientMatrixConnectRejectsSourceAboveCount(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	seedMatrix(t, c, ctx, 5, 3, 2)

	err := c.MatrixConnect(ctx, tree.Path{5}, 3, []int{5})
	require.Error(t, err)
	require.True(t, errors.Is(err, emberrors.ErrInvalidConnection))
}
