package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emberplus-go/goember/config"
	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/s101"
	"github.com/emberplus-go/goember/transport"
	"github.com/emberplus-go/goember/tree"
)

// fakeStream is an in-memory transport.ByteStream: Write records the
// framed bytes a test then decodes and answers with a server-crafted
// response fed back through feed, the way a real provider's TCP
// connection would arrive via Events().
type fakeStream struct {
	mu       sync.Mutex
	events   chan transport.Event
	written  [][]byte
	onWrite  func(b []byte)
	stats    transport.Stats
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan transport.Event, 32)}
}

func (f *fakeStream) Connect(ctx context.Context) error {
	f.events <- transport.Event{Kind: transport.EventConnected}
	return nil
}

func (f *fakeStream) Disconnect() error {
	return nil
}

func (f *fakeStream) IsConnected() bool { return true }

func (f *fakeStream) Write(b []byte) (int, error) {
	f.mu.Lock()
	f.written = append(f.written, append([]byte(nil), b...))
	cb := f.onWrite
	f.mu.Unlock()
	if cb != nil {
		cb(b)
	}
	return len(b), nil
}

func (f *fakeStream) Events() <-chan transport.Event { return f.events }

func (f *fakeStream) Stats() transport.Stats { return f.stats }

func (f *fakeStream) feed(payload []byte) {
	frame := s101.Encode(s101.Frame{MessageType: s101.MessageEmberData, Flags: s101.FlagFirstPacket | s101.FlagLastPacket, Payload: payload})
	f.events <- transport.Event{Kind: transport.EventData, Data: frame}
}

var _ transport.ByteStream = (*fakeStream)(nil)

func newTestClient(t *testing.T, stream *fakeStream) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.RequestTimeout = 2 * time.Second
	c := New(stream, cfg)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func nodeCollection(number int, identifier string) *ember.ElementCollection {
	n := &ember.Node{IdentifierField: identifier}
	n.SetNumber(number)
	c := &ember.ElementCollection{}
	_ = c.AddChild(n)
	return c
}

func TestClientGetDirectoryRootRoundTrip(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	stream.onWrite = func([]byte) {
		go stream.feed(ember.EncodeMessage(nodeCollection(1, "root-device")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frag, err := c.GetDirectory(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, frag)

	el, err := c.GetElementByPathnum(ctx, tree.Path{1})
	require.NoError(t, err)
	require.NotNil(t, el)
	require.Equal(t, "root-device", el.Identifier())
}

func TestClientSetValueRoundTrip(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	stream.onWrite = func([]byte) {
		go stream.feed(ember.EncodeMessage(nodeCollection(1, "root-device")))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.GetDirectory(ctx, nil)
	require.NoError(t, err)

	// Install a parameter at 1.2 directly via an unsolicited update so
	// SetValue has something to resolve against.
	param := &ember.Parameter{IdentifierField: "gain"}
	param.SetNumber(2)
	nodeFragment := &ember.Node{}
	nodeFragment.SetNumber(1)
	require.NoError(t, nodeFragment.AddChild(param))
	wrapper := &ember.ElementCollection{}
	require.NoError(t, wrapper.AddChild(nodeFragment))

	stream.onWrite = func(b []byte) {
		q := &ember.QualifiedParameter{Parameter: ember.Parameter{Value: ember.IntegerValue(5)}, Path: tree.Path{1, 2}}
		q.SetNumber(2)
		msg := &ember.ElementCollection{}
		_ = msg.AddChild(q)
		go stream.feed(ember.EncodeMessage(msg))
	}

	require.NoError(t, c.runOnActor(ctx, func() {
		require.NoError(t, tree.Update(c.root, wrapper))
	}))

	err = c.SetValue(ctx, tree.Path{1, 2}, ember.IntegerValue(5))
	require.NoError(t, err)

	el, err := c.GetElementByPathnum(ctx, tree.Path{1, 2})
	require.NoError(t, err)
	p, ok := el.(*ember.Parameter)
	require.True(t, ok)
	require.Equal(t, ember.ValueKindInteger, p.Value.Kind)
	require.Equal(t, int64(5), p.Value.Integer)
}

func TestClientUnsolicitedUpdatePublishesValueChange(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	var mu sync.Mutex
	var got Event
	seen := make(chan struct{}, 1)
	unsubscribe := c.Events().Subscribe(EventValueChange, func(ev Event) {
		mu.Lock()
		got = ev
		mu.Unlock()
		select {
		case seen <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	q := &ember.QualifiedParameter{Parameter: ember.Parameter{Value: ember.StringValue("hello")}, Path: tree.Path{3, 4}}
	q.SetNumber(4)
	msg := &ember.ElementCollection{}
	require.NoError(t, msg.AddChild(q))
	stream.feed(ember.EncodeMessage(msg))

	select {
	case <-seen:
	case <-time.After(time.Second):
		t.Fatal("expected value-change event")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "3.4", got.Path)
	require.Equal(t, "hello", got.Value.String)
}

func TestClientMatrixConnectValidatesRange(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	matrix := &ember.Matrix{IdentifierField: "xp", TargetCount: 2, SourceCount: 2}
	matrix.SetNumber(5)
	wrapper := &ember.ElementCollection{}
	require.NoError(t, wrapper.AddChild(matrix))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.runOnActor(ctx, func() {
		require.NoError(t, tree.Update(c.root, wrapper))
	}))

	err := c.MatrixConnect(ctx, tree.Path{5}, 9, []int{0})
	require.Error(t, err)
}

func TestClientStatsTracksFrames(t *testing.T) {
	stream := newFakeStream()
	c := newTestClient(t, stream)

	stream.onWrite = func([]byte) {
		go stream.feed(ember.EncodeMessage(nodeCollection(1, "root-device")))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.GetDirectory(ctx, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st := c.Stats()
		return st.FramesOut >= 1 && st.FramesIn >= 1 && st.RequestsCompleted >= 1
	}, time.Second, time.Millisecond)
}
