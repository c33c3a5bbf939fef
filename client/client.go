// Package client is the facade an application drives: it owns the
// in-memory tree mirror, the request pipeline, and the S101 session
// over a transport.ByteStream, and runs them on a single session-actor
// goroutine so the tree and pipeline are never touched concurrently.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/emberplus-go/goember/config"
	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/internal/timestamp"
	"github.com/emberplus-go/goember/metric"
	"github.com/emberplus-go/goember/pipeline"
	"github.com/emberplus-go/goember/s101"
	"github.com/emberplus-go/goember/transport"
	"github.com/emberplus-go/goember/tree"
)

// tickInterval is how often the session actor calls pipeline.Tick to
// expire overdue requests; it does not depend on the keep-alive cadence.
const tickInterval = 250 * time.Millisecond

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger attaches a structured logger; the default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics attaches a metrics registry; the default records nothing.
func WithMetrics(m *metric.Registry) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(clk transport.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// Stats reports cumulative session counters.
type Stats struct {
	SessionID         string
	Connected         bool
	FramesIn          int64
	FramesOut         int64
	RequestsCompleted int64
	RequestsTimedOut  int64
	Reconnects        int64
	ConnectedSince    time.Time
}

// Client is an Ember+ provider connection: a local mirror of the
// provider's tree, kept current by a single session-actor goroutine that
// owns both the tree and the request pipeline exclusively.
type Client struct {
	id     string
	cfg    config.Config
	logger *slog.Logger
	clock  transport.Clock

	stream  transport.ByteStream
	session *s101.Session
	metrics *metric.Registry

	root *tree.Root
	pipe *pipeline.Pipeline

	events *EventBus

	invocationID atomic.Uint32

	connected      atomic.Bool
	framesIn       atomic.Int64
	framesOut      atomic.Int64
	requestsOK     atomic.Int64
	requestsFailed atomic.Int64
	connectedSince atomic.Int64 // unix millis, via internal/timestamp; 0 = unset

	submissions chan submission

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type submission struct {
	build   func() (*pipeline.Request, error)
	results chan<- pipeline.Outcome
	errs    chan<- error
}

// New builds a Client over stream, configured by cfg. The client is not
// connected until Connect succeeds.
func New(stream transport.ByteStream, cfg config.Config, opts ...Option) *Client {
	c := &Client{
		id:          uuid.New().String(),
		cfg:         cfg,
		stream:      stream,
		clock:       transport.SystemClock{},
		logger:      slog.Default(),
		events:      NewEventBus(),
		root:        tree.NewRoot(),
		submissions: make(chan submission),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session", c.id)
	c.pipe = pipeline.New(c.root, c.clock, c.metricsHandle(), cfg.RequestTimeout, c.onUnsolicited)
	c.session = s101.NewSession(stream, c.clock, cfg.KeepAliveInterval, cfg.KeepAliveTimeout)
	return c
}

// ID returns the session's correlation id, used in log lines and, where
// an embedder needs one, as a request trace id.
func (c *Client) ID() string { return c.id }

// Events returns the bus connecting/connected/disconnected/error/
// value-change/invocationResult notifications are published to.
func (c *Client) Events() *EventBus { return c.events }

func (c *Client) metricsHandle() *metric.Metrics {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.Metrics
}

// Connect dials the transport, starts the S101 session and the session
// actor, and blocks until the initial connection attempt settles.
func (c *Client) Connect(ctx context.Context) error {
	c.events.Publish(Event{Kind: EventConnecting, Time: c.clock.Now()})

	if err := c.stream.Connect(ctx); err != nil {
		wrapped := emberrors.WrapTransient(err, "client", "Connect", "dial provider")
		c.events.Publish(Event{Kind: EventError, Err: wrapped, Time: c.clock.Now()})
		return wrapped
	}

	c.connected.Store(true)
	c.connectedSince.Store(timestamp.ToUnixMs(c.clock.Now()))
	c.metricsHandle().SetConnected(true)
	c.events.Publish(Event{Kind: EventConnected, Time: c.clock.Now()})

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		if err := c.session.Run(runCtx); err != nil && runCtx.Err() == nil {
			c.logger.Warn("session stopped", "error", err)
		}
	}()
	go c.runActor(runCtx)

	return nil
}

// Disconnect stops the session actor and tears down the transport.
func (c *Client) Disconnect() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.stream.Disconnect()
	c.wg.Wait()

	if ms := c.connectedSince.Load(); !timestamp.IsZero(ms) {
		c.logger.Info("disconnected", "uptime", timestamp.Since(ms))
	}
	c.connected.Store(false)
	c.metricsHandle().SetConnected(false)
	c.events.Publish(Event{Kind: EventDisconnected, Time: c.clock.Now()})
	return err
}

// IsConnected reports whether the underlying transport is currently up.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// Stats returns a snapshot of cumulative session counters.
func (c *Client) Stats() Stats {
	var since time.Time
	if ms := c.connectedSince.Load(); !timestamp.IsZero(ms) {
		since = timestamp.FromUnixMs(ms)
	}
	st := transport.Stats{}
	if sr, ok := c.stream.(interface{ Stats() transport.Stats }); ok {
		st = sr.Stats()
	}
	return Stats{
		SessionID:         c.id,
		Connected:         c.IsConnected(),
		FramesIn:          c.framesIn.Load(),
		FramesOut:         c.framesOut.Load(),
		RequestsCompleted: c.requestsOK.Load(),
		RequestsTimedOut:  c.requestsFailed.Load(),
		Reconnects:        st.Reconnects,
		ConnectedSince:    since,
	}
}

// runActor is the single goroutine that owns the tree and pipeline: it
// pulls reassembled packets off the S101 session's queue on a feeder
// goroutine (so a blocking Buffer.Read never stalls the actor's other
// select cases), drives Tick on a fixed cadence, and serializes caller
// requests submitted from arbitrary goroutines via c.submissions.
func (c *Client) runActor(ctx context.Context) {
	defer c.wg.Done()

	packets := make(chan s101.Packet)
	go c.feedPackets(ctx, packets)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.pipe.Drain(emberrors.WrapFatal(emberrors.ErrConnectionClosed, "client", "runActor", "session stopped"))
			return

		case pkt, ok := <-packets:
			if !ok {
				c.pipe.Drain(emberrors.WrapFatal(emberrors.ErrConnectionClosed, "client", "runActor", "transport closed"))
				return
			}
			c.handlePacket(pkt)

		case <-ticker.C:
			c.pipe.Tick(c.clock.Now())

		case err, ok := <-c.session.Errors():
			if ok {
				c.logger.Warn("frame error", "error", err)
				c.metricsHandle().RecordFrameError()
			}

		case sub := <-c.submissions:
			c.handleSubmission(sub)
		}
	}
}

func (c *Client) feedPackets(ctx context.Context, out chan<- s101.Packet) {
	defer close(out)
	for {
		pkt, ok := c.session.Packets().Read()
		if !ok {
			return
		}
		select {
		case out <- pkt:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handlePacket(pkt s101.Packet) {
	c.framesIn.Add(1)
	c.metricsHandle().RecordFrame("in")

	msg, err := ember.DecodeMessage(pkt.Payload)
	if err != nil {
		wrapped := emberrors.WrapInvalid(err, "client", "handlePacket", "decode message")
		c.logger.Warn("decode error", "error", wrapped)
		c.events.Publish(Event{Kind: EventError, Err: wrapped, Time: c.clock.Now()})
		return
	}

	if err := c.pipe.HandleInbound(msg); err != nil {
		c.logger.Warn("merge error", "error", err)
		c.events.Publish(Event{Kind: EventError, Err: err, Time: c.clock.Now()})
	}
}

func (c *Client) handleSubmission(sub submission) {
	req, err := sub.build()
	if err != nil {
		sub.errs <- err
		return
	}
	if req == nil {
		// A build closure that only needs to read or mutate tree state
		// on the actor goroutine (GetElementByPathnum, SaveTree) has
		// nothing to send; it already did its work inline.
		sub.errs <- nil
		return
	}
	req.Send = c.instrumentSend(req.Send)

	done := c.pipe.Submit(req)
	go func() {
		out := <-done
		if out.Err != nil {
			if errors.Is(out.Err, emberrors.ErrTimeout) {
				c.requestsFailed.Add(1)
			}
		} else {
			c.requestsOK.Add(1)
		}
		if res := out.InvocationResult; res != nil {
			c.events.Publish(Event{
				Kind:         EventInvocationResult,
				InvocationID: res.InvocationID,
				Success:      res.Success,
				Result:       res.Result,
				Time:         c.clock.Now(),
			})
		}
		sub.results <- out
	}()
}

// instrumentSend counts an outbound frame for Stats/metrics without the
// pipeline itself needing to know about frame accounting.
func (c *Client) instrumentSend(send func() error) func() error {
	return func() error {
		err := send()
		if err == nil {
			c.framesOut.Add(1)
			c.metricsHandle().RecordFrame("out")
		}
		return err
	}
}

// onUnsolicited is the pipeline's hook for fragments no active request
// claimed: it walks the merged fragment and emits a value-change event
// per parameter leaf it finds.
func (c *Client) onUnsolicited(fragment tree.Element) {
	for _, child := range fragment.Children() {
		c.emitValueChanges(nil, child)
	}
}

func (c *Client) emitValueChanges(parent tree.Path, el tree.Element) {
	path := effectivePath(parent, el)

	switch v := el.(type) {
	case *ember.Parameter:
		if v.Value.Kind != ember.ValueKindNone {
			c.events.Publish(Event{Kind: EventValueChange, Path: path.String(), Value: v.Value, Time: c.clock.Now()})
		}
	case *ember.QualifiedParameter:
		if v.Value.Kind != ember.ValueKindNone {
			c.events.Publish(Event{Kind: EventValueChange, Path: path.String(), Value: v.Value, Time: c.clock.Now()})
		}
	}

	for _, child := range el.Children() {
		c.emitValueChanges(path, child)
	}
}

func effectivePath(parent tree.Path, el tree.Element) tree.Path {
	if q, ok := el.(tree.Qualified); ok {
		return q.QualifiedPath()
	}
	return parent.Append(el.Number())
}

// submit hands build to the session actor and blocks for its outcome,
// respecting ctx cancellation on both the hand-off and the wait.
func (c *Client) submit(ctx context.Context, build func() (*pipeline.Request, error)) (pipeline.Outcome, error) {
	results := make(chan pipeline.Outcome, 1)
	errs := make(chan error, 1)

	select {
	case c.submissions <- submission{build: build, results: results, errs: errs}:
	case <-ctx.Done():
		return pipeline.Outcome{}, ctx.Err()
	}

	select {
	case out := <-results:
		return out, nil
	case err := <-errs:
		return pipeline.Outcome{}, err
	case <-ctx.Done():
		return pipeline.Outcome{}, ctx.Err()
	}
}

func (c *Client) nextInvocationID() uint32 {
	return c.invocationID.Add(1)
}

func (c *Client) sendFunc(msg *ember.ElementCollection) func() error {
	payload := ember.EncodeMessage(msg)
	return func() error { return c.session.Send(payload) }
}

func (c *Client) String() string {
	return fmt.Sprintf("client(%s, %s)", c.id, c.cfg.Addr())
}
