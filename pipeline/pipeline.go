// Package pipeline serializes outbound Ember+ requests against a single
// provider connection, correlates inbound responses back to the request
// that caused them, and routes everything else to the local tree as an
// unsolicited update.
//
// A Pipeline is driven synchronously by the session actor that also owns
// the local tree (package client): Submit, HandleInbound, Tick and Drain
// are not safe for concurrent use, the same way tree.Update is not —
// they are meant to be called from one goroutine only.
package pipeline

import (
	"time"

	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/metric"
	"github.com/emberplus-go/goember/transport"
	"github.com/emberplus-go/goember/tree"
)

// State names the pipeline's position in the per-session state machine.
type State int

const (
	Idle State = iota
	Active
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Request is one enqueued pipeline operation. Op, Send and MatchResponse
// are supplied by the caller (package client), which is the only layer
// that knows how to build Ember+ wire payloads and recognize their
// responses; the pipeline only enforces ordering, correlation and
// deadlines.
type Request struct {
	// Op labels this request for metrics ("getDirectory", "setValue",
	// "matrixConnect", "subscribe", "unsubscribe", "invoke").
	Op string

	// TargetPath is a weak back-reference to the node this request
	// concerns, carried as a plain string rather than a *tree.Element so
	// a request outliving its target's removal from the tree never pins
	// that node in memory.
	TargetPath string

	// InvocationID is non-zero for function invocations. Invocation
	// requests are exempt from the at-most-one-in-flight rule: they are
	// sent in enqueue order like everything else, but the pipeline does
	// not wait for an invocation's result before sending the next queued
	// request.
	InvocationID uint32

	// Timeout overrides the pipeline's default deadline for this request;
	// zero means use the default.
	Timeout time.Duration

	// Send transmits the already-built request frame. A non-nil error
	// fails the request immediately without consuming a deadline.
	Send func() error

	// MatchResponse reports whether fragment (the inbound message just
	// merged into the tree) satisfies this request. Nil means the
	// request completes as soon as Send returns, with no response
	// expected — the subscribe/unsubscribe case.
	MatchResponse func(fragment tree.Element) bool

	done chan Outcome
}

// Outcome is a Request's single settlement: either Root (a getDirectory,
// setValue or matrix-op echo, already merged into the tree), an
// InvocationResult (a function call answer, matched by id, never
// merged), or Err.
type Outcome struct {
	Root             tree.Element
	InvocationResult *ember.InvocationResult
	Err              error
}

type waiting struct {
	req      *Request
	deadline time.Time
	started  time.Time
}

// Pipeline implements the Idle/Active/Draining state machine described
// above a local tree.Element root.
type Pipeline struct {
	root           tree.Element
	clock          transport.Clock
	metrics        *metric.Metrics
	defaultTimeout time.Duration
	onUnsolicited  func(tree.Element)

	state       State
	queue       []*Request
	active      *waiting
	invocations map[uint32]*waiting
}

// New builds a Pipeline merging responses into root and using clock for
// deadline bookkeeping. onUnsolicited, if non-nil, is called with every
// inbound fragment that is not claimed by the active request — the hook
// package client uses to emit value-change events.
func New(root tree.Element, clock transport.Clock, metrics *metric.Metrics, defaultTimeout time.Duration, onUnsolicited func(tree.Element)) *Pipeline {
	if defaultTimeout <= 0 {
		defaultTimeout = 3 * time.Second
	}
	return &Pipeline{
		root:           root,
		clock:          clock,
		metrics:        metrics,
		defaultTimeout: defaultTimeout,
		onUnsolicited:  onUnsolicited,
		invocations:    make(map[uint32]*waiting),
	}
}

// State reports the pipeline's current state.
func (p *Pipeline) State() State { return p.state }

// Submit enqueues req and returns the channel its single Outcome will
// arrive on. If the pipeline is draining, req is failed immediately.
func (p *Pipeline) Submit(req *Request) <-chan Outcome {
	req.done = make(chan Outcome, 1)

	if p.state == Draining {
		p.settle(req, Outcome{Err: emberrors.WrapInvalid(emberrors.ErrConnectionClosed, "pipeline", "Submit", "session is draining")})
		return req.done
	}

	p.queue = append(p.queue, req)
	p.metrics.SetPipelineDepth(p.depth())
	p.pump()
	return req.done
}

// depth reports requests queued plus in flight, for the pipeline-depth
// gauge.
func (p *Pipeline) depth() int {
	n := len(p.queue)
	if p.active != nil {
		n++
	}
	n += len(p.invocations)
	return n
}

// pump sends as many queued requests as the at-most-one-in-flight rule
// allows: invocations are dispatched unconditionally in order, and at
// most one non-invocation request is sent before pump stops to await
// its outcome.
func (p *Pipeline) pump() {
	for len(p.queue) > 0 {
		req := p.queue[0]

		if req.InvocationID != 0 {
			p.queue = p.queue[1:]
			p.dispatchInvocation(req)
			continue
		}

		if req.MatchResponse == nil {
			p.queue = p.queue[1:]
			p.dispatchFireAndForget(req)
			continue
		}

		if p.state == Active {
			return
		}

		p.queue = p.queue[1:]
		p.dispatchActive(req)
		return
	}
}

func (p *Pipeline) dispatchInvocation(req *Request) {
	now := p.clock.Now()
	if err := req.Send(); err != nil {
		p.recordOutcome(req, now, false)
		p.settle(req, Outcome{Err: err})
		return
	}
	p.invocations[req.InvocationID] = &waiting{req: req, deadline: now.Add(p.timeoutFor(req)), started: now}
	p.metrics.SetPipelineDepth(p.depth())
}

func (p *Pipeline) dispatchFireAndForget(req *Request) {
	now := p.clock.Now()
	err := req.Send()
	p.recordOutcome(req, now, err == nil)
	p.settle(req, Outcome{Err: err})
}

func (p *Pipeline) dispatchActive(req *Request) {
	now := p.clock.Now()
	if err := req.Send(); err != nil {
		p.recordOutcome(req, now, false)
		p.settle(req, Outcome{Err: err})
		p.pump()
		return
	}
	p.state = Active
	p.active = &waiting{req: req, deadline: now.Add(p.timeoutFor(req)), started: now}
	p.metrics.SetPipelineDepth(p.depth())
}

func (p *Pipeline) timeoutFor(req *Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return p.defaultTimeout
}

// HandleInbound merges msg into the tree, resolves the active request if
// msg satisfies its matcher, routes InvocationResult children back to
// their invocation by id, and surfaces everything else as an
// unsolicited update.
func (p *Pipeline) HandleInbound(msg *ember.ElementCollection) error {
	merged := &ember.ElementCollection{}
	var results []*ember.InvocationResult

	for _, child := range msg.Children() {
		if res, ok := child.(*ember.InvocationResult); ok {
			results = append(results, res)
			continue
		}
		if err := merged.AddChild(child); err != nil {
			return err
		}
	}

	if len(merged.Children()) > 0 {
		if err := tree.Update(p.root, merged); err != nil {
			return err
		}
	}

	if p.active != nil && p.active.req.MatchResponse(merged) {
		w := p.active
		p.active = nil
		p.state = Idle
		p.recordOutcome(w.req, w.started, true)
		p.settle(w.req, Outcome{Root: merged})
	}

	// A matched response still carries scalar changes worth surfacing (a
	// setValue echo reports the peer's accepted value): route every
	// merged fragment through onUnsolicited regardless of whether a
	// request claimed it, so value-change events aren't limited to
	// fragments no request was waiting on.
	if len(merged.Children()) > 0 && p.onUnsolicited != nil {
		p.onUnsolicited(merged)
	}

	for _, res := range results {
		w, ok := p.invocations[res.InvocationID]
		if !ok {
			continue
		}
		delete(p.invocations, res.InvocationID)
		p.recordOutcome(w.req, w.started, true)
		p.settle(w.req, Outcome{InvocationResult: res})
	}

	p.metrics.SetPipelineDepth(p.depth())
	p.pump()
	return nil
}

// Tick fails the active request and any outstanding invocation whose
// deadline has passed with Timeout, and advances the queue. The session
// actor calls this on every loop iteration, or from a dedicated timer;
// a timed-out response that arrives later is merged as an unsolicited
// update by HandleInbound, never matched against a request that no
// longer exists.
func (p *Pipeline) Tick(now time.Time) {
	if p.active != nil && !now.Before(p.active.deadline) {
		w := p.active
		p.active = nil
		p.state = Idle
		p.recordOutcome(w.req, w.started, false)
		p.settle(w.req, Outcome{Err: emberrors.WrapTransient(emberrors.ErrTimeout, "pipeline", w.req.Op, "no matching response before deadline")})
	}

	for id, w := range p.invocations {
		if now.Before(w.deadline) {
			continue
		}
		delete(p.invocations, id)
		p.recordOutcome(w.req, w.started, false)
		p.settle(w.req, Outcome{Err: emberrors.WrapTransient(emberrors.ErrTimeout, "pipeline", w.req.Op, "no invocation result before deadline")})
	}

	p.metrics.SetPipelineDepth(p.depth())
	p.pump()
}

// Drain fails every queued, active and outstanding-invocation request
// with err and moves the pipeline to Draining; subsequent Submit calls
// fail immediately. Used when the session disconnects.
func (p *Pipeline) Drain(err error) {
	p.state = Draining

	if p.active != nil {
		p.recordOutcome(p.active.req, p.active.started, false)
		p.settle(p.active.req, Outcome{Err: err})
		p.active = nil
	}
	for id, w := range p.invocations {
		delete(p.invocations, id)
		p.recordOutcome(w.req, w.started, false)
		p.settle(w.req, Outcome{Err: err})
	}
	for _, req := range p.queue {
		p.recordOutcome(req, p.clock.Now(), false)
		p.settle(req, Outcome{Err: err})
	}
	p.queue = nil
	p.metrics.SetPipelineDepth(0)
}

func (p *Pipeline) recordOutcome(req *Request, started time.Time, ok bool) {
	outcome := "error"
	if ok {
		outcome = "success"
	}
	p.metrics.RecordRequest(req.Op, outcome, p.clock.Now().Sub(started))
}

func (p *Pipeline) settle(req *Request, outcome Outcome) {
	select {
	case req.done <- outcome:
	default:
		// A request settles exactly once; a second attempt (there
		// should never be one) is dropped rather than blocking the
		// session actor.
	}
}
