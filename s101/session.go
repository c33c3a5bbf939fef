package s101

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/internal/buffer"
	"github.com/emberplus-go/goember/transport"
)

// maxPacketPayload bounds how much payload one frame carries before Send
// splits a message across multiple First/LastPacket frames.
const maxPacketPayload = 1024

// Packet is one reassembled logical EmBER message ready for the codec.
type Packet struct {
	Payload []byte
}

// Session drives the S101 framing protocol over a transport.ByteStream:
// it reassembles inbound frames into Packets, answers keep-alives, and
// frames outbound payloads for Send.
type Session struct {
	stream transport.ByteStream
	clock  transport.Clock

	keepAliveInterval time.Duration
	keepAliveTimeout  time.Duration

	packets      *buffer.Buffer[Packet]
	frameErrors  chan error
	errLimiter   *rate.Limiter
	lastRecv     atomic.Int64 // unix nanos
	scanner      Scanner
	reassembler  Reassembler
}

// NewSession constructs a Session. keepAliveInterval/keepAliveTimeout of
// zero disable the keep-alive ticker and liveness check respectively.
func NewSession(stream transport.ByteStream, clock transport.Clock, keepAliveInterval, keepAliveTimeout time.Duration) *Session {
	s := &Session{
		stream:            stream,
		clock:             clock,
		keepAliveInterval: keepAliveInterval,
		keepAliveTimeout:  keepAliveTimeout,
		packets:           buffer.New[Packet](64, buffer.Block, nil),
		frameErrors:       make(chan error, 16),
		errLimiter:        rate.NewLimiter(rate.Every(time.Second), 5),
	}
	s.lastRecv.Store(time.Now().UnixNano())
	return s
}

// Packets returns the queue of reassembled inbound messages.
func (s *Session) Packets() *buffer.Buffer[Packet] { return s.packets }

// Errors returns a channel of FrameError notifications. Emission is
// rate-limited; the underlying frame is always dropped regardless of
// whether an event was emitted for it.
func (s *Session) Errors() <-chan error { return s.frameErrors }

// Run processes transport events until ctx is cancelled or a fatal error
// occurs, coordinating the frame reader and the keep-alive ticker as two
// goroutines under one errgroup.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.readLoop(ctx) })
	if s.keepAliveInterval > 0 {
		g.Go(func() error { return s.keepAliveLoop(ctx) })
	}

	return g.Wait()
}

func (s *Session) readLoop(ctx context.Context) error {
	events := s.stream.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return emberrors.WrapFatal(emberrors.ErrTransport, "s101", "readLoop", "event stream closed")
			}
			if ev.Kind != transport.EventData {
				continue
			}
			if err := s.handleData(ev.Data); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handleData(data []byte) error {
	for _, raw := range s.scanner.Feed(data) {
		frame, err := Decode(raw)
		if err != nil {
			s.emitFrameError(err)
			continue
		}
		s.lastRecv.Store(time.Now().UnixNano())

		switch frame.MessageType {
		case MessageKeepAliveRequest:
			s.respondKeepAlive()
		case MessageKeepAliveResponse:
			// liveness already refreshed above; nothing else to do.
		default:
			payload, complete, err := s.reassembler.Add(frame)
			if err != nil {
				s.emitFrameError(err)
				continue
			}
			if complete {
				if err := s.packets.Write(Packet{Payload: payload}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Session) emitFrameError(err error) {
	if !s.errLimiter.Allow() {
		return
	}
	select {
	case s.frameErrors <- err:
	default:
	}
}

func (s *Session) respondKeepAlive() {
	frame := Frame{MessageType: MessageKeepAliveResponse, Flags: FlagFirstPacket | FlagLastPacket}
	_, _ = s.stream.Write(Encode(frame))
}

func (s *Session) keepAliveLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.keepAliveTimeout > 0 {
				last := time.Unix(0, s.lastRecv.Load())
				if time.Since(last) > s.keepAliveTimeout {
					return emberrors.WrapFatal(emberrors.ErrTransport, "s101", "keepAliveLoop", "peer liveness timeout")
				}
			}
			frame := Frame{MessageType: MessageKeepAliveRequest, Flags: FlagFirstPacket | FlagLastPacket}
			if _, err := s.stream.Write(Encode(frame)); err != nil {
				return emberrors.WrapTransient(err, "s101", "keepAliveLoop", "send keep-alive")
			}
		}
	}
}

// Send frames payload for transmission, splitting it across multiple
// packets if it exceeds the per-frame payload budget.
func (s *Session) Send(payload []byte) error {
	if len(payload) == 0 {
		_, err := s.stream.Write(Encode(Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket}))
		return err
	}

	for offset := 0; offset < len(payload); offset += maxPacketPayload {
		end := offset + maxPacketPayload
		if end > len(payload) {
			end = len(payload)
		}
		var flags byte
		if offset == 0 {
			flags |= FlagFirstPacket
		}
		if end == len(payload) {
			flags |= FlagLastPacket
		}
		frame := Frame{MessageType: MessageEmberData, Flags: flags, Payload: payload[offset:end]}
		if _, err := s.stream.Write(Encode(frame)); err != nil {
			return emberrors.WrapTransient(err, "s101", "Send", "write frame")
		}
	}
	return nil
}
