package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/internal/retry"
)

// TCP dials an Ember+ provider directly over TCP (optionally TLS-wrapped)
// and reconnects with backoff when the connection drops.
type TCP struct {
	addr      string
	tlsConfig *tls.Config
	dialer    net.Dialer

	events chan Event

	connMu sync.Mutex
	conn   net.Conn

	connected  atomic.Bool
	bytesIn    atomic.Int64
	bytesOut   atomic.Int64
	reconnects atomic.Int64
	lastErr    atomic.Value // error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTCP builds a TCP stream targeting addr ("host:port"). A nil
// tlsConfig dials in plaintext.
func NewTCP(addr string, tlsConfig *tls.Config) *TCP {
	return &TCP{
		addr:      addr,
		tlsConfig: tlsConfig,
		dialer:    net.Dialer{Timeout: 10 * time.Second},
		events:    make(chan Event, 32),
	}
}

// Connect dials once synchronously so Connect's error return reflects
// the first attempt, then hands ongoing reconnection to a background
// goroutine.
func (t *TCP) Connect(ctx context.Context) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	t.setConn(conn)

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(runCtx)

	return nil
}

func (t *TCP) dial(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	var err error
	if t.tlsConfig != nil {
		d := tls.Dialer{NetDialer: &t.dialer, Config: t.tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", t.addr)
	} else {
		conn, err = t.dialer.DialContext(ctx, "tcp", t.addr)
	}
	if err != nil {
		return nil, emberrors.WrapTransient(err, "transport", "dial", "connect to "+t.addr)
	}
	return conn, nil
}

func (t *TCP) setConn(conn net.Conn) {
	t.connMu.Lock()
	t.conn = conn
	t.connMu.Unlock()
	t.connected.Store(true)
	t.emit(Event{Kind: EventConnected})
}

// runLoop reads from the current connection until it fails, then
// reconnects with backoff, until ctx is cancelled by Disconnect.
func (t *TCP) runLoop(ctx context.Context) {
	defer t.wg.Done()

	for {
		t.readUntilError(ctx)
		t.connected.Store(false)
		t.emit(Event{Kind: EventDisconnected})

		if ctx.Err() != nil {
			return
		}

		conn, err := t.reconnect(ctx)
		if err != nil {
			return // ctx cancelled during backoff
		}
		t.reconnects.Add(1)
		t.setConn(conn)
	}
}

func (t *TCP) reconnect(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	err := retry.Do(ctx, retry.ReconnectConfig(), func() error {
		c, err := t.dial(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

func (t *TCP) readUntilError(ctx context.Context) {
	t.connMu.Lock()
	conn := t.conn
	t.connMu.Unlock()
	if conn == nil {
		return
	}

	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			t.bytesIn.Add(int64(n))
			data := append([]byte(nil), buf[:n]...)
			t.emit(Event{Kind: EventData, Data: data})
		}
		if err != nil {
			t.lastErr.Store(err)
			t.emit(Event{Kind: EventError, Err: emberrors.WrapTransient(err, "transport", "read", "connection read")})
			return
		}
	}
}

func (t *TCP) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		// Events channel is a best-effort notification stream; a full
		// buffer means no one is listening closely enough to care.
	}
}

// Disconnect stops reconnection and closes the active connection.
func (t *TCP) Disconnect() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.connMu.Lock()
	conn := t.conn
	t.conn = nil
	t.connMu.Unlock()

	t.connected.Store(false)
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// IsConnected reports whether the current connection is up.
func (t *TCP) IsConnected() bool {
	return t.connected.Load()
}

// Write sends b over the active connection.
func (t *TCP) Write(b []byte) (int, error) {
	t.connMu.Lock()
	conn := t.conn
	t.connMu.Unlock()
	if conn == nil {
		return 0, emberrors.WrapTransient(emberrors.ErrTransport, "transport", "Write", "not connected")
	}

	n, err := conn.Write(b)
	t.bytesOut.Add(int64(n))
	if err != nil {
		return n, emberrors.WrapTransient(err, "transport", "Write", "connection write")
	}
	return n, nil
}

// Events returns the stream's lifecycle/data event channel.
func (t *TCP) Events() <-chan Event { return t.events }

// Stats reports cumulative counters for this connection's lifetime.
func (t *TCP) Stats() Stats {
	var lastErr error
	if v := t.lastErr.Load(); v != nil {
		lastErr = v.(error)
	}
	return Stats{
		BytesIn:    t.bytesIn.Load(),
		BytesOut:   t.bytesOut.Load(),
		Reconnects: t.reconnects.Load(),
		LastError:  lastErr,
	}
}

var _ ByteStream = (*TCP)(nil)
