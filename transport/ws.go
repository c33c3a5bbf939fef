package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/internal/retry"
)

// WSBridge carries S101 frames over a WebSocket connection to a
// browser-reachable bridge that relays them to the real Ember+ TCP
// device, for control surfaces that cannot open raw sockets.
type WSBridge struct {
	url       string
	header    http.Header
	tlsConfig *tls.Config

	events chan Event

	connMu sync.Mutex
	conn   *websocket.Conn

	connected  atomic.Bool
	bytesIn    atomic.Int64
	bytesOut   atomic.Int64
	reconnects atomic.Int64
	lastErr    atomic.Value

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWSBridge builds a WSBridge dialing url (e.g. "wss://bridge/ember").
func NewWSBridge(url string, header http.Header, tlsConfig *tls.Config) *WSBridge {
	return &WSBridge{
		url:       url,
		header:    header,
		tlsConfig: tlsConfig,
		events:    make(chan Event, 32),
	}
}

func (w *WSBridge) dialer() *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: 45 * time.Second,
		TLSClientConfig:  w.tlsConfig,
	}
}

// Connect dials once synchronously, then hands ongoing reconnection to
// a background goroutine, mirroring TCP.Connect.
func (w *WSBridge) Connect(ctx context.Context) error {
	conn, err := w.dial(ctx)
	if err != nil {
		return err
	}
	w.setConn(conn)

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.runLoop(runCtx)

	return nil
}

func (w *WSBridge) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := w.dialer().DialContext(ctx, w.url, w.header)
	if err != nil {
		return nil, emberrors.WrapTransient(err, "transport", "dial", "connect to "+w.url)
	}
	return conn, nil
}

func (w *WSBridge) setConn(conn *websocket.Conn) {
	w.connMu.Lock()
	w.conn = conn
	w.connMu.Unlock()
	w.connected.Store(true)
	w.emit(Event{Kind: EventConnected})
}

func (w *WSBridge) runLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		w.readUntilError(ctx)
		w.connected.Store(false)
		w.emit(Event{Kind: EventDisconnected})

		if ctx.Err() != nil {
			return
		}

		conn, err := w.reconnect(ctx)
		if err != nil {
			return
		}
		w.reconnects.Add(1)
		w.setConn(conn)
	}
}

func (w *WSBridge) reconnect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := retry.Do(ctx, retry.ReconnectConfig(), func() error {
		c, err := w.dial(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

func (w *WSBridge) readUntilError(ctx context.Context) {
	w.connMu.Lock()
	conn := w.conn
	w.connMu.Unlock()
	if conn == nil {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			w.lastErr.Store(err)
			w.emit(Event{Kind: EventError, Err: emberrors.WrapTransient(err, "transport", "read", "websocket read")})
			return
		}
		w.bytesIn.Add(int64(len(data)))
		w.emit(Event{Kind: EventData, Data: data})
	}
}

func (w *WSBridge) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
	}
}

// Disconnect stops reconnection and closes the active connection.
func (w *WSBridge) Disconnect() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.connMu.Lock()
	conn := w.conn
	w.conn = nil
	w.connMu.Unlock()

	w.connected.Store(false)
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// IsConnected reports whether the current connection is up.
func (w *WSBridge) IsConnected() bool {
	return w.connected.Load()
}

// Write sends b as one binary WebSocket message. S101 frames are
// self-delimiting, so this library always writes one frame per message
// rather than accumulating a byte stream.
func (w *WSBridge) Write(b []byte) (int, error) {
	w.connMu.Lock()
	conn := w.conn
	w.connMu.Unlock()
	if conn == nil {
		return 0, emberrors.WrapTransient(emberrors.ErrTransport, "transport", "Write", "not connected")
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, emberrors.WrapTransient(err, "transport", "Write", "websocket write")
	}
	w.bytesOut.Add(int64(len(b)))
	return len(b), nil
}

// Events returns the stream's lifecycle/data event channel.
func (w *WSBridge) Events() <-chan Event { return w.events }

// Stats reports cumulative counters for this connection's lifetime.
func (w *WSBridge) Stats() Stats {
	var lastErr error
	if v := w.lastErr.Load(); v != nil {
		lastErr = v.(error)
	}
	return Stats{
		BytesIn:    w.bytesIn.Load(),
		BytesOut:   w.bytesOut.Load(),
		Reconnects: w.reconnects.Load(),
		LastError:  lastErr,
	}
}

var _ ByteStream = (*WSBridge)(nil)
