package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestTCPConnectWriteRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	stream := NewTCP(ln.Addr().String(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, stream.Connect(ctx))
	defer stream.Disconnect()

	serverConn := <-accepted
	defer serverConn.Close()

	_, err = serverConn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case ev := <-stream.Events():
		require.Equal(t, EventConnected, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventConnected")
	}

	select {
	case ev := <-stream.Events():
		require.Equal(t, EventData, ev.Kind)
		require.Equal(t, []byte("hello"), ev.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventData")
	}

	n, err := stream.Write([]byte("world"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.True(t, stream.IsConnected())
	require.NoError(t, stream.Disconnect())
	require.False(t, stream.IsConnected())
}

func TestWSBridgeConnectWriteRead(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	received := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- data
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("ack"))
	}))
	defer server.Close()

	url := "ws" + server.URL[len("http"):]
	bridge := NewWSBridge(url, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bridge.Connect(ctx))
	defer bridge.Disconnect()

	n, err := bridge.Write([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	select {
	case data := <-received:
		require.Equal(t, []byte("ping"), data)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the frame")
	}

	select {
	case ev := <-bridge.Events():
		for ev.Kind != EventData {
			select {
			case ev = <-bridge.Events():
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for EventData")
			}
		}
		require.Equal(t, []byte("ack"), ev.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ack event")
	}
}
