package connection

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// waitForState polls until the manager reaches the given state.
func waitForState(t *testing.T, m *Manager, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v after %v", m.State(), want, timeout)
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.ReconnectDelay = 5 * time.Millisecond
	cfg.BufferSize = 100
	return cfg
}

func TestManager_ConnectAndReceive(t *testing.T) {
	frames := []string{
		`{"e":"24hrTicker","s":"BTCUSDT","c":"42000.5"}`,
		`{"e":"24hrTicker","s":"ETHUSDT","c":"2500.1"}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	m := NewManager(testConfig(wsURL(server)), nil)
	defer m.Close()

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, m, StateConnected, time.Second)

	for i, want := range frames {
		select {
		case frame := <-m.Messages():
			if string(frame.Data) != want {
				t.Errorf("frame %d = %q, want %q", i, frame.Data, want)
			}
			if frame.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for frame %d", i)
		}
	}
}

func TestManager_MalformedFrameDropped(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"ok":true}`))
		time.Sleep(time.Second)
	})
	defer server.Close()

	m := NewManager(testConfig(wsURL(server)), nil)
	defer m.Close()

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// The malformed frame is discarded; the next valid one still arrives and
	// the connection stays up.
	select {
	case frame := <-m.Messages():
		if string(frame.Data) != `{"ok":true}` {
			t.Errorf("frame = %q, want the valid frame", frame.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for valid frame")
	}

	if m.State() != StateConnected {
		t.Errorf("state = %v, want CONNECTED after malformed frame", m.State())
	}
}

func TestManager_SendSilentlyDroppedWhenDisconnected(t *testing.T) {
	m := NewManager(testConfig("ws://localhost:1"), nil)
	defer m.Close()

	// Must not panic, block or queue.
	m.Send([]byte(`{"op":"subscribe"}`))

	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want DISCONNECTED", m.State())
	}
}

func TestManager_HelloFramesSentOnOpen(t *testing.T) {
	got := make(chan []byte, 2)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- msg
		}
	})
	defer server.Close()

	cfg := testConfig(wsURL(server))
	cfg.Hello = [][]byte{[]byte(`{"op":"subscribe","args":["tickers.BTCUSDT"]}`)}

	m := NewManager(cfg, nil)
	defer m.Close()

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case msg := <-got:
		if string(msg) != string(cfg.Hello[0]) {
			t.Errorf("hello = %q, want %q", msg, cfg.Hello[0])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for hello frame")
	}
}

func TestManager_GivesUpAfterMaxAttempts(t *testing.T) {
	// Nothing listens here; every dial fails.
	cfg := testConfig("ws://127.0.0.1:1")
	cfg.DialTimeout = 50 * time.Millisecond
	cfg.MaxAttempts = 5

	m := NewManager(cfg, nil)
	defer m.Close()

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// 5 failed attempts with linear delays, then a deliberate give-up.
	waitForState(t, m, StateDisconnected, 3*time.Second)

	// Stays DISCONNECTED without an explicit Connect.
	time.Sleep(100 * time.Millisecond)
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want DISCONNECTED after giving up", m.State())
	}

	// An explicit Connect resets the budget and tries again.
	if err := m.Connect(); err != nil {
		t.Fatalf("Connect after give-up failed: %v", err)
	}
	if s := m.State(); s != StateConnecting && s != StateReconnectScheduled && s != StateDisconnected {
		t.Errorf("state = %v, want an active retry state", s)
	}
}

func TestManager_CloseBeforeOpenCancelsReconnect(t *testing.T) {
	var dials atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		dials.Add(1)
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	m := NewManager(testConfig(wsURL(server)), nil)

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	m.Close()

	waitForState(t, m, StateStopped, time.Second)

	// No reconnect attempt ever fires after a manual close.
	before := dials.Load()
	time.Sleep(100 * time.Millisecond)
	if after := dials.Load(); after > before || after > 1 {
		t.Errorf("dials went %d -> %d after Close", before, after)
	}

	if err := m.Connect(); err != ErrStopped {
		t.Errorf("Connect after Close = %v, want ErrStopped", err)
	}
}

func TestManager_ReconnectsAfterServerClose(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n == 1 {
			return // Drop the first connection immediately.
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	m := NewManager(testConfig(wsURL(server)), nil)
	defer m.Close()

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// After the server drops us once, the manager reconnects on its own.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conns.Load() >= 2 && m.State() == StateConnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never reconnected: conns=%d state=%v", conns.Load(), m.State())
}

func TestManager_CloseIdempotent(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	m := NewManager(testConfig(wsURL(server)), nil)

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	m.Close()
	m.Close() // Second close is a no-op.

	if m.State() != StateStopped {
		t.Errorf("state = %v, want STOPPED", m.State())
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateDisconnected:       "DISCONNECTED",
		StateConnecting:         "CONNECTING",
		StateConnected:          "CONNECTED",
		StateReconnectScheduled: "RECONNECT_SCHEDULED",
		StateStopped:            "STOPPED",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
