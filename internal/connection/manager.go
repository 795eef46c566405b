package connection

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns one resilient WebSocket connection to a fixed URL.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	attempts int
	timer    *time.Timer

	writeMu  sync.Mutex
	messages chan Frame
}

// NewManager creates a manager in the DISCONNECTED state.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig(cfg.URL).BufferSize
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		state:    StateDisconnected,
		messages: make(chan Frame, cfg.BufferSize),
	}
}

// Messages returns the ordered channel of inbound frames.
func (m *Manager) Messages() <-chan Frame {
	return m.messages
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect begins dialing asynchronously. Calling Connect on a manager whose
// retry budget was exhausted resets the attempt counter and tries again.
// Returns ErrStopped after Close.
func (m *Manager) Connect() error {
	m.mu.Lock()
	switch m.state {
	case StateStopped:
		m.mu.Unlock()
		return ErrStopped
	case StateConnecting, StateConnected:
		m.mu.Unlock()
		return nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.attempts = 0
	m.state = StateConnecting
	m.mu.Unlock()

	go m.dial()
	return nil
}

// Send writes one frame if the connection is CONNECTED; otherwise the frame
// is silently dropped. There is no queuing.
func (m *Manager) Send(data []byte) {
	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		state := m.state
		m.mu.Unlock()
		m.logger.Debug("send dropped, not connected", "state", state.String())
		return
	}
	conn := m.conn
	m.mu.Unlock()

	if err := m.write(conn, data); err != nil {
		m.logger.Warn("write failed", "url", m.cfg.URL, "error", err)
	}
}

// Close transitions to STOPPED, cancels any scheduled reconnect and closes
// the socket. Idempotent; no reconnect ever fires afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		return
	}
	m.state = StateStopped
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
}

// dial performs one connection attempt. Runs outside the lock so Close can
// win the race; a socket opened after Close is discarded.
func (m *Manager) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.DialTimeout}
	conn, _, err := dialer.Dial(m.cfg.URL, nil)

	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.logger.Warn("dial failed", "url", m.cfg.URL, "error", err)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}

	m.conn = conn
	m.state = StateConnected
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Debug("websocket connected", "url", m.cfg.URL)

	for _, frame := range m.cfg.Hello {
		if werr := m.write(conn, frame); werr != nil {
			m.logger.Warn("hello frame failed", "url", m.cfg.URL, "error", werr)
		}
	}

	go m.readLoop(conn)
}

// readLoop reads frames until the socket errors or the manager stops.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			m.mu.Lock()
			if m.state == StateStopped {
				m.mu.Unlock()
				return
			}
			m.conn = nil
			m.logger.Warn("connection lost", "url", m.cfg.URL, "error", err)
			m.scheduleReconnectLocked()
			m.mu.Unlock()
			return
		}

		if !json.Valid(data) {
			m.logger.Warn("dropping malformed frame", "url", m.cfg.URL, "bytes", len(data))
			continue
		}

		select {
		case m.messages <- Frame{Data: data, ReceivedAt: receivedAt}:
		default:
			m.logger.Warn("frame buffer full, dropping frame", "url", m.cfg.URL)
		}
	}
}

// scheduleReconnectLocked arms the reconnect timer. Caller holds m.mu.
// Delay grows linearly with the attempt count; once the budget is exhausted
// the manager stays DISCONNECTED until an explicit Connect.
func (m *Manager) scheduleReconnectLocked() {
	if m.attempts >= m.cfg.MaxAttempts {
		m.state = StateDisconnected
		m.logger.Warn("reconnect attempts exhausted",
			"url", m.cfg.URL,
			"attempts", m.attempts,
		)
		return
	}

	m.attempts++
	delay := time.Duration(m.attempts) * m.cfg.ReconnectDelay
	m.state = StateReconnectScheduled

	m.logger.Info("reconnect scheduled",
		"url", m.cfg.URL,
		"attempt", m.attempts,
		"delay", delay,
	)

	m.timer = time.AfterFunc(delay, m.retry)
}

// retry fires when the reconnect timer elapses.
func (m *Manager) retry() {
	m.mu.Lock()
	if m.state != StateReconnectScheduled {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = StateConnecting
	m.mu.Unlock()

	m.dial()
}

// write serializes writes to the socket with a deadline.
func (m *Manager) write(conn *websocket.Conn, data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
