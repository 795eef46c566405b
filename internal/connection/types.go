package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrStopped = errors.New("connection manager stopped")
)

// State is the connection lifecycle state. It is owned exclusively by one
// Manager instance and never shared.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnectScheduled
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnectScheduled:
		return "RECONNECT_SCHEDULED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Frame wraps one raw inbound message with its receive timestamp.
type Frame struct {
	Data       []byte    // Raw frame bytes, guaranteed to be valid JSON
	ReceivedAt time.Time // Local timestamp when the frame was read
}

// Config configures a Manager.
type Config struct {
	URL            string        // Fixed WebSocket URL for this manager
	Hello          [][]byte      // Frames sent after every successful open (e.g. subscribe commands)
	DialTimeout    time.Duration // Handshake timeout
	WriteTimeout   time.Duration // Write deadline for sends
	ReconnectDelay time.Duration // Base delay; actual delay grows linearly with attempt count
	MaxAttempts    int           // Reconnect attempts before giving up
	BufferSize     int           // Frame channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		ReconnectDelay: 2 * time.Second,
		MaxAttempts:    5,
		BufferSize:     1000,
	}
}
