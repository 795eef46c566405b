package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tint-protocol/TintAi/internal/connection"
	"github.com/Tint-protocol/TintAi/internal/store"
)

// MaxTopics is the subscription ceiling for one exchange connection.
const MaxTopics = 50

// DefaultDebounce is how long topic additions coalesce before one reconnect.
const DefaultDebounce = 800 * time.Millisecond

// Feed describes one exchange's wire protocol to the multiplexer.
type Feed interface {
	// Name labels the exchange in logs.
	Name() string

	// Topic derives the subscription channel name for a symbol.
	Topic(symbol string) string

	// URL builds the connection URL for the full topic set.
	URL(topics []string) string

	// Hello returns frames to send after every successful open, or nil when
	// the topic set is encoded in the URL instead.
	Hello(topics []string) [][]byte

	// Handle inspects one inbound frame and merges any matching event into
	// the store. Non-matching frames are ignored.
	Handle(data []byte, st *store.Store)
}

// Config configures a Multiplexer.
type Config struct {
	Debounce time.Duration     // Reconnect debounce for topic additions
	Conn     connection.Config // Template for the underlying connection (URL/Hello filled per reconnect)
}

// Multiplexer maintains the topic working set for one exchange and exactly
// one underlying connection.
type Multiplexer struct {
	feed   Feed
	store  *store.Store
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	topics   []string // Insertion-ordered, distinct
	topicSet map[string]struct{}
	conn     *connection.Manager
	debounce *time.Timer
	consume  context.CancelFunc // Cancels the consumer of the previous connection
	stopped  bool
	started  bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	connects int // Completed (re)connect cycles, for tests and stats
}

// NewMultiplexer creates a multiplexer with an empty topic set.
func NewMultiplexer(feed Feed, st *store.Store, cfg Config, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Multiplexer{
		feed:     feed,
		store:    st,
		cfg:      cfg,
		logger:   logger.With("feed", feed.Name()),
		topicSet: make(map[string]struct{}),
	}
}

// Start connects with the current topic set and begins consuming events.
func (x *Multiplexer) Start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.stopped {
		return connection.ErrStopped
	}
	if x.started {
		return nil
	}
	x.started = true
	x.ctx, x.cancel = context.WithCancel(ctx)

	x.reconnectLocked()

	x.logger.Info("multiplexer started", "topics", len(x.topics))
	return nil
}

// Stop closes the connection and cancels any pending debounce. Idempotent.
func (x *Multiplexer) Stop() {
	x.mu.Lock()
	if x.stopped {
		x.mu.Unlock()
		return
	}
	x.stopped = true
	if x.debounce != nil {
		x.debounce.Stop()
		x.debounce = nil
	}
	conn := x.conn
	x.conn = nil
	if x.cancel != nil {
		x.cancel()
	}
	x.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	x.wg.Wait()

	x.logger.Info("multiplexer stopped")
}

// AddSymbol adds the symbol's topic to the working set. Already-present
// topics are a no-op; additions past the ceiling are dropped without error.
// Any accepted addition schedules a debounced full reconnect.
func (x *Multiplexer) AddSymbol(symbol string) {
	topic := x.feed.Topic(symbol)

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.stopped {
		return
	}
	if _, ok := x.topicSet[topic]; ok {
		return
	}
	if len(x.topics) >= MaxTopics {
		x.logger.Debug("topic ceiling reached, dropping", "topic", topic, "ceiling", MaxTopics)
		return
	}

	x.topicSet[topic] = struct{}{}
	x.topics = append(x.topics, topic)

	x.scheduleReconnectLocked()
}

// Reset replaces the whole topic set and reconnects immediately, bypassing
// the debounce. Used when the active symbol changes and both feeds must move
// in lockstep.
func (x *Multiplexer) Reset(symbols ...string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.stopped {
		return
	}

	x.topics = x.topics[:0]
	x.topicSet = make(map[string]struct{})
	for _, s := range symbols {
		topic := x.feed.Topic(s)
		if _, ok := x.topicSet[topic]; ok {
			continue
		}
		if len(x.topics) >= MaxTopics {
			break
		}
		x.topicSet[topic] = struct{}{}
		x.topics = append(x.topics, topic)
	}

	if x.debounce != nil {
		x.debounce.Stop()
		x.debounce = nil
	}
	if x.started {
		x.reconnectLocked()
	}
}

// Topics returns a copy of the current topic set in insertion order.
func (x *Multiplexer) Topics() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]string, len(x.topics))
	copy(out, x.topics)
	return out
}

// Connects reports how many (re)connect cycles have run.
func (x *Multiplexer) Connects() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.connects
}

// scheduleReconnectLocked arms the debounce timer. Caller holds x.mu.
func (x *Multiplexer) scheduleReconnectLocked() {
	if !x.started || x.debounce != nil {
		return
	}
	x.debounce = time.AfterFunc(x.cfg.Debounce, func() {
		x.mu.Lock()
		defer x.mu.Unlock()
		x.debounce = nil
		if x.stopped || !x.started {
			return
		}
		x.reconnectLocked()
	})
}

// reconnectLocked tears down the current connection and dials a new one
// built from the full topic set. Caller holds x.mu.
func (x *Multiplexer) reconnectLocked() {
	topics := make([]string, len(x.topics))
	copy(topics, x.topics)

	if x.conn != nil {
		x.conn.Close()
	}
	if x.consume != nil {
		x.consume()
	}

	cfg := x.cfg.Conn
	cfg.URL = x.feed.URL(topics)
	cfg.Hello = x.feed.Hello(topics)

	conn := connection.NewManager(cfg, x.logger)
	x.conn = conn
	x.connects++

	consumeCtx, cancel := context.WithCancel(x.ctx)
	x.consume = cancel

	x.wg.Add(1)
	go x.consumeLoop(consumeCtx, conn)

	if err := conn.Connect(); err != nil {
		x.logger.Warn("connect failed", "error", err)
	}

	x.logger.Info("reconnecting with topic set", "topics", len(topics))
}

// consumeLoop feeds inbound frames to the exchange adapter until the
// connection is replaced or the multiplexer stops.
func (x *Multiplexer) consumeLoop(ctx context.Context, conn *connection.Manager) {
	defer x.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-conn.Messages():
			x.feed.Handle(frame.Data, x.store)
		}
	}
}
