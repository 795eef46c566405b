package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Tint-protocol/TintAi/internal/model"
)

// DefaultActiveSymbol is the pair selected before any consumer picks one.
const DefaultActiveSymbol = "BTCUSDT"

// Store is a concurrent-safe keyed store of per-symbol market records.
// A single instance is constructed in main and passed by reference to every
// producer and consumer.
type Store struct {
	mu       sync.RWMutex
	tickers  map[string]*model.TickerRecord
	matrices map[string]*model.MarketMatrix
	active   string

	watch  watchSet
	logger *slog.Logger

	now func() time.Time // Clock, replaceable in tests.
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		tickers:  make(map[string]*model.TickerRecord),
		matrices: make(map[string]*model.MarketMatrix),
		active:   DefaultActiveSymbol,
		watch:    newWatchSet(),
		logger:   logger,
		now:      time.Now,
	}
}

// MergeTicker applies a partial update to the symbol's ticker record,
// creating a zero-valued record first if none exists. LastUpdated is stamped
// with the merge time.
func (s *Store) MergeTicker(symbol string, patch model.TickerPatch) {
	s.mu.Lock()
	r, ok := s.tickers[symbol]
	if !ok {
		r = &model.TickerRecord{Symbol: symbol}
		s.tickers[symbol] = r
	}
	patch.Apply(r)
	r.LastUpdated = s.now()
	s.mu.Unlock()

	s.watch.notify(Update{Symbol: symbol, Kind: KindTicker})
}

// GetTicker returns the current ticker record for symbol. The second return
// value is false if no update has ever been merged for the symbol.
func (s *Store) GetTicker(symbol string) (model.TickerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.tickers[symbol]
	if !ok {
		return model.TickerRecord{}, false
	}
	return *r, true
}

// MergeMatrix applies a partial update to the symbol's matrix record,
// creating a default record first if none exists.
func (s *Store) MergeMatrix(symbol string, patch model.MatrixPatch) {
	s.mu.Lock()
	m, ok := s.matrices[symbol]
	if !ok {
		m = defaultMatrix(symbol)
		s.matrices[symbol] = m
	}
	patch.Apply(m)
	m.LastUpdated = s.now()
	s.mu.Unlock()

	s.watch.notify(Update{Symbol: symbol, Kind: KindMatrix})
}

// GetMatrix returns the current matrix record for symbol.
func (s *Store) GetMatrix(symbol string) (model.MarketMatrix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matrices[symbol]
	if !ok {
		return model.MarketMatrix{}, false
	}
	return *m, true
}

// ActiveSymbol returns the currently selected pair.
func (s *Store) ActiveSymbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveSymbol records the pair the display layer is focused on and
// notifies watchers. Resubscription is the orchestrator's job.
func (s *Store) SetActiveSymbol(symbol string) {
	s.mu.Lock()
	changed := s.active != symbol
	s.active = symbol
	s.mu.Unlock()

	if changed {
		s.watch.notify(Update{Symbol: symbol, Kind: KindActiveSymbol})
	}
}

// defaultMatrix mirrors the zero-valued record consumers see before any
// category has reported.
func defaultMatrix(symbol string) *model.MarketMatrix {
	return &model.MarketMatrix{
		Symbol:  symbol,
		Sources: model.Sources{Price: "N/A", Derivatives: "N/A", Liquidity: "N/A"},
	}
}
