package stream

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Tint-protocol/TintAi/internal/model"
	"github.com/Tint-protocol/TintAi/internal/store"
)

// DefaultSpotURL is the Binance combined-stream endpoint.
const DefaultSpotURL = "wss://stream.binance.com:9443/ws"

// SpotFeed speaks the Binance combined ticker stream. The topic set is
// encoded in the URL path; no post-connect subscribe is needed.
type SpotFeed struct {
	base   string
	logger *slog.Logger
}

// NewSpotFeed creates a Binance spot feed adapter.
func NewSpotFeed(base string, logger *slog.Logger) *SpotFeed {
	if base == "" {
		base = DefaultSpotURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpotFeed{base: base, logger: logger}
}

func (f *SpotFeed) Name() string { return "binance-spot" }

// Topic maps a symbol to its ticker stream name, e.g. "BTCUSDT" -> "btcusdt@ticker".
func (f *SpotFeed) Topic(symbol string) string {
	return strings.ToLower(symbol) + "@ticker"
}

// URL joins all topics into one multiplexed connection path.
func (f *SpotFeed) URL(topics []string) string {
	return f.base + "/" + strings.Join(topics, "/")
}

func (f *SpotFeed) Hello(topics []string) [][]byte { return nil }

// spotTickerEvent is the Binance 24hr ticker wire shape. Numeric fields
// arrive as strings.
type spotTickerEvent struct {
	EventType string `json:"e"` // "24hrTicker"
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	ChangePct string `json:"P"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
}

// Handle merges matching ticker events into the store; anything else on the
// stream is ignored.
func (f *SpotFeed) Handle(data []byte, st *store.Store) {
	var ev spotTickerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		f.logger.Debug("unparseable spot frame", "error", err)
		return
	}
	if ev.EventType != "24hrTicker" || ev.Symbol == "" {
		return
	}

	symbol := strings.ToUpper(ev.Symbol)

	price, err := strconv.ParseFloat(ev.LastPrice, 64)
	if err != nil {
		f.logger.Debug("bad price in spot frame", "symbol", symbol, "value", ev.LastPrice)
		return
	}
	change := parseFloatOrZero(ev.ChangePct)
	high := parseFloatOrZero(ev.High)
	low := parseFloatOrZero(ev.Low)
	volume := parseFloatOrZero(ev.Volume)

	st.MergeTicker(symbol, model.TickerPatch{
		Price:     &price,
		Change24h: &change,
		High24h:   &high,
		Low24h:    &low,
		Volume24h: &volume,
		Source:    model.String("Binance WS"),
	})

	st.MergeMatrix(symbol, model.MatrixPatch{
		Price:         &price,
		Change24h:     &change,
		High24h:       &high,
		Low24h:        &low,
		Volume24h:     &volume,
		PriceSource:   model.String("Binance"),
		SpotAvailable: true,
	})
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
