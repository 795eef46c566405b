package stream

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Tint-protocol/TintAi/internal/model"
	"github.com/Tint-protocol/TintAi/internal/store"
)

// DefaultDerivativesURL is the Bybit linear perpetuals stream endpoint.
const DefaultDerivativesURL = "wss://stream.bybit.com/v5/public/linear"

// DerivativesFeed speaks the Bybit v5 ticker stream. The endpoint is fixed;
// the topic set is announced with a post-connect subscribe frame.
type DerivativesFeed struct {
	url    string
	logger *slog.Logger
}

// NewDerivativesFeed creates a Bybit derivatives feed adapter.
func NewDerivativesFeed(url string, logger *slog.Logger) *DerivativesFeed {
	if url == "" {
		url = DefaultDerivativesURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DerivativesFeed{url: url, logger: logger}
}

func (f *DerivativesFeed) Name() string { return "bybit-derivs" }

// Topic maps a symbol to its ticker topic, e.g. "BTCUSDT" -> "tickers.BTCUSDT".
func (f *DerivativesFeed) Topic(symbol string) string {
	return "tickers." + strings.ToUpper(symbol)
}

func (f *DerivativesFeed) URL(topics []string) string { return f.url }

// Hello builds the subscribe command for the full topic set.
func (f *DerivativesFeed) Hello(topics []string) [][]byte {
	if len(topics) == 0 {
		return nil
	}
	cmd := struct {
		Op   string   `json:"op"`
		Args []string `json:"args"`
	}{Op: "subscribe", Args: topics}

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil
	}
	return [][]byte{data}
}

// derivsTickerEvent is the Bybit v5 ticker wire shape.
type derivsTickerEvent struct {
	Topic string `json:"topic"`
	Data  struct {
		OpenInterest string `json:"openInterest"`
		FundingRate  string `json:"fundingRate"`
		Bid1Size     string `json:"bid1Size"`
		Ask1Size     string `json:"ask1Size"`
	} `json:"data"`
}

// Handle merges matching derivatives events into the store. Subscribe acks
// and heartbeats carry no topic and fall through silently.
func (f *DerivativesFeed) Handle(data []byte, st *store.Store) {
	var ev derivsTickerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		f.logger.Debug("unparseable derivatives frame", "error", err)
		return
	}
	if !strings.HasPrefix(ev.Topic, "tickers.") {
		return
	}

	symbol := strings.ToUpper(strings.TrimPrefix(ev.Topic, "tickers."))
	if symbol == "" {
		return
	}

	patch := model.MatrixPatch{
		DerivativesSource:    model.String("Bybit"),
		DerivativesAvailable: true,
	}
	if ev.Data.OpenInterest != "" {
		patch.OpenInterest = model.Float(parseFloatOrZero(ev.Data.OpenInterest))
	}
	if ev.Data.FundingRate != "" {
		patch.FundingRate = model.Float(parseFloatOrZero(ev.Data.FundingRate))
	}
	if ev.Data.Bid1Size != "" || ev.Data.Ask1Size != "" {
		patch.BidDepth = model.Float(parseFloatOrZero(ev.Data.Bid1Size))
		patch.AskDepth = model.Float(parseFloatOrZero(ev.Data.Ask1Size))
		patch.LiquiditySource = model.String("Bybit")
		patch.OrderflowAvailable = true
	}

	st.MergeMatrix(symbol, patch)
}
