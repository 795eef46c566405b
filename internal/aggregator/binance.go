package aggregator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Tint-protocol/TintAi/internal/model"
)

// BinanceSource fetches 24h ticker statistics from the Binance spot REST API.
type BinanceSource struct {
	baseURL string
	client  *http.Client
}

// NewBinanceSource creates the Binance REST adapter. A nil client gets a
// bounded default.
func NewBinanceSource(baseURL string, client *http.Client) *BinanceSource {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &BinanceSource{baseURL: baseURL, client: client}
}

func (s *BinanceSource) Name() string { return "Binance" }

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

// Fetch normalizes the Binance 24hr payload into a TickerPatch.
func (s *BinanceSource) Fetch(ctx context.Context, base string) (model.TickerPatch, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%sUSDT", s.baseURL, base)

	var d binanceTicker
	if err := getJSON(ctx, s.client, url, &d); err != nil {
		return model.TickerPatch{}, err
	}

	price, err := parsePrice(d.LastPrice)
	if err != nil {
		return model.TickerPatch{}, err
	}

	return model.TickerPatch{
		Price:     model.Float(price),
		Change24h: model.Float(parseOptional(d.PriceChangePercent)),
		High24h:   model.Float(parseOptional(d.HighPrice)),
		Low24h:    model.Float(parseOptional(d.LowPrice)),
		Volume24h: model.Float(parseOptional(d.Volume)),
		Source:    model.String(s.Name()),
	}, nil
}
