package aggregator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Tint-protocol/TintAi/internal/model"
)

// BybitSource fetches linear-perpetual ticker statistics from the Bybit v5
// REST API.
type BybitSource struct {
	baseURL string
	client  *http.Client
}

// NewBybitSource creates the Bybit REST adapter.
func NewBybitSource(baseURL string, client *http.Client) *BybitSource {
	if baseURL == "" {
		baseURL = DefaultBybitURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &BybitSource{baseURL: baseURL, client: client}
}

func (s *BybitSource) Name() string { return "Bybit" }

type bybitResponse struct {
	Result struct {
		List []struct {
			LastPrice    string `json:"lastPrice"`
			Price24hPcnt string `json:"price24hPcnt"` // Ratio, not percent
			HighPrice24h string `json:"highPrice24h"`
			LowPrice24h  string `json:"lowPrice24h"`
			Volume24h    string `json:"volume24h"`
			OpenInterest string `json:"openInterest"`
		} `json:"list"`
	} `json:"result"`
}

// Fetch normalizes the Bybit v5 payload into a TickerPatch. The 24h change
// arrives as a ratio and is converted to percent here so the merge step sees
// one unit everywhere.
func (s *BybitSource) Fetch(ctx context.Context, base string) (model.TickerPatch, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=linear&symbol=%sUSDT", s.baseURL, base)

	var d bybitResponse
	if err := getJSON(ctx, s.client, url, &d); err != nil {
		return model.TickerPatch{}, err
	}
	if len(d.Result.List) == 0 {
		return model.TickerPatch{}, fmt.Errorf("empty ticker list for %sUSDT", base)
	}
	t := d.Result.List[0]

	price, err := parsePrice(t.LastPrice)
	if err != nil {
		return model.TickerPatch{}, err
	}

	patch := model.TickerPatch{
		Price:     model.Float(price),
		Change24h: model.Float(parseOptional(t.Price24hPcnt) * 100),
		High24h:   model.Float(parseOptional(t.HighPrice24h)),
		Low24h:    model.Float(parseOptional(t.LowPrice24h)),
		Volume24h: model.Float(parseOptional(t.Volume24h)),
		Source:    model.String(s.Name()),
	}
	if t.OpenInterest != "" {
		patch.OpenInterest = model.Float(parseOptional(t.OpenInterest))
	}
	return patch, nil
}
