package aggregator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Tint-protocol/TintAi/internal/model"
)

// OKXSource fetches spot ticker statistics from the OKX REST API.
type OKXSource struct {
	baseURL string
	client  *http.Client
}

// NewOKXSource creates the OKX REST adapter.
func NewOKXSource(baseURL string, client *http.Client) *OKXSource {
	if baseURL == "" {
		baseURL = DefaultOKXURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &OKXSource{baseURL: baseURL, client: client}
}

func (s *OKXSource) Name() string { return "OKX" }

type okxResponse struct {
	Data []struct {
		Last    string `json:"last"`
		High24h string `json:"high24h"`
		Low24h  string `json:"low24h"`
		Vol24h  string `json:"vol24h"`
	} `json:"data"`
}

// Fetch normalizes the OKX payload into a TickerPatch. OKX does not report a
// 24h percent change on this endpoint; the field is set to an explicit zero.
func (s *OKXSource) Fetch(ctx context.Context, base string) (model.TickerPatch, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s-USDT", s.baseURL, base)

	var d okxResponse
	if err := getJSON(ctx, s.client, url, &d); err != nil {
		return model.TickerPatch{}, err
	}
	if len(d.Data) == 0 {
		return model.TickerPatch{}, fmt.Errorf("empty ticker data for %s-USDT", base)
	}
	t := d.Data[0]

	price, err := parsePrice(t.Last)
	if err != nil {
		return model.TickerPatch{}, err
	}

	return model.TickerPatch{
		Price:     model.Float(price),
		Change24h: model.Float(0),
		High24h:   model.Float(parseOptional(t.High24h)),
		Low24h:    model.Float(parseOptional(t.Low24h)),
		Volume24h: model.Float(parseOptional(t.Vol24h)),
		Source:    model.String(s.Name()),
	}, nil
}
