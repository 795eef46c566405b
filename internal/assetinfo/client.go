package assetinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Tint-protocol/TintAi/internal/model"
)

// DefaultBaseURL is the public CoinGecko v3 API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// coinIDs maps base asset symbols to CoinGecko coin identifiers.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"DOGE": "dogecoin",
	"SEI":  "sei-network",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"LINK": "chainlink",
	"AVAX": "avalanche-2",
}

// ErrUnknownAsset is returned when no coin id mapping exists for a symbol.
var ErrUnknownAsset = fmt.Errorf("unknown asset symbol")

// Profile holds descriptive and market metadata for one asset.
type Profile struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Homepage          string  `json:"homepage,omitempty"`
	Logo              string  `json:"logo,omitempty"`
	MarketCapRank     int     `json:"market_cap_rank,omitempty"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"market_cap,omitempty"`
	FDV               float64 `json:"fdv,omitempty"`
	CirculatingSupply float64 `json:"circulating_supply,omitempty"`
	TotalSupply       float64 `json:"total_supply,omitempty"`
	Volume24h         float64 `json:"volume_24h,omitempty"`
	VolumeToMcap      float64 `json:"volume_to_mcap,omitempty"`
	Change24h         float64 `json:"change_24h"`
	High24h           float64 `json:"high_24h,omitempty"`
	Low24h            float64 `json:"low_24h,omitempty"`
	Source            string  `json:"source"`
}

// TickerSource supplies live ticker state for the degraded fallback path.
type TickerSource interface {
	GetTicker(symbol string) (model.TickerRecord, bool)
}

// APIError represents an error response from the CoinGecko API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Client provides access to the CoinGecko REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	tickers    TickerSource

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new asset info client. The ticker source may be nil, in
// which case no degraded fallback is attempted.
func NewClient(baseURL string, tickers TickerSource, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:       slog.Default(),
		limiter:      rate.NewLimiter(rate.Every(2*time.Second), 5),
		tickers:      tickers,
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the request rate limit.
func WithRateLimit(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

type coinResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	Description   struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Image struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice struct {
			USD float64 `json:"usd"`
		} `json:"current_price"`
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
		FDV struct {
			USD float64 `json:"usd"`
		} `json:"fully_diluted_valuation"`
		TotalVolume struct {
			USD float64 `json:"usd"`
		} `json:"total_volume"`
		CirculatingSupply        float64 `json:"circulating_supply"`
		TotalSupply              float64 `json:"total_supply"`
		PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
		High24h                  struct {
			USD float64 `json:"usd"`
		} `json:"high_24h"`
		Low24h struct {
			USD float64 `json:"usd"`
		} `json:"low_24h"`
	} `json:"market_data"`
}

// Profile returns the asset profile for a base symbol such as "BTC". When the
// upstream call fails and live ticker state exists for the asset, a reduced
// profile built from that state is returned instead.
func (c *Client) Profile(ctx context.Context, symbol string) (Profile, error) {
	base := strings.ToUpper(strings.TrimSuffix(strings.ToUpper(symbol), "USDT"))

	id, ok := coinIDs[base]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownAsset, base)
	}

	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")

	var coin coinResponse
	if err := c.get(ctx, "/coins/"+id, q, &coin); err != nil {
		c.logger.Warn("asset profile fetch failed",
			"symbol", base,
			"error", err,
		)
		return c.fallbackProfile(base, err)
	}

	p := Profile{
		Symbol:            strings.ToUpper(coin.Symbol),
		Name:              coin.Name,
		Description:       firstSentence(coin.Description.En),
		Logo:              coin.Image.Large,
		MarketCapRank:     coin.MarketCapRank,
		Price:             coin.MarketData.CurrentPrice.USD,
		MarketCap:         coin.MarketData.MarketCap.USD,
		FDV:               coin.MarketData.FDV.USD,
		CirculatingSupply: coin.MarketData.CirculatingSupply,
		TotalSupply:       coin.MarketData.TotalSupply,
		Volume24h:         coin.MarketData.TotalVolume.USD,
		Change24h:         coin.MarketData.PriceChangePercentage24h,
		High24h:           coin.MarketData.High24h.USD,
		Low24h:            coin.MarketData.Low24h.USD,
		Source:            "CoinGecko",
	}
	if len(coin.Links.Homepage) > 0 {
		p.Homepage = coin.Links.Homepage[0]
	}
	if p.MarketCap > 0 {
		p.VolumeToMcap = p.Volume24h / p.MarketCap
	}
	return p, nil
}

// fallbackProfile builds a reduced profile from live ticker state.
func (c *Client) fallbackProfile(base string, cause error) (Profile, error) {
	if c.tickers == nil {
		return Profile{}, cause
	}
	rec, ok := c.tickers.GetTicker(base + "USDT")
	if !ok || rec.Price <= 0 {
		return Profile{}, cause
	}

	c.logger.Info("serving asset profile from live ticker state", "symbol", base)
	return Profile{
		Symbol:    base,
		Name:      base,
		Price:     rec.Price,
		Change24h: rec.Change24h,
		High24h:   rec.High24h,
		Low24h:    rec.Low24h,
		Source:    rec.Source,
	}, nil
}

// firstSentence trims a long description down to its opening sentence.
func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}

// doRequest performs an HTTP request with the given method and path.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, method, path, query)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a GET request with retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
