package config

import (
	"time"

	"github.com/Tint-protocol/TintAi/internal/aggregator"
	"github.com/Tint-protocol/TintAi/internal/assetinfo"
	"github.com/Tint-protocol/TintAi/internal/feed"
	"github.com/Tint-protocol/TintAi/internal/store"
	"github.com/Tint-protocol/TintAi/internal/stream"
)

// Default values for optional configuration fields.
const (
	DefaultDebounce        = 800 * time.Millisecond
	DefaultReconnectDelay  = 2 * time.Second
	DefaultMaxReconnects   = 5
	DefaultStreamBuffer    = 1000
	DefaultSourceTimeout   = 5 * time.Second
	DefaultRateLimit       = 5.0
	DefaultRateBurst       = 10
	DefaultInfoTimeout     = 15 * time.Second
	DefaultInfoRetries     = 3
	DefaultRefreshInterval = 60 * time.Second
	DefaultFetchTimeout    = 10 * time.Second
	DefaultWarmupWorkers   = 4
	DefaultServerAddr      = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
)

func (c *FeedConfig) applyDefaults() {
	// Streams defaults
	if c.Streams.SpotURL == "" {
		c.Streams.SpotURL = stream.DefaultSpotURL
	}
	if c.Streams.DerivativesURL == "" {
		c.Streams.DerivativesURL = stream.DefaultDerivativesURL
	}
	if c.Streams.Debounce == 0 {
		c.Streams.Debounce = DefaultDebounce
	}
	if c.Streams.ReconnectDelay == 0 {
		c.Streams.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Streams.MaxReconnects == 0 {
		c.Streams.MaxReconnects = DefaultMaxReconnects
	}
	if c.Streams.BufferSize == 0 {
		c.Streams.BufferSize = DefaultStreamBuffer
	}

	// Sources defaults
	if c.Sources.BinanceURL == "" {
		c.Sources.BinanceURL = aggregator.DefaultBinanceURL
	}
	if c.Sources.BybitURL == "" {
		c.Sources.BybitURL = aggregator.DefaultBybitURL
	}
	if c.Sources.OKXURL == "" {
		c.Sources.OKXURL = aggregator.DefaultOKXURL
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = DefaultSourceTimeout
	}
	if c.Sources.RateLimit == 0 {
		c.Sources.RateLimit = DefaultRateLimit
	}
	if c.Sources.RateBurst == 0 {
		c.Sources.RateBurst = DefaultRateBurst
	}

	// Asset info defaults
	if c.AssetInfo.BaseURL == "" {
		c.AssetInfo.BaseURL = assetinfo.DefaultBaseURL
	}
	if c.AssetInfo.Timeout == 0 {
		c.AssetInfo.Timeout = DefaultInfoTimeout
	}
	if c.AssetInfo.MaxRetries == 0 {
		c.AssetInfo.MaxRetries = DefaultInfoRetries
	}

	// Feed defaults
	if len(c.Feed.Pairs) == 0 {
		c.Feed.Pairs = feed.DefaultPairs
	}
	if c.Feed.ActiveSymbol == "" {
		c.Feed.ActiveSymbol = store.DefaultActiveSymbol
	}
	if c.Feed.RefreshInterval == 0 {
		c.Feed.RefreshInterval = DefaultRefreshInterval
	}
	if c.Feed.FetchTimeout == 0 {
		c.Feed.FetchTimeout = DefaultFetchTimeout
	}
	if c.Feed.WarmupWorkers == 0 {
		c.Feed.WarmupWorkers = DefaultWarmupWorkers
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
}
