package config

import "time"

// FeedConfig is the root configuration for a feed daemon instance.
type FeedConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Streams   StreamsConfig   `yaml:"streams"`
	Sources   SourcesConfig   `yaml:"sources"`
	AssetInfo AssetInfoConfig `yaml:"asset_info"`
	Feed      FeedSection     `yaml:"feed"`
	Server    ServerConfig    `yaml:"server"`
}

// InstanceConfig identifies this daemon.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// StreamsConfig holds WebSocket stream settings shared by both exchanges.
type StreamsConfig struct {
	SpotURL        string        `yaml:"spot_url"`
	DerivativesURL string        `yaml:"derivatives_url"`
	Debounce       time.Duration `yaml:"debounce"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	BufferSize     int           `yaml:"buffer_size"`
}

// SourcesConfig holds REST fallback chain settings.
type SourcesConfig struct {
	BinanceURL string        `yaml:"binance_url"`
	BybitURL   string        `yaml:"bybit_url"`
	OKXURL     string        `yaml:"okx_url"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
}

// AssetInfoConfig holds CoinGecko profile lookup settings.
type AssetInfoConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// FeedSection holds orchestrator settings.
type FeedSection struct {
	Pairs           []string      `yaml:"pairs"`
	ActiveSymbol    string        `yaml:"active_symbol"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	WarmupWorkers   int           `yaml:"warmup_workers"`
}

// ServerConfig holds the HTTP read surface settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}
