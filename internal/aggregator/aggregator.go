package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Tint-protocol/TintAi/internal/model"
	"github.com/Tint-protocol/TintAi/internal/store"
)

// ErrSourcesExhausted is returned when every source in the chain failed.
var ErrSourcesExhausted = errors.New("all market data sources failed")

// Source is one exchange in the fallback chain. Fetch returns the normalized
// partial for the base symbol (without quote asset, e.g. "BTC").
type Source interface {
	Name() string
	Fetch(ctx context.Context, base string) (model.TickerPatch, error)
}

// Config holds aggregator settings.
type Config struct {
	Timeout   time.Duration // Per-source request bound
	RateLimit float64       // Requests per second per source
	RateBurst int           // Token bucket burst per source
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Second,
		RateLimit: 5,
		RateBurst: 10,
	}
}

// Aggregator resolves a ticker snapshot for one symbol across exchanges.
type Aggregator struct {
	cfg     Config
	sources []Source
	store   *store.Store
	logger  *slog.Logger

	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

// New creates an aggregator with the given priority-ordered source chain.
func New(cfg Config, sources []Source, st *store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultConfig().RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultConfig().RateBurst
	}

	a := &Aggregator{
		cfg:      cfg,
		sources:  sources,
		store:    st,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiters: make(map[string]*rate.Limiter),
	}

	for _, src := range sources {
		a.breakers[src.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     src.Name(),
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
		a.limiters[src.Name()] = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	return a
}

// FetchTicker walks the fallback chain for symbol in priority order and
// merges the first usable result into the store. A source failure moves to
// the next source without delay. When every source fails the store is left
// untouched and ErrSourcesExhausted is returned.
func (a *Aggregator) FetchTicker(ctx context.Context, symbol string) error {
	base := strings.ToUpper(strings.TrimSuffix(strings.ToUpper(symbol), "USDT"))
	full := base + "USDT"

	for _, src := range a.sources {
		patch, err := a.fetchFrom(ctx, src, base)
		if err != nil {
			a.logger.Debug("source failed, trying next",
				"source", src.Name(),
				"symbol", base,
				"error", err,
			)
			continue
		}

		if patch.Price == nil || *patch.Price <= 0 {
			a.logger.Debug("source returned no usable price",
				"source", src.Name(),
				"symbol", base,
			)
			continue
		}

		a.store.MergeTicker(full, patch)

		a.logger.Info("market sync ok",
			"symbol", base,
			"source", src.Name(),
		)
		return nil
	}

	a.logger.Warn("all market sources failed", "symbol", base)
	return ErrSourcesExhausted
}

// fetchFrom runs one bounded, rate-limited, breaker-guarded source call.
func (a *Aggregator) fetchFrom(ctx context.Context, src Source, base string) (model.TickerPatch, error) {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if err := a.limiters[src.Name()].Wait(cctx); err != nil {
		return model.TickerPatch{}, fmt.Errorf("rate limit: %w", err)
	}

	out, err := a.breakers[src.Name()].Execute(func() (interface{}, error) {
		return src.Fetch(cctx, base)
	})
	if err != nil {
		return model.TickerPatch{}, err
	}

	return out.(model.TickerPatch), nil
}
