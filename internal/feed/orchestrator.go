package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tint-protocol/TintAi/internal/store"
)

// DefaultPairs is the standing spot watchlist kept streaming regardless of
// the active symbol.
var DefaultPairs = []string{
	"btcusdt", "ethusdt", "solusdt", "bnbusdt", "dogeusdt",
	"seiusdt", "xrpusdt", "adausdt", "linkusdt", "avaxusdt",
}

// Subscriber is the multiplexer surface the orchestrator drives.
type Subscriber interface {
	Start(ctx context.Context) error
	Stop()
	AddSymbol(symbol string)
	Reset(symbols ...string)
}

// TickerFetcher resolves one symbol's ticker snapshot over REST.
type TickerFetcher interface {
	FetchTicker(ctx context.Context, symbol string) error
}

// Config holds orchestrator settings.
type Config struct {
	Pairs           []string      // Standing watchlist (default: DefaultPairs)
	RefreshInterval time.Duration // Derivatives refresh cadence (default: 60s)
	FetchTimeout    time.Duration // Per-symbol REST bound (default: 10s)
	WarmupWorkers   int           // Concurrent warmup fetches (default: 4)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Pairs:           DefaultPairs,
		RefreshInterval: 60 * time.Second,
		FetchTimeout:    10 * time.Second,
		WarmupWorkers:   4,
	}
}

// Orchestrator owns both stream multiplexers and keeps them, the REST
// aggregator, and the store's active symbol moving in lockstep.
type Orchestrator struct {
	cfg     Config
	spot    Subscriber
	derivs  Subscriber
	fetcher TickerFetcher
	store   *store.Store
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator. Both multiplexers must be unstarted.
func New(cfg Config, spot, derivs Subscriber, fetcher TickerFetcher, st *store.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if len(cfg.Pairs) == 0 {
		cfg.Pairs = def.Pairs
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.WarmupWorkers <= 0 {
		cfg.WarmupWorkers = def.WarmupWorkers
	}
	return &Orchestrator{
		cfg:     cfg,
		spot:    spot,
		derivs:  derivs,
		fetcher: fetcher,
		store:   st,
		logger:  logger,
	}
}

// Start seeds the watchlist, opens both streams, warms the store over REST,
// and begins the periodic derivatives refresh.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.ctx, o.cancel = context.WithCancel(ctx)

	active := o.store.ActiveSymbol()

	o.spot.Reset(o.watchlist(active)...)
	o.derivs.Reset(active)

	if err := o.spot.Start(o.ctx); err != nil {
		return err
	}
	if err := o.derivs.Start(o.ctx); err != nil {
		o.spot.Stop()
		return err
	}

	o.wg.Add(1)
	go o.warmup()

	o.wg.Add(1)
	go o.refreshLoop()

	o.logger.Info("feed orchestrator started",
		"pairs", len(o.cfg.Pairs),
		"active", active,
		"refresh_interval", o.cfg.RefreshInterval,
	)
	return nil
}

// Stop shuts down both streams and waits for background work to drain.
func (o *Orchestrator) Stop(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}

	o.spot.Stop()
	o.derivs.Stop()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("feed orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetActiveSymbol switches the active symbol: the store is updated, both
// streams are reset in lockstep, and a REST fetch backfills the snapshot.
func (o *Orchestrator) SetActiveSymbol(symbol string) {
	symbol = strings.ToUpper(symbol)
	if symbol == "" {
		return
	}

	o.store.SetActiveSymbol(symbol)

	o.spot.Reset(o.watchlist(symbol)...)
	o.derivs.Reset(symbol)

	o.logger.Info("active symbol switched", "symbol", symbol)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.fetchOne(symbol)
	}()
}

// watchlist is the standing pairs plus the active symbol, deduplicated.
func (o *Orchestrator) watchlist(active string) []string {
	out := make([]string, 0, len(o.cfg.Pairs)+1)
	seen := false
	for _, p := range o.cfg.Pairs {
		out = append(out, p)
		if strings.EqualFold(p, active) {
			seen = true
		}
	}
	if !seen && active != "" {
		out = append(out, active)
	}
	return out
}

// warmup backfills every watchlist symbol over REST so reads have data
// before the first stream events land.
func (o *Orchestrator) warmup() {
	defer o.wg.Done()

	start := time.Now()

	g, ctx := errgroup.WithContext(o.ctx)
	g.SetLimit(o.cfg.WarmupWorkers)

	for _, pair := range o.cfg.Pairs {
		pair := pair
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
			defer cancel()

			if err := o.fetcher.FetchTicker(cctx, pair); err != nil {
				o.logger.Warn("warmup fetch failed", "symbol", pair, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	o.logger.Info("warmup complete",
		"pairs", len(o.cfg.Pairs),
		"duration", time.Since(start),
	)
}

// refreshLoop re-fetches the active symbol on a fixed cadence to keep the
// REST-sourced derivatives fields from going stale.
func (o *Orchestrator) refreshLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.fetchOne(o.store.ActiveSymbol())
		}
	}
}

func (o *Orchestrator) fetchOne(symbol string) {
	parent := o.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, o.cfg.FetchTimeout)
	defer cancel()

	if err := o.fetcher.FetchTicker(ctx, symbol); err != nil {
		o.logger.Warn("refresh fetch failed", "symbol", symbol, "error", err)
	}
}
