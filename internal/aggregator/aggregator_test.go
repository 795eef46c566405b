package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tint-protocol/TintAi/internal/model"
	"github.com/Tint-protocol/TintAi/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is a scriptable chain member that records whether it was called.
type fakeSource struct {
	name   string
	patch  model.TickerPatch
	err    error
	called atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, base string) (model.TickerPatch, error) {
	f.called.Add(1)
	if f.err != nil {
		return model.TickerPatch{}, f.err
	}
	return f.patch, nil
}

func okPatch(price float64, source string) model.TickerPatch {
	return model.TickerPatch{
		Price:     model.Float(price),
		Change24h: model.Float(1.5),
		Source:    model.String(source),
	}
}

func TestFetchTicker_FallsBackAndStopsAtFirstSuccess(t *testing.T) {
	st := store.New(testLogger())

	a := &fakeSource{name: "A", err: errors.New("down")}
	b := &fakeSource{name: "B", patch: okPatch(42000, "B")}
	c := &fakeSource{name: "C", patch: okPatch(1, "C")}

	agg := New(DefaultConfig(), []Source{a, b, c}, st, testLogger())

	if err := agg.FetchTicker(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}

	rec, ok := st.GetTicker("BTCUSDT")
	if !ok {
		t.Fatal("expected BTCUSDT record after successful fetch")
	}
	if rec.Price != 42000 {
		t.Errorf("price = %v, want 42000", rec.Price)
	}
	if rec.Source != "B" {
		t.Errorf("source = %q, want B", rec.Source)
	}
	if c.called.Load() != 0 {
		t.Error("third source called after second succeeded")
	}
}

func TestFetchTicker_SkipsUnusablePrice(t *testing.T) {
	st := store.New(testLogger())

	a := &fakeSource{name: "A", patch: model.TickerPatch{Price: model.Float(0)}}
	b := &fakeSource{name: "B", patch: okPatch(3000, "B")}

	agg := New(DefaultConfig(), []Source{a, b}, st, testLogger())

	if err := agg.FetchTicker(context.Background(), "ETHUSDT"); err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}

	rec, _ := st.GetTicker("ETHUSDT")
	if rec.Source != "B" {
		t.Errorf("source = %q, want B", rec.Source)
	}
}

func TestFetchTicker_AllFailLeavesStoreUnchanged(t *testing.T) {
	st := store.New(testLogger())
	st.MergeTicker("BTCUSDT", okPatch(41000, "seed"))
	before, _ := st.GetTicker("BTCUSDT")

	a := &fakeSource{name: "A", err: errors.New("down")}
	b := &fakeSource{name: "B", err: errors.New("also down")}

	agg := New(DefaultConfig(), []Source{a, b}, st, testLogger())

	err := agg.FetchTicker(context.Background(), "BTCUSDT")
	if !errors.Is(err, ErrSourcesExhausted) {
		t.Fatalf("err = %v, want ErrSourcesExhausted", err)
	}

	after, _ := st.GetTicker("BTCUSDT")
	if after != before {
		t.Errorf("record changed on total failure:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestFetchTicker_NormalizesSymbol(t *testing.T) {
	st := store.New(testLogger())

	var gotBase string
	src := &captureSource{name: "A", patch: okPatch(100, "A"), base: &gotBase}

	agg := New(DefaultConfig(), []Source{src}, st, testLogger())

	if err := agg.FetchTicker(context.Background(), "solusdt"); err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	if gotBase != "SOL" {
		t.Errorf("base passed to source = %q, want SOL", gotBase)
	}
	if _, ok := st.GetTicker("SOLUSDT"); !ok {
		t.Error("expected record under canonical SOLUSDT key")
	}
}

type captureSource struct {
	name  string
	patch model.TickerPatch
	base  *string
}

func (c *captureSource) Name() string { return c.name }

func (c *captureSource) Fetch(ctx context.Context, base string) (model.TickerPatch, error) {
	*c.base = base
	return c.patch, nil
}

func TestFetchTicker_TimeoutMovesToNextSource(t *testing.T) {
	st := store.New(testLogger())

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer slow.Close()

	a := NewBinanceSource(slow.URL, nil)
	b := &fakeSource{name: "B", patch: okPatch(99, "B")}

	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	agg := New(cfg, []Source{a, b}, st, testLogger())

	if err := agg.FetchTicker(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	rec, _ := st.GetTicker("BTCUSDT")
	if rec.Source != "B" {
		t.Errorf("source = %q, want B after timeout fallback", rec.Source)
	}
}

func TestBinanceSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q", got)
		}
		fmt.Fprint(w, `{"lastPrice":"43250.5","priceChangePercent":"2.35","highPrice":"43800","lowPrice":"42100","volume":"28450.7"}`)
	}))
	defer srv.Close()

	src := NewBinanceSource(srv.URL, nil)
	p, err := src.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if *p.Price != 43250.5 {
		t.Errorf("price = %v", *p.Price)
	}
	if *p.Change24h != 2.35 {
		t.Errorf("change = %v", *p.Change24h)
	}
	if *p.Source != "Binance" {
		t.Errorf("source = %q", *p.Source)
	}
}

func TestBinanceSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	src := NewBinanceSource(srv.URL, nil)
	if _, err := src.Fetch(context.Background(), "BTC"); err == nil {
		t.Fatal("expected error on 4xx status")
	}
}

func TestBybitSource_ConvertsRatioToPercent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "linear" {
			t.Errorf("category = %q", got)
		}
		fmt.Fprint(w, `{"result":{"list":[{"lastPrice":"43300","price24hPcnt":"0.0235","highPrice24h":"43800","lowPrice24h":"42100","volume24h":"105000","openInterest":"88000"}]}}`)
	}))
	defer srv.Close()

	src := NewBybitSource(srv.URL, nil)
	p, err := src.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if *p.Change24h != 2.35 {
		t.Errorf("change = %v, want 2.35 (ratio converted)", *p.Change24h)
	}
	if p.OpenInterest == nil || *p.OpenInterest != 88000 {
		t.Errorf("open interest = %v", p.OpenInterest)
	}
}

func TestBybitSource_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"list":[]}}`)
	}))
	defer srv.Close()

	src := NewBybitSource(srv.URL, nil)
	if _, err := src.Fetch(context.Background(), "BTC"); err == nil {
		t.Fatal("expected error on empty list")
	}
}

func TestOKXSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("instId"); got != "BTC-USDT" {
			t.Errorf("instId = %q", got)
		}
		fmt.Fprint(w, `{"data":[{"last":"43280","high24h":"43800","low24h":"42100","vol24h":"9100"}]}`)
	}))
	defer srv.Close()

	src := NewOKXSource(srv.URL, nil)
	p, err := src.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if *p.Price != 43280 {
		t.Errorf("price = %v", *p.Price)
	}
	if *p.Change24h != 0 {
		t.Errorf("change = %v, want explicit zero", *p.Change24h)
	}
	if *p.Source != "OKX" {
		t.Errorf("source = %q", *p.Source)
	}
}
