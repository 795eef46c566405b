package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tint-protocol/TintAi/internal/assetinfo"
	"github.com/Tint-protocol/TintAi/internal/model"
	"github.com/Tint-protocol/TintAi/internal/store"
	"github.com/Tint-protocol/TintAi/internal/version"
)

// ActiveSwitcher moves the live pipeline to a new active symbol.
type ActiveSwitcher interface {
	SetActiveSymbol(symbol string)
}

// ProfileSource resolves asset profiles.
type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (assetinfo.Profile, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP read surface over the shared store.
type Server struct {
	cfg      Config
	store    *store.Store
	switcher ActiveSwitcher
	profiles ProfileSource
	logger   *slog.Logger

	httpSrv *http.Server
}

// New creates a server. The profile source may be nil, in which case the
// asset endpoint reports 503.
func New(cfg Config, st *store.Store, switcher ActiveSwitcher, profiles ProfileSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{
		cfg:      cfg,
		store:    st,
		switcher: switcher,
		profiles: profiles,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/ticker/{symbol}", s.handleTicker)
	mux.HandleFunc("GET /v1/matrix/{symbol}", s.handleMatrix)
	mux.HandleFunc("GET /v1/active", s.handleGetActive)
	mux.HandleFunc("POST /v1/active", s.handleSetActive)
	mux.HandleFunc("GET /v1/asset/{symbol}", s.handleAsset)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"active":  s.store.ActiveSymbol(),
		"version": version.String(),
	})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	symbol := canonical(r.PathValue("symbol"))

	rec, ok := s.store.GetTicker(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no ticker data for "+symbol)
		return
	}
	s.writeJSON(w, http.StatusOK, tickerResponse(rec))
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	symbol := canonical(r.PathValue("symbol"))

	m, ok := s.store.GetMatrix(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no matrix data for "+symbol)
		return
	}
	s.writeJSON(w, http.StatusOK, matrixResponse(m))
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"symbol": s.store.ActiveSymbol()})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := canonical(req.Symbol)
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	s.switcher.SetActiveSymbol(symbol)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"symbol": symbol})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		s.writeError(w, http.StatusServiceUnavailable, "asset profiles not configured")
		return
	}

	symbol := canonical(r.PathValue("symbol"))
	p, err := s.profiles.Profile(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, assetinfo.ErrUnknownAsset) {
			s.writeError(w, http.StatusNotFound, "unknown asset "+symbol)
			return
		}
		s.logger.Warn("asset profile lookup failed", "symbol", symbol, "error", err)
		s.writeError(w, http.StatusBadGateway, "asset profile unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// canonical normalizes a symbol path segment to the store's key form.
func canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// tickerView is the wire shape of a ticker record.
type tickerView struct {
	Symbol                string    `json:"symbol"`
	Price                 float64   `json:"price"`
	Change24h             float64   `json:"change_24h"`
	High24h               float64   `json:"high_24h"`
	Low24h                float64   `json:"low_24h"`
	Volume24h             float64   `json:"volume_24h"`
	OpenInterest          float64   `json:"open_interest,omitempty"`
	OpenInterestChange24h float64   `json:"open_interest_change_24h,omitempty"`
	LongShortRatio        float64   `json:"long_short_ratio,omitempty"`
	Source                string    `json:"source"`
	LastUpdated           time.Time `json:"last_updated"`
}

func tickerResponse(r model.TickerRecord) tickerView {
	return tickerView{
		Symbol:                r.Symbol,
		Price:                 r.Price,
		Change24h:             r.Change24h,
		High24h:               r.High24h,
		Low24h:                r.Low24h,
		Volume24h:             r.Volume24h,
		OpenInterest:          r.OpenInterest,
		OpenInterestChange24h: r.OpenInterestChange24h,
		LongShortRatio:        r.LongShortRatio,
		Source:                r.Source,
		LastUpdated:           r.LastUpdated,
	}
}

// matrixView is the wire shape of a matrix record.
type matrixView struct {
	Symbol                string    `json:"symbol"`
	Price                 float64   `json:"price"`
	Change24h             float64   `json:"change_24h"`
	High24h               float64   `json:"high_24h"`
	Low24h                float64   `json:"low_24h"`
	Volume24h             float64   `json:"volume_24h"`
	OpenInterest          float64   `json:"open_interest,omitempty"`
	OpenInterestChange24h float64   `json:"open_interest_change_24h,omitempty"`
	FundingRate           float64   `json:"funding_rate,omitempty"`
	LongShortRatio        float64   `json:"long_short_ratio,omitempty"`
	BidDepth              float64   `json:"bid_depth,omitempty"`
	AskDepth              float64   `json:"ask_depth,omitempty"`
	LastUpdated           time.Time `json:"last_updated"`

	Sources struct {
		Price       string `json:"price"`
		Derivatives string `json:"derivatives"`
		Liquidity   string `json:"liquidity"`
	} `json:"sources"`
	Availability struct {
		Spot        bool `json:"spot"`
		Derivatives bool `json:"derivatives"`
		Orderflow   bool `json:"orderflow"`
	} `json:"availability"`
}

func matrixResponse(m model.MarketMatrix) matrixView {
	v := matrixView{
		Symbol:                m.Symbol,
		Price:                 m.Price,
		Change24h:             m.Change24h,
		High24h:               m.High24h,
		Low24h:                m.Low24h,
		Volume24h:             m.Volume24h,
		OpenInterest:          m.OpenInterest,
		OpenInterestChange24h: m.OpenInterestChange24h,
		FundingRate:           m.FundingRate,
		LongShortRatio:        m.LongShortRatio,
		BidDepth:              m.BidDepth,
		AskDepth:              m.AskDepth,
		LastUpdated:           m.LastUpdated,
	}
	v.Sources.Price = m.Sources.Price
	v.Sources.Derivatives = m.Sources.Derivatives
	v.Sources.Liquidity = m.Sources.Liquidity
	v.Availability.Spot = m.Availability.Spot
	v.Availability.Derivatives = m.Availability.Derivatives
	v.Availability.Orderflow = m.Availability.Orderflow
	return v
}
