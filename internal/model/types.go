package model

import "time"

// -----------------------------------------------------------------------------
// Ticker
// -----------------------------------------------------------------------------

// TickerRecord is the per-symbol spot/derivatives snapshot held by the store.
// Numeric fields default to zero on first creation; optional derivatives
// fields stay zero until a derivatives source reports them.
type TickerRecord struct {
	Symbol                string    // Pair identifier (e.g. "BTCUSDT")
	Price                 float64   // Last traded price
	Change24h             float64   // 24h change, percent
	High24h               float64   // 24h high
	Low24h                float64   // 24h low
	Volume24h             float64   // 24h base-asset volume
	OpenInterest          float64   // Open interest (derivatives, optional)
	OpenInterestChange24h float64   // 24h open-interest change, percent (optional)
	LongShortRatio        float64   // Long/short account ratio (optional)
	Source                string    // Upstream that produced the current price
	LastUpdated           time.Time // Stamped by the store on every merge
}

// TickerPatch is a partial ticker update. Nil fields are left untouched by
// Apply; the store stamps LastUpdated itself.
type TickerPatch struct {
	Price                 *float64
	Change24h             *float64
	High24h               *float64
	Low24h                *float64
	Volume24h             *float64
	OpenInterest          *float64
	OpenInterestChange24h *float64
	LongShortRatio        *float64
	Source                *string
}

// Apply merges the patch into r field-by-field.
func (p TickerPatch) Apply(r *TickerRecord) {
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Change24h != nil {
		r.Change24h = *p.Change24h
	}
	if p.High24h != nil {
		r.High24h = *p.High24h
	}
	if p.Low24h != nil {
		r.Low24h = *p.Low24h
	}
	if p.Volume24h != nil {
		r.Volume24h = *p.Volume24h
	}
	if p.OpenInterest != nil {
		r.OpenInterest = *p.OpenInterest
	}
	if p.OpenInterestChange24h != nil {
		r.OpenInterestChange24h = *p.OpenInterestChange24h
	}
	if p.LongShortRatio != nil {
		r.LongShortRatio = *p.LongShortRatio
	}
	if p.Source != nil {
		r.Source = *p.Source
	}
}

// -----------------------------------------------------------------------------
// Matrix
// -----------------------------------------------------------------------------

// Sources records which upstream produced the current value of each category.
type Sources struct {
	Price       string // Spot price source
	Derivatives string // Open interest / funding source
	Liquidity   string // Bid/ask depth source
}

// Availability flags which categories have seen at least one successful
// update since the record was created. Flags latch on and are never cleared
// by a later failure; staleness is signaled by LastUpdated age instead.
type Availability struct {
	Spot        bool
	Derivatives bool
	Orderflow   bool
}

// MarketMatrix is the reconciled multi-source record for one symbol:
// everything in TickerRecord plus funding and order-flow fields.
type MarketMatrix struct {
	Symbol                string
	Price                 float64
	Change24h             float64
	High24h               float64
	Low24h                float64
	Volume24h             float64
	OpenInterest          float64
	OpenInterestChange24h float64
	FundingRate           float64
	LongShortRatio        float64
	BidDepth              float64
	AskDepth              float64
	LastUpdated           time.Time
	Sources               Sources
	Availability          Availability
}

// MatrixPatch is a partial matrix update. Availability fields only ever latch
// the flag on: a false value is ignored by Apply, so a source failure can
// never flip a category back to unavailable.
type MatrixPatch struct {
	Price                 *float64
	Change24h             *float64
	High24h               *float64
	Low24h                *float64
	Volume24h             *float64
	OpenInterest          *float64
	OpenInterestChange24h *float64
	FundingRate           *float64
	LongShortRatio        *float64
	BidDepth              *float64
	AskDepth              *float64

	PriceSource       *string
	DerivativesSource *string
	LiquiditySource   *string

	SpotAvailable        bool
	DerivativesAvailable bool
	OrderflowAvailable   bool
}

// Apply merges the patch into m field-by-field.
func (p MatrixPatch) Apply(m *MarketMatrix) {
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.Change24h != nil {
		m.Change24h = *p.Change24h
	}
	if p.High24h != nil {
		m.High24h = *p.High24h
	}
	if p.Low24h != nil {
		m.Low24h = *p.Low24h
	}
	if p.Volume24h != nil {
		m.Volume24h = *p.Volume24h
	}
	if p.OpenInterest != nil {
		m.OpenInterest = *p.OpenInterest
	}
	if p.OpenInterestChange24h != nil {
		m.OpenInterestChange24h = *p.OpenInterestChange24h
	}
	if p.FundingRate != nil {
		m.FundingRate = *p.FundingRate
	}
	if p.LongShortRatio != nil {
		m.LongShortRatio = *p.LongShortRatio
	}
	if p.BidDepth != nil {
		m.BidDepth = *p.BidDepth
	}
	if p.AskDepth != nil {
		m.AskDepth = *p.AskDepth
	}

	if p.PriceSource != nil {
		m.Sources.Price = *p.PriceSource
	}
	if p.DerivativesSource != nil {
		m.Sources.Derivatives = *p.DerivativesSource
	}
	if p.LiquiditySource != nil {
		m.Sources.Liquidity = *p.LiquiditySource
	}

	// Latch-only semantics.
	if p.SpotAvailable {
		m.Availability.Spot = true
	}
	if p.DerivativesAvailable {
		m.Availability.Derivatives = true
	}
	if p.OrderflowAvailable {
		m.Availability.Orderflow = true
	}
}

// Float returns a pointer to v, for building patches inline.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for building patches inline.
func String(v string) *string { return &v }
