package model

import "testing"

func TestTickerPatch_Apply_PartialFields(t *testing.T) {
	r := TickerRecord{
		Symbol:    "BTCUSDT",
		Price:     42000,
		Change24h: 1.5,
		High24h:   43000,
		Volume24h: 1000,
		Source:    "Binance WS",
	}

	patch := TickerPatch{
		Price:  Float(42100.5),
		Source: String("Bybit"),
	}
	patch.Apply(&r)

	if r.Price != 42100.5 {
		t.Errorf("Price = %v, want 42100.5", r.Price)
	}
	if r.Source != "Bybit" {
		t.Errorf("Source = %q, want %q", r.Source, "Bybit")
	}

	// Fields absent from the patch keep their prior values.
	if r.Change24h != 1.5 {
		t.Errorf("Change24h = %v, want 1.5", r.Change24h)
	}
	if r.High24h != 43000 {
		t.Errorf("High24h = %v, want 43000", r.High24h)
	}
	if r.Volume24h != 1000 {
		t.Errorf("Volume24h = %v, want 1000", r.Volume24h)
	}
}

func TestTickerPatch_Apply_ZeroValueIsExplicit(t *testing.T) {
	r := TickerRecord{Change24h: 2.2}

	// A pointer to zero overwrites; a nil pointer does not.
	patch := TickerPatch{Change24h: Float(0)}
	patch.Apply(&r)

	if r.Change24h != 0 {
		t.Errorf("Change24h = %v, want 0", r.Change24h)
	}
}

func TestMatrixPatch_Apply_SourcesAndAvailability(t *testing.T) {
	m := MarketMatrix{
		Symbol:  "ETHUSDT",
		Sources: Sources{Price: "N/A", Derivatives: "N/A", Liquidity: "N/A"},
	}

	patch := MatrixPatch{
		OpenInterest:         Float(123456),
		FundingRate:          Float(0.0001),
		DerivativesSource:    String("Bybit"),
		DerivativesAvailable: true,
	}
	patch.Apply(&m)

	if m.OpenInterest != 123456 {
		t.Errorf("OpenInterest = %v, want 123456", m.OpenInterest)
	}
	if m.Sources.Derivatives != "Bybit" {
		t.Errorf("Sources.Derivatives = %q, want %q", m.Sources.Derivatives, "Bybit")
	}
	if !m.Availability.Derivatives {
		t.Error("Availability.Derivatives should be latched on")
	}
	if m.Sources.Price != "N/A" {
		t.Errorf("Sources.Price = %q, want untouched %q", m.Sources.Price, "N/A")
	}
	if m.Availability.Spot {
		t.Error("Availability.Spot should remain false")
	}
}

func TestMatrixPatch_Apply_AvailabilityNeverClears(t *testing.T) {
	m := MarketMatrix{
		Availability: Availability{Spot: true, Derivatives: true},
	}

	// A patch that does not assert availability must not clear prior flags.
	patch := MatrixPatch{Price: Float(100)}
	patch.Apply(&m)

	if !m.Availability.Spot || !m.Availability.Derivatives {
		t.Error("availability flags must latch on and never clear")
	}
}
