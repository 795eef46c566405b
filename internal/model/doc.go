// Package model defines shared market-data types used across the feed service.
//
// Conventions:
//   - Symbols: upper-case pair identifiers including the quote asset (e.g. "BTCUSDT")
//   - Prices/volumes: float64 in quote-asset units
//   - Timestamps: time.Time, stamped by the store at merge time
//
// Patch types carry pointer fields so that a partial update from any source
// can be applied field-by-field without per-exchange branching at the merge
// site. A nil field leaves the existing value untouched.
package model
