// Package assetinfo provides asset profile lookups backed by the CoinGecko
// REST API, with a fallback onto live ticker state when the upstream is
// unavailable.
package assetinfo
