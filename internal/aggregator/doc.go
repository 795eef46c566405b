// Package aggregator implements the multi-exchange REST fallback chain.
//
// FetchTicker walks a priority-ordered list of exchange sources and merges
// the first structurally valid response into the store:
//   - Each source call carries its own bounded timeout; a hung source cannot
//     stall the chain beyond that bound
//   - Each source sits behind a circuit breaker, so a persistently failing
//     exchange is skipped without burning its timeout
//   - Outbound calls are rate limited per source
//   - When every source fails the store is left untouched and
//     ErrSourcesExhausted is returned; stale data stays visible
//
// Each source adapter normalizes its exchange's payload into the same
// TickerPatch shape, so the merge step never branches per exchange.
package aggregator
