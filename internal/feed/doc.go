// Package feed coordinates the live market data pipeline: the spot and
// derivatives stream multiplexers, the REST fallback aggregator, and the
// active symbol lifecycle.
package feed
