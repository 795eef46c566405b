// Package stream implements the subscription multiplexer.
//
// A Multiplexer owns the working set of subscription topics for one exchange
// and keeps exactly one underlying connection representing that whole set:
//   - Topics are add-only and capped at MaxTopics; additions past the
//     ceiling are silently dropped
//   - A topic change schedules a full reconnect after a short debounce so
//     bursts of additions coalesce into one reconnect
//   - Reconnecting rebuilds the combined URL or post-connect subscribe
//     frames from the entire current topic set and replaces the underlying
//     connection manager
//
// The wire details of each exchange live behind the Feed interface; the
// multiplexer itself never branches on exchange.
package stream
