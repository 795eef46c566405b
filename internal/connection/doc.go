// Package connection implements the resilient WebSocket connection manager.
//
// One Manager owns one socket to one endpoint:
//   - Connect dials asynchronously and delivers parsed frames on a channel
//   - Malformed frames are logged and dropped without tearing the socket down
//   - Transport errors schedule a reconnect with linearly growing delay,
//     capped at a fixed attempt count; once exhausted the manager stays
//     DISCONNECTED until an explicit Connect
//   - Close is terminal and cancels any scheduled reconnect timer
//
// Frame order within one manager's stream is preserved (single reader
// goroutine feeding a single ordered channel).
package connection
