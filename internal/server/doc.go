// Package server exposes the read surface over HTTP: current ticker and
// matrix records, active symbol selection, asset profiles, and a server-sent
// event stream of store updates.
package server
