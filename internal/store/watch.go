package store

import (
	"sync"

	"github.com/google/uuid"
)

// UpdateBufferSize is the capacity of each watcher's update channel.
const UpdateBufferSize = 256

// Kind identifies which record category an update touched.
type Kind string

const (
	KindTicker       Kind = "ticker"
	KindMatrix       Kind = "matrix"
	KindActiveSymbol Kind = "active_symbol"
)

// Update is delivered to watchers after a merge or active-symbol change.
type Update struct {
	Symbol string
	Kind   Kind
}

// watchSet tracks subscriber channels keyed by subscription ID.
type watchSet struct {
	mu       sync.RWMutex
	watchers map[uuid.UUID]chan Update
}

func newWatchSet() watchSet {
	return watchSet{watchers: make(map[uuid.UUID]chan Update)}
}

// Watch registers a new watcher and returns its ID and update channel.
// The channel is buffered; a slow consumer loses the oldest updates rather
// than blocking producers.
func (s *Store) Watch() (uuid.UUID, <-chan Update) {
	id := uuid.New()
	ch := make(chan Update, UpdateBufferSize)

	s.watch.mu.Lock()
	s.watch.watchers[id] = ch
	s.watch.mu.Unlock()

	return id, ch
}

// Unwatch removes a watcher and closes its channel.
func (s *Store) Unwatch(id uuid.UUID) {
	s.watch.mu.Lock()
	ch, ok := s.watch.watchers[id]
	if ok {
		delete(s.watch.watchers, id)
	}
	s.watch.mu.Unlock()

	if ok {
		close(ch)
	}
}

// notify fans an update out to all watchers without blocking. A full channel
// drops its oldest entry to make room.
func (w *watchSet) notify(u Update) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.watchers {
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
				select {
				case ch <- u:
				default:
				}
			default:
			}
		}
	}
}
