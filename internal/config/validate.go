package config

import (
	"errors"
	"fmt"

	"github.com/Tint-protocol/TintAi/internal/stream"
)

// Validate checks that all required fields are set and values are valid.
func (c *FeedConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Streams.MaxReconnects < 1 {
		return errors.New("streams.max_reconnects must be >= 1")
	}
	if c.Streams.BufferSize < 1 {
		return errors.New("streams.buffer_size must be >= 1")
	}

	if c.Sources.RateLimit <= 0 {
		return errors.New("sources.rate_limit must be > 0")
	}
	if c.Sources.RateBurst < 1 {
		return errors.New("sources.rate_burst must be >= 1")
	}

	if len(c.Feed.Pairs) > stream.MaxTopics {
		return fmt.Errorf("feed.pairs has %d entries, exceeds subscription ceiling %d", len(c.Feed.Pairs), stream.MaxTopics)
	}
	if c.Feed.WarmupWorkers < 1 {
		return errors.New("feed.warmup_workers must be >= 1")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	return nil
}
