// Package session caches the JMAP session descriptor and checks requests
// against the capabilities it advertises.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/internal/loggingutil"
)

// FetchFunc loads a fresh descriptor from the server.
type FetchFunc func(ctx context.Context) (*api.Session, error)

// Cache holds the current descriptor snapshot. Readers always see either no
// snapshot or a complete one; a refresh swaps the pointer.
type Cache struct {
	fetch   FetchFunc
	current atomic.Pointer[api.Session]
	group   singleflight.Group
	fetches atomic.Int64
	logger  pslog.Logger
}

// Option customises a Cache.
type Option func(*Cache)

// WithLogger attaches a logger.
func WithLogger(logger pslog.Logger) Option {
	return func(c *Cache) {
		c.logger = loggingutil.WithSubsystem(logger, "session.cache")
	}
}

// NewCache returns an empty cache backed by fetch.
func NewCache(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{fetch: fetch, logger: loggingutil.NoopLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached descriptor, fetching it when the cache is empty.
// Concurrent callers on an empty cache share one fetch. Fetch errors are
// returned as is and leave the cache empty.
func (c *Cache) Get(ctx context.Context) (*api.Session, error) {
	if sess := c.current.Load(); sess != nil {
		return sess, nil
	}
	if c.fetch == nil {
		return nil, errors.New("jmap: session cache has no fetch function")
	}
	ch := c.group.DoChan("session", func() (any, error) {
		if sess := c.current.Load(); sess != nil {
			return sess, nil
		}
		c.fetches.Add(1)
		sess, err := c.fetch(ctx)
		if err != nil {
			c.logger.Warn("session.fetch.error", "error", err)
			return nil, err
		}
		if sess == nil {
			return nil, errors.New("jmap: session fetch returned no descriptor")
		}
		c.current.Store(sess)
		c.logger.Debug("session.fetch.success", "state", sess.State, "username", sess.Username)
		return sess, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*api.Session), nil
	}
}

// Peek returns the cached descriptor without fetching.
func (c *Cache) Peek() *api.Session {
	return c.current.Load()
}

// Store replaces the snapshot, e.g. with a descriptor obtained elsewhere.
func (c *Cache) Store(sess *api.Session) {
	c.current.Store(sess)
}

// Invalidate drops the snapshot; the next Get fetches again.
func (c *Cache) Invalidate() {
	if old := c.current.Swap(nil); old != nil {
		c.logger.Debug("session.invalidate", "state", old.State)
	}
}

// Observe compares a response's session state with the snapshot and drops the
// snapshot when they differ. It reports whether the snapshot was dropped.
// A snapshot replaced concurrently is left alone.
func (c *Cache) Observe(state string) bool {
	if state == "" {
		return false
	}
	cur := c.current.Load()
	if cur == nil || cur.State == state {
		return false
	}
	if !c.current.CompareAndSwap(cur, nil) {
		return false
	}
	c.logger.Info("session.state.changed", "cached_state", cur.State, "response_state", state)
	return true
}

// Fetches reports how many times the fetch function ran.
func (c *Cache) Fetches() int64 {
	return c.fetches.Load()
}
