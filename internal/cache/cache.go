package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/honeycarbs/mixer-client/pkg/logging"
)

const (
	defaultRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
)

// Query declares a cacheable read
type Query[T any] struct {
	Key   string
	Fetch func(ctx context.Context) (T, error)
	// Retry is the number of extra attempts after a failed fetch. Zero
	// surfaces the first failure to the caller.
	Retry      int
	RetryDelay time.Duration
}

// State is a snapshot of one cache entry
type State struct {
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

type entry struct {
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool
}

// flight is one shared fetch. It runs detached from any single caller and
// is cancelled once every caller waiting on it has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	waiters int
}

// Client holds fetched results by key. Entries are replaced wholesale on
// every fetch and never mutated in place.
type Client struct {
	mu      sync.RWMutex
	entries map[string]*entry
	gens    map[string]uint64
	flights map[string]*flight
	group   singleflight.Group
	clock   func() time.Time
	logger  *logging.Logger
}

// Option configures Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// New creates an empty cache
func New(opts ...Option) *Client {
	c := &Client{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
		flights: make(map[string]*flight),
		clock:   time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("cache")
	return c
}

// Fetch returns the cached value for q.Key, fetching it when there is no
// fresh value. Concurrent callers for the same key share one fetch; a caller
// whose ctx ends stops waiting without failing the others.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	var zero T
	if q.Key == "" || q.Fetch == nil {
		return zero, fmt.Errorf("cache: query key and fetch are required")
	}

	if v, ok := c.fresh(q.Key); ok {
		return cast[T](q.Key, v)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	f, ch := c.join(ctx, q.Key, func(ctx context.Context) (any, error) {
		return fetchWithRetry(ctx, q)
	})
	defer c.leave(q.Key, f)

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return cast[T](q.Key, res.Val)
	}
}

// join registers the caller on the running fetch for key, starting one when
// none is running
func (c *Client) join(ctx context.Context, key string, fetch func(context.Context) (any, error)) (*flight, <-chan singleflight.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.flights[key]
	if f == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel, gen: c.gens[key]}
		c.flights[key] = f
	}
	f.waiters++

	// DoChan runs fn on its own goroutine, so holding mu here keeps the
	// flights map and the group in step
	ch := c.group.DoChan(key, func() (any, error) {
		defer c.finish(key, f)
		return c.load(f.ctx, key, f.gen, fetch)
	})
	return f, ch
}

// leave drops one waiter; the last one out cancels an unfinished fetch
func (c *Client) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	c.detach(key, f)
}

func (c *Client) finish(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detach(key, f)
}

// detach stops new callers from joining f. mu must be held.
func (c *Client) detach(key string, f *flight) {
	if c.flights[key] == f {
		delete(c.flights, key)
		c.group.Forget(key)
	}
}

// Invalidate marks key stale so the next Fetch goes to the source. A fetch
// already running for key is detached and its result is not stored.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[key]++
	if f, ok := c.flights[key]; ok {
		c.detach(key, f)
	}
	if e, ok := c.entries[key]; ok {
		next := *e
		next.stale = true
		c.entries[key] = &next
	}
	c.logger.Debug("cache key invalidated", "key", key)
}

// State returns a snapshot of key; ok is false when key was never fetched
func (c *Client) State(key string) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return State{}, false
	}
	return State{
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale,
	}, true
}

func (c *Client) fresh(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.stale || e.err != nil || !e.hasData {
		return nil, false
	}
	return e.data, true
}

func (c *Client) load(ctx context.Context, key string, gen uint64, fetch func(context.Context) (any, error)) (any, error) {
	v, err := fetch(ctx)
	if err != nil && ctx.Err() != nil {
		// cancelled reads leave the entry untouched
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		c.logger.Debug("dropping result fetched before invalidation", "key", key)
		return v, err
	}

	prev := c.entries[key]
	next := &entry{updatedAt: c.clock()}
	if err != nil {
		next.err = err
		if prev != nil {
			next.data, next.hasData = prev.data, prev.hasData
		}
		c.logger.Debug("cache fetch failed", "key", key, "err", err)
	} else {
		next.data, next.hasData = v, true
	}
	c.entries[key] = next

	return v, err
}

func fetchWithRetry[T any](ctx context.Context, q Query[T]) (any, error) {
	delay := q.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= q.Retry; attempt++ {
		v, err := q.Fetch(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == q.Retry || ctx.Err() != nil {
			break
		}

		backoff := delay << attempt
		if backoff > maxRetryDelay {
			backoff = maxRetryDelay
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, lastErr
		}
	}

	return nil, lastErr
}

func cast[T any](key string, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T, not %T", key, v, zero)
	}
	return out, nil
}
