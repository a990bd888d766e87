// Package query is the client-side query and mutation cache. Reads are
// de-duplicated per key, served stale-while-revalidate, and invalidated
// by resource prefix after a successful mutation.
package query

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codestack/cli/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for one key.
type Fetcher func(ctx context.Context) (interface{}, error)

// Update is delivered to subscribers when a key's value changes or a
// background refetch fails.
type Update struct {
	Value interface{}
	Err   error
}

// Options configures a Cache.
type Options struct {
	// StaleTimes overrides DefaultStaleTimes per resource.
	StaleTimes map[string]time.Duration
	// Invalidations overrides the package-level table.
	Invalidations map[MutationKind][]string
	// Now is the clock; tests replace it.
	Now func() time.Time
}

type entry struct {
	value     interface{}
	hasValue  bool
	fetchedAt time.Time

	// gen changes on invalidation and purge. A response is stored only if
	// the generation it was fetched under is still current.
	gen uint64
	// invalidated entries are reloaded on the next read instead of being
	// served stale.
	invalidated bool
	// refetchGen is the generation of the in-flight invalidation refetch,
	// zero when there is none.
	refetchGen uint64
	// restale records an invalidation that arrived during that refetch.
	restale bool

	fetcher Fetcher
	subs    map[int]*Subscription
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	lastGen uint64
	nextSub int

	group singleflight.Group

	staleTimes    map[string]time.Duration
	invalidations map[MutationKind][]string
	now           func() time.Time

	// ctx bounds background refetches; Purge and Close cancel it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reg     *prometheus.Registry
	metrics *metrics
}

// New creates a cache with its own metrics registry.
func New(opts Options) *Cache {
	staleTimes := make(map[string]time.Duration, len(DefaultStaleTimes))
	for k, v := range DefaultStaleTimes {
		staleTimes[k] = v
	}
	for k, v := range opts.StaleTimes {
		staleTimes[k] = v
	}

	invalidations := opts.Invalidations
	if invalidations == nil {
		invalidations = Invalidations
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	reg := prometheus.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	return &Cache{
		entries:       make(map[Key]*entry),
		staleTimes:    staleTimes,
		invalidations: invalidations,
		now:           now,
		ctx:           ctx,
		cancel:        cancel,
		reg:           reg,
		metrics:       newMetrics(reg),
	}
}

// Metrics exposes the cache counters.
func (c *Cache) Metrics() prometheus.Gatherer {
	return c.reg
}

func (c *Cache) nextGenLocked() uint64 {
	c.lastGen++
	return c.lastGen
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{gen: c.nextGenLocked(), subs: make(map[int]*Subscription)}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) staleTime(resource string) time.Duration {
	return c.staleTimes[resource]
}

// Fetch returns the value for key. A fresh entry is returned as is; a
// stale one is returned immediately and revalidated in the background;
// a missing or invalidated one is loaded before returning. Concurrent
// loads of one key share a single request.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (interface{}, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fetch

	if e.hasValue && !e.invalidated {
		v := e.value
		fresh := c.now().Sub(e.fetchedAt) < c.staleTime(key.Resource)
		c.mu.Unlock()

		if fresh {
			c.metrics.hits.WithLabelValues(key.Resource).Inc()
			return v, nil
		}
		c.metrics.staleHits.WithLabelValues(key.Resource).Inc()
		c.revalidate(key)
		return v, nil
	}

	gen := e.gen
	c.mu.Unlock()

	c.metrics.misses.WithLabelValues(key.Resource).Inc()
	return c.load(ctx, key, gen, fetch)
}

// Get returns the cached value without fetching.
func (c *Cache) Get(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

func flightKey(key Key, gen uint64) string {
	return key.String() + "#" + strconv.FormatUint(gen, 10)
}

func (c *Cache) load(ctx context.Context, key Key, gen uint64, fetch Fetcher) (interface{}, error) {
	v, err, _ := c.group.Do(flightKey(key, gen), func() (interface{}, error) {
		c.metrics.fetches.WithLabelValues(key.Resource).Inc()
		logger.Debug("Query fetch", "key", key.String())

		val, err := fetch(ctx)
		if err != nil {
			c.metrics.fetchErrors.WithLabelValues(key.Resource).Inc()
			return nil, err
		}
		c.store(key, gen, val)
		return val, nil
	})
	return v, err
}

func (c *Cache) store(key Key, gen uint64, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		c.metrics.dropped.WithLabelValues(key.Resource).Inc()
		logger.Debug("Dropping superseded response", "key", key.String())
		return
	}

	e.value = val
	e.hasValue = true
	e.fetchedAt = c.now()
	e.invalidated = false
	c.deliverLocked(e, Update{Value: val})
}

func (c *Cache) deliverLocked(e *entry, u Update) {
	for _, s := range e.subs {
		s.send(u)
	}
}

func (c *Cache) revalidate(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return
	}
	gen, fetch, ctx := e.gen, e.fetcher, c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if _, err := c.load(ctx, key, gen, fetch); err != nil {
			c.fail(key, gen, err)
		}
	}()
}

func (c *Cache) fail(key Key, gen uint64, err error) {
	logger.Debug("Background fetch failed", "key", key.String(), "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.gen == gen {
		c.deliverLocked(e, Update{Err: err})
	}
}

func matchesAny(resource string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(resource, p) {
			return true
		}
	}
	return false
}

// Invalidate marks every entry whose resource starts with one of prefixes
// as stale. Entries with live subscribers are refetched once; while that
// refetch is in flight further invalidations of the entry coalesce into
// it and the entry is reloaded on its next read instead.
func (c *Cache) Invalidate(prefixes ...string) {
	if len(prefixes) == 0 {
		return
	}

	type job struct {
		key   Key
		gen   uint64
		fetch Fetcher
	}

	c.mu.Lock()
	var jobs []job
	for key, e := range c.entries {
		if !matchesAny(key.Resource, prefixes) {
			continue
		}
		c.metrics.invalidations.WithLabelValues(key.Resource).Inc()

		if e.refetchGen != 0 {
			e.restale = true
			continue
		}

		e.gen = c.nextGenLocked()
		e.invalidated = true
		if len(e.subs) > 0 && e.fetcher != nil {
			e.refetchGen = e.gen
			jobs = append(jobs, job{key: key, gen: e.gen, fetch: e.fetcher})
		}
	}
	ctx := c.ctx
	c.wg.Add(len(jobs))
	c.mu.Unlock()

	for _, j := range jobs {
		go func(j job) {
			defer c.wg.Done()
			_, err := c.load(ctx, j.key, j.gen, j.fetch)

			c.mu.Lock()
			e, ok := c.entries[j.key]
			if ok && e.refetchGen == j.gen {
				e.refetchGen = 0
				if e.restale {
					e.restale = false
					e.invalidated = true
				}
				if err != nil {
					c.deliverLocked(e, Update{Err: err})
				}
			}
			c.mu.Unlock()
		}(j)
	}
}

// Mutate runs fn and, only if it succeeds, invalidates the prefixes
// declared for kind. Mutations are never retried.
func (c *Cache) Mutate(ctx context.Context, kind MutationKind, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		logger.Debug("Mutation failed", "kind", kind, "error", err)
		return err
	}

	prefixes, ok := c.invalidations[kind]
	if !ok {
		logger.Warn("Mutation has no declared invalidations", "kind", kind)
		return nil
	}
	c.Invalidate(prefixes...)
	return nil
}

// Purge drops every cached value and cancels background refetches.
// Subscriptions stay open but receive nothing until their key is fetched
// again.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())

	for key, e := range c.entries {
		if len(e.subs) == 0 {
			delete(c.entries, key)
			continue
		}
		e.value = nil
		e.hasValue = false
		e.fetcher = nil
		e.gen = c.nextGenLocked()
		e.invalidated = false
		e.refetchGen = 0
		e.restale = false
	}
	c.metrics.purges.Inc()
	logger.Debug("Query cache purged")
}

// Wait blocks until background refetches started so far have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close cancels background work and waits for it.
func (c *Cache) Close() {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}
