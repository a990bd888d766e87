// Package listview drives paginated, filterable lists: page state, filter
// and sort resets, debounced search, and fetching through the query cache.
package listview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codestack/cli/pkg/debounce"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/query"
)

// SortMode orders a post list.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortPopular SortMode = "popular"
)

// Page sizes are fixed per list.
const (
	HomePageSize     = 5
	AllPostsPageSize = 8
	UsersPageSize    = 10
	PopularPageSize  = 4
)

// Search delays.
const (
	SearchDelay     = 500 * time.Millisecond
	UserSearchDelay = 1000 * time.Millisecond
)

// Params is everything that selects one page of a list.
type Params struct {
	// Scope narrows the list to one owner, such as the author's email.
	Scope    string
	Page     int
	PageSize int
	Sort     SortMode
	Tag      string
	Search   string
}

// Filtered reports whether a tag or search filter is active.
func (p Params) Filtered() bool {
	return p.Tag != "" || p.Search != ""
}

// Key is the cache coordinate for these params under resource.
func (p Params) Key(resource string) query.Key {
	return query.NewKey(resource, p.Scope, p.Page, p.PageSize, p.Sort, p.Tag, p.Search)
}

// Result is one page of items and the size of the whole (filtered) set.
type Result[T any] struct {
	Items []T
	Total int
}

// Loader fetches one page.
type Loader[T any] func(ctx context.Context, p Params) (Result[T], error)

// Anchor is the view element brought into view after a page change.
type Anchor interface {
	ScrollIntoView()
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Page returns the items of page p from a fully loaded, already ordered
// set. Out of range pages are empty.
func Page[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize <= 0 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Config configures a Controller.
type Config[T any] struct {
	Resource    string
	Scope       string
	PageSize    int
	Sort        SortMode
	Cache       *query.Cache
	Load        Loader[T]
	SearchDelay time.Duration
	// OnChange runs after every state change that came from a fetch,
	// including pushes after invalidation. It runs without locks held.
	OnChange func()
}

// Controller owns the state of one list view.
type Controller[T any] struct {
	resource string
	cache    *query.Cache
	load     Loader[T]
	onChange func()
	search   *debounce.Debouncer

	mu      sync.Mutex
	params  Params
	items   []T
	total   int
	err     error
	loading bool
	seq     uint64
	anchor  Anchor
	sub     *query.Subscription
	closed  bool
}

// New creates a controller on page 1.
func New[T any](cfg Config[T]) *Controller[T] {
	delay := cfg.SearchDelay
	if delay == 0 {
		delay = SearchDelay
	}
	sort := cfg.Sort
	if sort == "" {
		sort = SortNewest
	}
	return &Controller[T]{
		resource: cfg.Resource,
		cache:    cfg.Cache,
		load:     cfg.Load,
		onChange: cfg.OnChange,
		search:   debounce.New(delay),
		params:   Params{Scope: cfg.Scope, Page: 1, PageSize: cfg.PageSize, Sort: sort},
	}
}

// SetAnchor attaches the scroll anchor. nil detaches it.
func (c *Controller[T]) SetAnchor(a Anchor) {
	c.mu.Lock()
	c.anchor = a
	c.mu.Unlock()
}

// Params returns the current parameters.
func (c *Controller[T]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Items returns the items of the current page.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Total returns the size of the (filtered) set.
func (c *Controller[T]) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// TotalPages returns the page count for the current total.
func (c *Controller[T]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TotalPages(c.total, c.params.PageSize)
}

// Err returns the last fetch error. Retry re-issues the same request.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Load fetches the page for the current parameters.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	seq := c.seq
	params := c.params
	c.loading = true
	c.resubscribeLocked(params)
	c.mu.Unlock()

	res, err := c.fetch(ctx, params)

	c.mu.Lock()
	if c.seq != seq || c.closed {
		// Superseded by a newer load or the view went away.
		c.mu.Unlock()
		return err
	}
	c.loading = false
	clamped := c.applyLocked(res, err)
	c.mu.Unlock()

	if clamped {
		return c.Load(ctx)
	}
	c.changed()
	return err
}

func (c *Controller[T]) fetch(ctx context.Context, params Params) (res Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("List fetch panicked", "resource", c.resource, "panic", r)
			err = fmt.Errorf("loading %s: %v", c.resource, r)
		}
	}()

	v, err := c.cache.Fetch(ctx, params.Key(c.resource), func(ctx context.Context) (interface{}, error) {
		return c.load(ctx, params)
	})
	if err != nil {
		return res, err
	}
	return v.(Result[T]), nil
}

// applyLocked stores a fetch result. When the set shrank below the
// current page (the last item of the last page was deleted) the page
// moves to the new last page and applyLocked reports true; the caller
// must load it.
func (c *Controller[T]) applyLocked(res Result[T], err error) bool {
	c.err = err
	if err != nil {
		return false
	}
	c.items = res.Items
	c.total = res.Total

	last := TotalPages(res.Total, c.params.PageSize)
	if last > 0 && c.params.Page > last {
		logger.Debug("Page past end of list", "resource", c.resource, "page", c.params.Page, "last", last)
		c.params.Page = last
		return true
	}
	return false
}

func (c *Controller[T]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// resubscribeLocked moves the push subscription to the key for params so
// that invalidations of the visible page are applied.
func (c *Controller[T]) resubscribeLocked(params Params) {
	if c.sub != nil {
		c.sub.Close()
	}
	sub := c.cache.Subscribe(params.Key(c.resource))
	c.sub = sub

	go func() {
		for u := range sub.Updates() {
			c.mu.Lock()
			if c.sub != sub || c.params != params {
				c.mu.Unlock()
				continue
			}
			clamped := false
			if u.Err != nil {
				c.err = u.Err
			} else if res, ok := u.Value.(Result[T]); ok {
				clamped = c.applyLocked(res, nil)
			}
			c.mu.Unlock()

			if clamped {
				go func() {
					if err := c.Load(context.Background()); err != nil {
						logger.Debug("Reload after shrink failed", "resource", c.resource, "error", err)
					}
				}()
				continue
			}
			c.changed()
		}
	}()
}

// SetTag filters by tag, resetting to page 1 before fetching.
func (c *Controller[T]) SetTag(ctx context.Context, tag string) error {
	c.mu.Lock()
	c.params.Tag = tag
	c.params.Page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetSearch records the search text and resets to page 1 at once; the
// fetch itself waits for typing to pause.
func (c *Controller[T]) SetSearch(ctx context.Context, text string) {
	c.mu.Lock()
	c.params.Search = text
	c.params.Page = 1
	// Results for the previous text must not land under the new one.
	c.seq++
	c.loading = true
	c.mu.Unlock()

	c.search.Schedule(func() {
		if err := c.Load(ctx); err != nil {
			logger.Debug("Search fetch failed", "resource", c.resource, "error", err)
		}
	})
}

// FlushSearch runs a pending debounced search immediately.
func (c *Controller[T]) FlushSearch() bool {
	return c.search.Flush()
}

// ToggleSort switches between newest and popular, resetting to page 1.
func (c *Controller[T]) ToggleSort(ctx context.Context) error {
	c.mu.Lock()
	if c.params.Sort == SortPopular {
		c.params.Sort = SortNewest
	} else {
		c.params.Sort = SortPopular
	}
	c.params.Page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// GoTo moves to page p. Pages outside 1..TotalPages are a no-op and
// report false.
func (c *Controller[T]) GoTo(ctx context.Context, p int) (bool, error) {
	c.mu.Lock()
	if p < 1 || p > TotalPages(c.total, c.params.PageSize) {
		c.mu.Unlock()
		return false, nil
	}
	c.params.Page = p
	c.mu.Unlock()

	err := c.Load(ctx)
	c.scroll()
	return true, err
}

// Next moves forward one page.
func (c *Controller[T]) Next(ctx context.Context) (bool, error) {
	return c.GoTo(ctx, c.Params().Page+1)
}

// Prev moves back one page.
func (c *Controller[T]) Prev(ctx context.Context) (bool, error) {
	return c.GoTo(ctx, c.Params().Page-1)
}

func (c *Controller[T]) scroll() {
	c.mu.Lock()
	a := c.anchor
	c.mu.Unlock()
	if a == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Scroll anchor unavailable", "panic", r)
		}
	}()
	a.ScrollIntoView()
}

// Retry re-issues the request for the current parameters.
func (c *Controller[T]) Retry(ctx context.Context) error {
	return c.Load(ctx)
}

// Close unmounts the controller. Responses arriving afterwards are
// ignored.
func (c *Controller[T]) Close() {
	c.search.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}
