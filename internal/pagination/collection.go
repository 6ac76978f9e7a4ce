package pagination

import (
	"context"
	"errors"
	"sync"

	apperrors "carservice/internal/errors"
)

// ErrStale is returned by a fetch whose response was discarded because a newer request
// was issued for the same collection, or because the collection was closed.
var ErrStale = errors.New("pagination: response superseded by a newer request")

// Fetcher loads one page from the server.
type Fetcher[T any] func(ctx context.Context, req PageRequest) (PageResult[T], error)

// Collection holds the state of one list view: the pager, the rows of the last
// accepted response, and the error state. Every page change triggers exactly one fetch.
type Collection[T any] struct {
	fetch  Fetcher[T]
	filter string

	mu     sync.Mutex
	pager  *Pager
	seq    uint64
	cancel context.CancelFunc
	items  []T
	err    error
}

// NewCollection builds a collection positioned at page 1.
func NewCollection[T any](fetch Fetcher[T], perPage int) *Collection[T] {
	return &Collection[T]{fetch: fetch, pager: NewPager(perPage)}
}

// Seed positions the collection before its first fetch.
func (c *Collection[T]) Seed(page int) *Collection[T] {
	c.mu.Lock()
	c.pager.Seed(page)
	c.mu.Unlock()
	return c
}

// Filter sets the query string sent with every request.
func (c *Collection[T]) Filter(filter string) *Collection[T] {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	return c
}

// Load fetches the current page.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	req := c.pager.Request(c.filter)
	c.mu.Unlock()
	return c.run(ctx, req)
}

// Next moves forward one page and fetches it. At the last page it returns false and
// fetches nothing.
func (c *Collection[T]) Next(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if !c.pager.Next() {
		c.mu.Unlock()
		return false, nil
	}
	req := c.pager.Request(c.filter)
	c.mu.Unlock()
	return true, c.run(ctx, req)
}

// Prev moves back one page and fetches it. At page 1 it returns false and fetches nothing.
func (c *Collection[T]) Prev(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if !c.pager.Prev() {
		c.mu.Unlock()
		return false, nil
	}
	req := c.pager.Request(c.filter)
	c.mu.Unlock()
	return true, c.run(ctx, req)
}

// Goto jumps to page and fetches it. Pages outside [1, totalPages] are clamped once a
// page count is known.
func (c *Collection[T]) Goto(ctx context.Context, page int) error {
	c.mu.Lock()
	c.pager.Seed(page)
	if total := c.pager.TotalPages(); total > 0 && c.pager.Page() > total {
		c.pager.Seed(total)
	}
	req := c.pager.Request(c.filter)
	c.mu.Unlock()
	return c.run(ctx, req)
}

// Close cancels the outstanding fetch; its response, if any, is discarded.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Collection[T]) run(ctx context.Context, req PageRequest) error {
	return c.fetchPage(ctx, req, true)
}

// fetchPage accepts one response. A request past the reported page count comes back
// empty; the pager is then clamped and, when refetch is set, the last page is loaded.
func (c *Collection[T]) fetchPage(ctx context.Context, req PageRequest, refetch bool) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	res, err := c.fetch(fetchCtx, req)

	c.mu.Lock()
	cancel()
	if seq != c.seq {
		c.mu.Unlock()
		return ErrStale
	}
	c.cancel = nil

	if err != nil {
		c.items = nil
		c.pager.Reset()
		c.err = err
		if apperrors.IsAuthExpired(err) {
			c.err = nil
		}
		c.mu.Unlock()
		return err
	}

	c.err = nil
	c.items = res.Items
	c.pager.SetTotalPages(res.TotalPages)
	clamped := c.pager.Page() != req.Page
	next := c.pager.Request(c.filter)
	c.mu.Unlock()

	if refetch && clamped && len(res.Items) == 0 {
		return c.fetchPage(ctx, next, false)
	}
	return nil
}

// Items returns the rows of the last accepted response.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Err returns the failure of the last accepted fetch, nil after a success.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Page returns the current page number.
func (c *Collection[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.Page()
}

// TotalPages returns the page count of the last accepted response.
func (c *Collection[T]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.TotalPages()
}
