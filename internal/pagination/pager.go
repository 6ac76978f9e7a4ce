// Package pagination implements the paginated collection view shared by every list screen:
// a pager clamped to the server's page count, a collection that fetches one page at a time
// and discards stale responses, and a render snapshot with column and action descriptors.
package pagination

// DefaultPageSize matches the backend's per_page default.
const DefaultPageSize = 10

// PageRequest identifies one page of a server-side collection.
type PageRequest struct {
	Page    int
	PerPage int
	Filter  string
}

// PageResult is one page of items plus the page count reported by the server.
type PageResult[T any] struct {
	Items      []T
	TotalPages int
}

// Pager tracks the current page against the total reported by the most recent fetch.
type Pager struct {
	page       int
	perPage    int
	totalPages int
}

// NewPager starts at page 1. A non-positive perPage falls back to DefaultPageSize.
func NewPager(perPage int) *Pager {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	return &Pager{page: 1, perPage: perPage}
}

// Page returns the current page, always >= 1.
func (p *Pager) Page() int { return p.page }

// PerPage returns the fixed page size.
func (p *Pager) PerPage() int { return p.perPage }

// TotalPages returns the page count from the last fetch.
func (p *Pager) TotalPages() int { return p.totalPages }

// Seed positions the pager before the first fetch. Pages below 1 become 1.
func (p *Pager) Seed(page int) {
	if page < 1 {
		page = 1
	}
	p.page = page
}

// SetTotalPages records the server's page count and clamps the current page into [1, total].
func (p *Pager) SetTotalPages(total int) {
	if total < 0 {
		total = 0
	}
	p.totalPages = total
	if total > 0 && p.page > total {
		p.page = total
	}
	if p.page < 1 {
		p.page = 1
	}
}

// HasPrev reports whether Previous is enabled.
func (p *Pager) HasPrev() bool { return p.page > 1 && p.totalPages > 0 }

// HasNext reports whether Next is enabled.
func (p *Pager) HasNext() bool { return p.page < p.totalPages }

// Next advances one page. It returns false, without moving, at the last page.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page. It returns false, without moving, at the first page.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.page--
	return true
}

// Request builds the request for the current page.
func (p *Pager) Request(filter string) PageRequest {
	return PageRequest{Page: p.page, PerPage: p.perPage, Filter: filter}
}

// Reset drops the page count after a failed fetch; the current page is kept for a retry.
func (p *Pager) Reset() {
	p.totalPages = 0
}
