// Package pagination slices filtered provider lists into pages and tracks
// incremental ("load more") accumulation for a single search session.
package pagination

import "provider-discovery/internal/models"

// Page is one slice of a filtered result set.
type Page struct {
	Providers  []models.ProviderRecord `json:"providers"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalCount int                     `json:"totalCount"`
	HasMore    bool                    `json:"hasMore"`
}

// Slice returns page `page` of all, clamped to bounds. page and size are
// expected to be validated (>= 1) by the caller; smaller values yield an empty page.
func Slice(all []models.ProviderRecord, page, size int) Page {
	p := Page{
		Providers:  []models.ProviderRecord{},
		Page:       page,
		PageSize:   size,
		TotalCount: len(all),
	}
	if page < 1 || size < 1 {
		return p
	}

	start, end := bounds(len(all), page, size)
	if start < end {
		p.Providers = append(p.Providers, all[start:end]...)
	}
	p.HasMore = hasMore(page, size, len(all))
	return p
}

func bounds(total, page, size int) (int, int) {
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

func hasMore(page, size, total int) bool {
	return page*size < total
}

// Controller holds pagination state for one search session. It is not safe
// for concurrent use; each session owns its controller.
type Controller struct {
	page        int
	pageSize    int
	totalCount  int
	accumulated []models.ProviderRecord
}

func NewController(pageSize int) *Controller {
	c := &Controller{}
	c.Reset(pageSize)
	return c
}

// Reset clears accumulation and returns to the first page. Call it whenever
// the filter criteria change.
func (c *Controller) Reset(pageSize int) {
	if pageSize < 1 {
		pageSize = 1
	}
	c.page = 1
	c.pageSize = pageSize
	c.totalCount = 0
	c.accumulated = nil
}

// LoadPage takes the current page out of all. With appendMode the page is
// added to what was loaded before, otherwise it replaces it.
func (c *Controller) LoadPage(all []models.ProviderRecord, appendMode bool) []models.ProviderRecord {
	c.totalCount = len(all)
	start, end := bounds(len(all), c.page, c.pageSize)
	pageItems := all[start:end]

	if appendMode {
		c.accumulated = append(c.accumulated, pageItems...)
	} else {
		c.accumulated = append([]models.ProviderRecord(nil), pageItems...)
	}
	if len(c.accumulated) > c.totalCount {
		// all shrank between calls; keep the invariant
		c.accumulated = c.accumulated[:c.totalCount]
	}
	return c.Accumulated()
}

func (c *Controller) HasMore() bool {
	return hasMore(c.page, c.pageSize, c.totalCount)
}

// NextPage advances the page. It is a no-op returning false when nothing is left.
func (c *Controller) NextPage() bool {
	if !c.HasMore() {
		return false
	}
	c.page++
	return true
}

// Accumulated returns a copy of the providers loaded so far.
func (c *Controller) Accumulated() []models.ProviderRecord {
	return append([]models.ProviderRecord{}, c.accumulated...)
}

func (c *Controller) Page() int       { return c.page }
func (c *Controller) PageSize() int   { return c.pageSize }
func (c *Controller) TotalCount() int { return c.totalCount }
