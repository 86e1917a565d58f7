package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination represents pagination metadata
type Pagination struct {
	Page    int   `json:"page" example:"1"`
	Limit   int   `json:"limit" example:"20"`
	Total   int64 `json:"total" example:"42"`
	Pages   int   `json:"pages" example:"3"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
	Offset  int   `json:"-"`
}

// New creates a new pagination instance, clamping page and limit to sane bounds
func New(page, limit int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages < 1 {
		pages = 1
	}

	// Pages past the end all map to an empty window, so cap page there
	// before it can overflow the offset.
	if page > pages+1 {
		page = pages + 1
	}

	return &Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
		Offset:  (page - 1) * limit,
	}
}

// Requested reports whether the client asked for paging at all.
func Requested(pageStr, limitStr string) bool {
	return pageStr != "" || limitStr != ""
}

// FromQuery builds pagination for a result set of the given size from raw query values.
func FromQuery(pageStr, limitStr string, total int64) *Pagination {
	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)
	return New(page, limit, total)
}

// Bounds returns the half-open [start, end) slice window of the current page.
func (p *Pagination) Bounds() (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if int64(start) > p.Total {
		start = int(p.Total)
	}
	end := start + p.Limit
	if int64(end) > p.Total {
		end = int(p.Total)
	}
	return start, end
}
