package validation

import (
	"slices"
	"time"

	"github.com/fjod/furstore/internal/domain"
)

const (
	MaxPageSize     = 100
	DefaultPageSize = 10
)

var (
	orderSortFields = []string{"createdAt", "status", "grandTotal"}
	sortDirections  = []string{"asc", "desc"}
)

const dateLayout = "2006-01-02"

// OrderQuery checks listing filters. Zero page values are allowed and mean defaults.
func OrderQuery(q domain.OrderQuery) Result {
	var r Result
	r.check(q.Page >= 0, "page", "Page must not be negative")
	r.check(q.PageSize >= 0 && q.PageSize <= MaxPageSize, "pageSize", "Page size must be between 1 and 100")
	if q.Status != "" {
		r.check(q.Status.Valid(), "status", "Unknown order status")
	}
	if q.SortField != "" {
		r.check(slices.Contains(orderSortFields, q.SortField), "sortField", "Unsupported sort field")
	}
	if q.SortBy != "" {
		r.check(slices.Contains(sortDirections, q.SortBy), "sortBy", "Sort direction must be asc or desc")
	}

	from, fromErr := parseDate(q.From)
	to, toErr := parseDate(q.To)
	r.check(fromErr == nil, "from", "Invalid date")
	r.check(toErr == nil, "to", "Invalid date")
	if fromErr == nil && toErr == nil && !from.IsZero() && !to.IsZero() {
		r.check(!from.After(to), "to", "End date must not be before start date")
	}
	return r
}

// NormalizeOrderQuery fills paging and sort defaults.
func NormalizeOrderQuery(q domain.OrderQuery) domain.OrderQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.SortField == "" {
		q.SortField = "createdAt"
	}
	if q.SortBy == "" {
		q.SortBy = "desc"
	}
	return q
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
