package library

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64 // Total number of records
	Page       int64 // Current page number (1-based)
	Limit      int64 // Number of records per page
	TotalPages int64 // Total number of pages
}

// NewPagination creates a new Pagination instance with calculated total pages.
func NewPagination(total, page, limit int64) *Pagination {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// Paginate returns the page-th slice of limit items (1-based) and its pagination info.
// Pages past the end yield an empty slice.
func Paginate[T any](items []T, page, limit int64) ([]T, *Pagination) {
	total := int64(len(items))
	p := NewPagination(total, page, limit)

	start := (page - 1) * limit
	if start < 0 || start >= total {
		return []T{}, p
	}
	end := min(start+limit, total)

	return items[start:end], p
}
