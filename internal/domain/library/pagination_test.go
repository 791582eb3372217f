package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name       string
		page       int64
		limit      int64
		want       []int
		totalPages int64
	}{
		{"first page", 1, 3, []int{1, 2, 3}, 3},
		{"last partial page", 3, 3, []int{7}, 3},
		{"past the end", 4, 3, []int{}, 3},
		{"everything on one page", 1, 10, items, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := Paginate(items, tt.page, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(items)), p.Total)
			assert.Equal(t, tt.totalPages, p.TotalPages)
		})
	}
}
