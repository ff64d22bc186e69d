package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPaginationParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, PageSize: 20}},
		{"explicit", "?page=3&page_size=5", PaginationParams{Page: 3, PageSize: 5}},
		{"clamped page size", "?page_size=500", PaginationParams{Page: 1, PageSize: 100}},
		{"garbage ignored", "?page=-2&page_size=abc", PaginationParams{Page: 1, PageSize: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/interviews"+tt.query, nil)
			assert.Equal(t, tt.expected, ExtractPaginationParams(r))
		})
	}
}

func TestPaginationWindow(t *testing.T) {
	p := PaginationParams{Page: 2, PageSize: 10}

	start, end := p.Window(15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)

	start, end = p.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}

func TestBuildPaginationMeta(t *testing.T) {
	meta := BuildPaginationMeta(2, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}
