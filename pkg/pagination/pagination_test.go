package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1}},
		{"?page=2&per_page=10", Params{Page: 2, PerPage: 10}},
		{"?page=-1&per_page=abc", Params{Page: 1}},
		{"?per_page=1000", Params{Page: 1, PerPage: MaxPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/catalog"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(r))
		})
	}
}

func TestPaginate_AllWhenPerPageUnset(t *testing.T) {
	res := Paginate([]int{1, 2, 3}, Params{Page: 1})
	assert.Equal(t, []int{1, 2, 3}, res.Items)
	assert.Equal(t, 3, res.TotalCount)
	assert.False(t, res.HasNext)
}

func TestPaginate_Pages(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	first := Paginate(items, Params{Page: 1, PerPage: 2})
	assert.Equal(t, []string{"a", "b"}, first.Items)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNext)

	last := Paginate(items, Params{Page: 3, PerPage: 2})
	assert.Equal(t, []string{"e"}, last.Items)
	assert.False(t, last.HasNext)

	beyond := Paginate(items, Params{Page: 9, PerPage: 2})
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 5, beyond.TotalCount)
}
