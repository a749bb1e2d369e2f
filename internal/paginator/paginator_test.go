package paginator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_CoversSequence(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 20, 21, 57} {
		items := seq(n)
		first := Paginate(items, 10, 1)

		var got []int
		for p := 1; p <= first.TotalPages; p++ {
			page := Paginate(items, 10, p)
			assert.LessOrEqual(t, len(page.Items), 10)
			got = append(got, page.Items...)
		}

		// Ни пропусков, ни дублей, порядок исходный.
		if n == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, items, got, "n=%d", n)
		}
	}
}

func TestPaginate_ElevenItems(t *testing.T) {
	items := seq(11)

	first := Paginate(items, 10, 1)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 11, first.TotalItems)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	second := Paginate(items, 10, 2)
	assert.Equal(t, []int{10}, second.Items)
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
}

func TestPaginate_BeyondLastPage(t *testing.T) {
	page := Paginate(seq(11), 10, 5)

	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 5, page.Number)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrevious())
}

func TestPaginate_HugePageNumber(t *testing.T) {
	for _, requested := range []int{ParsePage("922337203685477582"), math.MaxInt, math.MaxInt/10 + 1} {
		page := Paginate(seq(3), 10, requested)

		assert.Empty(t, page.Items, "page=%d", requested)
		assert.Equal(t, requested, page.Number)
		assert.Equal(t, 1, page.TotalPages)
		assert.False(t, page.HasNext())
	}
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]string{}, 10, 1)

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.TotalItems)
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrevious())
}

func TestPaginate_ClampsPageNumber(t *testing.T) {
	page := Paginate(seq(3), 2, -4)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, []int{0, 1}, page.Items)
}

func TestPaginate_NonPositivePageSize(t *testing.T) {
	page := Paginate(seq(15), 0, 1)

	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, DefaultPageSize)
}

func TestPaginate_DoesNotAliasTail(t *testing.T) {
	items := seq(4)
	page := Paginate(items, 2, 1)

	page.Items = append(page.Items, 99)

	require.Equal(t, []int{0, 1, 2, 3}, items)
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"abc": 1,
		"0":   1,
		"-3":  1,
		"1":   1,
		"2":   2,
		"42":  42,
		"2.5": 1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "raw=%q", raw)
	}
}
