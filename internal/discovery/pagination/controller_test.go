package pagination

import (
	"fmt"
	"testing"

	"provider-discovery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProviders(n int) []models.ProviderRecord {
	out := make([]models.ProviderRecord, n)
	for i := range out {
		out[i] = models.ProviderRecord{ID: fmt.Sprintf("p%d", i+1)}
	}
	return out
}

func ids(ps []models.ProviderRecord) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// ==========================
// Slice
// ==========================

func TestSlice(t *testing.T) {
	all := makeProviders(5)

	tests := []struct {
		name        string
		page, size  int
		wantIDs     []string
		wantHasMore bool
	}{
		{name: "first page", page: 1, size: 2, wantIDs: []string{"p1", "p2"}, wantHasMore: true},
		{name: "middle page", page: 2, size: 2, wantIDs: []string{"p3", "p4"}, wantHasMore: true},
		{name: "last partial page", page: 3, size: 2, wantIDs: []string{"p5"}, wantHasMore: false},
		{name: "past the end", page: 4, size: 2, wantIDs: []string{}, wantHasMore: false},
		{name: "exact fit", page: 1, size: 5, wantIDs: []string{"p1", "p2", "p3", "p4", "p5"}, wantHasMore: false},
		{name: "invalid page", page: 0, size: 2, wantIDs: []string{}, wantHasMore: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Slice(all, tt.page, tt.size)
			assert.Equal(t, tt.wantIDs, ids(p.Providers))
			assert.Equal(t, tt.wantHasMore, p.HasMore)
			assert.Equal(t, 5, p.TotalCount)
		})
	}
}

func TestSlice_EmptyInput(t *testing.T) {
	p := Slice(nil, 1, 20)
	assert.NotNil(t, p.Providers)
	assert.Empty(t, p.Providers)
	assert.False(t, p.HasMore)
	assert.Equal(t, 0, p.TotalCount)
}

// ==========================
// Controller
// ==========================

func TestController_PageSizeTwoOfFive(t *testing.T) {
	all := makeProviders(5)
	c := NewController(2)

	page1 := c.LoadPage(all, false)
	assert.Len(t, page1, 2)
	assert.True(t, c.HasMore())

	require.True(t, c.NextPage())
	require.True(t, c.NextPage())
	page3 := c.LoadPage(all, false)
	assert.Equal(t, []string{"p5"}, ids(page3))
	assert.False(t, c.HasMore())
}

func TestController_AppendCoversEverythingOnce(t *testing.T) {
	for _, tc := range []struct{ total, size int }{{0, 3}, {1, 1}, {5, 2}, {10, 3}, {12, 4}, {7, 10}} {
		t.Run(fmt.Sprintf("%d/%d", tc.total, tc.size), func(t *testing.T) {
			all := makeProviders(tc.total)
			c := NewController(tc.size)

			c.LoadPage(all, true)
			for c.NextPage() {
				c.LoadPage(all, true)
				assert.LessOrEqual(t, len(c.Accumulated()), c.TotalCount())
			}

			assert.Equal(t, ids(all), ids(c.Accumulated()))
			assert.False(t, c.HasMore())
		})
	}
}

func TestController_NextPageNoOpWhenExhausted(t *testing.T) {
	c := NewController(10)
	c.LoadPage(makeProviders(3), false)

	assert.False(t, c.NextPage())
	assert.Equal(t, 1, c.Page())
}

func TestController_ReplaceDiscardsAccumulation(t *testing.T) {
	c := NewController(2)
	all := makeProviders(6)

	c.LoadPage(all, true)
	c.NextPage()
	c.LoadPage(all, true)
	require.Len(t, c.Accumulated(), 4)

	// filter changed: caller resets and reloads
	narrowed := all[:3]
	c.Reset(2)
	got := c.LoadPage(narrowed, false)
	assert.Equal(t, []string{"p1", "p2"}, ids(got))
	assert.Equal(t, 3, c.TotalCount())
	assert.True(t, c.HasMore())
}

func TestController_ReplaceWithoutReset(t *testing.T) {
	c := NewController(2)
	all := makeProviders(6)
	c.LoadPage(all, true)
	c.NextPage()

	got := c.LoadPage(all, false)
	assert.Equal(t, []string{"p3", "p4"}, ids(got))
}

func TestController_AccumulationNeverExceedsTotal(t *testing.T) {
	c := NewController(3)
	c.LoadPage(makeProviders(9), true)
	c.NextPage()
	c.LoadPage(makeProviders(9), true)

	// the underlying set shrank while appending
	c.LoadPage(makeProviders(4), true)
	assert.LessOrEqual(t, len(c.Accumulated()), c.TotalCount())
}

func TestController_ResetClampsPageSize(t *testing.T) {
	c := NewController(0)
	assert.Equal(t, 1, c.PageSize())
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 0, c.TotalCount())
}
