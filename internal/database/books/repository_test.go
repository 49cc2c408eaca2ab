package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"booknest/internal/entities"
)

func TestAggregate(t *testing.T) {
	t.Run("no reviews", func(t *testing.T) {
		avg, count := Aggregate(nil)
		assert.Equal(t, 0.0, avg)
		assert.Equal(t, 0, count)
	})

	t.Run("single rating", func(t *testing.T) {
		avg, count := Aggregate([]int{4})
		assert.Equal(t, 4.0, avg)
		assert.Equal(t, 1, count)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		// (5 + 4) / 2 = 4.5
		avg, _ := Aggregate([]int{5, 4})
		assert.Equal(t, 4.5, avg)

		// (5 + 4 + 4) / 3 = 4.333... -> 4.3
		avg, _ = Aggregate([]int{5, 4, 4})
		assert.Equal(t, 4.3, avg)

		// (1 + 2 + 2) / 3 = 1.666... -> 1.7
		avg, count := Aggregate([]int{1, 2, 2})
		assert.Equal(t, 1.7, avg)
		assert.Equal(t, 3, count)
	})
}

func TestBuildFilter(t *testing.T) {
	t.Run("empty query matches everything", func(t *testing.T) {
		assert.Empty(t, buildFilter(ListQuery{}))
	})

	t.Run("search matches title or author", func(t *testing.T) {
		filter := buildFilter(ListQuery{Search: "dune"})
		or, ok := filter["$or"].(bson.A)
		assert.True(t, ok)
		assert.Len(t, or, 2)
	})

	t.Run("search is escaped", func(t *testing.T) {
		filter := buildFilter(ListQuery{Search: "c++ (2nd ed.)"})
		or := filter["$or"].(bson.A)
		re := or[0].(bson.M)["title"].(primitive.Regex)
		assert.Equal(t, `c\+\+ \(2nd ed\.\)`, re.Pattern)
		assert.Equal(t, "i", re.Options)
	})

	t.Run("genre filter", func(t *testing.T) {
		filter := buildFilter(ListQuery{Genre: "Fantasy"})
		re, ok := filter["genre"].(primitive.Regex)
		assert.True(t, ok)
		assert.Equal(t, "Fantasy", re.Pattern)
	})

	t.Run("genre all disables the filter", func(t *testing.T) {
		filter := buildFilter(ListQuery{Genre: "all"})
		assert.NotContains(t, filter, "genre")
	})

	t.Run("whitespace-only values are ignored", func(t *testing.T) {
		assert.Empty(t, buildFilter(ListQuery{Search: "   ", Genre: "  "}))
	})
}

func TestSortField(t *testing.T) {
	assert.Equal(t, "title", sortField("title"))
	assert.Equal(t, "publishedYear", sortField("publishedYear"))
	assert.Equal(t, "createdAt", sortField(""))
	assert.Equal(t, "createdAt", sortField("bogus"))
	// avgRating is computed, never pushed down to the store
	assert.Equal(t, "createdAt", sortField("avgRating"))
}

func TestSortDirection(t *testing.T) {
	assert.Equal(t, 1, sortDirection("asc"))
	assert.Equal(t, -1, sortDirection("desc"))
	assert.Equal(t, -1, sortDirection(""))
	assert.Equal(t, -1, sortDirection("bogus"))
}

func TestPageSlice(t *testing.T) {
	views := make([]entities.BookView, 12)
	for i := range views {
		views[i].Title = string(rune('a' + i))
	}

	t.Run("first page", func(t *testing.T) {
		page := pageSlice(views, 1, 5)
		assert.Len(t, page, 5)
		assert.Equal(t, "a", page[0].Title)
	})

	t.Run("middle page", func(t *testing.T) {
		page := pageSlice(views, 2, 5)
		assert.Len(t, page, 5)
		assert.Equal(t, "f", page[0].Title)
	})

	t.Run("short last page", func(t *testing.T) {
		page := pageSlice(views, 3, 5)
		assert.Len(t, page, 2)
		assert.Equal(t, "k", page[0].Title)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page := pageSlice(views, 4, 5)
		assert.NotNil(t, page)
		assert.Empty(t, page)
	})
}
