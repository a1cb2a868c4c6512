package query

import (
	"net/url"
	"testing"
	"time"

	"catalog-api/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EmptyValuesProducesEmptyQuery(t *testing.T) {
	f, err := Build(url.Values{}, ProductOptions)
	require.NoError(t, err)

	assert.Nil(t, f.Query.CreatedAfter)
	assert.Nil(t, f.Query.PriceMin)
	assert.False(t, f.HasCategories)
	assert.Empty(t, f.Query.OrderBy)
}

func TestBuild_DateBounds(t *testing.T) {
	values := url.Values{
		"created_after":  {"2024-03-01"},
		"created_before": {"2024-03-31"},
		"updated_after":  {"2024-04-01"},
		"updated_before": {"2024-04-02"},
	}

	f, err := Build(values, CategoryOptions)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.Query.CreatedAfter)
	// upper bounds include the whole named day
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *f.Query.CreatedBefore)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *f.Query.UpdatedAfter)
	assert.Equal(t, time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), *f.Query.UpdatedBefore)
}

func TestBuild_InvalidDate(t *testing.T) {
	for _, raw := range []string{"2024/03/01", "01-03-2024", "2024-13-01", "yesterday", "2024-03-01T10:00:00"} {
		_, err := Build(url.Values{"created_after": {raw}}, CategoryOptions)

		var perr *ParamError
		require.ErrorAs(t, err, &perr, raw)
		assert.Equal(t, "Invalid date format", perr.Code)
		assert.Equal(t, "Dates must be in format YYYY-MM-DD", perr.Message)
	}
}

func TestBuild_PriceRange(t *testing.T) {
	f, err := Build(url.Values{"price_min": {"100"}, "price_max": {"1000.5"}}, ProductOptions)
	require.NoError(t, err)

	assert.Equal(t, 100.0, *f.Query.PriceMin)
	assert.Equal(t, 1000.5, *f.Query.PriceMax)
}

func TestBuild_PriceIgnoredForCategories(t *testing.T) {
	f, err := Build(url.Values{"price_min": {"abc"}}, CategoryOptions)
	require.NoError(t, err)
	assert.Nil(t, f.Query.PriceMin)
}

func TestBuild_InvalidPrice(t *testing.T) {
	_, err := Build(url.Values{"price_max": {"cheap"}}, ProductOptions)

	var perr *ParamError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Invalid price", perr.Code)
}

func TestBuild_NonFinitePriceIsInvalid(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "-Inf", "+Infinity", "1e400"} {
		_, err := Build(url.Values{"price_min": {raw}}, ProductOptions)

		var perr *ParamError
		require.ErrorAs(t, err, &perr, raw)
		assert.Equal(t, "Invalid price", perr.Code, raw)
	}
}

func TestBuild_BlankCategoriesDoNotFilter(t *testing.T) {
	for _, values := range []url.Values{
		{"categories": {""}},
		{"categories": {" ", ""}},
	} {
		f, err := Build(values, ProductOptions)
		require.NoError(t, err)
		assert.False(t, f.HasCategories)
		assert.Empty(t, f.Categories)
	}
}

func TestBuild_Categories(t *testing.T) {
	f, err := Build(url.Values{"categories": {"Electronics", " Books ", ""}}, ProductOptions)
	require.NoError(t, err)

	assert.True(t, f.HasCategories)
	assert.Equal(t, []string{"Electronics", "Books"}, f.Categories)
}

func TestBuild_Ordering(t *testing.T) {
	f, err := Build(url.Values{"ordering": {"-price"}}, ProductOptions)
	require.NoError(t, err)
	assert.Equal(t, repository.FieldPrice, f.Query.OrderBy)
	assert.True(t, f.Query.Descending)

	f, err = Build(url.Values{"ordering": {"title"}}, CategoryOptions)
	require.NoError(t, err)
	assert.Equal(t, repository.FieldTitle, f.Query.OrderBy)
	assert.False(t, f.Query.Descending)
}

func TestBuild_OrderingRejectsUnknownFields(t *testing.T) {
	for _, raw := range []string{"price", "id; DROP TABLE categories", "--title", "description"} {
		_, err := Build(url.Values{"ordering": {raw}}, CategoryOptions)

		var perr *ParamError
		require.ErrorAs(t, err, &perr, raw)
		assert.Equal(t, "Invalid ordering", perr.Code)
	}
}

func TestProperty_ValidDatesAlwaysParse(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any calendar date round-trips through the filter", prop.ForAll(
		func(days int) bool {
			day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
			f, err := Build(url.Values{
				"created_after":  {day.Format(DateLayout)},
				"created_before": {day.Format(DateLayout)},
			}, CategoryOptions)
			if err != nil {
				return false
			}
			return f.Query.CreatedAfter.Equal(day) && f.Query.CreatedBefore.Sub(day) == 24*time.Hour
		},
		gen.IntRange(0, 20000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
