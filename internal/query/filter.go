package query

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-api/internal/repository"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// Options lists what a listing endpoint accepts beyond the timestamp filters.
type Options struct {
	// Ordering maps public ordering names to repository fields.
	Ordering        map[string]string
	AllowPrice      bool
	AllowCategories bool
}

// CategoryOptions is the filter surface of the category listing.
var CategoryOptions = Options{
	Ordering: map[string]string{
		"title":      repository.FieldTitle,
		"created_at": repository.FieldCreatedAt,
		"updated_at": repository.FieldUpdatedAt,
	},
}

// ProductOptions is the filter surface of the product listing.
var ProductOptions = Options{
	Ordering: map[string]string{
		"name":       repository.FieldName,
		"brand":      repository.FieldBrand,
		"price":      repository.FieldPrice,
		"quantity":   repository.FieldQuantity,
		"created_at": repository.FieldCreatedAt,
		"updated_at": repository.FieldUpdatedAt,
	},
	AllowPrice:      true,
	AllowCategories: true,
}

// Filter is a parsed listing request. Category references are kept as
// supplied; resolving them to ids needs the category repository.
type Filter struct {
	Query repository.Query
	// Categories holds the raw `categories` values, titles or ids.
	Categories    []string
	HasCategories bool
}

// Build translates raw query parameters into a Filter.
// Unknown parameters are ignored.
func Build(values url.Values, opts Options) (Filter, error) {
	var f Filter
	var err error

	if f.Query.CreatedAfter, err = parseDate(values.Get("created_after"), false); err != nil {
		return Filter{}, err
	}
	if f.Query.CreatedBefore, err = parseDate(values.Get("created_before"), true); err != nil {
		return Filter{}, err
	}
	if f.Query.UpdatedAfter, err = parseDate(values.Get("updated_after"), false); err != nil {
		return Filter{}, err
	}
	if f.Query.UpdatedBefore, err = parseDate(values.Get("updated_before"), true); err != nil {
		return Filter{}, err
	}

	if opts.AllowPrice {
		if f.Query.PriceMin, err = parsePrice(values.Get("price_min")); err != nil {
			return Filter{}, err
		}
		if f.Query.PriceMax, err = parsePrice(values.Get("price_max")); err != nil {
			return Filter{}, err
		}
	}

	if opts.AllowCategories {
		for _, v := range values["categories"] {
			if v = strings.TrimSpace(v); v != "" {
				f.Categories = append(f.Categories, v)
			}
		}
		// a parameter with only blank values does not filter
		f.HasCategories = len(f.Categories) > 0
	}

	if f.Query.OrderBy, f.Query.Descending, err = parseOrdering(values.Get("ordering"), opts.Ordering); err != nil {
		return Filter{}, err
	}

	return f, nil
}

// parseDate reads a YYYY-MM-DD date as UTC midnight. Upper bounds cover the
// whole day, so they are moved to the following midnight and used exclusively.
func parseDate(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, invalidDate()
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ParamError{Code: "Invalid price", Message: "Price filters must be numbers."}
	}
	return &v, nil
}

func parseOrdering(raw string, allowed map[string]string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}

	descending := strings.HasPrefix(raw, "-")
	field, ok := allowed[strings.TrimPrefix(raw, "-")]
	if !ok {
		names := make([]string, 0, len(allowed))
		for name := range allowed {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", false, &ParamError{
			Code:    "Invalid ordering",
			Message: "Ordering must be one of: " + strings.Join(names, ", ") + " (prefix with '-' for descending).",
		}
	}
	return field, descending, nil
}
