package query

import (
	"fmt"
	"net/url"
	"strconv"
)

// Page is a validated pagination request. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads `page` and `page_size`. Page size problems are client
// errors; a page that is not a positive integer is out of range.
func ParsePage(values url.Values, defaultSize, maxSize int) (Page, error) {
	page := Page{Number: 1, Size: defaultSize}

	if raw := values.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, &ParamError{Code: "Invalid page size", Message: "Page size must be an integer."}
		}
		if size <= 0 {
			return Page{}, &ParamError{Code: "Invalid page size", Message: "Page size cannot be less than or equal to 0."}
		}
		if size > maxSize {
			return Page{}, &ParamError{Code: "Invalid page size", Message: fmt.Sprintf("Page size cannot exceed %d.", maxSize)}
		}
		page.Size = size
	}

	if raw := values.Get("page"); raw != "" && raw != "last" {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return Page{}, ErrPageOutOfRange
		}
		page.Number = number
	} else if raw == "last" {
		page.Number = -1
	}

	return page, nil
}

// LastPage returns the number of the final page for total results; an
// empty result still has one (empty) page.
func (p Page) LastPage(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.Size - 1) / p.Size
}

// Resolve fixes the page number against total, returning the limit and offset
// to query with. Pages past the end yield ErrPageOutOfRange.
func (p *Page) Resolve(total int) (limit, offset int, err error) {
	last := p.LastPage(total)
	if p.Number == -1 {
		p.Number = last
	}
	if p.Number > last {
		return 0, 0, ErrPageOutOfRange
	}
	return p.Size, (p.Number - 1) * p.Size, nil
}

// Links returns absolute next and previous URLs for the page, nil when absent.
// The previous link of page 2 drops the page parameter entirely.
func (p Page) Links(base *url.URL, total int) (next, previous *string) {
	if p.Number < p.LastPage(total) {
		s := withPage(base, p.Number+1)
		next = &s
	}
	if p.Number > 1 {
		s := withPage(base, p.Number-1)
		previous = &s
	}
	return next, previous
}

func withPage(base *url.URL, number int) string {
	u := *base
	q := u.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
