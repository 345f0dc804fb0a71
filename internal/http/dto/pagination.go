package dto

import (
	"net/url"
	"strconv"

	"github.com/cesargomez89/toonshelf/internal/constants"
)

type PageParams struct {
	Offset int
	Limit  int
}

// ParsePage reads offset and limit from the query string. Missing values
// fall back to the first page of DefaultPageSize.
func ParsePage(q url.Values) (PageParams, []ValidationError) {
	p := PageParams{Offset: 0, Limit: constants.DefaultPageSize}
	var errs []ValidationError

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "offset", Message: "must be an integer"})
		} else {
			p.Offset = n
			errs = append(errs, validateOffset(n)...)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "limit", Message: "must be an integer"})
		} else {
			p.Limit = n
			errs = append(errs, validateLimit(n)...)
		}
	}
	return p, errs
}

// Page is the envelope for list responses. HasMore is false only on an
// empty page; a short page may still be followed by rows written since.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	NextOffset int  `json:"next_offset"`
	HasMore    bool `json:"has_more"`
}

func NewPage[T any](items []T, p PageParams) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Offset:     p.Offset,
		Limit:      p.Limit,
		NextOffset: p.Offset + len(items),
		HasMore:    len(items) > 0,
	}
}
