package models

import "encoding/json"

// Pagination describes a page's position in a paged collection
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Collection is the in-memory result of walking every page of a source
type Collection struct {
	Source         string
	Records        []json.RawMessage // In page-arrival order
	MaxValue       json.RawMessage   // Raw JSON scalar, nil when no page carried one
	Pages          int               // Number of pages fetched
	LastTotalPages int               // totalPages as reported by the last page
}

// AggregateExport is the single merged file written for a collection.
// Field order matches the files the site's seed scripts read.
type AggregateExport struct {
	Data       []json.RawMessage `json:"data"`
	MaxValue   json.RawMessage   `json:"maxValue,omitempty"`
	Pagination Pagination        `json:"pagination"`
}

// SinglePage returns the descriptor of a page that holds all total records
func SinglePage(total int) Pagination {
	return Pagination{
		Page:        1,
		Limit:       total,
		Total:       total,
		TotalPages:  1,
		HasNextPage: false,
		HasPrevPage: false,
	}
}
