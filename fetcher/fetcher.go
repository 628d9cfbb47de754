package fetcher

import (
	"context"
	"errors"
)

// ErrSelectorNotFound is returned when the page never shows the required element
var ErrSelectorNotFound = errors.New("required selector not found")

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch loads the page at url and returns its HTML once waitSelector
	// matches at least one element. An empty waitSelector skips the check.
	Fetch(ctx context.Context, url, waitSelector string) (string, error)
	// Close releases whatever the fetcher holds (browser process, connections)
	Close() error
}

var (
	_ Fetcher = (*RodFetcher)(nil)
	_ Fetcher = (*CollyFetcher)(nil)
)
