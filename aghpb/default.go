package aghpb

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var defaultClient atomic.Pointer[Client]

// Default returns the process-wide client, constructing it on first use.
// Concurrent first callers race to install their instance; all of them
// receive the one that won.
func Default() *Client {
	if c := defaultClient.Load(); c != nil {
		return c
	}

	c, err := NewClient(DefaultBaseURL, zerolog.Nop())
	if err != nil {
		// DefaultBaseURL is a constant and always parses
		panic(err)
	}
	defaultClient.CompareAndSwap(nil, c)
	return defaultClient.Load()
}

// Random fetches a random book using the default client
func Random(ctx context.Context, category string) (*BookImage, error) {
	return Default().Random(ctx, category)
}

// Categories lists categories using the default client
func Categories(ctx context.Context) ([]string, error) {
	return Default().Categories(ctx)
}

// Search searches using the default client
func Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	return Default().Search(ctx, query, opts)
}

// GetByID fetches a book by search id using the default client
func GetByID(ctx context.Context, searchID string) (*BookImage, error) {
	return Default().GetByID(ctx, searchID)
}
