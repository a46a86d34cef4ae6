package aghpb

import (
	"context"
)

// API defines the interface for AGHPB operations
type API interface {
	// Random fetches a random book, optionally restricted to a category
	Random(ctx context.Context, category string) (*BookImage, error)

	// Categories lists the available categories
	Categories(ctx context.Context) ([]string, error)

	// Search returns metadata for books matching query
	Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error)

	// GetByID fetches a specific book by its search id
	GetByID(ctx context.Context, searchID string) (*BookImage, error)
}
