package filter

import (
	"github.com/s0up4200/aghpb/aghpb"
)

// Filter defines the basic interface for book filters
type Filter interface {
	// Evaluate checks if a book matches the filter criteria
	Evaluate(book aghpb.BookMetadata) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Apply returns the books in result matching f, preserving order
func Apply(f Filter, result aghpb.SearchResult) aghpb.SearchResult {
	return result.Filter(f.Evaluate)
}
