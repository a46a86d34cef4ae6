// Package filter narrows search results with expr-language expressions such as
//
//	Category == "Rust" && daysSince(DateAdded) < 90
//	inCategory("Go", "C") or containsFold(Name, "sicp")
//
// Expressions see the book fields Name, Category, DateAdded, SearchID,
// CommitURL and CommitAuthor (also reachable through Book).
package filter

var defaultCompiler = NewExprCompiler()

// CompileFilter compiles an expression with the shared, caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}
