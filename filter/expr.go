package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/aghpb/aghpb"
)

// DefaultCacheSize is the number of compiled expressions kept by NewExprCompiler
const DefaultCacheSize = 64

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	compiler   *ExprCompiler
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*ExprCompiler)

// WithCache sets the compiled filter cache size. Zero disables caching.
func WithCache(size int) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if size > 0 {
			c.cache = newProgramCache(size)
		} else {
			c.cache = nil
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *ExprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// ExprCompiler compiles expr-language filters over book metadata
type ExprCompiler struct {
	helperFuncs map[string]any
	cache       *programCache
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) *ExprCompiler {
	c := &ExprCompiler{
		helperFuncs: createHelperFunctions(),
		cache:       newProgramCache(DefaultCacheSize),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter
func (c *ExprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Book fields are type-checked against a zero book
	program, err := expr.Compile(expression,
		expr.Env(c.environment(aghpb.BookMetadata{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		compiler:   c,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *ExprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *ExprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

func (c *ExprCompiler) environment(book aghpb.BookMetadata) map[string]any {
	env := make(map[string]any, len(c.helperFuncs)+8)
	maps.Copy(env, c.helperFuncs)

	env["Book"] = book
	env["Name"] = book.Name
	env["Category"] = book.Category
	env["DateAdded"] = book.DateAdded
	env["SearchID"] = book.SearchID
	env["CommitURL"] = book.CommitURL
	env["CommitAuthor"] = book.CommitAuthor
	env["inCategory"] = createInCategoryFunc(book.Category)

	return env
}

// Evaluate evaluates the filter against a book
func (f *exprFilter) Evaluate(book aghpb.BookMetadata) bool {
	result, err := expr.Run(f.program, f.compiler.environment(book))
	if err != nil {
		// Books that fail to evaluate are skipped
		return false
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// String returns the original expression
func (f *exprFilter) String() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},

		// Case-insensitive string helpers; lower, upper and now are expr builtins
		"containsFold": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWithFold": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWithFold": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
	}
}

func createInCategoryFunc(category string) func(...string) bool {
	return func(names ...string) bool {
		return slices.ContainsFunc(names, func(name string) bool {
			return strings.EqualFold(name, category)
		})
	}
}
