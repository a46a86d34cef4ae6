package filter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/aghpb/aghpb"
)

func testBooks() aghpb.SearchResult {
	now := time.Now()
	return aghpb.SearchResult{
		{
			Name:         "The Rust Programming Language",
			Category:     "Rust",
			DateAdded:    now.AddDate(0, 0, -10),
			SearchID:     "1",
			CommitURL:    "https://github.com/cat-milk/Anime-Girls-Holding-Programming-Books/commit/a",
			CommitAuthor: "alice",
		},
		{
			Name:         "Structure and Interpretation of Computer Programs",
			Category:     "Lisp",
			DateAdded:    now.AddDate(-2, 0, 0),
			SearchID:     "2",
			CommitURL:    "https://github.com/cat-milk/Anime-Girls-Holding-Programming-Books/commit/b",
			CommitAuthor: "bob",
		},
		{
			Name:         "The Go Programming Language",
			Category:     "Go",
			DateAdded:    now.AddDate(0, -6, 0),
			SearchID:     "3",
			CommitURL:    "https://github.com/cat-milk/Anime-Girls-Holding-Programming-Books/commit/c",
			CommitAuthor: "alice",
		},
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `Category == "Rust"`,
		},
		{
			name:        "empty expression",
			expression:  "",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:        "whitespace only",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `containsFold(Name, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: `Year > 2020`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `Name`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `inCategory("go", "rust") and daysSince(DateAdded) < 365 and not endsWithFold(CommitAuthor, "bot")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, filter)
			assert.Equal(t, tt.expression, filter.Expression())
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	books := testBooks()

	tests := []struct {
		name       string
		expression string
		wantIDs    []string
	}{
		{
			name:       "category equality",
			expression: `Category == "Rust"`,
			wantIDs:    []string{"1"},
		},
		{
			name:       "inCategory is case insensitive",
			expression: `inCategory("go", "LISP")`,
			wantIDs:    []string{"2", "3"},
		},
		{
			name:       "containsFold on name",
			expression: `containsFold(Name, "programming language")`,
			wantIDs:    []string{"1", "3"},
		},
		{
			name:       "startsWithFold",
			expression: `startsWithFold(Name, "structure")`,
			wantIDs:    []string{"2"},
		},
		{
			name:       "recently added",
			expression: `daysSince(DateAdded) < 30`,
			wantIDs:    []string{"1"},
		},
		{
			name:       "added after a point in time",
			expression: `DateAdded > daysAgo(365)`,
			wantIDs:    []string{"1", "3"},
		},
		{
			name:       "added before a fixed date",
			expression: `DateAdded < parseDate("2999-01-01")`,
			wantIDs:    []string{"1", "2", "3"},
		},
		{
			name:       "author via Book",
			expression: `Book.CommitAuthor == "alice" && SearchID != "1"`,
			wantIDs:    []string{"3"},
		},
		{
			name:       "expr builtins",
			expression: `lower(CommitAuthor) == "bob"`,
			wantIDs:    []string{"2"},
		},
		{
			name:       "no matches",
			expression: `Category == "COBOL"`,
			wantIDs:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			got := Apply(filter, books)
			assert.Equal(t, tt.wantIDs, got.SearchIDs())
		})
	}
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isAlice": func(author string) bool { return author == "alice" },
	}))

	filter, err := compiler.Compile(`isAlice(CommitAuthor)`)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3"}, Apply(filter, testBooks()).SearchIDs())
}

func TestCompilerCache(t *testing.T) {
	t.Run("returns cached filter", func(t *testing.T) {
		compiler := NewExprCompiler()

		first, err := compiler.Compile(`Category == "Go"`)
		require.NoError(t, err)
		second, err := compiler.Compile(`  Category == "Go"  `)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, compiler.Size())

		compiler.Clear()
		assert.Equal(t, 0, compiler.Size())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		compiler := NewExprCompiler(WithCache(2))

		a, err := compiler.Compile(`SearchID == "a"`)
		require.NoError(t, err)
		_, err = compiler.Compile(`SearchID == "b"`)
		require.NoError(t, err)

		// Touch "a" so "b" is the eviction candidate
		again, err := compiler.Compile(`SearchID == "a"`)
		require.NoError(t, err)
		assert.Same(t, a, again)

		_, err = compiler.Compile(`SearchID == "c"`)
		require.NoError(t, err)
		assert.Equal(t, 2, compiler.Size())

		again, err = compiler.Compile(`SearchID == "a"`)
		require.NoError(t, err)
		assert.Same(t, a, again)
	})

	t.Run("disabled", func(t *testing.T) {
		compiler := NewExprCompiler(WithCache(0))

		first, err := compiler.Compile(`Category == "Go"`)
		require.NoError(t, err)
		second, err := compiler.Compile(`Category == "Go"`)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Equal(t, 0, compiler.Size())
	})
}

func TestManager(t *testing.T) {
	books := testBooks()

	t.Run("register and evaluate", func(t *testing.T) {
		m := NewManager()
		require.NoError(t, m.RegisterFilters(map[string]string{
			"recent": `daysSince(DateAdded) < 30`,
			"alice":  `CommitAuthor == "alice"`,
		}))

		assert.Equal(t, []string{"alice", "recent"}, m.ListFilters())

		got, err := m.EvaluateFilter("alice", books)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, got.SearchIDs())

		f, ok := m.GetFilter("recent")
		require.True(t, ok)
		assert.Equal(t, `daysSince(DateAdded) < 30`, f.Expression())
	})

	t.Run("invalid preset registers nothing", func(t *testing.T) {
		m := NewManager()
		err := m.RegisterFilters(map[string]string{
			"good": `Category == "Go"`,
			"bad":  `Category ==`,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
		assert.Empty(t, m.ListFilters())
	})

	t.Run("register replaces existing", func(t *testing.T) {
		m := NewManager()
		require.NoError(t, m.RegisterFilter("x", `Category == "Go"`))
		require.NoError(t, m.RegisterFilter("x", `Category == "Rust"`))

		got, err := m.EvaluateFilter("x", books)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, got.SearchIDs())
	})

	t.Run("unknown preset", func(t *testing.T) {
		m := NewManager()
		_, err := m.EvaluateFilter("missing", books)
		assert.ErrorIs(t, err, ErrPresetNotFound)
	})

	t.Run("custom compiler", func(t *testing.T) {
		compiler := NewExprCompiler(WithCache(0))
		m := NewManager(WithCompiler(compiler))
		require.NoError(t, m.RegisterFilter("go", `Category == "Go"`))
		assert.Equal(t, 0, compiler.Size())
	})
}

func TestManagerResolve(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.RegisterFilter("lisp", `Category == "Lisp"`))

	tests := []struct {
		name       string
		expression string
		preset     string
		wantExpr   string
		wantNil    bool
		wantErr    error
	}{
		{name: "nothing set", wantNil: true},
		{name: "inline expression", expression: `Category == "Go"`, wantExpr: `Category == "Go"`},
		{name: "expression wins over preset", expression: `Category == "Go"`, preset: "lisp", wantExpr: `Category == "Go"`},
		{name: "preset", preset: "lisp", wantExpr: `Category == "Lisp"`},
		{name: "unknown preset", preset: "nope", wantErr: ErrPresetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := m.Resolve(tt.expression, tt.preset)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.wantExpr, f.Expression())
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	m := NewManager()
	presets := make(map[string]string)
	for i := 0; i < 20; i++ {
		presets[fmt.Sprintf("id-%02d", i)] = fmt.Sprintf(`SearchID == "%d"`, i)
	}
	require.NoError(t, m.RegisterFilters(presets))

	got, err := m.EvaluateAll(context.Background(), testBooks(), WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, got, 20)

	assert.Equal(t, []string{"2"}, got["id-02"].SearchIDs())
	assert.Empty(t, got["id-00"])
	assert.Empty(t, got["id-19"])
}

func TestEvaluateBatch_Cancelled(t *testing.T) {
	f, err := CompileFilter(`true`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewConcurrentEvaluator().EvaluateBatch(ctx, map[string]CompiledFilter{"all": f}, testBooks())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateBatch_Empty(t *testing.T) {
	got, err := NewConcurrentEvaluator().EvaluateBatch(context.Background(), nil, testBooks())
	require.NoError(t, err)
	assert.Empty(t, got)
}
