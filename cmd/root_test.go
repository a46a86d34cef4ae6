package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/aghpb/aghpb"
	"github.com/s0up4200/aghpb/config"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nnot-really-a-png")

var testBooks = []map[string]string{
	{"name": "The Go Programming Language", "category": "Go", "search_id": "1"},
	{"name": "Go in Action", "category": "Go", "search_id": "2"},
	{"name": "Programming Rust", "category": "Rust", "search_id": "3"},
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	book := func(m map[string]string) map[string]string {
		return map[string]string{
			"name":          m["name"],
			"category":      m["category"],
			"date_added":    "2023-01-01 00:00:00+0000",
			"search_id":     m["search_id"],
			"commit_url":    "https://github.com/cat-milk/Anime-Girls-Holding-Programming-Books/commit/" + m["search_id"],
			"commit_author": "cat-milk",
		}
	}

	writeImage := func(w http.ResponseWriter, m map[string]string) {
		h := w.Header()
		h.Set("Content-Type", "image/png")
		for k, v := range book(m) {
			h.Set("book-"+strings.ReplaceAll(k, "_", "-"), v)
		}
		_, _ = w.Write(pngMagic)
	}

	notFound := func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"BookNotFound","message":"No such book"}`))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"Go", "Rust"})
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		out := []map[string]string{}
		for _, m := range testBooks {
			if strings.Contains(strings.ToLower(m["name"]), strings.ToLower(r.URL.Query().Get("query"))) {
				out = append(out, book(m))
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/v1/random", func(w http.ResponseWriter, r *http.Request) {
		if c := r.URL.Query().Get("category"); c != "" && c != "Go" {
			notFound(w)
			return
		}
		writeImage(w, testBooks[0])
	})
	mux.HandleFunc("/v1/get/id/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/get/id/")
		for _, m := range testBooks {
			if m["search_id"] == id {
				writeImage(w, m)
				return
			}
		}
		notFound(w)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
logging:
  level: error
  color: false
filter:
  presets:
    rust: Category == "Rust"
    go: inCategory("go")
`), 0o644))

	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "aghpb dev")
}

func TestCategoriesCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := execute(t, "--url", server.URL, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "2 categories")
	assert.Contains(t, out, "• Rust")
}

func TestSearchCommand(t *testing.T) {
	server := fakeAPI(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "all ids",
			args: []string{"search", "go", "--ids"},
			want: "1\n2\n",
		},
		{
			name: "inline filter",
			args: []string{"search", "programming", "--ids", "--filter", `Category == "Rust"`},
			want: "3\n",
		},
		{
			name: "preset",
			args: []string{"search", "programming", "--ids", "--preset", "go"},
			want: "1\n",
		},
		{
			name: "no matches",
			args: []string{"search", "cobol", "--ids"},
			want: "",
		},
		{
			name:    "unknown preset",
			args:    []string{"search", "go", "--preset", "missing"},
			wantErr: "filter preset not found",
		},
		{
			name:    "bad filter",
			args:    []string{"search", "go", "--filter", "Category =="},
			wantErr: "invalid filter",
		},
		{
			name:    "limit out of range",
			args:    []string{"search", "go", "--limit", "300"},
			wantErr: "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--url", server.URL}, tt.args...)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSearchCommand_Table(t *testing.T) {
	server := fakeAPI(t)

	out, err := execute(t, "--url", server.URL, "search", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 books")
	assert.Contains(t, out, "Go in Action")
}

func TestGetCommand(t *testing.T) {
	server := fakeAPI(t)

	t.Run("metadata only", func(t *testing.T) {
		out, err := execute(t, "--url", server.URL, "get", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "Programming Rust")
		assert.Contains(t, out, "Search ID: 3")
	})

	t.Run("save into directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := execute(t, "--url", server.URL, "get", "2", "--out", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Saved")

		data, err := os.ReadFile(filepath.Join(dir, "2.png"))
		require.NoError(t, err)
		assert.Equal(t, pngMagic, data)
	})

	t.Run("save to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "book.png")
		_, err := execute(t, "--url", server.URL, "get", "1", "--out", path)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := execute(t, "--url", server.URL, "get", "99")
		require.Error(t, err)

		var apiErr *aghpb.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
	})
}

func TestRandomCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := execute(t, "--url", server.URL, "random", "--category", "Go")
	require.NoError(t, err)
	assert.Contains(t, out, "The Go Programming Language")

	_, err = execute(t, "--url", server.URL, "random", "--category", "COBOL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BookNotFound")
}

func TestDownloadCommand(t *testing.T) {
	server := fakeAPI(t)
	dir := t.TempDir()

	out, err := execute(t, "--url", server.URL, "download", "go", "--dir", dir, "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded 2 of 2")
	assert.FileExists(t, filepath.Join(dir, "1.png"))
	assert.FileExists(t, filepath.Join(dir, "2.png"))

	out, err = execute(t, "--url", server.URL, "download", "go", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded 0 of 2, skipped 2")
}

func TestPresetsCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := execute(t, "--url", server.URL, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, `rust: Category == "Rust"`)
	assert.Contains(t, out, `go: inCategory("go")`)

	out, err = execute(t, "--url", server.URL, "presets", "programming")
	require.NoError(t, err)
	assert.Contains(t, out, "PRESET")
	assert.Contains(t, out, "rust")
}

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "info", want: zerolog.InfoLevel},
		{level: "WARN", want: zerolog.WarnLevel},
		{level: "error", want: zerolog.ErrorLevel},
		{level: "bogus", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(config.LoggingConfig{Level: tt.level, Format: "json"})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestClientOptions(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`["Go"]`))
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{name: "default gets version", userAgent: aghpb.DefaultUserAgent, want: aghpb.DefaultUserAgent + "/dev"},
		{name: "custom kept", userAgent: "my-bot/1.0", want: "my-bot/1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := aghpb.NewClient(server.URL, zerolog.Nop(), clientOptions(config.APIConfig{
				Timeout:   aghpb.DefaultTimeout,
				UserAgent: tt.userAgent,
				RateLimit: 100,
				RateBurst: 1,
			})...)
			require.NoError(t, err)

			_, err = c.Categories(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotUA)
		})
	}
}
