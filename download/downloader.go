// Package download fetches the images behind a search result and writes them to disk.
package download

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/aghpb/aghpb"
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// Saved describes a book written to disk
type Saved struct {
	Book  aghpb.BookMetadata
	Path  string
	Bytes int
}

// Failure describes a book that could not be fetched or written
type Failure struct {
	Book aghpb.BookMetadata
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Book.Name, f.Book.SearchID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result summarises a download run
type Result struct {
	Requested int
	Saved     []Saved
	Skipped   []string
	Failed    []Failure
}

// Option configures a Downloader
type Option func(*Downloader)

// WithConcurrency sets how many books are fetched at once
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = min(n, MaxConcurrency)
		}
	}
}

// WithOverwrite replaces files that already exist
func WithOverwrite(overwrite bool) Option {
	return func(d *Downloader) {
		d.overwrite = overwrite
	}
}

// Downloader fetches books by search id and saves them into a directory
type Downloader struct {
	api         aghpb.API
	dir         string
	concurrency int
	overwrite   bool
	logger      zerolog.Logger
}

// New creates a downloader writing into dir
func New(api aghpb.API, dir string, logger zerolog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		api:         api,
		dir:         dir,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run fetches every book with a separate GetByID call. Individual failures
// are collected in the result and never stop the batch; the returned error is
// only set when the target directory cannot be created.
func (d *Downloader) Run(ctx context.Context, books []aghpb.BookMetadata) (Result, error) {
	result := Result{Requested: len(books)}
	if len(books) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create download directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var mu sync.Mutex
	for _, book := range books {
		book := book
		g.Go(func() error {
			saved, skipped, err := d.fetch(ctx, book)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				d.logger.Warn().
					Err(err).
					Str("search_id", book.SearchID).
					Str("book", book.Name).
					Msg("Failed to download book")
				result.Failed = append(result.Failed, Failure{Book: book, Err: err})
			case skipped:
				d.logger.Debug().
					Str("search_id", book.SearchID).
					Msg("Book already downloaded, skipping")
				result.Skipped = append(result.Skipped, book.SearchID)
			default:
				d.logger.Info().
					Str("book", book.Name).
					Str("path", saved.Path).
					Int("bytes", saved.Bytes).
					Msg("Downloaded book")
				result.Saved = append(result.Saved, saved)
			}
			return nil
		})
	}

	_ = g.Wait()

	result.sort(books)
	return result, nil
}

func (d *Downloader) fetch(ctx context.Context, book aghpb.BookMetadata) (Saved, bool, error) {
	if err := ctx.Err(); err != nil {
		return Saved{}, false, err
	}

	base := SanitizeFilename(book.SearchID)
	if !d.overwrite {
		if existing, ok := findExisting(d.dir, base); ok {
			return Saved{Book: book, Path: existing}, true, nil
		}
	}

	img, err := d.api.GetByID(ctx, book.SearchID)
	if err != nil {
		return Saved{}, false, err
	}

	path := filepath.Join(d.dir, base+img.Extension())
	if err := img.Save(path); err != nil {
		return Saved{}, false, err
	}

	return Saved{Book: img.Metadata, Path: path, Bytes: img.Len()}, false, nil
}

// findExisting reports a file in dir named base with any extension. base
// comes from SanitizeFilename and holds no glob metacharacters.
func findExisting(dir, base string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)) != base {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			return m, true
		}
	}
	return "", false
}

// SanitizeFilename turns a search id into a safe file name
func SanitizeFilename(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := strings.Trim(b.String(), ".")
	if name == "" {
		return "book"
	}
	return name
}

// sort restores input order, which concurrent fetching loses
func (r *Result) sort(books []aghpb.BookMetadata) {
	order := make(map[string]int, len(books))
	for i, b := range books {
		if _, ok := order[b.SearchID]; !ok {
			order[b.SearchID] = i
		}
	}

	slices.SortStableFunc(r.Saved, func(a, b Saved) int {
		return cmp.Compare(order[a.Book.SearchID], order[b.Book.SearchID])
	})
	slices.SortStableFunc(r.Failed, func(a, b Failure) int {
		return cmp.Compare(order[a.Book.SearchID], order[b.Book.SearchID])
	})
	slices.SortStableFunc(r.Skipped, func(a, b string) int {
		return cmp.Compare(order[a], order[b])
	})
}

// Err joins every failure into one error, or returns nil
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}
