package aghpb

import (
	"net/http"
	"time"
)

// fieldLookup returns the raw value for key and whether it was present
type fieldLookup func(key string) (string, bool)

// metadataKeys maps BookMetadata fields to the keys of a given source
type metadataKeys struct {
	name         string
	category     string
	dateAdded    string
	searchID     string
	commitURL    string
	commitAuthor string
}

var (
	headerKeys = metadataKeys{
		name:         "book-name",
		category:     "book-category",
		dateAdded:    "book-date-added",
		searchID:     "book-search-id",
		commitURL:    "book-commit-url",
		commitAuthor: "book-commit-author",
	}

	objectKeys = metadataKeys{
		name:         "name",
		category:     "category",
		dateAdded:    "date_added",
		searchID:     "search_id",
		commitURL:    "commit_url",
		commitAuthor: "commit_author",
	}
)

func headerLookup(h http.Header) fieldLookup {
	return func(key string) (string, bool) {
		values := h.Values(key)
		if len(values) == 0 {
			return "", false
		}
		return values[0], true
	}
}

// objectLookup only accepts JSON string values
func objectLookup(obj map[string]any) fieldLookup {
	return func(key string) (string, bool) {
		v, ok := obj[key].(string)
		return v, ok
	}
}

// parseMetadata extracts a BookMetadata from lookup. prefix is prepended to
// field names in errors, e.g. "[2]." for the third search result.
func parseMetadata(lookup fieldLookup, keys metadataKeys, prefix string) (BookMetadata, error) {
	var firstErr error
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok && firstErr == nil {
			firstErr = &MalformedResponseError{Field: prefix + key, Reason: "missing"}
		}
		return v
	}

	meta := BookMetadata{
		Name:         get(keys.name),
		Category:     get(keys.category),
		SearchID:     get(keys.searchID),
		CommitURL:    get(keys.commitURL),
		CommitAuthor: get(keys.commitAuthor),
	}
	rawDate := get(keys.dateAdded)
	if firstErr != nil {
		return BookMetadata{}, firstErr
	}

	if meta.SearchID == "" {
		return BookMetadata{}, &MalformedResponseError{Field: prefix + keys.searchID, Reason: "empty"}
	}

	dateAdded, err := time.Parse(DateLayout, rawDate)
	if err != nil {
		return BookMetadata{}, &MalformedResponseError{Field: prefix + keys.dateAdded, Reason: "invalid date", Err: err}
	}
	meta.DateAdded = dateAdded

	return meta, nil
}
