package aghpb

import (
	"fmt"
	"image"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"
)

// DateLayout is the format of book-date-added and date_added values
const DateLayout = "2006-01-02 15:04:05-0700"

// BookMetadata describes a single book image
type BookMetadata struct {
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	DateAdded    time.Time `json:"date_added"`
	SearchID     string    `json:"search_id"`
	CommitURL    string    `json:"commit_url"`
	CommitAuthor string    `json:"commit_author"`
}

// String returns a short human readable description
func (m BookMetadata) String() string {
	return fmt.Sprintf("%s [%s] (%s)", m.Name, m.Category, m.SearchID)
}

// BookImage is a fetched image together with its metadata.
// The raw bytes are the payload; decoded forms are derived on demand.
type BookImage struct {
	Metadata    BookMetadata
	ContentType string
	raw         []byte
}

func newBookImage(meta BookMetadata, contentType string, raw []byte) *BookImage {
	return &BookImage{
		Metadata:    meta,
		ContentType: contentType,
		raw:         raw,
	}
}

// Bytes returns a copy of the raw image bytes
func (b *BookImage) Bytes() []byte {
	out := make([]byte, len(b.raw))
	copy(out, b.raw)
	return out
}

// Len returns the size of the raw payload in bytes
func (b *BookImage) Len() int {
	return len(b.raw)
}

// Decode parses the raw bytes into a raster image. Each call decodes again.
func (b *BookImage) Decode() (image.Image, string, error) {
	return DecodeImage(b.raw)
}

// Extension returns a file extension (with leading dot) for the payload,
// preferring the response Content-Type and falling back to sniffing.
func (b *BookImage) Extension() string {
	contentType := b.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(b.raw)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ".img"
}

// Save writes the raw image bytes to path
func (b *BookImage) Save(path string) error {
	if err := os.WriteFile(path, b.raw, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", b.Metadata.SearchID, err)
	}
	return nil
}

// SearchResult is the list of books returned by Search. No image bytes
// are attached; fetch them with GetByID.
type SearchResult []BookMetadata

// SearchIDs returns the search ids in result order
func (r SearchResult) SearchIDs() []string {
	ids := make([]string, 0, len(r))
	for _, m := range r {
		ids = append(ids, m.SearchID)
	}
	return ids
}

// Filter returns the books for which keep returns true
func (r SearchResult) Filter(keep func(BookMetadata) bool) SearchResult {
	out := make(SearchResult, 0, len(r))
	for _, m := range r {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// SearchOptions narrows a search. Zero values mean "not set".
type SearchOptions struct {
	Category string
	Limit    int
}

// validate checks the optional search parameters
func (o SearchOptions) validate() error {
	if o.Limit != 0 && (o.Limit < 1 || o.Limit > 255) {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, o.Limit)
	}
	return nil
}
