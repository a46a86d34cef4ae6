// Package display renders books and download results for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/s0up4200/aghpb/aghpb"
	"github.com/s0up4200/aghpb/download"
)

const dateFormat = "2006-01-02"

// Palette colors
const (
	colorAccent  = "#7aa2f7"
	colorMuted   = "#737aa2"
	colorSuccess = "#9ece6a"
	colorWarning = "#e0af68"
	colorDanger  = "#f7768e"
	colorBorder  = "#3b4261"
)

type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			Title:   plain,
			Label:   plain,
			Muted:   plain,
			Success: plain,
			Warning: plain,
			Danger:  plain,
			Header:  plain.Padding(0, 1),
			Cell:    plain.Padding(0, 1),
			Border:  plain,
		}
	}

	return styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)),
		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDanger)).
			Bold(true),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true).
			Padding(0, 1),
		Cell: lipgloss.NewStyle().
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBorder)),
	}
}

// ConsoleFormatter formats results for human-readable console output
type ConsoleFormatter struct {
	styles styles
}

// NewConsoleFormatter creates a formatter. Styling is only applied when color is true.
func NewConsoleFormatter(color bool) *ConsoleFormatter {
	return &ConsoleFormatter{styles: newStyles(color)}
}

// FormatBook renders the metadata of a single book
func (f *ConsoleFormatter) FormatBook(book aghpb.BookMetadata) string {
	var b strings.Builder

	b.WriteString(f.styles.Title.Render(book.Name))
	b.WriteString("\n")

	rows := [][2]string{
		{"Category", book.Category},
		{"Search ID", book.SearchID},
		{"Added", book.DateAdded.Format(aghpb.DateLayout)},
		{"Author", book.CommitAuthor},
		{"Commit", book.CommitURL},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %s %s\n", f.styles.Label.Render(fmt.Sprintf("%-10s", row[0]+":")), row[1])
	}

	return b.String()
}

// FormatSavedImage renders a fetched image together with where it was written
func (f *ConsoleFormatter) FormatSavedImage(img *aghpb.BookImage, path string) string {
	var b strings.Builder
	b.WriteString(f.FormatBook(img.Metadata))
	fmt.Fprintf(&b, "%s Saved %s to %s\n",
		f.styles.Success.Render("✓"),
		formatBytes(img.Len()),
		path)
	return b.String()
}

// FormatCategories renders the category list
func (f *ConsoleFormatter) FormatCategories(categories []string) string {
	if len(categories) == 0 {
		return f.styles.Muted.Render("No categories available") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", f.styles.Title.Render(fmt.Sprintf("%d categories", len(categories))))
	for _, c := range categories {
		fmt.Fprintf(&b, "  %s %s\n", f.styles.Muted.Render("•"), c)
	}
	return b.String()
}

// FormatSearchResult renders search hits as a table
func (f *ConsoleFormatter) FormatSearchResult(result aghpb.SearchResult) string {
	if len(result) == 0 {
		return f.styles.Muted.Render("No books found") + "\n"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.styles.Border).
		Headers("#", "SEARCH ID", "NAME", "CATEGORY", "ADDED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.styles.Header
			}
			return f.styles.Cell
		})

	for i, book := range result {
		t.Row(
			fmt.Sprintf("%d", i+1),
			book.SearchID,
			truncate(book.Name, 60),
			book.Category,
			book.DateAdded.Format(dateFormat),
		)
	}

	noun := "books"
	if len(result) == 1 {
		noun = "book"
	}

	return fmt.Sprintf("%s\n%s\n", f.styles.Title.Render(fmt.Sprintf("Found %d %s", len(result), noun)), t.Render())
}

// FormatPresetCounts renders how many books each filter preset matched
func (f *ConsoleFormatter) FormatPresetCounts(names []string, matches map[string]aghpb.SearchResult) string {
	if len(names) == 0 {
		return f.styles.Muted.Render("No filter presets configured") + "\n"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.styles.Border).
		Headers("PRESET", "MATCHES").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.styles.Header
			}
			return f.styles.Cell
		})

	for _, name := range names {
		t.Row(name, fmt.Sprintf("%d", len(matches[name])))
	}

	return t.Render() + "\n"
}

// FormatDownloadResult renders the outcome of a download run
func (f *ConsoleFormatter) FormatDownloadResult(result download.Result) string {
	var b strings.Builder

	for _, s := range result.Saved {
		fmt.Fprintf(&b, "%s %s %s\n",
			f.styles.Success.Render("✓"),
			truncate(s.Book.Name, 60),
			f.styles.Muted.Render(fmt.Sprintf("→ %s (%s)", s.Path, formatBytes(s.Bytes))))
	}
	for _, id := range result.Skipped {
		fmt.Fprintf(&b, "%s %s %s\n",
			f.styles.Warning.Render("→"),
			id,
			f.styles.Muted.Render("already downloaded"))
	}
	for _, failure := range result.Failed {
		fmt.Fprintf(&b, "%s %s: %v\n",
			f.styles.Danger.Render("✗"),
			failure.Book.SearchID,
			failure.Err)
	}

	summary := fmt.Sprintf("Downloaded %d of %d", len(result.Saved), result.Requested)
	if len(result.Skipped) > 0 {
		summary += fmt.Sprintf(", skipped %d", len(result.Skipped))
	}
	if len(result.Failed) > 0 {
		summary += fmt.Sprintf(", failed %d", len(result.Failed))
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(f.styles.Title.Render(summary))
	b.WriteString("\n")

	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
