package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/aghpb/download"
)

var (
	idsOnly     bool
	downloadDir string
	concurrency int
	overwrite   bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search books by name",
	Long: `Search the collection and print the matching books.

Results can be narrowed with an expression (--filter) or a named preset
from the config file (--preset). Expressions see Name, Category, DateAdded,
SearchID, CommitURL and CommitAuthor, plus the helpers inCategory,
containsFold, startsWithFold, endsWithFold, daysSince, daysAgo and parseDate.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <query>",
	Short: "Search books and download every match",
	Long: `Search the collection, apply an optional filter and download each
matching book into a directory as <search id>.<ext>. Books that were already
downloaded are skipped unless --overwrite is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, downloadCmd} {
		c.Flags().StringVarP(&category, "category", "c", "", "restrict to a category")
		c.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of results (1-255)")
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
		c.MarkFlagsMutuallyExclusive("filter", "preset")
	}

	searchCmd.Flags().BoolVar(&idsOnly, "ids", false, "print only search ids, one per line")

	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "download directory (overrides download.dir)")
	downloadCmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel downloads (overrides download.concurrency)")
	downloadCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace books that were already downloaded")
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger.Info().Str("query", args[0]).Msg("Searching books")

	result, err := searchAndFilter(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if idsOnly {
		if len(result) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(result.SearchIDs(), "\n"))
		}
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSearchResult(result))
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	result, err := searchAndFilter(ctx, args[0])
	if err != nil {
		return err
	}

	if len(result) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSearchResult(result))
		return nil
	}

	dir := cfg.Download.Dir
	if cmd.Flags().Changed("dir") {
		dir = downloadDir
	}
	workers := cfg.Download.Concurrency
	if cmd.Flags().Changed("concurrency") {
		workers = concurrency
	}
	replace := cfg.Download.Overwrite
	if cmd.Flags().Changed("overwrite") {
		replace = overwrite
	}

	logger.Info().
		Int("books", len(result)).
		Str("dir", dir).
		Int("concurrency", workers).
		Msg("Downloading books")

	downloader := download.New(client, dir, logger,
		download.WithConcurrency(workers),
		download.WithOverwrite(replace),
	)

	summary, err := downloader.Run(ctx, result)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDownloadResult(summary))

	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(summary.Failed), summary.Requested)
	}
	return nil
}
