package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/aghpb/aghpb"
	"github.com/s0up4200/aghpb/download"
)

// randomCmd represents the random command
var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Fetch a random book",
	Long: `Fetch a random book, optionally from a single category.

Without --out only the metadata is printed. With --out the image is written
to that file, or into that directory as <search id>.<ext>.`,
	Args: cobra.NoArgs,
	RunE: runRandom,
}

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the available categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <search-id>",
	Short: "Fetch a book by its search id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	randomCmd.Flags().StringVarP(&category, "category", "c", "", "restrict to a category")
	randomCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the image to this file or directory")

	getCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the image to this file or directory")
}

func runRandom(cmd *cobra.Command, args []string) error {
	logger.Debug().Str("category", category).Msg("Fetching random book")

	img, err := client.Random(cmd.Context(), category)
	if err != nil {
		return fmt.Errorf("failed to fetch random book: %w", err)
	}

	return printImage(cmd, img)
}

func runCategories(cmd *cobra.Command, args []string) error {
	categories, err := client.Categories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCategories(categories))
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	img, err := client.GetByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch book %s: %w", args[0], err)
	}

	return printImage(cmd, img)
}

// printImage prints the metadata and saves the image when --out is set
func printImage(cmd *cobra.Command, img *aghpb.BookImage) error {
	if outPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBook(img.Metadata))
		return nil
	}

	path := imagePath(outPath, img)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := img.Save(path); err != nil {
		return err
	}

	logger.Debug().Str("path", path).Int("bytes", img.Len()).Msg("Saved image")
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSavedImage(img, path))
	return nil
}

// imagePath treats out as a directory when it exists as one or ends in a separator
func imagePath(out string, img *aghpb.BookImage) string {
	name := download.SanitizeFilename(img.Metadata.SearchID) + img.Extension()

	if strings.HasSuffix(out, string(os.PathSeparator)) || strings.HasSuffix(out, "/") {
		return filepath.Join(out, name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
