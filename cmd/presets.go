package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/aghpb/aghpb"
)

// presetsCmd represents the presets command
var presetsCmd = &cobra.Command{
	Use:   "presets [query]",
	Short: "List filter presets, or count their matches for a search",
	Long: `Without a query, list the filter presets defined in the config file.

With a query, run the search once and report how many results each preset
matches.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	names := filters.ListFilters()

	if len(args) == 0 {
		if len(names) == 0 {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPresetCounts(nil, nil))
			return nil
		}
		for _, name := range names {
			f, _ := filters.GetFilter(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, f.Expression())
		}
		return nil
	}

	result, err := client.Search(cmd.Context(), args[0], aghpb.SearchOptions{})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	matches, err := filters.EvaluateAll(cmd.Context(), result)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPresetCounts(names, matches))
	return nil
}
