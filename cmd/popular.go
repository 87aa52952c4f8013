package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"unistream/internal/ui"
)

var popularCmd = &cobra.Command{
	Use:     "popular",
	Aliases: []string{"trending"},
	Short:   "Browse this week's trending movies and shows",
	Args:    cobra.NoArgs,
	RunE:    popularRun,
}

func popularRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	results, err := a.catalog.Popular(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting popular: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No trending content found.")
		return nil
	}

	if flagJSON || !ui.Interactive() {
		return printResults(cmd.OutOrStdout(), results)
	}

	idx, err := ui.Select("Trending", ui.ResultItems(results))
	if err != nil {
		return err
	}
	return a.resolveTitle(cmd.Context(), cmd.OutOrStdout(), results[idx].ID)
}
