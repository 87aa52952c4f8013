package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details <movie/id|tv/id>",
	Short: "Show seasons, episodes and reference tokens for a title",
	Args:  cobra.ExactArgs(1),
	RunE:  detailsRun,
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}

func detailsRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	details, err := a.catalog.Details(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting details: %w", err)
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, details)
	}

	fmt.Fprintf(w, "%s (%s)\n", details.Title, details.ID)
	for _, s := range details.Seasons {
		fmt.Fprintf(w, "%s\n", s.Title)
		for _, e := range s.Episodes {
			fmt.Fprintf(w, "  %-12s %s\n", e.Title, e.Ref)
		}
	}
	return nil
}
