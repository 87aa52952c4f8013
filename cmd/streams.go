package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"unistream/internal/provider"
)

var flagExclude string

var streamsCmd = &cobra.Command{
	Use:   "streams <token>",
	Short: "Resolve streams for an encoded content reference",
	Long: `Resolve streams for a content reference token, as printed in the "ref"
field of details output. By default providers are tried one at a time,
preferred first; --all queries every provider and merges the results.`,
	Args: cobra.ExactArgs(1),
	RunE: streamsRun,
}

func init() {
	streamsCmd.Flags().StringVar(&flagExclude, "exclude", "", "Provider to skip when merging (--all)")
}

func streamsRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	exclude := provider.Name(strings.ToLower(strings.TrimSpace(flagExclude)))
	return a.printStreams(cmd.Context(), cmd.OutOrStdout(), args[0], exclude)
}
