package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List stream providers in fallback order",
	Args:  cobra.NoArgs,
	RunE:  providersRun,
}

func providersRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	names := a.engine.Providers()
	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), names)
	}

	preferred := cfg.PreferredProvider()
	for _, n := range names {
		marker := " "
		if n == preferred {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, n)
	}
	return nil
}
