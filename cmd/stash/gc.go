package main

import (
	"github.com/aretw0/stash/internal/cli"
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete expired sessions once",
	Long:  `Runs a single garbage collection sweep over the configured namespace, as the scheduler would.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.CollectGarbage(cmd.Context(), rt, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
