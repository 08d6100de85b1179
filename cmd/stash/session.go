package main

import (
	"github.com/aretw0/stash/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions of the configured namespace.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.ListSessions(cmd.Context(), rt, printer(cmd), limit)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the attributes of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.InspectSession(cmd.Context(), rt, printer(cmd), args[0])
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RemoveSessions(cmd.Context(), rt, cmd.OutOrStdout(), args)
	},
}

func printer(cmd *cobra.Command) cli.Printer {
	asJSON, _ := cmd.Flags().GetBool("json")
	return cli.Printer{Out: cmd.OutOrStdout(), JSON: asJSON}
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCmd.PersistentFlags().Bool("json", false, "Print JSON instead of rendered markdown")
	sessionLsCmd.Flags().IntP("limit", "n", 100, "Maximum number of sessions to list (0 for all)")
}
