package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stash/internal/cli"
	"github.com/aretw0/stash/internal/presentation/tui"
	stashhttp "github.com/aretw0/stash/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo HTTP server",
	Long: `Starts a small session-backed HTTP application with scheduled garbage
collection, /healthz and Prometheus /metrics.

Endpoints:
  GET  /            count visits and show the flashed status
  POST /flash       flash a message (form field "message") for the next request
  POST /regenerate  assign a fresh session ID
  POST /logout      invalidate the session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		commitAlways, _ := cmd.Flags().GetBool("commit-always")
		quiet, _ := cmd.Flags().GetBool("quiet")

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !quiet {
			tui.PrintBanner(os.Stdout)
		}

		var opts []stashhttp.Option
		if commitAlways {
			opts = append(opts, stashhttp.WithCommitAlways())
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.Serve(ctx, rt, ":"+port, opts...); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		if sig := ctx.Signal(); sig != nil {
			rt.Logger.Info("shutdown complete", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("commit-always", false, "Save sessions on the first request, before the client returns the cookie")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
