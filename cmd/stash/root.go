package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stash/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stash",
	Short: "Stash is a server-side session store",
	Long: `Stash keeps HTTP session attributes on the server, keyed by a random
40-character ID carried in a cookie, with flash data and expiry sweeps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML configuration file")
	flags.String("name", "", "Session namespace (default \"stash\")")
	flags.String("backend", "", "Record store: memory, file, redis, buntdb or badger")
	flags.String("path", "", "Location of the file, buntdb or badger store")
	flags.String("redis-addr", "", "Redis address (host:port)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
}

// openRuntime builds the runtime from the persistent flags.
func openRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Name, _ = flags.GetString("name")
	opts.Backend, _ = flags.GetString("backend")
	opts.Path, _ = flags.GetString("path")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.LogLevel, _ = flags.GetString("log-level")
	return cli.NewRuntime(opts)
}
