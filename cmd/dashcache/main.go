// Command dashcache drives the dashboard cache from the command line: load a
// dashboard, inspect TTL decisions, serve metrics or run a synthetic
// workload against the store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/dashcache/internal/config"
)

var (
	configFile string
	v          = config.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dashcache",
		Short:         "Progressive dashboard loading over a TTL/LRU cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to config file (yaml, toml or json)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(loadCmd(), ttlCmd(), serveCmd(), benchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
