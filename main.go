package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/getredash/redash-sub002/pkg/adapters/datasource/mssql"
	_ "github.com/getredash/redash-sub002/pkg/adapters/datasource/postgres"
	"github.com/getredash/redash-sub002/pkg/config"
)

// Version is set at build time via ldflags
var Version = "dev"

type rootOptions struct {
	configPath string
	now        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "redash-params",
		Short: "Resolve saved query parameters and run parameterized reports",
		Long: `redash-params reads a catalog of saved queries, resolves their parameters
from URL-style p_ arguments and saved defaults, and runs them against the
configured datasource.

Arguments after the query id are URL query fragments, for example:
  redash-params run 6f1c2a8e-... 'p_status=pending' 'p_period=d_last_month'`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.now, "now", "", "resolve dynamic dates against this RFC 3339 time instead of the current time")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newQueriesCmd(opts))
	rootCmd.AddCommand(newParamsCmd(opts))
	rootCmd.AddCommand(newPrepareCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newDropdownCmd(opts))
	rootCmd.AddCommand(newSaveDefaultsCmd(opts))
	rootCmd.AddCommand(newDynamicDatesCmd(opts))

	return rootCmd
}

func (o *rootOptions) nowTime() (time.Time, error) {
	if o.now == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return t, nil
}
