package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/dashcache/internal/config"
	"github.com/IvanBrykalov/dashcache/keys"
)

func ttlCmd() *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "ttl [KEY...]",
		Short: "Print the lifetime the resolver assigns to each key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			r := cfg.Cache.Resolver()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if table || len(args) == 0 {
				fmt.Fprintln(tw, "DOMAIN\tTTL\tCLASS")
				for _, rl := range r.Rules() {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", rl.Domain, rl.TTL, rl.Class)
				}
				fmt.Fprintf(tw, "(default)\t%s\t\n", r.Default())
				if len(args) == 0 {
					return nil
				}
				fmt.Fprintln(tw)
			}

			// BY DOMAIN is what a structured key with the same domain gets.
			fmt.Fprintln(tw, "KEY\tTTL\tMATCHED\tBY DOMAIN")
			for _, k := range args {
				matched := "(default)"
				if rl, ok := r.Match(k); ok {
					matched = rl.Domain
				}
				byDomain := "-"
				if pk, err := keys.Parse(k); err == nil {
					byDomain = r.For(pk.Domain).String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k, r.Resolve(k), matched, byDomain)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "Also print the rule table")
	return cmd
}
