package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/dashcache/dashboard"
	"github.com/IvanBrykalov/dashcache/internal/config"
	"github.com/IvanBrykalov/dashcache/source"
)

func loadCmd() *cobra.Command {
	var (
		role    string
		orgID   string
		userID  string
		skip    []string
		refresh bool
		seed    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run one progressive dashboard load and print every state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx = a.withLogger(ctx)

			if err := a.openSource(ctx); err != nil {
				return err
			}
			if seed || a.cfg.Source.Backend == config.BackendMemory {
				if err := source.Seed(ctx, a.writer, orgID); err != nil {
					return err
				}
			}

			var user *dashboard.User
			if userID != "" {
				user = &dashboard.User{ID: userID}
			}
			ctxp := dashboard.NewStaticContext(&dashboard.Organization{ID: orgID}, user)
			l := a.loader(ctxp, nil)

			states, stop := l.Subscribe(64)
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				for s := range states {
					printState(cmd.OutOrStdout(), s)
				}
			}()

			skipped := make([]dashboard.Domain, len(skip))
			for i, d := range skip {
				skipped[i] = dashboard.Domain(d)
			}
			if err := l.Load(ctx, dashboard.Role(role), skipped...); err != nil {
				stop()
				<-printed
				return err
			}
			if err := l.Wait(ctx); err != nil {
				return err
			}
			if refresh {
				if err := l.Refresh(ctx); err != nil {
					return err
				}
				if err := l.Wait(ctx); err != nil {
					return err
				}
			}
			stop()
			<-printed

			fmt.Fprintln(cmd.OutOrStdout(), "final:")
			printState(cmd.OutOrStdout(), l.Snapshot())
			st := a.store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "cache: entries=%d hits=%d misses=%d fetches=%d\n",
				st.Entries, st.Hits, st.Misses, st.Fetches)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(dashboard.RoleOwner), "Role: owner, hr-operator, team-lead")
	cmd.Flags().StringVar(&orgID, "org", "acme", "Organization ID")
	cmd.Flags().StringVar(&userID, "user", "u-lead", "User ID (empty simulates missing context)")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "Domains to skip")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh after the first load")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed demo data into the configured backend")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}

// printState writes one line for the aggregate and one per domain.
func printState(w io.Writer, s dashboard.State) {
	fmt.Fprintf(w, "epoch=%d ready=%t loading=%t settled=%t", s.Epoch, s.Ready(), s.Loading, s.Settled())
	if s.Error != nil {
		fmt.Fprintf(w, " error=%q", s.Error)
	}
	fmt.Fprintln(w)

	names := make([]string, 0, len(s.Domains))
	for d := range s.Domains {
		names = append(names, string(d))
	}
	sort.Strings(names)
	for _, n := range names {
		sl := s.Domains[dashboard.Domain(n)]
		fmt.Fprintf(w, "  %-13s loading=%-5t %s", n, sl.Loading, describe(sl.Data))
		if sl.Err != nil {
			fmt.Fprintf(w, " err=%q", sl.Err)
		}
		fmt.Fprintln(w)
	}
}

func describe(v any) string {
	switch d := v.(type) {
	case []source.Document:
		return fmt.Sprintf("%d docs", len(d))
	case source.Document:
		if d.ID == "" {
			return "-"
		}
		return "id=" + d.ID
	case dashboard.Permissions:
		return "actions=" + strings.Join(d.Actions, ",")
	case dashboard.Summary:
		return fmt.Sprintf("employees=%d open_warnings=%d pending_followups=%d",
			d.Employees, d.OpenWarnings, d.PendingFollowUps)
	default:
		return fmt.Sprint(v)
	}
}
