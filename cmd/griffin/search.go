package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/griffin/internal/autosave"
	"github.com/xxxsen/griffin/internal/client"
)

func newSearchCmd() *cobra.Command {
	var (
		limit       int
		interactive bool
		delay       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "full-text search over notes",
		Long: "With -i every stdin line replaces the query; a search runs once typing " +
			"has paused for --delay.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openState()
			if err != nil {
				return err
			}
			api, err := newAPIClient(store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !interactive {
				if len(args) == 0 {
					return fmt.Errorf("query is required")
				}
				return runSearch(cmd.Context(), api, strings.Join(args, " "), limit, out)
			}
			return searchLoop(cmd.Context(), api, cmd.InOrStdin(), delay, limit, out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max results")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read queries from stdin, debounced")
	cmd.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "debounce delay in interactive mode")
	return cmd
}

func runSearch(ctx context.Context, api *client.Client, query string, limit int, out io.Writer) error {
	results, err := api.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d results for %q\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(out, "%s\t%.3f\t%s\t%s\n", r.ID, r.TsRank, r.Title, r.Snippet)
	}
	return nil
}

func searchLoop(ctx context.Context, api *client.Client, in io.Reader, delay time.Duration, limit int, out io.Writer) error {
	var (
		mu     sync.Mutex
		latest string
	)
	debouncer := autosave.New(delay, 0, func(ctx context.Context) error {
		mu.Lock()
		query := strings.TrimSpace(latest)
		mu.Unlock()
		if query == "" {
			return nil
		}
		return runSearch(ctx, api, query, limit, out)
	}, autosave.WithErrorHandler(func(err error) {
		fmt.Fprintf(out, "search failed: %v\n", err)
	}))

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		mu.Lock()
		latest = scanner.Text()
		mu.Unlock()
		debouncer.Trigger()
	}
	if err := debouncer.Stop(ctx); err != nil {
		return err
	}
	return scanner.Err()
}
