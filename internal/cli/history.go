package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/store"
)

var (
	historyRoute string
	historyLimit int
	historyJSON  bool
)

// historyCmd lists stored results
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List claims saved with process --store",
	Long: `History lists stored claim results, newest first.

Example:
  claimflow history
  claimflow history --route "Investigation Queue" --limit 10
  claimflow history --json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyRoute, "route", "", "only show this route")
	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultListLimit, "max results")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print results as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	route := model.Route(historyRoute)
	if historyRoute != "" && !route.Valid() {
		names := make([]string, 0, len(model.Routes()))
		for _, r := range model.Routes() {
			names = append(names, fmt.Sprintf("%q", r))
		}
		return fmt.Errorf("unknown route %q, expected one of %s", historyRoute, strings.Join(names, ", "))
	}

	s, err := store.Open(appConfig.Store.Path)
	if err != nil {
		return fmt.Errorf("open claim store: %w", err)
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	results, err := s.List(ctx, store.QueryOptions{Route: route, Limit: historyLimit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		if results == nil {
			results = []model.ClaimResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No stored claims.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESSED\tID\tROUTE\tMISSING\tSOURCE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ProcessedAt.Local().Format(time.DateTime), r.ID, r.RecommendedRoute, len(r.MissingFields), r.Source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts, err := s.CountByRoute(ctx)
	if err != nil {
		return err
	}
	routes := make([]string, 0, len(counts))
	for r, n := range counts {
		routes = append(routes, fmt.Sprintf("%s: %d", r, n))
	}
	sort.Strings(routes)
	fmt.Fprintf(out, "\nTotals: %s\n", strings.Join(routes, ", "))
	return nil
}
