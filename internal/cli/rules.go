package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/route"
	"github.com/ppiankov/claimflow/internal/validate"
)

// rulesCmd prints the extraction and routing tables
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show extraction rules, mandatory fields and routing rules",
	Long: `Rules prints the tables claimflow evaluates, in evaluation order:
the extraction pattern for every field, the mandatory fields, and the
routing rules by priority (first match wins).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ex := extract.Default()

		fmt.Fprintf(out, "Extraction rules (version %s, case-insensitive, first match wins)\n\n", ex.Version())
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tGROUP\tPATTERN")
		for _, r := range ex.Rules() {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Field, r.Group, r.Pattern)
			for _, c := range r.Extra {
				fmt.Fprintf(tw, "  + joined\t%d\t%s\n", c.Group, c.Pattern)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out, "\nMandatory fields")
		for i, f := range validate.MandatoryFields() {
			fmt.Fprintf(out, "  %d. %s\n", i+1, f)
		}

		router := route.New(appConfig.Routing.FastTrackThreshold)
		fmt.Fprintf(out, "\nRouting rules (fast-track threshold $%.2f)\n\n", router.Threshold())
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRIORITY\tRULE\tROUTE")
		for _, r := range router.Rules() {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Priority, r.Name, r.Route)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
