package cli

import (
	"fmt"
	"time"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <url>",
	Short: "Fetch a product's price now and save it as the baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.monitor.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", res.Product.Name)
		fmt.Fprintf(out, "  price:    %s %s\n", res.Product.Price, res.Quote.Currency)
		switch {
		case res.Previous == nil:
			fmt.Fprintln(out, "  status:   now tracked")
		case res.Decision != nil && res.Decision.Notify:
			fmt.Fprintf(out, "  status:   down %d%% from %s\n", res.Decision.DropPercent, res.Decision.OldPrice)
		default:
			fmt.Fprintf(out, "  status:   baseline updated (was %s)\n", res.Previous.Price)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked products, most recently observed first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		products, err := a.store.ListOnce(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(products) == 0 {
			fmt.Fprintln(out, "No products tracked.")
			return nil
		}
		for _, p := range products {
			fmt.Fprintf(out, "%-40s  %10s  %s  %s\n",
				notifier.TruncateName(p.Name, notifier.MaxNameLength), p.Price,
				p.ObservedAt.Local().Format(time.DateTime), p.URL)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one price check over every tracked product",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		rep := a.monitor.Run(cmd.Context(), model.TriggerManual)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: total=%d checked=%d notified=%d skipped=%d failed=%d\n",
			rep.Outcome, rep.Total, rep.Checked, rep.Notified, rep.Skipped, rep.Failed)
		if rep.Outcome == model.OutcomeFailure {
			return rep.Err
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every tracked product",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All tracked products removed.")
		return nil
	},
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent price check runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.recorder.RecentRuns(runsLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-9s %-7s checked=%d notified=%d skipped=%d failed=%d",
				time.UnixMilli(r.StartedAt).Local().Format(time.DateTime), r.Trigger, r.Outcome,
				r.Checked, r.Notified, r.Skipped, r.Failed)
			if r.Error != "" {
				line += "  error: " + r.Error
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(lookupCmd, listCmd, checkCmd, clearCmd, runsCmd)
}
