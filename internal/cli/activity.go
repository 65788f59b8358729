package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	var (
		orderID string
		limit   int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent board actions (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			list, err := c.Activity(cmd.Context(), orderID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			for _, a := range list {
				line := fmt.Sprintf("%s  %-12s %-8s %-10s %s", a.At.Local().Format(time.DateTime), a.Action, a.Outcome, a.OrderID, a.Date)
				if a.Detail != "" {
					line += "  " + a.Detail
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&orderID, "os", "", "Only actions on this work order")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
