package cli

import (
	"errors"
	"fmt"

	"github.com/ankittk/osboard/pkg/models"
	"github.com/spf13/cobra"
)

var errNoChange = errors.New("nothing to change; pass at least one flag")

var filterFlags = []string{"month", "coordination", "team", "escala", "sub-team", "type", "search"}

func newFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or change the board selection (month, coordination, team, escala, sub-team)",
	}
	cmd.AddCommand(newFiltersShowCmd())
	cmd.AddCommand(newFiltersSetCmd())
	return cmd
}

func newFiltersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the selection and the valid options",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			v, err := c.View(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Filters models.Filters       `json:"filters"`
				Options models.FilterOptions `json:"options"`
			}{v.Filters, v.Options})
		},
	}
}

func newFiltersSetCmd() *cobra.Command {
	var f models.Filters
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the selection; unset flags keep their value and the board reloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := false
			for _, name := range filterFlags {
				changed = changed || cmd.Flags().Changed(name)
			}
			if !changed {
				return errNoChange
			}
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			cur, err := c.Filters(cmd.Context())
			if err != nil {
				return err
			}
			next := mergeFilters(cur, f, cmd.Flags().Changed)
			v, err := c.SetFilters(cmd.Context(), next)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s / %s / %s / %s / %s\n",
				v.Filters.Month, v.Filters.Coordination, v.Filters.TeamID, v.Filters.Escala, v.Filters.SubTeam)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Month, "month", "", "Month (YYYY-MM)")
	cmd.Flags().StringVar(&f.Coordination, "coordination", "", "Coordination")
	cmd.Flags().StringVar(&f.TeamID, "team", "", "Team id")
	cmd.Flags().StringVar(&f.Escala, "escala", "", "Shift pattern")
	cmd.Flags().StringVar(&f.SubTeam, "sub-team", "", "Sub-team")
	cmd.Flags().StringVar(&f.BacklogType, "type", "", "Backlog type filter")
	cmd.Flags().StringVar(&f.BacklogSearch, "search", "", "Backlog search text")
	return cmd
}

// mergeFilters overlays the flags that were set on cur. Changing a level clears the
// levels below it unless they are set too.
func mergeFilters(cur, set models.Filters, changed func(string) bool) models.Filters {
	next := cur
	if changed("month") {
		next.Month = set.Month
	}
	if changed("coordination") {
		next.Coordination = set.Coordination
		next.TeamID, next.Escala, next.SubTeam = "", "", ""
	}
	if changed("team") {
		next.TeamID = set.TeamID
		next.Escala, next.SubTeam = "", ""
	}
	if changed("escala") {
		next.Escala = set.Escala
		next.SubTeam = ""
	}
	if changed("sub-team") {
		next.SubTeam = set.SubTeam
	}
	if changed("type") {
		next.BacklogType = set.BacklogType
	}
	if changed("search") {
		next.BacklogSearch = set.BacklogSearch
	}
	return next
}
