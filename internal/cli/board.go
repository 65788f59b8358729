package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ankittk/osboard/internal/export"
	"github.com/ankittk/osboard/pkg/models"
	"github.com/spf13/cobra"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show and edit the scheduling board of the running daemon",
	}
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardReloadCmd())
	cmd.AddCommand(newBoardDropCmd())
	cmd.AddCommand(newBoardResetCmd())
	cmd.AddCommand(newBoardLockCmd())
	cmd.AddCommand(newBoardNoteCmd())
	cmd.AddCommand(newBoardColorCmd())
	cmd.AddCommand(newBoardWeekCmd())
	cmd.AddCommand(newBoardCommentCmd())
	cmd.AddCommand(newBoardOrderCmd())
	cmd.AddCommand(newBoardFlushCmd())
	cmd.AddCommand(newBoardExportCmd())
	return cmd
}

// renderBoard prints the days that have entries or holidays, then the backlog.
func renderBoard(w io.Writer, v models.BoardView) {
	team := v.TeamLabel
	if team == "" {
		team = "(sem equipe)"
	}
	_, _ = fmt.Fprintf(w, "Mes %s  hoje %s  %s / %s / %s\n", v.Month, v.Today, v.Filters.Coordination, team, v.Filters.SubTeam)
	if v.Error != "" {
		_, _ = fmt.Fprintf(w, "erro: %s\n", v.Error)
	}
	for _, warn := range v.Warnings {
		_, _ = fmt.Fprintf(w, "aviso: %s\n", warn)
	}
	for _, d := range v.Days {
		if len(d.Entries) == 0 && len(d.Holidays) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s S%d", d.Date, d.Week)
		if len(d.Holidays) > 0 {
			_, _ = fmt.Fprintf(w, "  feriado: %s", strings.Join(d.Holidays, ", "))
		}
		_, _ = fmt.Fprintln(w)
		for _, e := range d.Entries {
			var marks []string
			if e.Locked {
				marks = append(marks, "travada")
			}
			if e.OverdueWeek1 {
				marks = append(marks, "atrasada")
			}
			if e.Accent != "" {
				marks = append(marks, e.Accent)
			}
			line := fmt.Sprintf("  %-10s #%-6d %-12s %-7s %s", e.OrderID, e.Number, e.Type, e.Color, e.AssetCode)
			if len(marks) > 0 {
				line += " (" + strings.Join(marks, ", ") + ")"
			}
			if e.Note != "" {
				line += "  \"" + e.Note + "\""
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}
	_, _ = fmt.Fprintf(w, "Backlog (%d)\n", len(v.Backlog))
	for _, o := range v.Backlog {
		printOrder(w, o)
	}
}

func newBoardShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			v, err := c.View(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			renderBoard(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw board view")
	return cmd
}

func newBoardReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-fetch the board from the maintenance API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			v, err := c.Reload(cmd.Context())
			if err != nil {
				return err
			}
			renderBoard(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newBoardDropCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "drop <os_id> <date|backlog>",
		Short: "Schedule a work order on a day, or send it back to the backlog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			req := models.DropRequest{OrderID: args[0], FromDate: from, ToDate: dateArg(args[1])}
			if from != "" {
				req.Source = models.SourceCalendar
			} else {
				req.Source = models.SourceBacklog
			}
			if _, err := c.Drop(cmd.Context(), req); err != nil {
				return err
			}
			if req.ToDate == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s returned to the backlog\n", args[0])
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s scheduled on %s\n", args[0], req.ToDate)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Calendar date the work order is dragged from (omit for the backlog)")
	return cmd
}

func newBoardResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <os_id> <date>",
		Short: "Send a scheduled cell back to the backlog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := c.Reset(cmd.Context(), models.CellRequest{OrderID: args[0], Date: args[1]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s reset\n", args[0])
			return nil
		},
	}
}

func newBoardLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <os_id> <date>",
		Short: "Toggle the lock of a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			locked, err := c.ToggleLock(cmd.Context(), models.CellRequest{OrderID: args[0], Date: args[1]})
			if err != nil {
				return err
			}
			state := "unlocked"
			if locked {
				state = "locked"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n", args[0], state, args[1])
			return nil
		},
	}
}

func newBoardNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <os_id> <date> [text...]",
		Short: "Set the note of a cell (no text removes it)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			return c.SetNote(cmd.Context(), models.NoteRequest{OrderID: args[0], Date: args[1], Text: strings.Join(args[2:], " ")})
		},
	}
}

func newBoardColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <os_id> <date> [#rrggbb]",
		Short: "Set the accent color of a work order (no color removes it)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			req := models.ColorRequest{OrderID: args[0], Date: args[1]}
			if len(args) == 3 {
				req.Color = args[2]
			}
			return c.SetColor(cmd.Context(), req)
		},
	}
}

func weekArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("week must be 1..5, got %q", s)
	}
	return n, nil
}

func newBoardWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week <1-5>",
		Short: "List the comment targets and notes of a grid week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := weekArg(args[0])
			if err != nil {
				return err
			}
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			v, err := c.Week(cmd.Context(), w)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Semana %d\n", v.Week)
			for _, t := range v.Targets {
				_, _ = fmt.Fprintf(out, "  alvo %s  #%d %s\n", t.Key, t.Number, t.Date)
			}
			for _, n := range v.Notes {
				_, _ = fmt.Fprintf(out, "  nota %s  #%d: %s\n", n.Date, n.Number, n.Note)
			}
			return nil
		},
	}
}

func newBoardCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <1-5> <target> <text...>",
		Short: "Append a week comment to the note of a target cell (see `board week`)",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := weekArg(args[0])
			if err != nil {
				return err
			}
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			return c.AddWeekComment(cmd.Context(), models.WeekCommentRequest{Week: w, Target: args[1], Text: strings.Join(args[2:], " ")})
		},
	}
}

func newBoardOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order <os_id>",
		Short: "Print one loaded work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			o, err := c.Order(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
}

func newBoardFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Save pending lock/note/color edits now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			return c.Flush(cmd.Context())
		},
	}
}

func newBoardExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the month workbook (.xlsx)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := localClient(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				v, err := c.View(cmd.Context())
				if err != nil {
					return err
				}
				output = export.FileName(v)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := c.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				_ = os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default programacao-<month>.xlsx)")
	return cmd
}
