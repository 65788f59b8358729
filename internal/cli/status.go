package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/daemon"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show board daemon status and the loaded selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := daemon.Status(cmd.Context(), home)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !st.Running {
				_, _ = fmt.Fprintln(out, "osboard not running")
				return nil
			}
			_, _ = fmt.Fprintf(out, "osboard running (pid %d, addr %s)\n", st.PID, st.Addr)

			cfg, err := config.Load(home)
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			v, err := client.NewLocal("http://"+st.Addr, cfg.APIKey).View(ctx)
			if err != nil {
				_, _ = fmt.Fprintf(out, "board: unavailable (%v)\n", err)
				return nil
			}
			state := "loaded"
			if !v.Loaded {
				state = "not loaded"
			}
			_, _ = fmt.Fprintf(out, "board: %s %s / %s / %s, %s, backlog %d\n",
				v.Month, v.Filters.Coordination, v.Filters.TeamID, v.Filters.SubTeam, state, len(v.Backlog))
			if v.Error != "" {
				_, _ = fmt.Fprintf(out, "error: %s\n", v.Error)
			}
			return nil
		},
	}
	return cmd
}
