package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/daemon"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, session token and the maintenance API",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			out := cmd.OutOrStdout()
			var problems []string

			cfg, cfgErr := config.Load(home)
			if cfgErr != nil {
				problems = append(problems, "config: "+cfgErr.Error())
			} else {
				_, _ = fmt.Fprintf(out, "config: %s (api %s, store %s)\n", config.Path(home), cfg.APIURL, cfg.Store.Driver)
			}

			tokens := config.TokenFile{Home: home}
			if _, err := tokens.Token(); err != nil {
				problems = append(problems, "session: "+err.Error())
			} else {
				_, _ = fmt.Fprintln(out, "session: token present")
			}

			if cfgErr == nil && cfg.APIURL != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				_, herr := client.New(cfg.APIURL, tokens).Health(ctx)
				cancel()
				if herr != nil && !errors.Is(herr, client.ErrNoSession) {
					problems = append(problems, "maintenance API: "+herr.Error())
				} else if herr == nil {
					_, _ = fmt.Fprintln(out, "maintenance API: reachable")
				}
			}

			if st, _ := daemon.Status(cmd.Context(), home); st.Running {
				_, _ = fmt.Fprintf(out, "daemon: running (pid %d, addr %s)\n", st.PID, st.Addr)
			} else {
				_, _ = fmt.Fprintln(out, "daemon: not running")
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}
			_, _ = fmt.Fprintln(out, "ok")
			return nil
		},
	}
	return cmd
}
