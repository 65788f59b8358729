package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ankittk/osboard/internal/demoapi"
	"github.com/spf13/cobra"
)

func newDemoAPICmd() *cobra.Command {
	var (
		addr  string
		token string
	)
	cmd := &cobra.Command{
		Use:   "demo-api",
		Short: "Serve an in-memory maintenance API with seeded data (for trying the board)",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := demoapi.New(token)
			api.Seed(time.Now())
			srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Demo maintenance API on http://%s (token %q)\n", addr, token)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Use it: osboard login --token %s && OSBOARD_API_URL=http://%s osboard start\n", token, addr)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			select {
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				slog.Error("demo api stopped", "err", err)
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "Listen address")
	cmd.Flags().StringVar(&token, "token", "demo", "Bearer token the demo API accepts")
	return cmd
}
