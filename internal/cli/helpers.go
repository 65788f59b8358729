package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/daemon"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
)

// localClient returns a client for the running daemon. OSBOARD_URL overrides the
// address recorded by the daemon.
func localClient(ctx context.Context) (*client.Local, error) {
	home := config.MustHomeFrom(ctx)
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	base := os.Getenv("OSBOARD_URL")
	if base == "" {
		base, err = daemon.Addr(ctx, home)
		if err != nil {
			return nil, fmt.Errorf("%w; start it with `osboard start`", err)
		}
	}
	return client.NewLocal(base, cfg.APIKey), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// dateArg accepts "backlog" (or "-") as the backlog target.
func dateArg(s string) string {
	if strings.EqualFold(s, "backlog") || s == "-" {
		return ""
	}
	return s
}

func printOrder(w io.Writer, o models.BoardOrder) {
	flags := ""
	if o.OverdueWeek1 {
		flags = " atrasada"
	}
	if o.AssignedTo != "" {
		flags += " [" + o.AssignedTo + "]"
	}
	_, _ = fmt.Fprintf(w, "  %-10s #%-6d %-12s %-10s %s%s\n", o.ID, o.Number, o.Type, o.Status, o.AssetCode, flags)
}
