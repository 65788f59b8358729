package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ankittk/osboard/internal/config"
	"github.com/spf13/cobra"
)

func newApikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Generate an API key for protecting the local API when exposed over a network",
	}
	cmd.AddCommand(newApikeyGenerateCmd())
	return cmd
}

func newApikeyGenerateCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random API key and print usage instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			key := hex.EncodeToString(b)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Generated API key (save it somewhere safe):")
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, "  "+key)
			_, _ = fmt.Fprintln(out)

			if save {
				home := config.MustHomeFrom(cmd.Context())
				cfg, err := config.Load(home)
				if err != nil {
					return err
				}
				cfg.APIKey = key
				if err := config.Save(home, cfg); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Saved as api_key in %s; restart the daemon to apply it.\n", config.Path(home))
			} else {
				_, _ = fmt.Fprintln(out, "Use it:")
				_, _ = fmt.Fprintln(out, "  1. On the server: export OSBOARD_API_KEY="+key+" (or osboard apikey generate --save)")
				_, _ = fmt.Fprintln(out, "  2. In clients: send header X-API-Key: <key> or query ?api_key=<key>")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store the key as api_key in config.yaml")
	return cmd
}
