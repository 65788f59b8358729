package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/ankittk/osboard/internal/config"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the maintenance API bearer token (from --token or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			if token == "" {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("empty token")
			}
			if err := config.SaveToken(home, token); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", config.TokenPath(home))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(config.MustHomeFrom(cmd.Context())); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
