package cli

import (
	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/daemon"
	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			setupLogging(opts.Config)
			return daemon.StartForeground(cmd.Context(), opts)
		},
	}
	flags.register(cmd)
	return cmd
}
