package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ankittk/osboard/internal/cli"
)

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(Version)
	root.SilenceErrors = true
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "osboard:", err.Error())
		return 1
	}
	return 0
}
