package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/daemon"
	"github.com/spf13/cobra"
)

// serveFlags are shared by `start` and the hidden `daemon` command.
type serveFlags struct {
	addr       string
	dev        bool
	pprofAddr  string
	enableOtel bool
	noUI       bool
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "Listen address (default from config.yaml, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&f.dev, "dev", false, "Enable dev mode (CORS for a separate UI dev server)")
	cmd.Flags().StringVar(&f.pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().BoolVar(&f.enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter on /metrics)")
	cmd.Flags().BoolVar(&f.noUI, "no-ui", false, "Do not serve the embedded web UI")
}

// options loads <home>/config.yaml and applies the flags on top.
func (f *serveFlags) options(home string) (daemon.StartOptions, error) {
	cfg, err := config.Load(home)
	if err != nil {
		return daemon.StartOptions{}, err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.noUI {
		cfg.UI = false
	}
	return daemon.StartOptions{
		Home:       home,
		Config:     cfg,
		Dev:        f.dev,
		PprofAddr:  f.pprofAddr,
		EnableOtel: f.enableOtel,
	}, nil
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.Log))
}

func newStartCmd() *cobra.Command {
	var (
		flags      serveFlags
		foreground bool
		envFile    string
		noBrowser  bool
	)

	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"serve"},
		Short:   "Start the board daemon (local API + web UI)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := loadEnvFile(envFile); err != nil {
					return err
				}
			}
			home := config.MustHomeFrom(cmd.Context())
			opts, err := flags.options(home)
			if err != nil {
				return err
			}
			ui := "http://" + opts.Config.Addr

			if foreground {
				setupLogging(opts.Config)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting osboard in foreground on %s\n", ui)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "osboard started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "UI: %s\n", ui)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", daemon.LogPath(home))

			if opts.Config.UI && !noBrowser {
				_ = openBrowser(ui)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the UI in a browser")

	return cmd
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		_ = os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"`))
	}
	return sc.Err()
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", u).Start()
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return err
		}
		return exec.Command("xdg-open", u).Start()
	}
}
