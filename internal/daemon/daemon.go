package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ankittk/osboard/internal/board"
	"github.com/ankittk/osboard/internal/config"
	"github.com/ankittk/osboard/internal/httpapi"
	"github.com/ankittk/osboard/internal/notify"
	"github.com/ankittk/osboard/internal/otel"
	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/internal/store/mongo"
	"github.com/ankittk/osboard/internal/store/postgres"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
)

var (
	errNotRunning     = errors.New("osboard is not running")
	errAlreadyRunning = errors.New("osboard is already running (could not acquire lock)")
)

// StartForeground serves the board until ctx is done. Pending config edits are
// flushed before it returns.
func StartForeground(ctx context.Context, opts StartOptions) error {
	if opts.Home == "" {
		return errors.New("home is required")
	}
	cfg := opts.Config
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultAddr
	}

	if err := os.MkdirAll(protectedDir(opts.Home), 0o700); err != nil {
		return err
	}
	lock, err := acquireLock(lockPath(opts.Home))
	if err != nil {
		return err
	}
	defer lock.release()

	startPprof(opts.PprofAddr)

	if err := checkAddrAvailable(cfg.Addr); err != nil {
		return err
	}

	st, err := openStore(opts.Home, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := os.WriteFile(pidPath(opts.Home), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return err
	}
	_ = os.WriteFile(addrPath(opts.Home), []byte(cfg.Addr+"\n"), 0o644)
	defer func() {
		_ = os.Remove(pidPath(opts.Home))
		_ = os.Remove(addrPath(opts.Home))
	}()

	var metricsHandler http.Handler
	if opts.EnableOtel && cfg.Metrics {
		h, err := otel.InitMeterProvider(ctx, "osboard")
		if err != nil {
			slog.Warn("otel init failed, metrics disabled", "err", err)
		} else {
			metricsHandler = h
		}
	}

	hub := httpapi.NewSSEHub()
	journal := newJournal(cfg.Notify, st)
	defer journal.Wait()
	b := newBoard(opts.Home, cfg, journal, st, hub)
	if err := b.Restore(ctx); err != nil {
		slog.Warn("restore filters failed", "err", err)
	}
	if err := b.Load(ctx); err != nil {
		if errors.Is(err, client.ErrNoSession) || errors.Is(err, client.ErrUnauthorized) {
			slog.Warn("no maintenance API session; run `osboard login`", "err", err)
		} else {
			slog.Warn("initial load failed", "err", err)
		}
	}

	app, err := httpapi.NewApp(httpapi.ServerOptions{
		Addr:           cfg.Addr,
		Dev:            opts.Dev,
		APIKey:         cfg.APIKey,
		Board:          b,
		Activity:       st,
		Hub:            hub,
		MetricsHandler: metricsHandler,
		UseOtelHTTP:    metricsHandler != nil,
		UI:             cfg.UI,
	})
	if err != nil {
		return err
	}
	if metricsHandler != nil {
		if err := otel.InitMetricsWithBoardCount(ctx, b.Counts); err != nil {
			slog.Warn("otel instruments failed", "err", err)
		}
	}

	slog.Info("daemon starting", "addr", cfg.Addr, "home", opts.Home, "api", cfg.APIURL, "store", cfg.Store.Driver)
	errCh := make(chan error, 1)
	go func() {
		go runRefresher(ctx, cfg.RefreshInterval, b)
		errCh <- app.Server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = app.Server.Shutdown(shutdownCtx)
		if err := b.Close(shutdownCtx); err != nil {
			slog.Warn("flush on shutdown failed", "err", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// openStore opens the local store selected by sc.Driver.
func openStore(home string, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "", store.DriverSQLite:
		return store.Open(home)
	case store.DriverPostgres:
		return postgres.Open(sc.DSN)
	case store.DriverMongo:
		return mongo.Open(sc.DSN, sc.Database)
	}
	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}

// newRemote returns the maintenance API client. A 401 removes the saved token.
func newRemote(home string, cfg config.Config) *client.Client {
	c := client.New(cfg.APIURL, config.TokenFile{Home: home})
	c.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	c.Observe = func(method, path string, status int, elapsed time.Duration) {
		otel.RecordRemoteCall(context.Background(), method, path, status, elapsed)
	}
	c.OnUnauthorized = func() {
		slog.Warn("maintenance API session expired")
		if err := config.ClearToken(home); err != nil {
			slog.Warn("clear token failed", "err", err)
		}
	}
	return c
}

// newJournal wraps the store so accepted moves also reach the configured integrations.
func newJournal(nc config.NotifyConfig, st store.Store) *notify.Journal {
	reg := notify.NewRegistry()
	if nc.SlackWebhook != "" {
		reg.Register(notify.SlackWebhook{WebhookURL: nc.SlackWebhook, Channel: nc.SlackChannel, Username: "osboard"})
	}
	if nc.Webhook != "" {
		reg.Register(notify.Webhook{URL: nc.Webhook})
	}
	return &notify.Journal{Next: st, Registry: reg, Actions: nc.Actions}
}

func newBoard(home string, cfg config.Config, journal board.Journal, prefs board.Prefs, hub *httpapi.SSEHub) *board.Board {
	return board.New(board.Options{
		Remote:     newRemote(home, cfg),
		Prefs:      prefs,
		Journal:    journal,
		FlushDelay: cfg.FlushDelay,
		Logger:     slog.Default(),
		OnChange: func(reason string) {
			httpapi.PublishBoardUpdate(hub, reason)
		},
		OnAction: func(action, outcome string, elapsed time.Duration) {
			otel.RecordBoardAction(context.Background(), action, outcome, elapsed)
		},
		OnFlush: func(_ models.ConfigKey, err error, elapsed time.Duration) {
			otel.RecordConfigFlush(context.Background(), err, elapsed)
		},
	})
}

func startPprof(addr string) {
	if addr == "" {
		return
	}
	go func() {
		// DefaultServeMux carries the pprof handlers.
		if err := http.ListenAndServe(addr, nil); err != nil {
			slog.Info("pprof server stopped", "addr", addr, "err", err)
		}
	}()
}

// StartBackground re-executes the binary as a detached `daemon` process.
func StartBackground(ctx context.Context, opts StartOptions) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(protectedDir(opts.Home), 0o700); err != nil {
		return 0, err
	}
	if st, _ := Status(ctx, opts.Home); st.Running {
		return 0, fmt.Errorf("osboard already running (pid %d)", st.PID)
	}

	stderr, err := os.OpenFile(LogPath(opts.Home), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	// Kept open for the child's lifetime.

	cmd := exec.Command(exe, backgroundArgs(opts)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	setDaemonSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := Status(ctx, opts.Home); st.Running {
			return st.PID, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cmd.Process.Pid, nil
}

func backgroundArgs(opts StartOptions) []string {
	args := []string{"daemon", "--home", opts.Home}
	if opts.Config.Addr != "" {
		args = append(args, "--addr", opts.Config.Addr)
	}
	if opts.Dev {
		args = append(args, "--dev")
	}
	if opts.PprofAddr != "" {
		args = append(args, "--pprof", opts.PprofAddr)
	}
	if !opts.EnableOtel {
		args = append(args, "--otel=false")
	}
	return args
}

// Stop sends SIGTERM to the running daemon and waits for it to exit. It reports
// whether a daemon was running.
func Stop(ctx context.Context, home string) (bool, error) {
	st, err := Status(ctx, home)
	if err != nil {
		return false, err
	}
	if !st.Running {
		return false, nil
	}
	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return false, errNotRunning
	}
	if err := signalTerm(proc); err != nil {
		return false, err
	}

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if st2, _ := Status(ctx, home); !st2.Running {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	_ = proc.Kill()
	return true, nil
}

// Status reads the pid and addr files. A pid file of a dead process is removed.
func Status(ctx context.Context, home string) (StatusInfo, error) {
	pb, err := os.ReadFile(pidPath(home))
	if err != nil {
		return StatusInfo{Running: false}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pb)))
	if err != nil || pid <= 0 {
		return StatusInfo{Running: false}, nil
	}
	if !processExists(pid) {
		_ = os.Remove(pidPath(home))
		return StatusInfo{Running: false}, nil
	}

	addr := ""
	if ab, err := os.ReadFile(addrPath(home)); err == nil {
		addr = strings.TrimSpace(string(ab))
	}
	if addr == "" {
		addr = "unknown"
	}
	return StatusInfo{Running: true, PID: pid, Addr: addr}, nil
}

// Addr returns the base URL of the running daemon.
func Addr(ctx context.Context, home string) (string, error) {
	st, err := Status(ctx, home)
	if err != nil {
		return "", err
	}
	if !st.Running || st.Addr == "unknown" {
		return "", errNotRunning
	}
	return "http://" + st.Addr, nil
}

func checkAddrAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use", addr)
	}
	_ = ln.Close()
	return nil
}
