// Package board is the scheduling board engine: it owns the filter selection, the
// loaded work orders and reference data, and the transitions that move work orders
// between the backlog and the calendar.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/internal/configstore"
	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
)

// Remote is the slice of the maintenance API the board uses. *client.Client satisfies it.
type Remote interface {
	configstore.Remote
	Structure(ctx context.Context) ([]models.Structure, error)
	SubTeamConfigs(ctx context.Context, coordination string) ([]models.SubTeamConfig, error)
	Assignments(ctx context.Context, coordination, teamID string) ([]models.Assignment, error)
	Holidays(ctx context.Context, teamID string) ([]models.Holiday, error)
	WorkOrders(ctx context.Context, query models.OrderQuery) ([]models.WorkOrder, error)
	AssignOrder(ctx context.Context, a models.Assignment) error
	ClearAssignment(ctx context.Context, orderID string) error
	PatchOrder(ctx context.Context, patch models.OrderPatch) error
}

// Prefs persists the filter selection.
type Prefs interface {
	SaveFilters(ctx context.Context, key string, value []byte) error
	LoadFilters(ctx context.Context, key string) ([]byte, error)
}

// Journal records board actions.
type Journal interface {
	RecordActivity(ctx context.Context, a models.Activity) error
}

// Options configures a Board. Remote is required.
type Options struct {
	Remote     Remote
	Prefs      Prefs
	Journal    Journal
	FlushDelay time.Duration
	Now        func() time.Time
	Logger     *slog.Logger

	// OnChange runs after every state change with a short reason ("load", "drop", ...).
	OnChange func(reason string)
	// OnAction runs after every action with its outcome (models.Outcome*).
	OnAction func(action, outcome string, elapsed time.Duration)
	OnFlush  configstore.FlushObserver
}

// Board is the single owner of the scheduling state. It is safe for concurrent use;
// network calls are made outside the lock.
type Board struct {
	remote  Remote
	prefs   Prefs
	journal Journal
	now     func() time.Time
	logger  *slog.Logger
	opts    Options
	config  *configstore.Store

	mu         sync.Mutex
	filters    models.Filters
	ref        refData
	data       boardData
	grid       calendar.Grid
	today      string
	loaded     bool
	loadErr    string
	warnings   []string
	loadGen    uint64
	loadCancel context.CancelFunc
	inflight   map[string]bool
}

// refData is the reference data behind the option lists.
type refData struct {
	structure []models.Structure
	subTeams  []models.SubTeamConfig
	options   models.FilterOptions
	teamLabel string
}

// boardData is the system-of-record data of the active selection.
type boardData struct {
	ids         []string // API order
	orders      map[string]workorder.Order
	assignments map[string]models.Assignment
	holidays    map[string][]models.Holiday
}

// New returns an empty board. Call Restore and Load to populate it.
func New(opts Options) *Board {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	b := &Board{
		remote:   opts.Remote,
		prefs:    opts.Prefs,
		journal:  opts.Journal,
		now:      opts.Now,
		logger:   opts.Logger,
		opts:     opts,
		inflight: make(map[string]bool),
		data:     emptyData(),
	}
	b.config = configstore.New(opts.Remote, configstore.Options{
		Delay:   opts.FlushDelay,
		OnFlush: b.onFlush,
		Logger:  opts.Logger,
	})
	b.filters.Month = calendar.MonthToken(b.now())
	b.today = calendar.DateKey(b.now())
	b.grid, _ = calendar.Build(b.filters.Month, b.today)
	return b
}

func emptyData() boardData {
	return boardData{
		orders:      map[string]workorder.Order{},
		assignments: map[string]models.Assignment{},
		holidays:    map[string][]models.Holiday{},
	}
}

func (b *Board) onFlush(key models.ConfigKey, err error, elapsed time.Duration) {
	outcome := models.OutcomeOK
	if err != nil {
		outcome = models.OutcomeFailed
		b.logger.Warn("board: config save failed", "key", key, "err", err)
	}
	if b.opts.OnFlush != nil {
		b.opts.OnFlush(key, err, elapsed)
	}
	b.record(context.Background(), models.Activity{Action: "config_save", Outcome: outcome, Detail: errDetail(err)}, elapsed)
}

func (b *Board) changed(reason string) {
	if b.opts.OnChange != nil {
		b.opts.OnChange(reason)
	}
}

// Restore reads the persisted filter selection. A missing or unreadable blob keeps
// the defaults (current month, nothing selected).
func (b *Board) Restore(ctx context.Context) error {
	if b.prefs == nil {
		return nil
	}
	raw, err := b.prefs.LoadFilters(ctx, models.FiltersKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore filters: %w", err)
	}
	var f models.Filters
	if err := json.Unmarshal(raw, &f); err != nil {
		b.logger.Warn("board: ignoring unreadable filters", "err", err)
		return nil
	}
	if _, err := calendar.ParseMonth(f.Month); err != nil {
		f.Month = calendar.MonthToken(b.now())
	}
	b.mu.Lock()
	b.filters = f
	b.mu.Unlock()
	return nil
}

// Filters returns the current selection.
func (b *Board) Filters() models.Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// SetFilters replaces the selection and reloads. Backlog type and search only
// re-filter the loaded data.
func (b *Board) SetFilters(ctx context.Context, f models.Filters) error {
	f.Month = strings.TrimSpace(f.Month)
	if f.Month == "" {
		f.Month = calendar.MonthToken(b.now())
	}
	if _, err := calendar.ParseMonth(f.Month); err != nil {
		return err
	}
	b.mu.Lock()
	prev := b.filters
	b.filters = f
	b.mu.Unlock()

	b.saveFilters(ctx, f)
	prev.BacklogType, prev.BacklogSearch = f.BacklogType, f.BacklogSearch
	if prev == f && b.isLoaded() {
		b.changed("filters")
		return nil
	}
	return b.Load(ctx)
}

func (b *Board) isLoaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func (b *Board) saveFilters(ctx context.Context, f models.Filters) {
	if b.prefs == nil {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := b.prefs.SaveFilters(ctx, models.FiltersKey, raw); err != nil {
		b.logger.Warn("board: persist filters failed", "err", err)
	}
}

// Close saves pending config edits and cancels an in-flight load.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.loadCancel != nil {
		b.loadCancel()
	}
	b.mu.Unlock()
	return b.config.Close(ctx)
}

// FlushConfig saves pending config edits now.
func (b *Board) FlushConfig(ctx context.Context) error {
	return b.config.Flush(ctx)
}

func (b *Board) record(ctx context.Context, a models.Activity, elapsed time.Duration) {
	if a.At.IsZero() {
		a.At = b.now().UTC()
	}
	if b.opts.OnAction != nil {
		b.opts.OnAction(a.Action, a.Outcome, elapsed)
	}
	if b.journal == nil {
		return
	}
	if err := b.journal.RecordActivity(context.WithoutCancel(ctx), a); err != nil {
		b.logger.Warn("board: journal write failed", "action", a.Action, "err", err)
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// isAuth reports whether err ends the session; such errors abort a load.
func isAuth(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoSession)
}
