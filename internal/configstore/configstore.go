// Package configstore keeps the cosmetic config bag (colors, locks, notes, week comments)
// of one (month, coordination, team, sub-team) tuple and persists it with a single
// debounced full-object save.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ankittk/osboard/pkg/models"
)

// ErrNotLoaded is returned by Update until the bag of the current tuple has loaded.
var ErrNotLoaded = errors.New("scheduler config not loaded yet")

// Remote reads and writes config bags.
type Remote interface {
	SchedulerConfig(ctx context.Context, key models.ConfigKey) (*models.SchedulerConfig, error)
	SaveSchedulerConfig(ctx context.Context, key models.ConfigKey, cfg models.SchedulerConfig) error
}

// FlushObserver is told about every save attempt.
type FlushObserver func(key models.ConfigKey, err error, elapsed time.Duration)

// Options tunes a Store.
type Options struct {
	Delay       time.Duration // debounce window; zero uses the default
	SaveTimeout time.Duration // per-save deadline for timer-driven saves
	OnFlush     FlushObserver
	Logger      *slog.Logger
}

// Store owns the config bag of the active tuple.
type Store struct {
	remote Remote
	opts   Options

	mu     sync.Mutex
	key    models.ConfigKey
	cfg    models.SchedulerConfig
	loaded bool
	dirty  bool
	gen    uint64
	timer  *time.Timer
	closed bool

	saveMu sync.Mutex // serializes remote saves so they land in edit order
}

// New returns an empty, unloaded store.
func New(remote Remote, opts Options) *Store {
	if opts.Delay <= 0 {
		opts.Delay = models.DefaultFlushDelayMs * time.Millisecond
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = models.DefaultRequestTimeout * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{remote: remote, opts: opts, cfg: Empty()}
}

// Empty returns a bag with all maps allocated.
func Empty() models.SchedulerConfig {
	return models.SchedulerConfig{
		ColorMap:     map[string]string{},
		LockMap:      map[string]bool{},
		NoteMap:      map[string]string{},
		WeekComments: map[string][]string{},
	}
}

// Clone deep-copies cfg, allocating nil maps.
func Clone(cfg models.SchedulerConfig) models.SchedulerConfig {
	out := Empty()
	for k, v := range cfg.ColorMap {
		out.ColorMap[k] = v
	}
	for k, v := range cfg.LockMap {
		out.LockMap[k] = v
	}
	for k, v := range cfg.NoteMap {
		out.NoteMap[k] = v
	}
	for k, v := range cfg.WeekComments {
		out.WeekComments[k] = append([]string(nil), v...)
	}
	return out
}

// Key returns the active tuple.
func (s *Store) Key() models.ConfigKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Loaded reports whether edits are accepted.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a copy of the current bag.
func (s *Store) Snapshot() models.SchedulerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.cfg)
}

// Read calls fn with the current bag under the store lock. fn must not keep references.
func (s *Store) Read(fn func(cfg models.SchedulerConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cfg)
}

// maxSwitchFlushes bounds the saves Load issues for edits that keep landing while
// the previous save is in flight.
const maxSwitchFlushes = 3

// Load switches to key. Pending edits are saved first, including edits made while
// that save was in flight, then the bag is replaced by the server copy (empty when
// none exists). Reloading the same tuple keeps the local bag while unsaved edits
// remain. While the load is in flight Update returns ErrNotLoaded. An incomplete key
// clears the bag.
func (s *Store) Load(ctx context.Context, key models.ConfigKey) error {
	s.saveMu.Lock()
	var flushErr error
	for i := 0; ; i++ {
		flushErr = s.flushLocked(ctx)
		s.mu.Lock()
		if flushErr != nil || !s.dirty || i+1 >= maxSwitchFlushes {
			break
		}
		s.mu.Unlock()
	}
	unlock := func() {
		s.mu.Unlock()
		s.saveMu.Unlock()
	}
	if flushErr != nil {
		s.opts.Logger.Warn("configstore: flush before load failed", "key", key, "err", flushErr)
	}

	if s.closed {
		unlock()
		return errors.New("configstore closed")
	}
	if s.dirty && s.loaded && key == s.key {
		s.armTimerLocked()
		unlock()
		s.opts.Logger.Warn("configstore: unsaved edits kept over server copy", "key", key)
		return nil
	}
	if s.dirty {
		s.opts.Logger.Warn("configstore: dropping unsaved edits", "key", s.key)
	}
	s.gen++
	gen := s.gen
	s.key = key
	s.cfg = Empty()
	s.loaded = false
	s.dirty = false
	s.stopTimerLocked()
	unlock()

	if !key.Complete() {
		return nil
	}

	remote, err := s.remote.SchedulerConfig(ctx, key)
	if err != nil {
		return fmt.Errorf("load scheduler config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer Load replaced this one.
		return nil
	}
	if remote != nil {
		s.cfg = Clone(*remote)
	}
	s.loaded = true
	return nil
}

// Update applies fn to the bag and schedules a debounced save.
func (s *Store) Update(fn func(cfg *models.SchedulerConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	fn(&s.cfg)
	s.dirty = true
	s.armTimerLocked()
	return nil
}

// armTimerLocked restarts the debounce window.
func (s *Store) armTimerLocked() {
	s.stopTimerLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.opts.Delay, func() { s.timerFired(gen) })
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) timerFired(gen uint64) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.opts.Logger.Warn("configstore: save failed", "err", err)
	}
}

// Pending reports whether an edit has not been saved yet.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush saves pending edits now. A failed save leaves the bag pending; it is sent
// again by the next edit, Load or Close.
func (s *Store) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.flushLocked(ctx)
}

// flushLocked saves the bag; the caller holds saveMu.
func (s *Store) flushLocked(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty || !s.loaded || !s.key.Complete() {
		s.mu.Unlock()
		return nil
	}
	key := s.key
	cfg := Clone(s.cfg)
	s.dirty = false
	s.stopTimerLocked()
	s.mu.Unlock()

	start := time.Now()
	err := s.remote.SaveSchedulerConfig(ctx, key, cfg)
	if s.opts.OnFlush != nil {
		s.opts.OnFlush(key, err, time.Since(start))
	}
	if err != nil {
		s.mu.Lock()
		if s.key == key {
			s.dirty = true
		}
		s.mu.Unlock()
		return fmt.Errorf("save scheduler config: %w", err)
	}
	s.opts.Logger.Debug("configstore: saved", "key", key)
	return nil
}

// Close saves pending edits and stops the timer.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	return err
}
