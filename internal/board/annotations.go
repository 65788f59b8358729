package board

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/models"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// cellLocked reads the lock of (id, date) from the config bag.
func (b *Board) cellLocked(id, date string) bool {
	locked := false
	b.config.Read(func(cfg models.SchedulerConfig) {
		locked = cfg.LockMap[workorder.LockKey(id, date)]
	})
	return locked
}

// menuEntry checks that (id, date) is an entry that accepts annotations: it must exist
// on the board, not be a realized work order and not be the frozen week-1 entry.
func (b *Board) menuEntry(id, date string) (workorder.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.data.orders[id]
	if !ok {
		return workorder.Order{}, ErrUnknownOrder
	}
	if !b.visibleLocked(o) {
		return workorder.Order{}, ErrUnknownOrder
	}
	var found *workorder.Entry
	for _, e := range o.Entries(b.today) {
		if e.Date == date {
			e := e
			found = &e
			break
		}
	}
	if found == nil {
		return workorder.Order{}, reject(ErrUnknownOrder, "OS nao esta programada nesta data.")
	}
	if o.Status == workorder.Realized || found.Overdue {
		return workorder.Order{}, ErrReadOnly
	}
	return o, nil
}

// visibleLocked reports whether o belongs to the active sub-team's calendar.
func (b *Board) visibleLocked(o workorder.Order) bool {
	a, ok := b.data.assignments[o.ID]
	return !ok || a.SubTeam == b.filters.SubTeam
}

func (b *Board) annotate(ctx context.Context, action string, id, date string, fn func(cfg *models.SchedulerConfig)) error {
	start := time.Now()
	err := b.config.Update(fn)
	if err != nil {
		b.rejected(ctx, action, id, date, err, start)
		return err
	}
	b.record(ctx, models.Activity{Action: action, OrderID: id, Date: date, Outcome: models.OutcomeOK}, time.Since(start))
	b.changed(action)
	return nil
}

// ToggleLock flips the lock of a cell. Locking stays available on locked cells.
func (b *Board) ToggleLock(ctx context.Context, req models.CellRequest) (bool, error) {
	date := calendar.NormalizeDate(req.Date)
	if _, err := b.menuEntry(req.OrderID, date); err != nil {
		b.rejected(ctx, "lock", req.OrderID, req.Date, err, time.Now())
		return false, err
	}
	key := workorder.LockKey(req.OrderID, date)
	var now bool
	err := b.annotate(ctx, "lock", req.OrderID, date, func(cfg *models.SchedulerConfig) {
		now = !cfg.LockMap[key]
		cfg.LockMap[key] = now
	})
	return now, err
}

// SetNote stores the trimmed note of a cell; an empty note removes it.
func (b *Board) SetNote(ctx context.Context, req models.NoteRequest) error {
	date := calendar.NormalizeDate(req.Date)
	if _, err := b.menuEntry(req.OrderID, date); err != nil {
		b.rejected(ctx, "note", req.OrderID, req.Date, err, time.Now())
		return err
	}
	key := workorder.LockKey(req.OrderID, date)
	text := strings.TrimSpace(req.Text)
	return b.annotate(ctx, "note", req.OrderID, date, func(cfg *models.SchedulerConfig) {
		if text == "" {
			delete(cfg.NoteMap, key)
			return
		}
		cfg.NoteMap[key] = text
	})
}

// SetColor sets the accent color of a work order from one of its cells. The cell must
// not be locked. An empty color removes the accent.
func (b *Board) SetColor(ctx context.Context, req models.ColorRequest) error {
	date := calendar.NormalizeDate(req.Date)
	color := strings.TrimSpace(req.Color)
	if color != "" && !hexColor.MatchString(color) {
		b.rejected(ctx, "color", req.OrderID, date, ErrBadColor, time.Now())
		return ErrBadColor
	}
	if _, err := b.menuEntry(req.OrderID, date); err != nil {
		b.rejected(ctx, "color", req.OrderID, req.Date, err, time.Now())
		return err
	}
	if b.cellLocked(req.OrderID, date) {
		b.rejected(ctx, "color", req.OrderID, date, ErrLocked, time.Now())
		return ErrLocked
	}
	return b.annotate(ctx, "color", req.OrderID, date, func(cfg *models.SchedulerConfig) {
		if color == "" {
			delete(cfg.ColorMap, req.OrderID)
			return
		}
		cfg.ColorMap[req.OrderID] = strings.ToLower(color)
	})
}

// AddWeekComment appends " | text" to the note of one of the week's cells.
func (b *Board) AddWeekComment(ctx context.Context, req models.WeekCommentRequest) error {
	text := strings.TrimSpace(req.Text)
	fail := func(err error) error {
		b.rejected(ctx, "week_comment", "", req.Target, err, time.Now())
		return err
	}
	if req.Week < 1 || req.Week > calendar.Weeks {
		return fail(ErrBadWeek)
	}
	if text == "" {
		return fail(ErrEmptyText)
	}
	if req.Target == "" {
		return fail(ErrNoTarget)
	}
	valid := false
	for _, t := range b.WeekTargets(req.Week) {
		if t.Key == req.Target {
			valid = true
			break
		}
	}
	if !valid {
		return fail(ErrNoTarget)
	}
	id, date, _ := workorder.SplitLockKey(req.Target)
	return b.annotate(ctx, "week_comment", id, date, func(cfg *models.SchedulerConfig) {
		if existing := cfg.NoteMap[req.Target]; existing != "" {
			cfg.NoteMap[req.Target] = existing + " | " + text
			return
		}
		cfg.NoteMap[req.Target] = text
	})
}

// WeekTargets lists the distinct cells with an entry in grid week w.
func (b *Board) WeekTargets(w int) []models.WeekTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	out := []models.WeekTarget{}
	for _, e := range b.entriesLocked() {
		if b.grid.WeekOf(e.Date) != w {
			continue
		}
		key := workorder.LockKey(e.OrderID, e.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.WeekTarget{Key: key, OrderID: e.OrderID, Number: b.data.orders[e.OrderID].Number, Date: e.Date})
	}
	return out
}

// WeekNotes lists the non-empty notes of loaded work orders in grid week w, by date.
func (b *Board) WeekNotes(w int) []models.WeekNote {
	notes := map[string]string{}
	b.config.Read(func(cfg models.SchedulerConfig) {
		for k, v := range cfg.NoteMap {
			notes[k] = v
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.WeekNote{}
	for key, note := range notes {
		if note == "" {
			continue
		}
		id, date, ok := workorder.SplitLockKey(key)
		if !ok || b.grid.WeekOf(date) != w {
			continue
		}
		o, ok := b.data.orders[id]
		if !ok {
			continue
		}
		out = append(out, models.WeekNote{Key: key, OrderID: id, Number: o.Number, Date: date, Note: note})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Week returns the comment targets and notes of grid week w.
func (b *Board) Week(w int) (models.WeekView, error) {
	if w < 1 || w > calendar.Weeks {
		return models.WeekView{}, ErrBadWeek
	}
	return models.WeekView{Week: w, Targets: b.WeekTargets(w), Notes: b.WeekNotes(w)}, nil
}
