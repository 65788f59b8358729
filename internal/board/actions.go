package board

import (
	"context"
	"errors"
	"time"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/models"
)

// move is a validated transition waiting for its network calls.
type move struct {
	action     string
	order      workorder.Order
	date       string
	assignment *models.Assignment // reserved before the patch when set
	update     workorder.Update
	unassign   bool // delete the assignment after the patch (best effort)
}

// Drop dispatches a drag: an empty ToDate means the backlog.
func (b *Board) Drop(ctx context.Context, req models.DropRequest) error {
	if req.ToDate == "" {
		return b.DropToBacklog(ctx, req)
	}
	return b.DropToDay(ctx, req)
}

func sourceOf(req models.DropRequest) (string, error) {
	switch req.Source {
	case models.SourceBacklog, models.SourceCalendar:
		return req.Source, nil
	case "":
		if req.FromDate != "" {
			return models.SourceCalendar, nil
		}
		return models.SourceBacklog, nil
	}
	return "", ErrBadSource
}

// DropToDay schedules a work order on req.ToDate. Every rule is checked before any
// network call; a rejected drop changes nothing.
func (b *Board) DropToDay(ctx context.Context, req models.DropRequest) error {
	start := time.Now()
	m, err := b.validateDropToDay(req)
	if err != nil {
		b.rejected(ctx, "drop", req.OrderID, req.ToDate, err, start)
		return err
	}
	return b.commit(ctx, m, start)
}

func (b *Board) validateDropToDay(req models.DropRequest) (move, error) {
	source, err := sourceOf(req)
	if err != nil {
		return move{}, err
	}
	to := calendar.NormalizeDate(req.ToDate)
	from := calendar.NormalizeDate(req.FromDate)

	b.mu.Lock()
	defer b.mu.Unlock()

	day, ok := b.grid.Cell(to)
	if !ok {
		return move{}, ErrOutsideGrid
	}
	if to < b.today {
		return move{}, ErrPastDate
	}
	if len(b.data.holidays[to]) > 0 {
		return move{}, ErrHoliday
	}
	o, ok := b.data.orders[req.OrderID]
	if !ok {
		return move{}, ErrUnknownOrder
	}
	switch o.Status {
	case workorder.Realized:
		return move{}, ErrRealized
	case workorder.Cancelled:
		return move{}, ErrCancelled
	case workorder.Created, workorder.Scheduled:
	}

	overdue := o.IsWeek1Overdue(b.today)
	if overdue && source == models.SourceCalendar && (from == "" || from == o.Slots[0]) {
		return move{}, ErrFrozenWeek1
	}
	if overdue && day.Week == 1 {
		return move{}, ErrWeek1Target
	}
	if source == models.SourceCalendar && from != "" && b.cellLocked(o.ID, from) {
		return move{}, ErrLocked
	}
	key := b.filters.ConfigKey()
	if !key.Complete() {
		return move{}, ErrSelection
	}
	if err := b.reserveLocked(o.ID); err != nil {
		return move{}, err
	}
	return move{
		action: "drop",
		order:  o,
		date:   to,
		assignment: &models.Assignment{
			OrderID:      o.ID,
			Coordination: key.Coordination,
			TeamID:       key.TeamID,
			SubTeam:      key.SubTeam,
		},
		update: workorder.ScheduleUpdate(o, day.Week, to, b.today),
	}, nil
}

// DropToBacklog returns a work order to the backlog.
func (b *Board) DropToBacklog(ctx context.Context, req models.DropRequest) error {
	start := time.Now()
	m, err := b.validateBacklog(req, false)
	if err != nil {
		b.rejected(ctx, "backlog", req.OrderID, req.FromDate, err, start)
		return err
	}
	return b.commit(ctx, m, start)
}

// Reset is the context-menu variant of DropToBacklog for one calendar cell: it only
// accepts scheduled work orders on unlocked cells that are not the frozen week-1 entry.
func (b *Board) Reset(ctx context.Context, req models.CellRequest) error {
	start := time.Now()
	m, err := b.validateBacklog(models.DropRequest{
		OrderID:  req.OrderID,
		Source:   models.SourceCalendar,
		FromDate: req.Date,
	}, true)
	if err != nil {
		b.rejected(ctx, "reset", req.OrderID, req.Date, err, start)
		return err
	}
	m.action = "reset"
	return b.commit(ctx, m, start)
}

func (b *Board) validateBacklog(req models.DropRequest, reset bool) (move, error) {
	source, err := sourceOf(req)
	if err != nil {
		return move{}, err
	}
	from := calendar.NormalizeDate(req.FromDate)

	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.data.orders[req.OrderID]
	if !ok {
		return move{}, ErrUnknownOrder
	}
	switch o.Status {
	case workorder.Realized:
		if reset {
			return move{}, ErrRealized
		}
		return move{}, reject(ErrRealized, "OS realizada nao pode voltar para o backlog.")
	case workorder.Cancelled:
		return move{}, ErrCancelled
	case workorder.Created:
		if reset {
			return move{}, ErrNotScheduled
		}
	case workorder.Scheduled:
	}

	overdue := o.IsWeek1Overdue(b.today)
	if source == models.SourceCalendar && from != "" && b.cellLocked(o.ID, from) {
		return move{}, ErrLocked
	}
	if reset && overdue && (from == "" || from == o.Slots[0]) {
		return move{}, ErrFrozenWeek1
	}
	if err := b.reserveLocked(o.ID); err != nil {
		return move{}, err
	}
	return move{
		action:   "backlog",
		order:    o,
		date:     from,
		update:   workorder.ResetUpdate(o, b.today),
		unassign: !overdue,
	}, nil
}

// reserveLocked marks id as in flight so a second move waits for the first.
func (b *Board) reserveLocked(id string) error {
	if b.inflight[id] {
		return ErrBusy
	}
	b.inflight[id] = true
	return nil
}

func (b *Board) release(id string) {
	b.mu.Lock()
	delete(b.inflight, id)
	b.mu.Unlock()
}

// commit runs the two network phases and only then touches local state.
func (b *Board) commit(ctx context.Context, m move, start time.Time) error {
	defer b.release(m.order.ID)

	if m.assignment != nil {
		if err := b.reserveAssignment(ctx, *m.assignment); err != nil {
			b.failed(ctx, m, err, start)
			return err
		}
	}
	if err := b.applyOrderPatch(ctx, m.order.ID, m.update); err != nil {
		b.failed(ctx, m, err, start)
		return err
	}
	unassigned := false
	if m.unassign {
		if err := b.remote.ClearAssignment(ctx, m.order.ID); err != nil {
			b.logger.Warn("board: clear assignment failed", "os_id", m.order.ID, "err", err)
		} else {
			unassigned = true
		}
	}
	b.commitLocal(m, unassigned)

	b.logger.Info("board: "+m.action, "os_id", m.order.ID, "number", m.order.Number, "date", m.date)
	b.record(ctx, models.Activity{Action: m.action, OrderID: m.order.ID, Date: m.date, Outcome: models.OutcomeOK}, time.Since(start))
	b.changed(m.action)
	return nil
}

// reserveAssignment upserts the assignment; a conflict aborts the move.
func (b *Board) reserveAssignment(ctx context.Context, a models.Assignment) error {
	return b.remote.AssignOrder(ctx, a)
}

func (b *Board) applyOrderPatch(ctx context.Context, id string, u workorder.Update) error {
	return b.remote.PatchOrder(ctx, u.Patch(id))
}

func (b *Board) commitLocal(m move, unassigned bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.data.orders[m.order.ID]; ok {
		b.data.orders[m.order.ID] = m.update.Apply(o)
	}
	if m.assignment != nil {
		b.data.assignments[m.order.ID] = *m.assignment
	}
	if unassigned {
		delete(b.data.assignments, m.order.ID)
	}
}

func (b *Board) rejected(ctx context.Context, action, id, date string, err error, start time.Time) {
	b.logger.Info("board: "+action+" rejected", "os_id", id, "date", date, "reason", err)
	b.record(ctx, models.Activity{Action: action, OrderID: id, Date: date, Outcome: models.OutcomeRejected, Detail: err.Error()}, time.Since(start))
}

func (b *Board) failed(ctx context.Context, m move, err error, start time.Time) {
	level := b.logger.Warn
	if errors.Is(err, context.Canceled) {
		level = b.logger.Info
	}
	level("board: "+m.action+" failed", "os_id", m.order.ID, "date", m.date, "err", err)
	b.record(ctx, models.Activity{Action: m.action, OrderID: m.order.ID, Date: m.date, Outcome: models.OutcomeFailed, Detail: err.Error()}, time.Since(start))
}
