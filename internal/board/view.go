package board

import (
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/models"
)

// entriesLocked derives the calendar entries of the active sub-team. Work orders
// assigned to another sub-team are hidden.
func (b *Board) entriesLocked() []workorder.Entry {
	var out []workorder.Entry
	for _, id := range b.data.ids {
		o := b.data.orders[id]
		if !b.visibleLocked(o) {
			continue
		}
		out = append(out, o.Entries(b.today)...)
	}
	return out
}

// backlogLocked returns the backlog before the type and search filters.
func (b *Board) backlogLocked() []workorder.Order {
	var out []workorder.Order
	for _, id := range b.data.ids {
		o := b.data.orders[id]
		if o.InBacklog(b.today, b.data.assignments[id].SubTeam, b.filters.SubTeam) {
			out = append(out, o)
		}
	}
	return out
}

func (b *Board) orderView(o workorder.Order) models.BoardOrder {
	return models.BoardOrder{
		ID:               o.ID,
		Number:           o.Number,
		Type:             o.Type,
		Status:           o.Status.String(),
		Slots:            o.Slots,
		RealizedOn:       o.RealizedOn,
		AssetCode:        o.AssetCode,
		AssetDescription: o.AssetDescription,
		Team:             o.Team,
		AssignedTo:       b.data.assignments[o.ID].SubTeam,
		OverdueWeek1:     o.IsWeek1Overdue(b.today),
	}
}

// View renders the board.
func (b *Board) View() models.BoardView {
	cfg := b.config.Snapshot()
	configLoaded := b.config.Loaded()

	b.mu.Lock()
	defer b.mu.Unlock()

	v := models.BoardView{
		Month:        b.grid.Month,
		Today:        b.today,
		Filters:      b.filters,
		Options:      b.ref.options,
		TeamLabel:    b.ref.teamLabel,
		Loaded:       b.loaded,
		ConfigLoaded: configLoaded,
		Error:        b.loadErr,
		Warnings:     append([]string(nil), b.warnings...),
		Days:         make([]models.BoardDay, 0, len(b.grid.Days)),
		Backlog:      []models.BoardOrder{},
		BacklogTypes: []string{},
		Config:       cfg,
	}

	byDate := make(map[string][]models.BoardEntry)
	for _, e := range b.entriesLocked() {
		o := b.data.orders[e.OrderID]
		key := workorder.LockKey(e.OrderID, e.Date)
		byDate[e.Date] = append(byDate[e.Date], models.BoardEntry{
			Key:          e.Key,
			OrderID:      e.OrderID,
			Number:       o.Number,
			Type:         o.Type,
			AssetCode:    o.AssetCode,
			Date:         e.Date,
			Week:         b.grid.WeekOf(e.Date),
			Variant:      string(e.Variant),
			Color:        e.Color,
			OverdueWeek1: e.Overdue,
			Locked:       cfg.LockMap[key],
			Note:         cfg.NoteMap[key],
			Accent:       cfg.ColorMap[e.OrderID],
			ReadOnly:     o.Status == workorder.Realized || e.Overdue,
		})
	}
	for _, d := range b.grid.Days {
		day := models.BoardDay{Date: d.Key, Week: d.Week, InMonth: d.InMonth, Past: d.Past, Entries: byDate[d.Key]}
		for _, h := range b.data.holidays[d.Key] {
			day.Holidays = append(day.Holidays, h.Label)
		}
		v.Days = append(v.Days, day)
	}

	base := b.backlogLocked()
	v.BacklogTypes = append(v.BacklogTypes, workorder.Types(base)...)
	for _, o := range base {
		if o.Matches(b.filters.BacklogType, b.filters.BacklogSearch) {
			v.Backlog = append(v.Backlog, b.orderView(o))
		}
	}
	return v
}

// Order returns a loaded work order.
func (b *Board) Order(id string) (models.BoardOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.data.orders[id]
	if !ok {
		return models.BoardOrder{}, false
	}
	return b.orderView(o), true
}

// Counts returns the loaded work orders by status and the backlog size of the
// active sub-team before the backlog filters.
func (b *Board) Counts() (map[string]int64, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byStatus := make(map[string]int64)
	for _, o := range b.data.orders {
		byStatus[o.Status.String()]++
	}
	return byStatus, int64(len(b.backlogLocked()))
}
