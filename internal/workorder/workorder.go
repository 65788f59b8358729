// Package workorder normalizes work order rows and derives the board rules from them:
// scheduled dates, the week-1 overdue flag, calendar entries and backlog membership.
package workorder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/pkg/models"
)

// Order is a normalized work order. Slots hold date keys ("" when empty).
type Order struct {
	ID               string                   `json:"id"`
	Number           int64                    `json:"number"`
	Type             string                   `json:"type"`
	Status           Status                   `json:"status"`
	Slots            [models.SlotCount]string `json:"slots"`
	RealizedOn       string                   `json:"realized_on,omitempty"`
	AssetCode        string                   `json:"asset_code"`
	AssetDescription string                   `json:"asset_description"`
	Team             string                   `json:"team"`
}

// Normalize converts an API row. Dates lose their time part; invalid dates become empty.
func Normalize(w models.WorkOrder) (Order, error) {
	if w.ID == "" {
		return Order{}, fmt.Errorf("work order without id (number %d)", w.Number)
	}
	st, err := ParseStatus(strings.TrimSpace(w.Status))
	if err != nil {
		return Order{}, fmt.Errorf("work order %s: %w", w.ID, err)
	}
	o := Order{
		ID:               w.ID,
		Number:           w.Number,
		Type:             w.Type,
		Status:           st,
		AssetCode:        w.AssetCode,
		AssetDescription: w.AssetDescription,
		Team:             w.Team,
	}
	for i, v := range w.Slots() {
		if v != nil {
			o.Slots[i] = calendar.NormalizeDate(*v)
		}
	}
	if w.RealizedAt != nil {
		o.RealizedOn = calendar.NormalizeDate(*w.RealizedAt)
	}
	return o, nil
}

// ScheduledDate is a filled slot and the week it belongs to.
type ScheduledDate struct {
	Week int    `json:"week"`
	Date string `json:"date"`
}

// ScheduledDates returns the non-empty slots in slot order.
func (o Order) ScheduledDates() []ScheduledDate {
	var out []ScheduledDate
	for i, d := range o.Slots {
		if d != "" {
			out = append(out, ScheduledDate{Week: i + 1, Date: d})
		}
	}
	return out
}

// IsWeek1Overdue reports whether the first attempt was missed: the order is scheduled,
// slot 1 holds a date before today and nothing was realized.
func (o Order) IsWeek1Overdue(today string) bool {
	switch o.Status {
	case Scheduled:
		return o.Slots[0] != "" && o.RealizedOn == "" && o.Slots[0] < today
	case Created, Realized, Cancelled:
		return false
	}
	return false
}

// Rescheduled reports whether any slot other than week 1 is filled.
func (o Order) Rescheduled() bool {
	for _, d := range o.Slots[1:] {
		if d != "" {
			return true
		}
	}
	return false
}

// Variant distinguishes plan entries from completion entries.
type Variant string

const (
	Planned Variant = "planned"
	Done    Variant = "realized"
)

// Entry fill colors.
const (
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// Entry is one work order occurrence on the calendar.
type Entry struct {
	Key     string  `json:"key"`
	OrderID string  `json:"os_id"`
	Date    string  `json:"date_key"`
	Variant Variant `json:"variant"`
	Color   string  `json:"color"`
	Overdue bool    `json:"overdue_week1,omitempty"`
}

func plannedEntry(id, date string) Entry {
	return Entry{Key: id + "-planned-" + date, OrderID: id, Date: date, Variant: Planned, Color: ColorYellow}
}

func realizedEntry(id, date string) Entry {
	return Entry{Key: id + "-realized-" + date, OrderID: id, Date: date, Variant: Done, Color: ColorGreen}
}

// Entries derives the calendar entries of o.
func (o Order) Entries(today string) []Entry {
	dates := o.ScheduledDates()
	switch o.Status {
	case Scheduled:
		overdue := o.IsWeek1Overdue(today)
		out := make([]Entry, 0, len(dates))
		for _, d := range dates {
			e := plannedEntry(o.ID, d.Date)
			e.Overdue = overdue && d.Week == 1
			out = append(out, e)
		}
		return out
	case Realized:
		if o.RealizedOn != "" {
			out := make([]Entry, 0, len(dates)+1)
			for _, d := range dates {
				if d.Date == o.RealizedOn {
					continue
				}
				out = append(out, plannedEntry(o.ID, d.Date))
			}
			return append(out, realizedEntry(o.ID, o.RealizedOn))
		}
		if len(dates) == 0 {
			return nil
		}
		out := []Entry{realizedEntry(o.ID, dates[0].Date)}
		for _, d := range dates[1:] {
			out = append(out, plannedEntry(o.ID, d.Date))
		}
		return out
	case Created, Cancelled:
		return nil
	}
	return nil
}

// InBacklog reports backlog membership. assignedTo is the sub-team holding the
// order ("" when unassigned) and subTeam the active one.
func (o Order) InBacklog(today, assignedTo, subTeam string) bool {
	switch o.Status {
	case Created:
		return assignedTo == "" || assignedTo == subTeam
	case Scheduled:
		return o.IsWeek1Overdue(today) && !o.Rescheduled()
	case Realized, Cancelled:
		return false
	}
	return false
}

// Matches applies the backlog type filter and the case-insensitive search over
// number, asset code and asset description.
func (o Order) Matches(typ, search string) bool {
	if typ != "" && o.Type != typ {
		return false
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	haystack := strings.ToLower(fmt.Sprintf("%d %s %s", o.Number, o.AssetCode, o.AssetDescription))
	return strings.Contains(haystack, search)
}

// Types returns the distinct non-empty types in first-seen order.
func Types(orders []Order) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range orders {
		if o.Type == "" || seen[o.Type] {
			continue
		}
		seen[o.Type] = true
		out = append(out, o.Type)
	}
	return out
}

// LockKey is the annotation key of an (order, date) cell.
func LockKey(orderID, date string) string {
	return orderID + "::" + date
}

// SplitLockKey reverses LockKey.
func SplitLockKey(key string) (orderID, date string, ok bool) {
	orderID, date, ok = strings.Cut(key, "::")
	if !ok || orderID == "" || date == "" {
		return "", "", false
	}
	return orderID, date, true
}

// SortEntries orders entries by date, then key.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Key < entries[j].Key
	})
}
