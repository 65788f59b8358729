package workorder

import (
	"github.com/ankittk/osboard/pkg/models"
)

// Update is a change to one work order. It renders both the remote patch and
// the local effect so the two never disagree.
type Update struct {
	Status Status          // zero leaves the status untouched
	Slots  map[int]*string // slot number -> new date; nil clears; absent keeps
}

func clearSlots(from int) map[int]*string {
	slots := make(map[int]*string, models.SlotCount)
	for n := from; n <= models.SlotCount; n++ {
		slots[n] = nil
	}
	return slots
}

// ScheduleUpdate places o on date in the given grid week. An order whose week 1 is
// overdue keeps slot 1: only slots 2-5 are rewritten and a week-1 target sets nothing.
func ScheduleUpdate(o Order, week int, date, today string) Update {
	u := Update{Status: Scheduled}
	from := 1
	if o.IsWeek1Overdue(today) {
		from = 2
	}
	u.Slots = clearSlots(from)
	if week >= from && week <= models.SlotCount {
		d := date
		u.Slots[week] = &d
	}
	return u
}

// ResetUpdate returns o to the backlog: status Created with every slot cleared, or,
// when week 1 is overdue, only slots 2-5 cleared and the status left alone.
func ResetUpdate(o Order, today string) Update {
	if o.IsWeek1Overdue(today) {
		return Update{Slots: clearSlots(2)}
	}
	return Update{Status: Created, Slots: clearSlots(1)}
}

// Patch renders u as the PATCH /os body for id.
func (u Update) Patch(id string) models.OrderPatch {
	p := models.OrderPatch{ID: id, Slots: u.Slots}
	if u.Status != 0 {
		p.Status = u.Status.String()
	}
	return p
}

// Apply returns o with u applied.
func (u Update) Apply(o Order) Order {
	if u.Status != 0 {
		o.Status = u.Status
	}
	for n, v := range u.Slots {
		if n < 1 || n > models.SlotCount {
			continue
		}
		if v == nil {
			o.Slots[n-1] = ""
			continue
		}
		o.Slots[n-1] = *v
	}
	return o
}
