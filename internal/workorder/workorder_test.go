package workorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankittk/osboard/pkg/models"
)

func strp(s string) *string { return &s }

func order(status Status, slots ...string) Order {
	o := Order{ID: "os1", Number: 42, Status: status}
	copy(o.Slots[:], slots)
	return o
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{Created, Scheduled, Realized, Cancelled} {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("PENDENTE")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	o, err := Normalize(models.WorkOrder{
		ID:          "a",
		Number:      7,
		Status:      "PROGRAMADO",
		Programado1: strp("2025-01-10T00:00:00Z"),
		Programado3: strp("  "),
		Programado4: strp("2025-01-28 08:00"),
		RealizedAt:  nil,
		Team:        "Linha Viva",
	})
	require.NoError(t, err)
	assert.Equal(t, Scheduled, o.Status)
	assert.Equal(t, [models.SlotCount]string{"2025-01-10", "", "", "2025-01-28", ""}, o.Slots)
	assert.Equal(t, []ScheduledDate{{Week: 1, Date: "2025-01-10"}, {Week: 4, Date: "2025-01-28"}}, o.ScheduledDates())

	_, err = Normalize(models.WorkOrder{ID: "b", Status: "???"})
	assert.Error(t, err)
	_, err = Normalize(models.WorkOrder{Status: "CRIADO"})
	assert.Error(t, err)
}

func TestIsWeek1Overdue(t *testing.T) {
	today := "2025-01-15"
	cases := []struct {
		name string
		o    Order
		want bool
	}{
		{"scheduled past slot1", order(Scheduled, "2025-01-10"), true},
		{"scheduled slot1 today", order(Scheduled, "2025-01-15"), false},
		{"scheduled future slot1", order(Scheduled, "2025-01-20"), false},
		{"scheduled no slot1", order(Scheduled, "", "2025-01-10"), false},
		{"realized past slot1", order(Realized, "2025-01-10"), false},
		{"created past slot1", order(Created, "2025-01-10"), false},
		{"cancelled past slot1", order(Cancelled, "2025-01-10"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.o.IsWeek1Overdue(today))
		})
	}

	withRealized := order(Scheduled, "2025-01-10")
	withRealized.RealizedOn = "2025-01-11"
	assert.False(t, withRealized.IsWeek1Overdue(today), "a realized date clears the overdue flag")
}

func TestEntries_realizedWithoutDate(t *testing.T) {
	o := order(Realized, "2025-01-10")
	got := o.Entries("2025-02-01")
	require.Len(t, got, 1)
	assert.Equal(t, Entry{Key: "os1-realized-2025-01-10", OrderID: "os1", Date: "2025-01-10", Variant: Done, Color: ColorGreen}, got[0])
}

func TestEntries_realizedWithDate(t *testing.T) {
	o := order(Realized, "2025-01-10", "2025-01-12")
	o.RealizedOn = "2025-01-15"
	got := o.Entries("2025-02-01")
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-10", got[0].Date)
	assert.Equal(t, ColorYellow, got[0].Color)
	assert.Equal(t, "2025-01-12", got[1].Date)
	assert.Equal(t, ColorYellow, got[1].Color)
	assert.Equal(t, "2025-01-15", got[2].Date)
	assert.Equal(t, ColorGreen, got[2].Color)
	assert.Equal(t, Done, got[2].Variant)
}

func TestEntries_realizedOnPlannedDate(t *testing.T) {
	o := order(Realized, "2025-01-10", "2025-01-12")
	o.RealizedOn = "2025-01-12"
	got := o.Entries("2025-02-01")
	require.Len(t, got, 2)
	assert.Equal(t, "os1-planned-2025-01-10", got[0].Key)
	assert.Equal(t, "os1-realized-2025-01-12", got[1].Key)
}

func TestEntries_scheduledOverdue(t *testing.T) {
	o := order(Scheduled, "2025-01-06", "2025-01-14")
	got := o.Entries("2025-01-10")
	require.Len(t, got, 2)
	assert.True(t, got[0].Overdue)
	assert.False(t, got[1].Overdue)
	for _, e := range got {
		assert.Equal(t, Planned, e.Variant)
		assert.Equal(t, ColorYellow, e.Color)
	}
}

func TestEntries_noneForCreatedAndCancelled(t *testing.T) {
	assert.Empty(t, order(Created, "2025-01-10").Entries("2025-01-01"))
	assert.Empty(t, order(Cancelled, "2025-01-10").Entries("2025-01-01"))
}

func TestInBacklog(t *testing.T) {
	today := "2025-01-15"
	assert.True(t, order(Created).InBacklog(today, "", "S1"))
	assert.True(t, order(Created).InBacklog(today, "S1", "S1"))
	assert.False(t, order(Created).InBacklog(today, "S2", "S1"), "assigned to another sub-team")

	assert.True(t, order(Scheduled, "2025-01-06").InBacklog(today, "S1", "S1"), "overdue, not rescheduled")
	assert.False(t, order(Scheduled, "2025-01-06", "2025-01-16").InBacklog(today, "S1", "S1"), "overdue but rescheduled")
	assert.False(t, order(Scheduled, "2025-01-20").InBacklog(today, "", "S1"))
	assert.False(t, order(Realized, "2025-01-06").InBacklog(today, "", "S1"))
}

func TestMatchesAndTypes(t *testing.T) {
	o := Order{ID: "a", Number: 1234, Type: "PREVENTIVA", AssetCode: "TR-09", AssetDescription: "Transformador Norte"}
	assert.True(t, o.Matches("", ""))
	assert.True(t, o.Matches("PREVENTIVA", "norte"))
	assert.True(t, o.Matches("", "123"))
	assert.True(t, o.Matches("", " tr-09 "))
	assert.False(t, o.Matches("CORRETIVA", ""))
	assert.False(t, o.Matches("", "sul"))

	types := Types([]Order{{Type: "B"}, {Type: "A"}, {Type: "B"}, {Type: ""}})
	assert.Equal(t, []string{"B", "A"}, types)
}

func TestLockKey(t *testing.T) {
	k := LockKey("os1", "2025-01-10")
	assert.Equal(t, "os1::2025-01-10", k)
	id, date, ok := SplitLockKey(k)
	assert.True(t, ok)
	assert.Equal(t, "os1", id)
	assert.Equal(t, "2025-01-10", date)
	_, _, ok = SplitLockKey("broken")
	assert.False(t, ok)
}

func TestScheduleUpdate_fromBacklog(t *testing.T) {
	o := order(Created)
	u := ScheduleUpdate(o, 3, "2025-01-22", "2025-01-15")
	got := u.Apply(o)
	assert.Equal(t, Scheduled, got.Status)
	assert.Equal(t, [models.SlotCount]string{"", "", "2025-01-22", "", ""}, got.Slots)

	p := u.Patch(o.ID)
	assert.Equal(t, "PROGRAMADO", p.Status)
	assert.Len(t, p.Slots, models.SlotCount, "every slot is sent")
}

func TestScheduleUpdate_rescheduleClearsOthers(t *testing.T) {
	o := order(Scheduled, "2025-01-20", "2025-01-27")
	got := ScheduleUpdate(o, 4, "2025-01-29", "2025-01-15").Apply(o)
	assert.Equal(t, [models.SlotCount]string{"", "", "", "2025-01-29", ""}, got.Slots)
}

func TestScheduleUpdate_overdueKeepsSlot1(t *testing.T) {
	o := order(Scheduled, "2025-01-06", "2025-01-14")
	u := ScheduleUpdate(o, 3, "2025-01-22", "2025-01-15")
	_, touched := u.Slots[1]
	assert.False(t, touched, "slot 1 is never sent for an overdue order")
	got := u.Apply(o)
	assert.Equal(t, [models.SlotCount]string{"2025-01-06", "", "2025-01-22", "", ""}, got.Slots)
}

func TestResetUpdate(t *testing.T) {
	today := "2025-01-15"

	o := order(Scheduled, "2025-01-20", "2025-01-27")
	got := ResetUpdate(o, today).Apply(o)
	assert.Equal(t, Created, got.Status)
	assert.Equal(t, [models.SlotCount]string{}, got.Slots)

	overdue := order(Scheduled, "2025-01-06", "2025-01-20", "", "", "2025-02-03")
	u := ResetUpdate(overdue, today)
	assert.Empty(t, u.Patch(overdue.ID).Status)
	got = u.Apply(overdue)
	assert.Equal(t, Scheduled, got.Status)
	assert.Equal(t, [models.SlotCount]string{"2025-01-06", "", "", "", ""}, got.Slots)
}
