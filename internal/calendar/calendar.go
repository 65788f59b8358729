// Package calendar builds the fixed month grid used by the scheduler board and
// holds the date-key helpers shared with the derivation rules.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Weeks is the number of rows in a grid.
	Weeks = 5
	// DaysPerWeek is the number of columns in a grid (Monday first).
	DaysPerWeek = 7
	// Cells is the fixed grid size.
	Cells = Weeks * DaysPerWeek

	keyLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Day is one grid cell.
type Day struct {
	Date    time.Time `json:"-"`
	Key     string    `json:"date_key"`
	Week    int       `json:"week"`
	InMonth bool      `json:"in_month"`
	Past    bool      `json:"past"`
}

// Grid is a 5x7 Monday-first month grid.
type Grid struct {
	Month string     `json:"month"`
	Today string     `json:"today"`
	Days  [Cells]Day `json:"days"`
	index map[string]int
}

// Build returns the grid for month ("YYYY-MM") relative to today ("YYYY-MM-DD").
// Dates are computed in local time so keys never drift across a UTC boundary.
func Build(month, today string) (Grid, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return Grid{}, err
	}
	offset := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -offset)

	g := Grid{Month: MonthToken(first), Today: today, index: make(map[string]int, Cells)}
	for i := 0; i < Cells; i++ {
		d := start.AddDate(0, 0, i)
		key := DateKey(d)
		inMonth := d.Month() == first.Month() && d.Year() == first.Year()
		g.Days[i] = Day{
			Date:    d,
			Key:     key,
			Week:    i/DaysPerWeek + 1,
			InMonth: inMonth,
			Past:    inMonth && key < today,
		}
		g.index[key] = i
	}
	return g, nil
}

// Cell returns the day for key.
func (g Grid) Cell(key string) (Day, bool) {
	i, ok := g.index[key]
	if !ok {
		return Day{}, false
	}
	return g.Days[i], true
}

// WeekOf returns the grid week of key, or 0 when key is outside the grid.
func (g Grid) WeekOf(key string) int {
	d, ok := g.Cell(key)
	if !ok {
		return 0
	}
	return d.Week
}

// Rows splits the grid into its five weeks.
func (g Grid) Rows() [][]Day {
	rows := make([][]Day, 0, Weeks)
	for w := 0; w < Weeks; w++ {
		rows = append(rows, g.Days[w*DaysPerWeek:(w+1)*DaysPerWeek])
	}
	return rows
}

// DateKey formats t as YYYY-MM-DD in its own location.
func DateKey(t time.Time) string {
	return t.Format(keyLayout)
}

// MonthToken formats t as YYYY-MM.
func MonthToken(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseMonth parses a YYYY-MM token into the first day of that month (local time).
func ParseMonth(month string) (time.Time, error) {
	t, err := time.ParseInLocation(monthLayout, strings.TrimSpace(month), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", month)
	}
	return t, nil
}

// NormalizeDate trims any time part from an API date ("2025-01-10T00:00:00Z",
// "2025-01-10 08:00") and returns the date key, or "" when nothing valid remains.
func NormalizeDate(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	v = strings.SplitN(v, "T", 2)[0]
	v = strings.SplitN(v, " ", 2)[0]
	if _, err := time.ParseInLocation(keyLayout, v, time.Local); err != nil {
		return ""
	}
	return v
}

// ShortDate renders a date key as DD/MM.
func ShortDate(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return key
	}
	return parts[2] + "/" + parts[1]
}

// LongDate renders a date key as DD/MM/YYYY.
func LongDate(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return key
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
