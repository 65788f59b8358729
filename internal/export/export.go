// Package export writes a month board to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	CalendarSheet = "Calendario"
	BacklogSheet  = "Backlog"
)

var (
	calendarHeader = []any{"Data", "Semana", "OS", "Tipo", "Ativo", "Situacao", "Atrasada", "Travada", "Observacao", "Cor"}
	backlogHeader  = []any{"OS", "Tipo", "Status", "Ativo", "Descricao", "Equipe", "Atrasada"}
)

// WriteMonth writes view as an .xlsx workbook to w: one row per calendar entry
// in CalendarSheet and one row per backlog order in BacklogSheet.
func WriteMonth(w io.Writer, view models.BoardView) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", CalendarSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(BacklogSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, CalendarSheet, 1, calendarHeader); err != nil {
		return err
	}
	row := 2
	for _, d := range view.Days {
		for _, e := range d.Entries {
			vals := []any{
				calendar.LongDate(e.Date), e.Week, e.Number, e.Type, e.AssetCode,
				variantLabel(e.Variant), yesNo(e.OverdueWeek1), yesNo(e.Locked), e.Note, e.Accent,
			}
			if err := writeRow(f, CalendarSheet, row, vals); err != nil {
				return err
			}
			if err := fillAccent(f, row, e.Accent); err != nil {
				return err
			}
			row++
		}
	}

	if err := writeRow(f, BacklogSheet, 1, backlogHeader); err != nil {
		return err
	}
	for i, o := range view.Backlog {
		vals := []any{o.Number, o.Type, o.Status, o.AssetCode, o.AssetDescription, o.Team, yesNo(o.OverdueWeek1)}
		if err := writeRow(f, BacklogSheet, i+2, vals); err != nil {
			return err
		}
	}

	for _, sheet := range []string{CalendarSheet, BacklogSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(CalendarSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(CalendarSheet, "I", "I", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(BacklogSheet, "E", "E", 40); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// FileName is the suggested download name for month.
func FileName(view models.BoardView) string {
	name := "programacao-" + view.Month
	if view.TeamLabel != "" {
		name += "-" + strings.ReplaceAll(strings.ToLower(view.TeamLabel), " ", "-")
	}
	return name + ".xlsx"
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

// fillAccent paints the color column of row with the work order accent.
func fillAccent(f *excelize.File, row int, accent string) error {
	if accent == "" {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(accent, "#")}},
	})
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(len(calendarHeader), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(CalendarSheet, cell, cell, style)
}

func variantLabel(v string) string {
	if v == "realized" {
		return "Realizada"
	}
	return "Programada"
}

func yesNo(b bool) string {
	if b {
		return "sim"
	}
	return "nao"
}
