// Package export writes dashboard listings as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pulse/internal/models"
)

const (
	eventsSheet   = "Events"
	bookingsSheet = "Bookings"
	centsFormat   = `"$"#,##0.00`
)

// Workbook renders events and bookings into one xlsx file per export.
type Workbook struct {
	loc *time.Location
}

func NewWorkbook(loc *time.Location) *Workbook {
	if loc == nil {
		loc = time.UTC
	}
	return &Workbook{loc: loc}
}

// WriteDashboard writes one sheet per listing to w.
func (x *Workbook) WriteDashboard(w io.Writer, events []models.Event, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(eventsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(centsFormat)})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := x.writeEvents(f, events, header, money); err != nil {
		return err
	}
	if err := x.writeBookings(f, bookings, header, money); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (x *Workbook) writeEvents(f *excelize.File, events []models.Event, header, money int) error {
	cols := []string{"ID", "Title", "Date", "Place", "Status", "Tags", "Capacity", "Remaining", "Price"}
	if err := writeHeader(f, eventsSheet, cols, header); err != nil {
		return err
	}

	for i, e := range events {
		row := i + 2
		capacity := any(e.Capacity)
		remaining := any(e.Remaining)
		if e.Unlimited {
			capacity, remaining = "Unlimited", "Unlimited"
		}
		tags := ""
		for j, t := range e.Tags {
			if j > 0 {
				tags += ", "
			}
			tags += t.Label()
		}
		values := []any{e.ID.String(), e.Title, x.date(e.Timestamp), e.Place, e.Status, tags, capacity, remaining, float64(e.Price) / 100}
		if err := setRow(f, eventsSheet, row, values); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(len(cols), row)
		_ = f.SetCellStyle(eventsSheet, cell, cell, money)
	}

	_ = f.SetColWidth(eventsSheet, "B", "B", 35)
	_ = f.SetColWidth(eventsSheet, "C", "D", 25)
	_ = f.SetColWidth(eventsSheet, "F", "F", 25)
	return nil
}

func (x *Workbook) writeBookings(f *excelize.File, bookings []models.Booking, header, money int) error {
	cols := []string{"ID", "Event", "Event date", "Attendee", "Units", "Status", "Total", "Booked at"}
	if err := writeHeader(f, bookingsSheet, cols, header); err != nil {
		return err
	}

	for i := range bookings {
		b := &bookings[i]
		row := i + 2
		var title, attendee string
		var date time.Time
		if b.Event != nil {
			title = b.Event.Title
			date = b.Event.Timestamp
			if title == "" {
				title = b.Event.IRIOrPath()
			}
		}
		if b.User != nil {
			attendee = b.User.Email
		}
		values := []any{b.ID.String(), title, x.date(date), attendee, b.Units, b.Status, float64(b.Total()) / 100, x.date(b.CreatedAt)}
		if err := setRow(f, bookingsSheet, row, values); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(7, row)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, money)
	}

	_ = f.SetColWidth(bookingsSheet, "B", "D", 30)
	_ = f.SetColWidth(bookingsSheet, "H", "H", 20)
	return nil
}

func (x *Workbook) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(x.loc).Format("2006-01-02 15:04")
}

func writeHeader(f *excelize.File, sheet string, cols []string, style int) error {
	for i, name := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
