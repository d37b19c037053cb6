package projection

import (
	"strconv"
	"time"

	"saldo/internal/core"
)

// Row is one line of the table view.
type Row struct {
	Movement core.Movement
	Signed   core.Money
	Running  core.Money
	Red      bool
}

// CalendarDay is one cell of the month view.
type CalendarDay struct {
	Date       core.Date
	Movements  []core.Movement
	Balance    core.Money
	HasBalance bool
	Red        bool
}

// CalendarMonth is a Monday-first month grid. Leading is the number of
// empty cells before the first day.
type CalendarMonth struct {
	Year    int
	Month   int
	Leading int
	Days    []CalendarDay
}

// Rows annotates the sorted movements with their running balance. The red
// row is the first row on the red day whose running balance is negative.
func (p Projection) Rows() []Row {
	rows := make([]Row, 0, len(p.Sorted))
	running := p.Initial
	redMarked := false
	for _, m := range p.Sorted {
		running = running.Add(m.Signed())
		red := !redMarked && p.IsRedDay(m.Date) && running.IsNegative()
		if red {
			redMarked = true
		}
		rows = append(rows, Row{Movement: m, Signed: m.Signed(), Running: running, Red: red})
	}
	return rows
}

// Month builds the calendar grid for a month. Only days with movements
// carry a balance.
func (p Projection) Month(year, month int) CalendarMonth {
	first := core.NewDate(year, month, 1)
	last := first.AddDate(0, 1, -1)

	byDay := make(map[string][]core.Movement)
	for _, m := range p.Sorted {
		if m.Date.Year() == year && m.Date.Month() == month {
			key := m.Date.String()
			byDay[key] = append(byDay[key], m)
		}
	}

	cal := CalendarMonth{
		Year:    year,
		Month:   month,
		Leading: (int(first.Weekday()) + 6) % 7,
	}
	for day := 1; day <= last.Day(); day++ {
		d := core.NewDate(year, month, day)
		cell := CalendarDay{
			Date:      d,
			Movements: byDay[d.String()],
			Red:       p.IsRedDay(d),
		}
		cell.Balance, cell.HasBalance = p.DailyBalance(d)
		cal.Days = append(cal.Days, cell)
	}
	return cal
}

// Title is the Spanish month name and year, e.g. "enero de 2025".
func (c CalendarMonth) Title() string {
	return MonthName(c.Month) + " de " + strconv.Itoa(c.Year)
}

// Prev and Next return the neighbouring year/month pairs.
func (c CalendarMonth) Prev() (int, int) {
	t := time.Date(c.Year, time.Month(c.Month)-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

func (c CalendarMonth) Next() (int, int) {
	t := time.Date(c.Year, time.Month(c.Month)+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the lower-case Spanish month name for 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
