package http

import (
	"saldo/internal/core"
	"saldo/internal/services"
)

// Template data. Amounts are preformatted with the ledger currency so the
// templates stay free of logic.

type rowView struct {
	ID          int64
	Date        string
	Kind        string
	KindLabel   string
	Category    string
	Description string
	Amount      string
	AmountRaw   string
	Signed      string
	Running     string
	Settled     bool
	Red         bool
	Negative    bool
}

type summaryView struct {
	Initial          string
	InitialRaw       string
	Final            string
	FinalNegative    bool
	Settled          string
	SettledNegative  bool
	PendingToReceive string
	PendingToPay     string
	Positive         bool
	HasMovements     bool
	RedDay           string
	Deficit          string
	HasRedDay        bool
}

type indexView struct {
	Currency          string
	Currencies        []string
	Today             string
	Year              int
	Month             int
	Rows              []rowView
	Summary           summaryView
	IncomeCategories  []string
	ExpenseCategories []string
	Revision          uint64
}

type dayView struct {
	Day        int
	Date       string
	Movements  []rowView
	Balance    string
	HasBalance bool
	Negative   bool
	Red        bool
	Today      bool
}

type calendarView struct {
	Currency  string
	Title     string
	Year      int
	Month     int
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
	Weekdays  []string
	Blanks    []struct{}
	Days      []dayView
	Summary   summaryView
	Revision  uint64
}

// currencies offered by the currency selector.
var currencies = []string{"€", "$", "£", "S/", "Bs", "R$"}

var weekdays = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

func newRowView(m core.Movement, signed, running core.Money, red bool, currency string) rowView {
	return rowView{
		ID:          int64(m.ID),
		Date:        m.Date.String(),
		Kind:        string(m.Kind),
		KindLabel:   m.Kind.Label(),
		Category:    m.Category,
		Description: m.Description,
		Amount:      m.Amount.Format(currency),
		AmountRaw:   m.Amount.Fixed(),
		Signed:      signed.Format(currency),
		Running:     running.Format(currency),
		Settled:     m.Settled,
		Red:         red,
		Negative:    running.IsNegative(),
	}
}

func newSummaryView(ov services.Overview) summaryView {
	cur := ov.Ledger.Currency
	p := ov.Projection
	s := summaryView{
		Initial:          p.Initial.Format(cur),
		InitialRaw:       p.Initial.Fixed(),
		Final:            p.Final.Format(cur),
		FinalNegative:    p.Final.IsNegative(),
		Settled:          p.Settled.Format(cur),
		SettledNegative:  p.Settled.IsNegative(),
		PendingToReceive: p.PendingToReceive.Format(cur),
		PendingToPay:     p.PendingToPay.Format(cur),
		Positive:         p.Final.Cents > 0,
		HasMovements:     len(p.Sorted) > 0,
	}
	if red := p.FirstRedDay; red != nil {
		s.HasRedDay = true
		s.RedDay = red.Date.String()
		s.Deficit = red.Deficit.Format(cur)
	}
	return s
}

func newIndexView(ov services.Overview, today core.Date) indexView {
	cur := ov.Ledger.Currency
	rows := ov.Projection.Rows()
	v := indexView{
		Currency:          cur,
		Currencies:        withCurrency(currencies, cur),
		Today:             today.String(),
		Year:              today.Year(),
		Month:             today.Month(),
		Rows:              make([]rowView, 0, len(rows)),
		Summary:           newSummaryView(ov),
		IncomeCategories:  core.Categories(core.Income),
		ExpenseCategories: core.Categories(core.Expense),
		Revision:          ov.Revision,
	}
	for _, r := range rows {
		v.Rows = append(v.Rows, newRowView(r.Movement, r.Signed, r.Running, r.Red, cur))
	}
	return v
}

func newCalendarView(ov services.Overview, year, month int, today core.Date) calendarView {
	cur := ov.Ledger.Currency
	cm := ov.Projection.Month(year, month)
	prevY, prevM := cm.Prev()
	nextY, nextM := cm.Next()

	v := calendarView{
		Currency:  cur,
		Title:     cm.Title(),
		Year:      cm.Year,
		Month:     cm.Month,
		PrevYear:  prevY,
		PrevMonth: prevM,
		NextYear:  nextY,
		NextMonth: nextM,
		Weekdays:  weekdays,
		Blanks:    make([]struct{}, cm.Leading),
		Days:      make([]dayView, 0, len(cm.Days)),
		Summary:   newSummaryView(ov),
		Revision:  ov.Revision,
	}
	for _, d := range cm.Days {
		dv := dayView{
			Day:        d.Date.Day(),
			Date:       d.Date.String(),
			HasBalance: d.HasBalance,
			Red:        d.Red,
			Today:      d.Date.Equal(today.Time),
		}
		if d.HasBalance {
			dv.Balance = d.Balance.Format(cur)
			dv.Negative = d.Balance.IsNegative()
		}
		for _, m := range d.Movements {
			dv.Movements = append(dv.Movements, newRowView(m, m.Signed(), core.Money{}, false, cur))
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

// withCurrency makes sure the stored symbol is selectable even when it is
// not one of the presets.
func withCurrency(list []string, cur string) []string {
	for _, c := range list {
		if c == cur {
			return list
		}
	}
	return append([]string{cur}, list...)
}

// API payloads.

type projectionRowJSON struct {
	Movement core.Movement `json:"movement"`
	Signed   core.Money    `json:"signed"`
	Running  core.Money    `json:"running"`
	Red      bool          `json:"red"`
}

type redDayJSON struct {
	Date    core.Date  `json:"date"`
	Deficit core.Money `json:"deficit"`
}

type dayBalanceJSON struct {
	Date    core.Date  `json:"date"`
	Balance core.Money `json:"balance"`
}

type projectionJSON struct {
	Revision         uint64              `json:"revision"`
	Currency         string              `json:"currency"`
	InitialBalance   core.Money          `json:"initial_balance"`
	Final            core.Money          `json:"final"`
	Settled          core.Money          `json:"settled"`
	PendingToReceive core.Money          `json:"pending_to_receive"`
	PendingToPay     core.Money          `json:"pending_to_pay"`
	FirstRedDay      *redDayJSON         `json:"first_red_day"`
	Rows             []projectionRowJSON `json:"rows"`
	Daily            []dayBalanceJSON    `json:"daily"`
}

func newProjectionJSON(ov services.Overview) projectionJSON {
	p := ov.Projection
	out := projectionJSON{
		Revision:         ov.Revision,
		Currency:         ov.Ledger.Currency,
		InitialBalance:   p.Initial,
		Final:            p.Final,
		Settled:          p.Settled,
		PendingToReceive: p.PendingToReceive,
		PendingToPay:     p.PendingToPay,
		Rows:             make([]projectionRowJSON, 0, len(p.Sorted)),
		Daily:            make([]dayBalanceJSON, 0, len(p.Daily)),
	}
	if red := p.FirstRedDay; red != nil {
		out.FirstRedDay = &redDayJSON{Date: red.Date, Deficit: red.Deficit}
	}
	for _, r := range p.Rows() {
		out.Rows = append(out.Rows, projectionRowJSON{Movement: r.Movement, Signed: r.Signed, Running: r.Running, Red: r.Red})
	}
	for _, d := range p.Daily {
		out.Daily = append(out.Daily, dayBalanceJSON(d))
	}
	return out
}
