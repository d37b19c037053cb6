// Package projection turns an unordered set of movements and an initial
// balance into a running balance projection.
//
// Every recorded movement counts towards the projected balance whether it
// has settled or not. The projection also tracks the settled-only balance,
// pending totals and the first day the projected balance drops below zero.
package projection

import (
	"sort"

	"saldo/internal/core"
)

// RedDay marks the first date at which the projected balance is negative.
type RedDay struct {
	Date    core.Date
	Deficit core.Money
}

// DayBalance is the projected balance after the last movement of a date.
type DayBalance struct {
	Date    core.Date
	Balance core.Money
}

// Projection is the output of one run over the ledger.
type Projection struct {
	Initial          core.Money
	Sorted           []core.Movement
	Daily            []DayBalance
	Final            core.Money
	Settled          core.Money
	PendingToReceive core.Money
	PendingToPay     core.Money
	FirstRedDay      *RedDay

	index map[string]int
}

// Sort orders movements by date, then by id. The input slice is not
// modified.
func Sort(movements []core.Movement) []core.Movement {
	sorted := append([]core.Movement(nil), movements...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	return sorted
}

// Project runs a single forward pass over the movements in canonical order.
func Project(movements []core.Movement, initial core.Money) Projection {
	p := Projection{
		Initial: initial,
		Sorted:  Sort(movements),
		index:   make(map[string]int),
	}

	accumulated := initial
	settled := initial
	for _, m := range p.Sorted {
		signed := m.Signed()
		accumulated = accumulated.Add(signed)

		if m.Settled {
			settled = settled.Add(signed)
		} else if m.Kind == core.Income {
			p.PendingToReceive = p.PendingToReceive.Add(m.Amount)
		} else {
			p.PendingToPay = p.PendingToPay.Add(m.Amount)
		}

		// Movements arrive in date order, so a repeated date is always the
		// last entry.
		key := m.Date.String()
		if i, ok := p.index[key]; ok {
			p.Daily[i].Balance = accumulated
		} else {
			p.index[key] = len(p.Daily)
			p.Daily = append(p.Daily, DayBalance{Date: m.Date, Balance: accumulated})
		}

		if accumulated.IsNegative() && p.FirstRedDay == nil {
			p.FirstRedDay = &RedDay{Date: m.Date, Deficit: accumulated}
		}
	}

	p.Final = accumulated
	p.Settled = settled
	return p
}

// DailyBalance returns the projected balance recorded for a date, if any
// movement falls on it.
func (p Projection) DailyBalance(d core.Date) (core.Money, bool) {
	i, ok := p.index[d.String()]
	if !ok {
		return core.Money{}, false
	}
	return p.Daily[i].Balance, true
}

// BalanceOn returns the projected balance at the end of a date: the last
// daily balance at or before it, or the initial balance.
func (p Projection) BalanceOn(d core.Date) core.Money {
	i := sort.Search(len(p.Daily), func(i int) bool {
		return d.Before(p.Daily[i].Date)
	})
	if i == 0 {
		return p.Initial
	}
	return p.Daily[i-1].Balance
}

// IsRedDay reports whether d is the first red day.
func (p Projection) IsRedDay(d core.Date) bool {
	return p.FirstRedDay != nil && p.FirstRedDay.Date.Equal(d.Time)
}
