package voice

import (
	"errors"
	"testing"

	"saldo/internal/core"
)

func TestParse(t *testing.T) {
	today := core.NewDate(2025, 1, 10)

	tests := []struct {
		name       string
		transcript string
		kind       core.Kind
		cents      int64
		date       core.Date
		category   string
		desc       string
	}{
		{
			name:       "relative date with category and description",
			transcript: "Gasto 12,50 mañana comida cena con amigos",
			kind:       core.Expense,
			cents:      1250,
			date:       core.NewDate(2025, 1, 11),
			category:   "Comida",
			desc:       "cena con amigos",
		},
		{
			name:       "hoy wins over a bare month word",
			transcript: "ingreso 1500 hoy sueldo de enero",
			kind:       core.Income,
			cents:      150000,
			date:       today,
			category:   "Sueldo",
			desc:       "enero",
		},
		{
			name:       "pasado mañana before mañana",
			transcript: "gasto 30 pasado mañana transporte",
			kind:       core.Expense,
			cents:      3000,
			date:       core.NewDate(2025, 1, 12),
			category:   "Transporte",
			desc:       "Gasto Voz",
		},
		{
			name:       "unaccented mañana",
			transcript: "gasto 5 manana ocio",
			kind:       core.Expense,
			cents:      500,
			date:       core.NewDate(2025, 1, 11),
			category:   "Ocio",
			desc:       "Gasto Voz",
		},
		{
			name:       "day of current month and filler trimming",
			transcript: "gasto 45.5 el 20 para la luz",
			kind:       core.Expense,
			cents:      4550,
			date:       core.NewDate(2025, 1, 20),
			category:   "Otros",
			desc:       "la luz",
		},
		{
			name:       "full date with year",
			transcript: "ingreso 200 15 de marzo de 2026 regalo",
			kind:       core.Income,
			cents:      20000,
			date:       core.NewDate(2026, 3, 15),
			category:   "Regalo",
			desc:       "Ingreso Voz",
		},
		{
			name:       "full date defaults to this year",
			transcript: "ingreso 10 3 de diciembre venta bici",
			kind:       core.Income,
			cents:      1000,
			date:       core.NewDate(2025, 12, 3),
			category:   "Venta",
			desc:       "bici",
		},
		{
			name:       "full date after el",
			transcript: "gasto 20 el 5 de marzo comida",
			kind:       core.Expense,
			cents:      2000,
			date:       core.NewDate(2025, 3, 5),
			category:   "Comida",
			desc:       "Gasto Voz",
		},
		{
			name:       "impossible date is ignored",
			transcript: "gasto 10 30 de febrero salud",
			kind:       core.Expense,
			cents:      1000,
			date:       today,
			category:   "Salud",
			desc:       "30 de febrero",
		},
		{
			name:       "category match ignores accents",
			transcript: "ingreso 100 inversion bolsa",
			kind:       core.Income,
			cents:      10000,
			date:       today,
			category:   "Inversión",
			desc:       "bolsa",
		},
		{
			name:       "category must be a whole word",
			transcript: "gasto 20 comidas",
			kind:       core.Expense,
			cents:      2000,
			date:       today,
			category:   "Otros",
			desc:       "comidas",
		},
		{
			name:       "plural kind keyword",
			transcript: "gastos 20, alquiler.",
			kind:       core.Expense,
			cents:      2000,
			date:       today,
			category:   "Alquiler",
			desc:       "Gasto Voz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.transcript, today)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.transcript, err)
			}
			if d.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", d.Kind, tt.kind)
			}
			if d.Amount.Cents != tt.cents {
				t.Errorf("Amount = %d, want %d", d.Amount.Cents, tt.cents)
			}
			if d.Date.String() != tt.date.String() {
				t.Errorf("Date = %s, want %s", d.Date, tt.date)
			}
			if d.Category != tt.category {
				t.Errorf("Category = %q, want %q", d.Category, tt.category)
			}
			if d.Description != tt.desc {
				t.Errorf("Description = %q, want %q", d.Description, tt.desc)
			}
			if err := d.Input().Validate(); err != nil {
				t.Errorf("draft is not a valid movement: %v", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	today := core.NewDate(2025, 1, 10)
	tests := []struct {
		transcript string
		want       error
	}{
		{"compra 20 comida", ErrMissingKind},
		{"", ErrMissingKind},
		{"gasto comida", ErrMissingAmount},
		{"ingreso 0 sueldo", ErrInvalidAmount},
		{"gasto 0,001", ErrInvalidAmount},
	}
	for _, tt := range tests {
		_, err := Parse(tt.transcript, today)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.transcript, err, tt.want)
		}
		if !errors.Is(err, ErrUsage) {
			t.Errorf("Parse(%q) error should carry the usage text", tt.transcript)
		}
	}
}
