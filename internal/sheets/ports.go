// Package sheets holds the outbound ports for spreadsheet exports of the
// ledger.
package sheets

import (
	"context"

	"saldo/internal/projection"
)

// Ports for outbound adapters.
type (
	// LedgerExporter replaces the exported copy of the ledger with the
	// given state.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, p projection.Projection) error
	}
)

// Header is the first row of every export.
var Header = []any{"Fecha", "Tipo", "Categoría", "Descripción", "Monto", "Saldo", "Realizado"}

// Rows renders the ledger in canonical order, one row per movement, with
// the signed amount and the running balance as numbers.
func Rows(p projection.Projection) [][]any {
	out := make([][]any, 0, len(p.Sorted)+1)
	out = append(out, Header)
	for _, r := range p.Rows() {
		settled := "no"
		if r.Movement.Settled {
			settled = "sí"
		}
		out = append(out, []any{
			r.Movement.Date.String(),
			r.Movement.Kind.Label(),
			r.Movement.Category,
			r.Movement.Description,
			r.Signed.Decimal().InexactFloat64(),
			r.Running.Decimal().InexactFloat64(),
			settled,
		})
	}
	return out
}
