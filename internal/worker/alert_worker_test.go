package worker

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/kv/memory"
	"saldo/internal/ledger"
	sheetsmem "saldo/internal/sheets/memory"
)

type recordingNotifier struct {
	alerts []Alert
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, a Alert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingNotifier) kinds() []AlertKind {
	out := make([]AlertKind, len(r.alerts))
	for i, a := range r.alerts {
		out[i] = a.Kind
	}
	return out
}

func (r *recordingNotifier) reset() { r.alerts = nil }

func expense(cents int64, day int) core.MovementInput {
	return core.MovementInput{Kind: core.Expense, Amount: core.Money{Cents: cents}, Date: core.NewDate(2025, 1, day)}
}

// writer and worker share the kv store but not the ledger.Store, as the
// server and worker processes do.
func setup(t *testing.T) (*ledger.Store, *AlertWorker, *recordingNotifier, *sheetsmem.Exporter) {
	t.Helper()
	backing := memory.New()
	writer := ledger.New(backing)
	notifier := &recordingNotifier{}
	exporter := sheetsmem.New()
	w := NewAlertWorker(ledger.New(backing), notifier, exporter)
	return writer, w, notifier, exporter
}

func sameKinds(got, want []AlertKind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestAlertWorker_RedDayLifecycle(t *testing.T) {
	ctx := context.Background()
	writer, w, notifier, exporter := setup(t)

	_ = writer.SetInitialBalance(ctx, core.Money{Cents: 10000})
	id, _ := writer.Create(ctx, expense(15000, 10))

	msg := amqp.NewLedgerChangedMessage(amqp.OpCreate, int64(id), 1)
	if err := w.HandleLedgerChanged(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerChanged: %v", err)
	}
	if !sameKinds(notifier.kinds(), []AlertKind{AlertRedDay}) {
		t.Fatalf("alerts = %v, want red day", notifier.kinds())
	}
	a := notifier.alerts[0]
	if a.Date.String() != "2025-01-10" || a.Amount.Cents != -5000 {
		t.Fatalf("unexpected red day alert: %+v", a)
	}

	// Same projection again: nothing new to say.
	notifier.reset()
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Fatalf("repeated alerts: %v", notifier.kinds())
	}

	// The red day moves earlier.
	notifier.reset()
	_, _ = writer.Create(ctx, expense(20000, 5))
	_ = w.Check(ctx)
	if !sameKinds(notifier.kinds(), []AlertKind{AlertRedDay}) || notifier.alerts[0].Date.String() != "2025-01-05" {
		t.Fatalf("moved red day alerts = %+v", notifier.alerts)
	}

	// Clearing the ledger clears the red day; the final balance is zero.
	notifier.reset()
	_ = writer.ClearAll(ctx)
	_ = w.Check(ctx)
	if !sameKinds(notifier.kinds(), []AlertKind{AlertRedDayCleared}) {
		t.Fatalf("alerts after clear = %v", notifier.kinds())
	}

	if exporter.Exports() != 4 {
		t.Fatalf("exports = %d, want one per check", exporter.Exports())
	}
	if rows := exporter.Rows(); len(rows) != 1 {
		t.Fatalf("export after clear should hold only the header, got %d rows", len(rows))
	}
}

func TestAlertWorker_PositiveFinalAnnouncedOnTransition(t *testing.T) {
	ctx := context.Background()
	writer, w, notifier, _ := setup(t)

	_ = writer.SetInitialBalance(ctx, core.Money{Cents: 5000})
	_ = w.Check(ctx)
	if !sameKinds(notifier.kinds(), []AlertKind{AlertPositive}) {
		t.Fatalf("alerts = %v, want positive", notifier.kinds())
	}

	notifier.reset()
	_, _ = writer.Create(ctx, core.MovementInput{Kind: core.Income, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)})
	_ = w.Check(ctx)
	if len(notifier.alerts) != 0 {
		t.Fatalf("still positive should stay quiet, got %v", notifier.kinds())
	}
}

func TestAlertWorker_NotifyFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	writer, w, notifier, _ := setup(t)
	_, _ = writer.Create(ctx, expense(100, 1))

	notifier.err = errors.New("speaker unplugged")
	if err := w.Check(ctx); err == nil {
		t.Fatalf("Check should report the notifier failure")
	}

	notifier.err = nil
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !sameKinds(notifier.kinds(), []AlertKind{AlertRedDay}) {
		t.Fatalf("alert was not retried, got %v", notifier.kinds())
	}
}

func TestNewAlertWorkerDefaultsToLogNotifier(t *testing.T) {
	w := NewAlertWorker(ledger.New(memory.New()), nil, nil)
	if _, ok := w.notifier.(LogNotifier); !ok {
		t.Fatalf("notifier = %T, want LogNotifier", w.notifier)
	}
	if err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check on empty ledger: %v", err)
	}
}
