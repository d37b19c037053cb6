package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/projection"
	"saldo/internal/sheets"
)

// AlertKind classifies what changed in the projection.
type AlertKind string

const (
	AlertRedDay        AlertKind = "red_day"
	AlertRedDayCleared AlertKind = "red_day_cleared"
	AlertPositive      AlertKind = "positive_final"
)

// Alert is a user-facing message about the projection.
type Alert struct {
	Kind    AlertKind
	Message string
	Date    core.Date
	Amount  core.Money
}

// Notifier delivers alerts to the user.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, a Alert) error {
	slog.InfoContext(ctx, a.Message, "alert", a.Kind, "date", a.Date.String(), "amount", a.Amount.Fixed())
	return nil
}

// AlertWorker reloads the ledger when it changes, recomputes the projection
// and raises alerts when the first red day appears, moves or clears, or
// when the final balance turns positive. An optional exporter receives
// every evaluated projection.
type AlertWorker struct {
	store    *ledger.Store
	notifier Notifier
	exporter sheets.LedgerExporter

	mu           sync.Mutex
	lastRed      *projection.RedDay
	lastPositive bool
}

// NewAlertWorker builds a worker; exporter may be nil.
func NewAlertWorker(store *ledger.Store, notifier Notifier, exporter sheets.LedgerExporter) *AlertWorker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &AlertWorker{
		store:    store,
		notifier: notifier,
		exporter: exporter,
	}
}

// HandleLedgerChanged processes one ledger event from AMQP. The event only
// signals that something changed; the ledger itself is reloaded.
func (w *AlertWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", msg.EventID,
		"op", msg.Op,
		"revision", msg.Revision)
	return w.Check(ctx)
}

// Check reloads the ledger and evaluates it. It also runs on a timer as a
// backup for lost messages.
func (w *AlertWorker) Check(ctx context.Context) error {
	l := w.store.Load(ctx)
	p := projection.Project(l.Movements, l.InitialBalance)

	if err := w.evaluate(ctx, p, l.Currency); err != nil {
		return err
	}

	if w.exporter != nil {
		if err := w.exporter.ExportLedger(ctx, p); err != nil {
			return fmt.Errorf("export ledger: %w", err)
		}
	}
	return nil
}

func (w *AlertWorker) evaluate(ctx context.Context, p projection.Projection, currency string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var alerts []Alert
	red := p.FirstRedDay
	switch {
	case red != nil && (w.lastRed == nil || *w.lastRed != *red):
		alerts = append(alerts, Alert{
			Kind: AlertRedDay,
			Message: fmt.Sprintf("Atención: el saldo proyectado caerá en rojo el %s, con un déficit de %s",
				red.Date.String(), red.Deficit.Format(currency)),
			Date:   red.Date,
			Amount: red.Deficit,
		})
	case red == nil && w.lastRed != nil:
		alerts = append(alerts, Alert{
			Kind:    AlertRedDayCleared,
			Message: "El saldo proyectado ya no cae en rojo",
			Date:    w.lastRed.Date,
		})
	}

	positive := p.Final.Cents > 0
	if positive && !w.lastPositive {
		alerts = append(alerts, Alert{
			Kind:    AlertPositive,
			Message: fmt.Sprintf("¡Felicidades! Llegas a fin de periodo con un saldo proyectado de %s", p.Final.Format(currency)),
			Amount:  p.Final,
		})
	}

	for _, a := range alerts {
		if err := w.notifier.Notify(ctx, a); err != nil {
			return fmt.Errorf("notify %s: %w", a.Kind, err)
		}
	}

	if red != nil {
		r := *red
		w.lastRed = &r
	} else {
		w.lastRed = nil
	}
	w.lastPositive = positive
	return nil
}

// Run calls Check every interval until ctx is done.
func (w *AlertWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic ledger check failed", "error", err)
			}
		}
	}
}
