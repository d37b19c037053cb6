package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/projection"
	"saldo/internal/voice"
)

// Publisher is the outbound side of the event bus.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
	Close() error
}

// Overview is a ledger together with the projection computed from it.
type Overview struct {
	Ledger     core.Ledger
	Projection projection.Projection
	Revision   uint64
}

// LedgerService orchestrates ledger mutations, projection recomputation
// and change events.
type LedgerService struct {
	store       *ledger.Store
	publisher   Publisher
	projections *cache.LRUCache[Overview]
	now         func() time.Time
}

// NewLedgerService wires the store with an optional publisher; pass nil to
// run without AMQP.
func NewLedgerService(store *ledger.Store, publisher Publisher) *LedgerService {
	return &LedgerService{
		store:       store,
		publisher:   publisher,
		projections: cache.NewLRUCache[Overview](8, 10*time.Minute),
		now:         time.Now,
	}
}

// Projection returns the current ledger and its projection. The result is
// cached per ledger revision.
func (s *LedgerService) Projection(ctx context.Context) Overview {
	l, rev := s.store.Current(ctx)
	key := revisionKey(rev)
	if ov, ok := s.projections.Get(key); ok {
		return ov
	}
	ov := Overview{
		Ledger:     l,
		Projection: projection.Project(l.Movements, l.InitialBalance),
		Revision:   rev,
	}
	s.projections.Set(key, ov)
	return ov
}

// Ledger returns a copy of the current ledger.
func (s *LedgerService) Ledger(ctx context.Context) core.Ledger {
	return s.store.Snapshot(ctx)
}

func (s *LedgerService) CreateMovement(ctx context.Context, in core.MovementInput) (core.ID, error) {
	id, err := s.store.Create(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("create movement: %w", err)
	}
	s.afterMutation(ctx, amqp.OpCreate, id)
	return id, nil
}

func (s *LedgerService) UpdateMovement(ctx context.Context, id core.ID, p core.Patch) (bool, error) {
	found, err := s.store.Update(ctx, id, p)
	if err != nil {
		return found, fmt.Errorf("update movement %s: %w", id, err)
	}
	if found {
		s.afterMutation(ctx, amqp.OpUpdate, id)
	}
	return found, nil
}

func (s *LedgerService) DeleteMovement(ctx context.Context, id core.ID) (bool, error) {
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return found, fmt.Errorf("delete movement %s: %w", id, err)
	}
	if found {
		s.afterMutation(ctx, amqp.OpDelete, id)
	}
	return found, nil
}

func (s *LedgerService) ToggleSettled(ctx context.Context, id core.ID) (bool, error) {
	found, err := s.store.ToggleSettled(ctx, id)
	if err != nil {
		return found, fmt.Errorf("toggle movement %s: %w", id, err)
	}
	if found {
		s.afterMutation(ctx, amqp.OpToggle, id)
	}
	return found, nil
}

// ClearAll drops every movement and resets the initial balance.
func (s *LedgerService) ClearAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	s.afterMutation(ctx, amqp.OpClear, 0)
	return nil
}

func (s *LedgerService) SetInitialBalance(ctx context.Context, b core.Money) error {
	if err := s.store.SetInitialBalance(ctx, b); err != nil {
		return fmt.Errorf("set initial balance: %w", err)
	}
	s.afterMutation(ctx, amqp.OpBalance, 0)
	return nil
}

func (s *LedgerService) SetCurrency(ctx context.Context, symbol string) error {
	if err := s.store.SetCurrency(ctx, symbol); err != nil {
		return fmt.Errorf("set currency: %w", err)
	}
	s.afterMutation(ctx, amqp.OpCurrency, 0)
	return nil
}

// DraftFromVoice parses a transcript relative to today. Nothing is saved.
func (s *LedgerService) DraftFromVoice(transcript string) (voice.Draft, error) {
	return voice.Parse(transcript, core.DateOf(s.now()))
}

// afterMutation recomputes the projection and announces the change. A
// failed publish does not fail the request; the ledger is already saved.
func (s *LedgerService) afterMutation(ctx context.Context, op amqp.Op, id core.ID) {
	ov := s.Projection(ctx)
	if red := ov.Projection.FirstRedDay; red != nil {
		slog.DebugContext(ctx, "Projection recomputed",
			"revision", ov.Revision,
			"final", ov.Projection.Final.Fixed(),
			"red_day", red.Date.String())
	} else {
		slog.DebugContext(ctx, "Projection recomputed",
			"revision", ov.Revision,
			"final", ov.Projection.Final.Fixed())
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event", "op", op)
		return
	}
	msg := amqp.NewLedgerChangedMessage(op, int64(id), ov.Revision)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"op", op, "movement_id", id, "error", err)
	}
}

// Ping checks the persistence backend.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ProjectionCache exposes the per-revision cache for sweeping and stats.
func (s *LedgerService) ProjectionCache() *cache.LRUCache[Overview] {
	return s.projections
}

// Close releases the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}

func revisionKey(rev uint64) string {
	return "rev:" + strconv.FormatUint(rev, 10)
}
