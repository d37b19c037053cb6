// Package ledger keeps the movement list, the initial balance and the
// currency symbol, and persists them through a kv.Store after every change.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/kv"
)

var (
	ErrCurrencyRequired = errors.New("currency symbol is required")
	ErrCurrencyTooLong  = errors.New("currency symbol too long (max 5 characters)")
)

// Store is safe for concurrent use. The in-memory copy is authoritative
// once loaded; every mutation rewrites all persisted keys.
type Store struct {
	kv              kv.Store
	defaultCurrency string
	now             func() time.Time

	mu       sync.Mutex
	state    core.Ledger
	loaded   bool
	lastID   core.ID
	revision uint64
}

type Option func(*Store)

// WithClock overrides the clock used to mint ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDefaultCurrency sets the symbol used when none has been stored.
func WithDefaultCurrency(symbol string) Option {
	return func(s *Store) {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			s.defaultCurrency = symbol
		}
	}
}

func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:              store,
		defaultCurrency: core.DefaultCurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the ledger from the kv store and makes it current. Each key
// fails soft on its own: absent or malformed data falls back to an empty
// list, a zero balance and the default currency.
func (s *Store) Load(ctx context.Context) core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.state.Clone()
}

func (s *Store) loadLocked(ctx context.Context) {
	l := core.Ledger{Currency: s.defaultCurrency}

	if raw, ok := s.read(ctx, kv.KeyMovements); ok {
		ms, err := decodeMovements(raw)
		if err != nil {
			slog.WarnContext(ctx, "Stored movements are corrupt, starting empty", "error", err)
		} else {
			l.Movements = ms
		}
	}
	if raw, ok := s.read(ctx, kv.KeyInitialBalance); ok {
		b, err := core.ParseBalance(raw)
		if err != nil {
			slog.WarnContext(ctx, "Stored initial balance is corrupt, using zero", "value", raw, "error", err)
		} else {
			l.InitialBalance = b
		}
	}
	if raw, ok := s.read(ctx, kv.KeyCurrency); ok && strings.TrimSpace(raw) != "" {
		l.Currency = raw
	}

	s.state = l
	s.loaded = true
	s.lastID = 0
	for _, m := range l.Movements {
		if m.ID > s.lastID {
			s.lastID = m.ID
		}
	}
	s.revision++
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read ledger key", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// decodeMovements rejects the whole list if any entry breaks a stored
// invariant or an id repeats. Input limits such as the description length
// are not applied to saved data.
func decodeMovements(raw string) ([]core.Movement, error) {
	var ms []core.Movement
	if err := json.Unmarshal([]byte(raw), &ms); err != nil {
		return nil, err
	}
	seen := make(map[core.ID]struct{}, len(ms))
	for i, m := range ms {
		if m.ID <= 0 {
			return nil, fmt.Errorf("movement %d: missing id", i)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("movement %d: duplicate id %s", i, m.ID)
		}
		seen[m.ID] = struct{}{}
		if err := m.CheckStored(); err != nil {
			return nil, fmt.Errorf("movement %s: %w", m.ID, err)
		}
	}
	return ms, nil
}

// Save overwrites the three persisted keys with l and makes it current.
func (s *Store) Save(ctx context.Context, l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, l.Clone())
}

func (s *Store) commitLocked(ctx context.Context, l core.Ledger) error {
	if l.Movements == nil {
		l.Movements = []core.Movement{}
	}
	if strings.TrimSpace(l.Currency) == "" {
		l.Currency = s.defaultCurrency
	}
	raw, err := json.Marshal(l.Movements)
	if err != nil {
		return fmt.Errorf("encode movements: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyMovements, string(raw)); err != nil {
		return fmt.Errorf("persist movements: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyInitialBalance, l.InitialBalance.Fixed()); err != nil {
		return fmt.Errorf("persist initial balance: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyCurrency, l.Currency); err != nil {
		return fmt.Errorf("persist currency: %w", err)
	}

	s.state = l
	s.loaded = true
	for _, m := range l.Movements {
		if m.ID > s.lastID {
			s.lastID = m.ID
		}
	}
	s.revision++
	return nil
}

func (s *Store) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.loadLocked(ctx)
	}
}

// Snapshot returns a copy of the current ledger, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.state.Clone()
}

// Current returns a copy of the ledger together with its revision.
func (s *Store) Current(ctx context.Context) (core.Ledger, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.state.Clone(), s.revision
}

// Revision changes every time the current ledger is replaced.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Ping reports whether the backing store can be read.
func (s *Store) Ping(ctx context.Context) error {
	if _, _, err := s.kv.Get(ctx, kv.KeyCurrency); err != nil {
		return fmt.Errorf("ledger store: %w", err)
	}
	return nil
}

// Create appends a new unsettled movement and returns its id.
func (s *Store) Create(ctx context.Context, in core.MovementInput) (core.ID, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	id := s.nextID()
	next := s.state.Clone()
	next.Movements = append(next.Movements, core.Movement{
		ID:          id,
		Kind:        in.Kind,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        in.Date,
	})
	if err := s.commitLocked(ctx, next); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Movement created", "id", id, "kind", in.Kind, "amount", in.Amount.Fixed())
	return id, nil
}

// nextID is the current time in milliseconds, bumped past the last id so
// that two creations in the same millisecond never collide.
func (s *Store) nextID() core.ID {
	id := core.ID(s.now().UnixMilli())
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Update merges p into the movement with the given id. The merged record
// is validated before anything is written.
func (s *Store) Update(ctx context.Context, id core.ID, p core.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	merged := p.Apply(s.state.Movements[idx])
	merged.Category = strings.TrimSpace(merged.Category)
	merged.Description = strings.TrimSpace(merged.Description)
	// A saved description over the limit survives edits of other fields.
	check := merged.CheckStored
	if p.Description != nil {
		check = merged.Validate
	}
	if err := check(); err != nil {
		return true, err
	}

	next := s.state.Clone()
	next.Movements[idx] = merged
	if err := s.commitLocked(ctx, next); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, id core.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := s.state.Clone()
	next.Movements = append(next.Movements[:idx], next.Movements[idx+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return true, err
	}
	slog.InfoContext(ctx, "Movement deleted", "id", id)
	return true, nil
}

// ToggleSettled flips the realizado flag of a movement.
func (s *Store) ToggleSettled(ctx context.Context, id core.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := s.state.Clone()
	next.Movements[idx].Settled = !next.Movements[idx].Settled
	if err := s.commitLocked(ctx, next); err != nil {
		return true, err
	}
	return true, nil
}

// ClearAll removes every movement and resets the initial balance to zero.
// The currency symbol is kept.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	next := core.Ledger{Movements: []core.Movement{}, Currency: s.state.Currency}
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger cleared")
	return nil
}

func (s *Store) SetInitialBalance(ctx context.Context, b core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	next := s.state.Clone()
	next.InitialBalance = b
	return s.commitLocked(ctx, next)
}

func (s *Store) SetCurrency(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrCurrencyRequired
	}
	if len([]rune(symbol)) > 5 {
		return ErrCurrencyTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	next := s.state.Clone()
	next.Currency = symbol
	return s.commitLocked(ctx, next)
}

func (s *Store) indexOf(id core.ID) int {
	for i, m := range s.state.Movements {
		if m.ID == id {
			return i
		}
	}
	return -1
}
