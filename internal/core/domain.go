package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  Kind = "ingreso"
	Expense Kind = "gasto"
)

// DateLayout is the persisted form of a movement date.
const DateLayout = "2006-01-02"

// DefaultCurrency is used when no currency symbol has been stored.
const DefaultCurrency = "€"

// FallbackCategory is assigned when no suggestion matches.
const FallbackCategory = "Otros"

// MaxDescriptionLength is the description limit in characters.
const MaxDescriptionLength = 200

type (
	Kind string

	// ID identifies a movement for its whole lifetime. New ids are
	// millisecond timestamps, bumped when needed to stay unique.
	ID int64

	Date struct {
		time.Time
	}

	Movement struct {
		ID          ID     `json:"id"`
		Kind        Kind   `json:"tipo"`
		Category    string `json:"categoria"`
		Description string `json:"descripcion"`
		Amount      Money  `json:"monto"`
		Date        Date   `json:"fecha"`
		Settled     bool   `json:"realizado"`
	}

	// MovementInput carries the fields of a new movement; the id and the
	// settled flag are assigned by the store.
	MovementInput struct {
		Kind        Kind
		Category    string
		Description string
		Amount      Money
		Date        Date
	}

	// Patch lists the fields to change on an existing movement. Nil fields
	// are left untouched.
	Patch struct {
		Kind        *Kind
		Category    *string
		Description *string
		Amount      *Money
		Date        *Date
		Settled     *bool
	}

	Ledger struct {
		Movements      []Movement
		InitialBalance Money
		Currency       string
	}
)

var (
	ErrInvalidKind      = errors.New("invalid movement type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrDescriptionLimit = errors.New("description too long (max 200 characters)")
)

var categories = map[Kind][]string{
	Income:  {"Sueldo", "Venta", "Inversión", "Regalo", "Otros"},
	Expense: {"Alquiler", "Comida", "Transporte", "Servicios", "Ocio", "Salud", "Otros"},
}

// Categories returns the suggested categories for a movement kind.
func Categories(k Kind) []string {
	return append([]string(nil), categories[k]...)
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Sign is +1 for income and -1 for expenses.
func (k Kind) Sign() int64 {
	if k == Income {
		return 1
	}
	return -1
}

// Label is the capitalised kind name used by the views.
func (k Kind) Label() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind accepts the persisted names, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts the id as a JSON number or as a quoted integer,
// the two forms timestamps were stored in.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(v)
	return nil
}

// ParseID parses the decimal form of an id.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(v), nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD date. Non zero-padded forms such as
// 2025-1-5 are accepted too.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, ErrInvalidDate
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, ErrInvalidDate
		}
		nums[i] = n
	}
	d := NewDate(nums[0], nums[1], nums[2])
	// time.Date normalises overflow; a round trip catches 2025-02-30.
	if d.Year() != nums[0] || d.Month() != nums[1] || d.Day() != nums[2] {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d is a strictly earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Signed returns the amount with the sign of the movement kind.
func (m Movement) Signed() Money {
	return Money{Cents: m.Amount.Cents * m.Kind.Sign()}
}

// Validate checks a movement before it is written: the stored invariants
// plus the description limit, counted in characters.
func (m Movement) Validate() error {
	if err := m.CheckStored(); err != nil {
		return err
	}
	if utf8.RuneCountInString(m.Description) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}
	return nil
}

// CheckStored checks only what the projection depends on: kind, date and
// amount. Loading uses it so that input limits never discard saved data.
func (m Movement) CheckStored() error {
	if err := m.Kind.Validate(); err != nil {
		return err
	}
	if err := m.Date.Validate(); err != nil {
		return err
	}
	return m.Amount.Validate()
}

func (in MovementInput) Validate() error {
	return Movement{
		Kind:        in.Kind,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
	}.Validate()
}

// Apply returns m with the patch fields merged in.
func (p Patch) Apply(m Movement) Movement {
	if p.Kind != nil {
		m.Kind = *p.Kind
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.Settled != nil {
		m.Settled = *p.Settled
	}
	return m
}

// Clone returns a copy of the ledger that shares no slice memory.
func (l Ledger) Clone() Ledger {
	out := l
	out.Movements = append([]Movement(nil), l.Movements...)
	return out
}

// Find returns the movement with the given id.
func (l Ledger) Find(id ID) (Movement, bool) {
	for _, m := range l.Movements {
		if m.ID == id {
			return m, true
		}
	}
	return Movement{}, false
}
