package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"150", 15000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"10000000000000", 1e15, true},
		{"10000000000000.01", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseBalance(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"0", 0, true},
		{"-25.5", -2550, true},
		{"100,00", 10000, true},
		{"x", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseBalance(tc.in)
		if tc.ok && (err != nil || got.Cents != tc.out) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: -5000}).Format("€"); got != "-50.00 €" {
		t.Fatalf("Format = %q", got)
	}
	if got := (Money{Cents: 1234}).Format("$"); got != "12.34 $" {
		t.Fatalf("Format = %q", got)
	}
	if got := (Money{Cents: 7}).Format(""); got != "0.07 €" {
		t.Fatalf("Format with default symbol = %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{15000, "150"},
		{1250, "12.5"},
		{1, "0.01"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(Money{Cents: tc.cents})
		if err != nil || string(b) != tc.json {
			t.Fatalf("marshal %d = %s (err=%v), want %s", tc.cents, b, err, tc.json)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"42.10"`), &m); err != nil || m.Cents != 4210 {
		t.Fatalf("unmarshal numeric string: %v %d", err, m.Cents)
	}
	for _, bad := range []string{`"abc"`, `0`, `-3`, `true`} {
		if err := json.Unmarshal([]byte(bad), &m); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	big := Money{Cents: math.MaxInt64 - 10}
	if got := big.Add(Money{Cents: 100}); got.Cents != math.MaxInt64 {
		t.Fatalf("positive overflow = %d, want MaxInt64", got.Cents)
	}
	small := Money{Cents: math.MinInt64 + 10}
	if got := small.Add(Money{Cents: -100}); got.Cents != math.MinInt64 {
		t.Fatalf("negative overflow = %d, want MinInt64", got.Cents)
	}
	if got := (Money{Cents: 150}).Add(Money{Cents: -200}); got.Cents != -50 {
		t.Fatalf("plain sum = %d, want -50", got.Cents)
	}

	// Amounts above MaxCents are not valid movement amounts.
	if err := (Money{Cents: MaxCents + 1}).Validate(); err == nil {
		t.Fatalf("expected an error above MaxCents")
	}
	if err := (Money{Cents: MaxCents}).Validate(); err != nil {
		t.Fatalf("MaxCents rejected: %v", err)
	}
}
