// Package kv defines the key-value collaborator the ledger is persisted to.
package kv

import (
	"context"
	"errors"
)

// Keys under which the ledger is stored.
const (
	KeyMovements      = "movimientos"
	KeyInitialBalance = "saldoInicial"
	KeyCurrency       = "currencySymbol"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("kv store closed")

type (
	Reader interface {
		// Get returns the value stored under key. ok is false when the key
		// has never been written.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
	}

	Writer interface {
		// Set overwrites the value stored under key.
		Set(ctx context.Context, key, value string) error
	}

	Store interface {
		Reader
		Writer
	}
)
