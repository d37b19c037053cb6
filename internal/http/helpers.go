package http

import (
	"errors"
	"strings"

	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/voice"
)

// Form and JSON field names of a movement, matching its JSON encoding.
const (
	fieldID          = "id"
	fieldKind        = "tipo"
	fieldAmount      = "monto"
	fieldDate        = "fecha"
	fieldCategory    = "categoria"
	fieldDescription = "descripcion"
	fieldSettled     = "realizado"
)

var (
	errMissingID      = errors.New("missing movement id")
	errInvalidSettled = errors.New("invalid settled flag")
)

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// validationMessage maps a validation error to the message shown to the
// user. ok is false for anything that is not a validation failure.
func validationMessage(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, voice.ErrUsage):
		return err.Error(), true
	case errors.Is(err, core.ErrInvalidKind):
		return "Tipo inválido: usa ingreso o gasto", true
	case errors.Is(err, core.ErrInvalidAmount):
		return "Monto inválido: introduce un número mayor que cero", true
	case errors.Is(err, core.ErrInvalidDate):
		return "Fecha inválida: usa el formato AAAA-MM-DD", true
	case errors.Is(err, core.ErrDescriptionLimit):
		return "Descripción demasiado larga (máx. 200 caracteres)", true
	case errors.Is(err, ledger.ErrCurrencyRequired):
		return "El símbolo de moneda es obligatorio", true
	case errors.Is(err, ledger.ErrCurrencyTooLong):
		return "Símbolo de moneda demasiado largo (máx. 5 caracteres)", true
	case errors.Is(err, errMissingID):
		return "Falta el id del movimiento", true
	case errors.Is(err, errInvalidSettled):
		return "Valor de realizado inválido", true
	}
	return "", false
}

// movementInput builds a new movement from the request. The date defaults
// to today.
func movementInput(p *RequestBodyParser, today core.Date) (core.MovementInput, error) {
	kind, err := core.ParseKind(p.Get(fieldKind))
	if err != nil {
		return core.MovementInput{}, err
	}
	cents, err := core.ParseDecimalToCents(p.Get(fieldAmount))
	if err != nil {
		return core.MovementInput{}, err
	}
	date := today
	if v := p.Get(fieldDate); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return core.MovementInput{}, err
		}
	}
	return core.MovementInput{
		Kind:        kind,
		Category:    p.Get(fieldCategory),
		Description: p.Get(fieldDescription),
		Amount:      core.Money{Cents: cents},
		Date:        date,
	}, nil
}

// movementPatch builds a patch from the fields present in the request.
func movementPatch(p *RequestBodyParser) (core.Patch, error) {
	var patch core.Patch
	if v, ok := p.Lookup(fieldKind); ok {
		kind, err := core.ParseKind(v)
		if err != nil {
			return patch, err
		}
		patch.Kind = &kind
	}
	if v, ok := p.Lookup(fieldAmount); ok {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return patch, err
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if v, ok := p.Lookup(fieldDate); ok {
		date, err := core.ParseDate(v)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	if v, ok := p.Lookup(fieldCategory); ok {
		patch.Category = &v
	}
	if v, ok := p.Lookup(fieldDescription); ok {
		patch.Description = &v
	}
	if v, ok := p.Lookup(fieldSettled); ok {
		settled, err := parseBool(v)
		if err != nil {
			return patch, errInvalidSettled
		}
		patch.Settled = &settled
	}
	return patch, nil
}

func movementID(p *RequestBodyParser) (core.ID, error) {
	v := p.Get(fieldID)
	if v == "" {
		return 0, errMissingID
	}
	id, err := core.ParseID(v)
	if err != nil {
		return 0, errMissingID
	}
	return id, nil
}
