// Package voice turns a spoken command such as
// "gasto 12,50 mañana comida cena con amigos" into a draft movement.
// Drafts are never persisted here; the caller pre-fills a form with them.
package voice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"saldo/internal/core"
)

var (
	ErrUsage         = errors.New("formato: <ingreso|gasto> <monto> [fecha] [categoría] [descripción], p. ej. \"gasto 12,50 mañana comida cena\"")
	ErrMissingKind   = errors.New("falta el tipo (ingreso/gasto) al inicio del comando")
	ErrMissingAmount = errors.New("falta el monto o no es un número")
	ErrInvalidAmount = errors.New("monto inválido o cero")
)

// Draft is a movement pre-filled from a transcript.
type Draft struct {
	Kind        core.Kind  `json:"tipo"`
	Amount      core.Money `json:"monto"`
	Date        core.Date  `json:"fecha"`
	Category    string     `json:"categoria"`
	Description string     `json:"descripcion"`
}

// Input converts the draft into the fields of a new movement.
func (d Draft) Input() core.MovementInput {
	return core.MovementInput{
		Kind:        d.Kind,
		Category:    d.Category,
		Description: d.Description,
		Amount:      d.Amount,
		Date:        d.Date,
	}
}

var (
	amountRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	relativeDates = []struct {
		re   *regexp.Regexp
		days int
	}{
		{regexp.MustCompile(`\bpasado\s+ma[ñn]ana\b`), 2},
		{regexp.MustCompile(`\bma[ñn]ana\b`), 1},
		{regexp.MustCompile(`\bhoy\b`), 0},
	}
	longDateRe = regexp.MustCompile(`\b(?:el\s+)?(\d{1,2})\s+de\s+([a-záéíóúñ]+)(?:\s+de\s+(\d{4}))?\b`)
	dayOnlyRe  = regexp.MustCompile(`\bel\s+(\d{1,2})\b`)

	fillers = map[string]bool{"de": true, "en": true, "para": true, "por": true}
)

var monthsByName = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

// Parse extracts, in order, the kind keyword, the amount, a date phrase,
// a category and the description. The date defaults to today and the
// category to core.FallbackCategory. Errors wrap ErrUsage.
func Parse(transcript string, today core.Date) (Draft, error) {
	text := strings.Join(strings.Fields(strings.ToLower(transcript)), " ")

	var d Draft
	switch {
	case strings.HasPrefix(text, string(core.Income)):
		d.Kind = core.Income
	case strings.HasPrefix(text, string(core.Expense)):
		d.Kind = core.Expense
	default:
		return Draft{}, fmt.Errorf("%w. %w", ErrMissingKind, ErrUsage)
	}
	// "gastos 20" is still an expense.
	rest := strings.TrimLeftFunc(text[len(d.Kind):], unicode.IsLetter)

	loc := amountRe.FindStringIndex(rest)
	if loc == nil {
		return Draft{}, fmt.Errorf("%w. %w", ErrMissingAmount, ErrUsage)
	}
	cents, err := core.ParseDecimalToCents(rest[loc[0]:loc[1]])
	if err != nil {
		return Draft{}, fmt.Errorf("%w. %w", ErrInvalidAmount, ErrUsage)
	}
	d.Amount = core.Money{Cents: cents}
	rest = rest[:loc[0]] + " " + rest[loc[1]:]

	d.Date, rest = extractDate(rest, today)
	d.Category, rest = extractCategory(rest, d.Kind)
	d.Description = cleanDescription(rest)
	if d.Description == "" {
		d.Description = d.Kind.Label() + " Voz"
	}
	return d, nil
}

// extractDate applies the date phrases in precedence order. A phrase that
// names an impossible date is skipped and left in the text.
func extractDate(text string, today core.Date) (core.Date, string) {
	for _, rd := range relativeDates {
		if loc := rd.re.FindStringIndex(text); loc != nil {
			return today.AddDays(rd.days), cut(text, loc)
		}
	}

	if m := longDateRe.FindStringSubmatchIndex(text); m != nil {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, known := monthsByName[text[m[4]:m[5]]]
		year := today.Year()
		if m[6] >= 0 {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		if known {
			if date, err := core.ParseDate(fmt.Sprintf("%d-%d-%d", year, month, day)); err == nil {
				return date, cut(text, m[:2])
			}
		}
	}

	if m := dayOnlyRe.FindStringSubmatchIndex(text); m != nil {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		if date, err := core.ParseDate(fmt.Sprintf("%d-%d-%d", today.Year(), today.Month(), day)); err == nil {
			return date, cut(text, m[:2])
		}
	}

	return today, text
}

func cut(text string, loc []int) string {
	return text[:loc[0]] + " " + text[loc[1]:]
}

// extractCategory looks for the first suggested category of the kind that
// appears as a whole word, ignoring accents.
func extractCategory(text string, kind core.Kind) (string, string) {
	words := strings.Fields(text)
	for _, cat := range core.Categories(kind) {
		want := fold(cat)
		for i, w := range words {
			if fold(trimPunct(w)) == want {
				words = append(words[:i], words[i+1:]...)
				return cat, strings.Join(words, " ")
			}
		}
	}
	return core.FallbackCategory, text
}

func cleanDescription(text string) string {
	words := strings.Fields(text)
	for i := range words {
		words[i] = trimPunct(words[i])
	}
	words = dropEmpty(words)
	for len(words) > 0 && fillers[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && fillers[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func dropEmpty(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func trimPunct(w string) string {
	return strings.TrimFunc(w, unicode.IsPunct)
}

// fold lower-cases s and strips combining accents. Transformers keep
// state, so a fresh chain is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
