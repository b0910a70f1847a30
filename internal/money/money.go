// Package money formats integer minor-unit amounts.
package money

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders cents in one currency.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// New returns a Formatter for an ISO 4217 code such as "USD".
func New(code string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(language.English)}, nil
}

// Code returns the ISO code.
func (f *Formatter) Code() string { return f.unit.String() }

// Format renders cents like "$1,234.50".
func (f *Formatter) Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	amt := f.unit.Amount(float64(cents) / 100)
	s := f.printer.Sprint(currency.NarrowSymbol(amt))
	return sign + strings.Replace(s, " ", "", 1)
}

var usd = mustNew("USD")

func mustNew(code string) *Formatter {
	f, err := New(code)
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders cents in US dollars.
func Format(cents int64) string { return usd.Format(cents) }
