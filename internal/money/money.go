// Package money formats amounts for alert messages, tables and reports.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency knows how to render amounts in one currency.
type Currency struct {
	Code    string
	unit    currency.Unit
	printer *message.Printer
	symbol  string
}

// symbolOverrides replaces x/text narrow symbols that read poorly.
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
}

// homeLocale is the formatting locale used for a currency code.
var homeLocale = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"GBP": language.BritishEnglish,
	"EUR": language.German,
	"SEK": language.Swedish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CAD": language.MustParse("en-CA"),
	"AUD": language.MustParse("en-AU"),
	"INR": language.MustParse("en-IN"),
	"JPY": language.Japanese,
	"BRL": language.BrazilianPortuguese,
	"MXN": language.LatinAmericanSpanish,
}

// prefixed lists currencies whose symbol precedes the amount.
var prefixed = map[string]bool{
	"USD": true, "GBP": true, "CAD": true, "AUD": true, "INR": true,
	"JPY": true, "MXN": true, "BRL": true,
}

// New returns the Currency for an ISO 4217 code. Unknown codes format with
// the code itself as the symbol and English number conventions.
func New(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}

	tag, ok := homeLocale[code]
	if !ok {
		tag = language.English
	}
	c := Currency{Code: code, printer: message.NewPrinter(tag)}

	unit, err := currency.ParseISO(code)
	switch {
	case err != nil:
		c.unit = currency.USD
		c.symbol = code
	case symbolOverrides[code] != "":
		c.unit = unit
		c.symbol = symbolOverrides[code]
	default:
		c.unit = unit
		c.symbol = c.printer.Sprint(currency.NarrowSymbol(unit))
	}
	return c
}

// Round returns amount rounded half away from zero to whole cents.
// Non-finite values are returned unchanged.
func Round(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}

// Format renders amount with two fraction digits and the currency symbol.
func (c Currency) Format(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return c.place("?")
	}
	formatted := c.printer.Sprint(number.Decimal(Round(amount),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	return c.place(formatted)
}

// Percent renders a percentage with no fraction digits, e.g. "90%".
func (c Currency) Percent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "?%"
	}
	return c.printer.Sprint(number.Decimal(math.Round(p), number.MaxFractionDigits(0))) + "%"
}

func (c Currency) place(amount string) string {
	if prefixed[c.Code] {
		if strings.HasPrefix(amount, "-") {
			return "-" + c.symbol + strings.TrimPrefix(amount, "-")
		}
		return c.symbol + amount
	}
	return amount + " " + c.symbol
}
