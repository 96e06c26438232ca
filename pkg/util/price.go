package util

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PriceFormatter renders integer amounts with locale digit grouping followed by
// a currency suffix.
type PriceFormatter struct {
	printer   *message.Printer
	currency  string
	freeLabel string
}

// NewPriceFormatter builds a formatter for locale (BCP 47, e.g. "fa-IR").
// Unparseable locales fall back to English.
func NewPriceFormatter(locale, currency, freeLabel string) *PriceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &PriceFormatter{
		printer:   message.NewPrinter(tag),
		currency:  currency,
		freeLabel: freeLabel,
	}
}

// Format renders amount, e.g. "1,250,000 Toman".
func (f *PriceFormatter) Format(amount int64) string {
	s := f.printer.Sprintf("%d", amount)
	if f.currency == "" {
		return s
	}
	return s + " " + f.currency
}

// FormatShipping renders a zero fee as the free-shipping label when one is set.
func (f *PriceFormatter) FormatShipping(fee int64) string {
	if fee == 0 && f.freeLabel != "" {
		return f.freeLabel
	}
	return f.Format(fee)
}
