package i18n

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var regions = map[string]language.Tag{
	"en": language.MustParse("en-IN"),
	"hi": language.MustParse("hi-IN"),
	"ta": language.MustParse("ta-IN"),
}

var dateLayouts = map[string]string{
	"en": "02 Jan 2006",
	"hi": "02/01/2006",
	"ta": "02-01-2006",
}

func printer(lang string) *message.Printer {
	tag, ok := regions[lang]
	if !ok {
		tag = regions[DefaultLanguage]
	}
	return message.NewPrinter(tag)
}

// FormatNumber groups digits the Indian way (12,34,567).
func FormatNumber(lang string, v float64) string {
	return printer(lang).Sprint(number.Decimal(v))
}

// FormatCurrency renders an INR amount with two decimals.
func FormatCurrency(lang string, amount decimal.Decimal) string {
	p := printer(lang)
	return p.Sprint(currency.Symbol(currency.INR)) +
		p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

func FormatDate(lang string, t time.Time) string {
	layout, ok := dateLayouts[lang]
	if !ok {
		layout = dateLayouts[DefaultLanguage]
	}
	return t.Format(layout)
}
