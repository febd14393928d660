package server

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yptox/Twitter-2/internal/engagement"
)

// langParam selects the number locale of a view, ahead of Accept-Language.
const langParam = "lang"

var displayLocales = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
})

// printerFor picks the locale used to render numbers for r.
func printerFor(r *http.Request) *message.Printer {
	tag, _ := language.MatchStrings(displayLocales,
		strings.TrimSpace(r.URL.Query().Get(langParam)),
		r.Header.Get("Accept-Language"),
	)
	return message.NewPrinter(tag)
}

// formatPoints floors an EP amount and groups its digits: 10000.9 is
// "10,000" in American English.
func formatPoints(p *message.Printer, v float64) string {
	return p.Sprintf("%d", engagement.Display(v))
}

func formatCount(p *message.Printer, n int) string {
	return p.Sprintf("%d", n)
}
