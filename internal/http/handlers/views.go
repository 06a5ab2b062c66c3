package handlers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"marketfront/internal/domain"
)

// NewViews loads the templates under dir with the helpers they use.
func NewViews(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("price", formatPrice)
	engine.AddFunc("date", func(t domain.Timestamp) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	})
	engine.AddFunc("statusLabel", statusLabel)
	engine.AddFunc("conditionLabel", conditionLabel)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	return engine
}

func formatPrice(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.String() + " €"
	}
	return d.StringFixed(2) + " €"
}

func statusLabel(s domain.ProductStatus) string {
	switch s {
	case domain.StatusOnSell:
		return "On sale"
	case domain.StatusReserved:
		return "Reserved"
	case domain.StatusSold:
		return "Sold"
	}
	return string(s)
}

// conditionLabel turns AS_GOOD_AS_NEW into "As good as new".
func conditionLabel(s string) string {
	label := strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == '_' }), " ")
	r, size := utf8.DecodeRuneInString(label)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + label[size:]
}
