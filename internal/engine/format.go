package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vizille/dashboard/internal/actions"
)

// Placeholder is shown for absent amounts and years.
const Placeholder = "—"

// Formatter renders amounts and counts for one locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// DefaultFormatter formats for French, the dashboard's locale.
var DefaultFormatter = NewFormatter(language.French)

// Budget formats an amount in euros:
//
//	>= 1 000 000  "2,5 M€"  (one decimal, locale separator)
//	>= 1 000      "45 k€"   (rounded thousands)
//	> 0           "500 €"   (locale number)
//	otherwise     "—"
func (f *Formatter) Budget(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return f.p.Sprintf("%.1f M€", amount/1_000_000)
	case amount >= 1_000:
		return strconv.FormatFloat(math.Floor(amount/1_000+0.5), 'f', 0, 64) + " k€"
	case amount > 0:
		return f.p.Sprint(number.Decimal(amount, number.MaxFractionDigits(3))) + " €"
	}
	return Placeholder
}

// Count formats an integer with the locale's digit grouping.
func (f *Formatter) Count(n int) string {
	return f.p.Sprintf("%d", n)
}

// FormatBudget formats with DefaultFormatter.
func FormatBudget(amount float64) string { return DefaultFormatter.Budget(amount) }

// FormatYears renders the year span of a: "2021 → 2024" for multi-year
// actions, the single year otherwise, Placeholder when unknown.
func FormatYears(a *actions.Action) string {
	if a.Year != "" && a.EndYear != "" && a.Year != a.EndYear {
		return fmt.Sprintf("%s → %s", a.Year, a.EndYear)
	}
	if a.Year == "" {
		return Placeholder
	}
	return string(a.Year)
}

// AdjustColor shifts each channel of a "#rrggbb" color by delta, clamped
// to [0, 255]. Malformed input is returned unchanged.
func AdjustColor(hex string, delta int) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return hex
	}
	var out [3]int
	for i := range out {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return hex
		}
		out[i] = min(255, max(0, int(v)+delta))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}
