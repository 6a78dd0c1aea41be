package shared

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	amountPrinter = message.NewPrinter(language.English)
	titleCaser    = cases.Title(language.English)
)

// FormatAmount renders a peso amount with grouping, e.g. "₱45,000.00".
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return amountPrinter.Sprintf("₱%v", number.Decimal(f,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// StatusLabel renders a status value for display, e.g. "bank_transfer"
// becomes "Bank Transfer".
func StatusLabel(status string) string {
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

// FormatDate renders a date for display, e.g. "Jan 02, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02, 2006")
}

// FormatDateTime renders a timestamp for display.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02, 2006 15:04")
}
