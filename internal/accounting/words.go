package accounting

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

var scaleWords = []string{"", "Thousand", "Million", "Billion"}

// AmountInWords spells out a peso amount for printing on check vouchers,
// e.g. "Forty-Five Thousand Pesos and 50/100 Only".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsNegative() {
		amount = amount.Abs()
	}
	pesos := amount.IntPart()
	centavos := amount.Sub(decimal.NewFromInt(pesos)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	if pesos == 0 {
		b.WriteString("Zero")
	} else {
		b.WriteString(spellInteger(pesos))
	}
	if pesos == 1 {
		b.WriteString(" Peso")
	} else {
		b.WriteString(" Pesos")
	}
	if centavos > 0 {
		b.WriteString(" and ")
		b.WriteString(decimal.NewFromInt(centavos).StringFixed(0))
		b.WriteString("/100")
	}
	b.WriteString(" Only")
	return b.String()
}

func spellInteger(n int64) string {
	if n == 0 {
		return ""
	}
	var groups []string
	scale := 0
	for n > 0 {
		group := n % 1000
		if group > 0 {
			part := spellHundreds(int(group))
			if scale > 0 && scale < len(scaleWords) {
				part += " " + scaleWords[scale]
			}
			groups = append([]string{part}, groups...)
		}
		n /= 1000
		scale++
	}
	return strings.Join(groups, " ")
}

func spellHundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		word := tensWords[n/10]
		if n%10 > 0 {
			word += "-" + onesWords[n%10]
		}
		parts = append(parts, word)
	case n > 0:
		parts = append(parts, onesWords[n])
	}
	return strings.Join(parts, " ")
}
