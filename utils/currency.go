package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupee formats an amount Indian style: 123456.5 -> "₹1,23,456.50"
func FormatRupee(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	// Pisahkan bagian integer dan desimal
	fixed := amount.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	integerPart, decimalPart := parts[0], parts[1]

	return sign + "₹" + groupIndian(integerPart) + "." + decimalPart
}

// groupIndian: last three digits, then groups of two (lakh/crore).
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// FormatAmount is FormatRupee without the symbol, used in legacy food-item text.
func FormatAmount(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixed(2)
}
