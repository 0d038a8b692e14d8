package session

import (
	"math"
	"strconv"
	"strings"

	"bitbucket.org/skilr/backend/models"
)

// CalculateVAT returns base × rate / 100. The result stays unrounded;
// only FormatAmount rounds, so repeated checkout attempts never
// accumulate rounding error in the stored base amount.
func CalculateVAT(base float64, rate float64) float64 {
	return base * rate / 100
}

func CalculateTotal(base float64, vat float64, fee float64) float64 {
	return base + vat + fee
}

// Summarize builds the checkout draft for a base amount using the
// session's fixed transaction fee. Pure: the caller validates the base
// amount before invoking.
func Summarize(base float64, vatRate float64, fee float64) models.CheckoutSummary {
	vat := CalculateVAT(base, vatRate)
	return models.CheckoutSummary{
		BaseAmount:     base,
		VATRate:        vatRate,
		VAT:            vat,
		TransactionFee: fee,
		Total:          CalculateTotal(base, vat, fee),
	}
}

// ToMinorUnits converts a major-unit amount to kobo for the checkout
// widget, which only accepts integer minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// FormatAmount renders an amount for display: comma-grouped with two
// decimals, e.g. 5723 -> "5,723.00".
func FormatAmount(amount float64) string {
	formatted := strconv.FormatFloat(amount, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign = "-"
		formatted = formatted[1:]
	}

	parts := strings.SplitN(formatted, ".", 2)
	integer := parts[0]

	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	return sign + grouped.String() + "." + parts[1]
}
