package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateVAT(t *testing.T) {
	assert.Equal(t, 200.0, CalculateVAT(5000, 4))
	assert.Equal(t, 0.0, CalculateVAT(5000, 0))
	assert.Equal(t, 4.0, CalculateVAT(100, 4))
}

func TestSummarize(t *testing.T) {
	summary := Summarize(5000, 4, 523)

	assert.Equal(t, 5000.0, summary.BaseAmount)
	assert.Equal(t, 4.0, summary.VATRate)
	assert.Equal(t, 200.0, summary.VAT)
	assert.Equal(t, 523.0, summary.TransactionFee)
	assert.Equal(t, 5723.0, summary.Total)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(572300), ToMinorUnits(5723))
	assert.Equal(t, int64(10050), ToMinorUnits(100.50))
	// Float noise rounds instead of truncating.
	assert.Equal(t, int64(1010), ToMinorUnits(10.1))
	assert.Equal(t, 5723.0, FromMinorUnits(572300))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5,723.00", FormatAmount(5723))
	assert.Equal(t, "100.00", FormatAmount(100))
	assert.Equal(t, "1,234,567.50", FormatAmount(1234567.5))
	assert.Equal(t, "999.99", FormatAmount(999.99))
	assert.Equal(t, "-5,723.00", FormatAmount(-5723))
}
