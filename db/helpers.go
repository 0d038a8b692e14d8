package db

import (
	"fmt"
	"time"
)

// GenerateCheckoutReference builds the unique per-attempt reference
// handed to the checkout widget. Time-based so retries after a failed
// attempt never reuse a reference.
func GenerateCheckoutReference(accountID int) string {
	return fmt.Sprintf("SKILR-%d-%d", accountID, time.Now().UnixNano())
}

func nowDateString() string {
	return time.Now().Format(ConstLayoutDate)
}
