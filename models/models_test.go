package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingApproval(t *testing.T) {
	assert.True(t, (&Account{}).PendingApproval())
	assert.True(t, (&Account{Status: AccountStatusUnconfirmed}).PendingApproval())
	assert.False(t, (&Account{Status: AccountStatusActive}).PendingApproval())
}

func TestPaymentTerminal(t *testing.T) {
	assert.False(t, (&Payment{Status: PaymentStatusPending}).Terminal())
	assert.True(t, (&Payment{Status: PaymentStatusCompleted}).Terminal())
	assert.True(t, (&Payment{Status: PaymentStatusFailed}).Terminal())
}

func TestEventDisplayDate(t *testing.T) {
	event := Event{EventDate: "2026-03-14", EventTime: "10:00"}
	assert.Equal(t, "2026-03-14 at 10:00", event.DisplayDate())

	event.EventTime = ""
	assert.Equal(t, "2026-03-14", event.DisplayDate())

	event.EventDate = ""
	assert.Equal(t, "Date TBA", event.DisplayDate())
}
