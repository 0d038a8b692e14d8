package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

// Payment record lifecycle. A record is written as Pending before the
// checkout widget is opened and moves exactly once to Completed or Failed.
const (
	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
	PaymentStatusFailed    = "Failed"
)

type Payment struct {
	ID        int     `json:"id,omitempty"`
	AccountID int     `json:"account_id,omitempty"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Reference string  `json:"reference,omitempty"`

	// Date is the legacy yyyy-mm-dd string kept for records created
	// before the server timestamp existed. Ordering falls back to it
	// when Created is absent.
	Date    string     `json:"date,omitempty"`
	Created *time.Time `json:"created,omitempty"`
	Updated *time.Time `json:"updated,omitempty"`
}

// Terminal reports whether the record already reached Completed or Failed.
func (payment *Payment) Terminal() bool {
	return payment.Status == PaymentStatusCompleted || payment.Status == PaymentStatusFailed
}

type PaymentsStruct struct {
	Payments []Payment `json:"payments"`
	Total    int       `json:"total"`
}

// CheckoutSummary is the ephemeral checkout draft shown between amount
// entry and widget handoff. Amounts stay unrounded; formatting happens
// at display time only.
type CheckoutSummary struct {
	BaseAmount     float64 `json:"base_amount"`
	VATRate        float64 `json:"vat_rate"`
	VAT            float64 `json:"vat"`
	TransactionFee float64 `json:"transaction_fee"`
	Total          float64 `json:"total"`
}

type StartCheckoutOpts struct {
	Amount float64 `json:"amount"`
}

var StartCheckoutRules = govalidator.MapData{
	"amount": []string{"required", "float"},
}

type GetPaymentsOpts struct {
	Statuses  []string `schema:"status"`
	LimitFrom int      `schema:"limit_from"`
	LimitTo   int      `schema:"limit_to"`
}

var GetPaymentsRules = govalidator.MapData{
	"status":     []string{"array_string"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric"},
}

// CheckoutOutcomeOpts is posted back by the client when the hosted
// widget resolves. Success carries the processor's reference.
type CheckoutOutcomeOpts struct {
	Reference string `json:"reference"`
}

var CheckoutOutcomeRules = govalidator.MapData{
	"reference": []string{"required"},
}

type PaymentReceiptHTML struct {
	ID        int
	Firstname string
	Lastname  string
	Amount    string
	Reference string
	Date      string
	Image     string
}
