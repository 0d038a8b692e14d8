package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bitbucket.org/skilr/backend/broker"
	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/helpers"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/models"
	"bitbucket.org/skilr/backend/session"
	"github.com/gorilla/schema"
	"github.com/lithammer/shortuuid/v3"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/thedevsaddam/govalidator"
)

// sessionPayload is the dashboard's view of the payment session.
type sessionPayload struct {
	State          string                  `json:"state"`
	TransactionFee float64                 `json:"transaction_fee"`
	Draft          *models.CheckoutSummary `json:"draft,omitempty"`
}

func newSessionPayload(sess *session.Session) *sessionPayload {
	return &sessionPayload{
		State:          sess.State().String(),
		TransactionFee: sess.Fee(),
		Draft:          sess.Draft(),
	}
}

// approvedSession loads the caller's account, enforces the approval
// gate and returns the account's payment session.
func approvedSession(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) (*models.Account, *session.Session, bool) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	account, err := ctx.DB.GetAccountByID(userInfo.ID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return nil, nil, false
	}

	if account == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.AccountNotFound)
		return nil, nil, false
	}

	if account.PendingApproval() {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.PendingApproval)
		return nil, nil, false
	}

	return account, ctx.Sessions.Get(*account), true
}

func GetPaymentSession(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	_, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

func EnterAmount(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.StartCheckoutOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.StartCheckoutRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	_, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	if err := sess.EnterAmount(opts.Amount); err != nil {
		writeSessionError(w, err)
		return
	}

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

func ContinueCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	_, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	summary, err := sess.Continue()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.WriteJSON(http.StatusOK, summary, nil, "")
}

func BackToAmount(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	_, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	if err := sess.Back(); err != nil {
		writeSessionError(w, err)
		return
	}

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

func ConfirmCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	account, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	handoff, err := sess.Confirm()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	go publishLifecycleEvent(ctx, w, broker.EventPaymentCreated, handoff.Reference, account.ID)

	w.WriteJSON(http.StatusOK, handoff, nil, "")
}

// CheckoutSuccess is posted by the client when the hosted widget reports
// success. The outcome is verified against the processor before the
// session moves: the client's word alone never completes a payment.
func CheckoutSuccess(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.CheckoutOutcomeOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.CheckoutOutcomeRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	account, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	// The reference must belong to the attempt in flight. A settled
	// reference from some other invocation must not complete this
	// attempt's Pending record, so nothing is verified until the
	// binding holds.
	if opts.Reference != sess.Attempt() {
		w.Write(http.StatusConflict, nil, nil, middlewares.Responses.ReferenceMismatch)
		return
	}

	verification, err := ctx.Paystack.VerifyTransaction(opts.Reference)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if !verification.Succeeded() {
		// The processor disagrees with the client; resolve the attempt
		// the way a closed widget does.
		if err := sess.HandleClose(); err != nil {
			writeSessionError(w, err)
			return
		}
		w.Write(http.StatusConflict, newSessionPayload(sess), nil, middlewares.Responses.PaymentNotCompleted)
		return
	}

	if draft := sess.Draft(); draft != nil && verification.Data.Amount != session.ToMinorUnits(draft.Total) {
		// Settled, but not for this attempt's total. Treat it like a
		// failed widget rather than credit the wrong amount.
		if err := sess.HandleClose(); err != nil {
			writeSessionError(w, err)
			return
		}
		w.Write(http.StatusConflict, newSessionPayload(sess), nil, middlewares.Responses.PaymentNotCompleted)
		return
	}

	if err := sess.HandleSuccess(verification.Data.Reference); err != nil {
		writeSessionError(w, err)
		return
	}

	go publishLifecycleEvent(ctx, w, broker.EventPaymentCompleted, verification.Data.Reference, account.ID)
	go sendReceipt(ctx, w, account, verification.Data.Reference)

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

// CheckoutClosed is posted when the widget closes without a success
// callback. User cancel and widget failure land here alike.
func CheckoutClosed(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	account, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	reference := sess.Attempt()

	if err := sess.HandleClose(); err != nil {
		writeSessionError(w, err)
		return
	}

	go publishLifecycleEvent(ctx, w, broker.EventPaymentFailed, reference, account.ID)

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

func AcknowledgeOutcome(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	_, sess, ok := approvedSession(ctx, w, r)
	if !ok {
		return
	}

	if err := sess.Acknowledge(); err != nil {
		writeSessionError(w, err)
		return
	}

	w.WriteJSON(http.StatusOK, newSessionPayload(sess), nil, "")
}

func GetPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetPaymentsRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	var opts models.GetPaymentsOpts
	decoder := schema.NewDecoder()
	decoder.Decode(&opts, r.URL.Query())

	payments, err := ctx.DB.GetPayments(userInfo.ID, &opts)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusOK, payments, nil, "")
}

// StreamPayments pushes the caller's payment list over server-sent
// events. Every message carries the full list, newest first, so the
// client replaces rather than merges.
func StreamPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		w.Write(http.StatusInternalServerError, nil, errors.New("streaming unsupported"), middlewares.Responses.InternalServerError)
		return
	}

	snapshots, cancel, err := ctx.Payments.Subscribe(userInfo.ID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}
	defer cancel()

	w.Writer.Header().Set("Content-Type", "text/event-stream")
	w.Writer.Header().Set("Cache-Control", "no-cache")
	w.Writer.Header().Set("Connection", "keep-alive")
	w.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payments, open := <-snapshots:
			if !open {
				return
			}
			body, err := json.Marshal(payments)
			if err != nil {
				w.LogError(err, "failed encoding payments snapshot")
				continue
			}
			fmt.Fprintf(w.Writer, "event: payments\ndata: %s\n\n", body)
			flusher.Flush()
		}
	}
}

func writeSessionError(w *middlewares.ResponseWriter, err error) {
	switch errors.Cause(err) {
	case session.ErrInvalidAmount:
		w.Write(http.StatusBadRequest, nil, nil, middlewares.Responses.AmountOutOfBounds)
	case session.ErrAttemptInFlight:
		w.Write(http.StatusConflict, nil, nil, middlewares.Responses.CheckoutInFlight)
	case session.ErrNoAttempt:
		w.Write(http.StatusConflict, nil, nil, middlewares.Responses.NoCheckoutAttempt)
	case session.ErrReferenceMismatch:
		w.Write(http.StatusConflict, nil, nil, middlewares.Responses.ReferenceMismatch)
	case session.ErrInvalidState:
		w.WriteJSON(http.StatusConflict, nil, err, "invalid session state")
	default:
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
	}
}

func publishLifecycleEvent(ctx *config.AppContext, w *middlewares.ResponseWriter, eventType string, reference string, accountID int) {
	payment, err := ctx.DB.GetPaymentByReference(reference)
	if err != nil {
		w.LogError(err, "failed loading payment for event")
		return
	}

	event := broker.PaymentEvent{
		Type:      eventType,
		AccountID: accountID,
		Reference: reference,
	}
	if payment != nil {
		event.PaymentID = payment.ID
		event.Amount = payment.Amount
	}

	ctx.Events.PublishPaymentEvent(event)
}

// sendReceipt renders the receipt PDF, stores it on S3 and mails it.
// Runs detached from the request; any failure is logged and the payment
// outcome stands.
func sendReceipt(ctx *config.AppContext, w *middlewares.ResponseWriter, account *models.Account, reference string) {
	payment, err := ctx.DB.GetPaymentByReference(reference)
	if err != nil {
		w.LogError(err, "failed loading payment for receipt")
		return
	}
	if payment == nil {
		w.LogError(nil, "payment not found for receipt")
		return
	}

	amount := session.FormatAmount(payment.Amount)

	buffer, err := helpers.GenerateReceiptPDF(account, payment, amount)
	if err != nil {
		w.LogError(err, "failed generating receipt pdf")
		return
	}

	path := fmt.Sprintf("%s/%s.pdf", ctx.Config.AwsS3.S3PathReceipt, shortuuid.New())
	receiptURL, err := helpers.AddFileToS3(ctx, buffer, path)
	if err != nil {
		w.LogError(err, "failed uploading receipt")
		return
	}

	ed := &helpers.EmailData{
		EmailTo:      account.Email,
		NameTo:       account.Firstname,
		EmailFrom:    ctx.Config.Mail.EmailFrom,
		NameFrom:     ctx.Config.Mail.NameFrom,
		Subject:      ctx.Config.Mail.PaymentSuccess.Subject,
		TemplatePath: fmt.Sprintf("%s%s/%s", ctx.Config.Mail.Folder, ctx.Config.Mail.Path, ctx.Config.Mail.PaymentSuccess.Template),
		FileName:     ctx.Config.Mail.PaymentSuccess.FileName,
		FileContent:  buffer.Bytes(),
		SMTP:         ctx.SMTP,
	}

	err = ed.SendEmail(map[string]interface{}{
		"Firstname": account.Firstname,
		"Lastname":  account.Lastname,
		"Amount":    amount,
		"Reference": payment.Reference,
		"Receipt":   receiptURL,
	})
	if err != nil {
		w.LogError(err, "failed sending receipt email")
		return
	}
	w.LogInfo(nil, "success sending receipt email")
}
