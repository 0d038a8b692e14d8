package api

import (
	"net/http"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/models"
	"github.com/mitchellh/mapstructure"
)

const announcementLimit = 10

type dashboardPayload struct {
	Account         *models.Account             `json:"account"`
	PendingApproval bool                        `json:"pending_approval"`
	Session         *sessionPayload             `json:"session,omitempty"`
	Announcements   *models.AnnouncementsStruct `json:"announcements,omitempty"`
	Events          *models.EventsStruct        `json:"events,omitempty"`
	Stats           *dashboardStats             `json:"stats,omitempty"`
}

type dashboardStats struct {
	PaymentsCompleted int     `json:"payments_completed"`
	TotalPaid         float64 `json:"total_paid"`
}

// GetDashboard returns everything the shell renders in one round trip.
// A pending account gets its profile and the approval notice only; the
// payment and feed content stays behind the gate.
func GetDashboard(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	account, err := ctx.DB.GetAccountByID(userInfo.ID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.AccountNotFound)
		return
	}

	payload := dashboardPayload{
		Account:         account,
		PendingApproval: account.PendingApproval(),
	}

	if payload.PendingApproval {
		w.WriteJSON(http.StatusOK, payload, nil, "")
		return
	}

	payload.Session = newSessionPayload(ctx.Sessions.Get(*account))

	payload.Announcements, err = ctx.DB.GetVisibleAnnouncements(announcementLimit)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	payload.Events, err = ctx.DB.GetVisibleEvents()
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	completed, err := ctx.DB.GetPayments(account.ID, &models.GetPaymentsOpts{
		Statuses: []string{models.PaymentStatusCompleted},
	})
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	stats := dashboardStats{PaymentsCompleted: completed.Total}
	for _, payment := range completed.Payments {
		stats.TotalPaid += payment.Amount
	}
	payload.Stats = &stats

	w.WriteJSON(http.StatusOK, payload, nil, "")
}
