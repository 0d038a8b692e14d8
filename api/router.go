package api

import (
	"net/http"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler, IsProtected: false},

		// Auth
		{Path: "/auth/signup", Methods: []string{"POST", "HEAD"}, Handler: SignUp, IsProtected: false},
		{Path: "/auth/login", Methods: []string{"POST", "HEAD"}, Handler: Login, IsProtected: false},
		{Path: "/auth/logout", Methods: []string{"POST", "HEAD"}, Handler: Logout, IsProtected: true},
		{Path: "/auth/password/reset", Methods: []string{"POST", "HEAD"}, Handler: SendPasswordReset, IsProtected: false},
		{Path: "/auth/password/reset", Methods: []string{"PUT", "HEAD"}, Handler: ConfirmPasswordReset, IsProtected: false},
		{Path: "/auth/password", Methods: []string{"PUT", "HEAD"}, Handler: ChangePassword, IsProtected: true},

		// Profile
		{Path: "/profile", Methods: []string{"GET", "HEAD"}, Handler: GetProfile, IsProtected: true},
		{Path: "/profile", Methods: []string{"PUT", "HEAD"}, Handler: UpdateProfile, IsProtected: true},

		// Dashboard
		{Path: "/dashboard", Methods: []string{"GET", "HEAD"}, Handler: GetDashboard, IsProtected: true},

		// Payment session
		{Path: "/payments/session", Methods: []string{"GET", "HEAD"}, Handler: GetPaymentSession, IsProtected: true},
		{Path: "/payments/session/amount", Methods: []string{"POST", "HEAD"}, Handler: EnterAmount, IsProtected: true},
		{Path: "/payments/session/continue", Methods: []string{"POST", "HEAD"}, Handler: ContinueCheckout, IsProtected: true},
		{Path: "/payments/session/back", Methods: []string{"POST", "HEAD"}, Handler: BackToAmount, IsProtected: true},
		{Path: "/payments/session/confirm", Methods: []string{"POST", "HEAD"}, Handler: ConfirmCheckout, IsProtected: true},
		{Path: "/payments/session/acknowledge", Methods: []string{"POST", "HEAD"}, Handler: AcknowledgeOutcome, IsProtected: true},

		// Checkout callbacks relayed by the client
		{Path: "/payments/checkout/success", Methods: []string{"POST", "HEAD"}, Handler: CheckoutSuccess, IsProtected: true},
		{Path: "/payments/checkout/close", Methods: []string{"POST", "HEAD"}, Handler: CheckoutClosed, IsProtected: true},

		// Payment records
		{Path: "/payments", Methods: []string{"GET", "HEAD"}, Handler: GetPayments, IsProtected: true},
		{Path: "/payments/stream", Methods: []string{"GET", "HEAD"}, Handler: StreamPayments, IsProtected: true},

		// Feed
		{Path: "/announcements", Methods: []string{"GET", "HEAD"}, Handler: GetAnnouncements, IsProtected: true},
		{Path: "/events", Methods: []string{"GET", "HEAD"}, Handler: GetEvents, IsProtected: true},
	}
}
