package api

import (
	"net/http"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/middlewares"
)

func GetAnnouncements(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	announcements, err := ctx.DB.GetVisibleAnnouncements(announcementLimit)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusOK, announcements, nil, "")
}
