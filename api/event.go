package api

import (
	"net/http"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/middlewares"
)

func GetEvents(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	events, err := ctx.DB.GetVisibleEvents()
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusOK, events, nil, "")
}
