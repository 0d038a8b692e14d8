package api

import (
	"net/http"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/models"
	"github.com/mitchellh/mapstructure"
	"github.com/thedevsaddam/govalidator"
)

func GetProfile(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
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

	w.WriteJSON(http.StatusOK, account, nil, "")
}

func UpdateProfile(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	var opts models.UpdateProfileOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.UpdateProfileRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	err := ctx.DB.UpdateProfile(userInfo.ID, &opts)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	account, err := ctx.DB.GetAccountByID(userInfo.ID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account != nil {
		// Keep the payment session's contact snapshot in step with the
		// profile so the next checkout handoff carries fresh details.
		ctx.Sessions.Get(*account)
	}

	w.WriteJSON(http.StatusOK, account, nil, "")
}
