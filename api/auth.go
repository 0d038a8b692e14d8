package api

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/helpers"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/models"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/thedevsaddam/govalidator"
)

func SignUp(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.SignUpOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.SignUpRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	if opts.Password != opts.ConfirmPassword {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "The passwords do not match. Please try again.")
		return
	}

	emailCounter, err := ctx.DB.CountAccountsByEmail(opts.Email)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if emailCounter > 0 {
		w.WriteJSON(http.StatusBadRequest, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeEmailInUse))
		return
	}

	newPassword, err := helpers.HashPassword(opts.Password)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}
	opts.Password = newPassword

	accountID, err := ctx.DB.InsertAccount(&opts)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	account := models.Account{
		ID:        accountID,
		Firstname: opts.Firstname,
		Lastname:  opts.Lastname,
		Email:     opts.Email,
		Phone:     opts.Phone,
		Status:    models.AccountStatusUnconfirmed,
		Active:    true,
		Roles:     []models.Role{{ID: 2, Name: "client"}},
	}

	account.Token, err = helpers.GenerateToken(&account, ctx.Config.JWTSecret)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if err := ctx.Logins.SetLoginTime(r.Context(), account.ID, time.Now(), ctx.Config.Session.MaxAge()); err != nil {
		w.LogError(err, "failed storing login time")
	}

	w.WriteJSON(http.StatusOK, account, nil, "")
}

func Login(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.LoginOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.LoginRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	account, err := ctx.DB.GetAccountLoginByEmail(opts.Email)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account == nil {
		w.WriteJSON(http.StatusNotFound, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeUserNotFound))
		return
	}

	if !helpers.AuthenticateHashedPassword(account.Password, opts.Password) {
		w.WriteJSON(http.StatusUnauthorized, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeInvalidCredential))
		return
	}

	account.Token, err = helpers.GenerateToken(account, ctx.Config.JWTSecret)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if err := ctx.Logins.SetLoginTime(r.Context(), account.ID, time.Now(), ctx.Config.Session.MaxAge()); err != nil {
		w.LogError(err, "failed storing login time")
	}

	w.WriteJSON(http.StatusOK, account, nil, "")
}

func Logout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if err := ctx.Logins.ClearLoginTime(r.Context(), userInfo.ID); err != nil {
		w.LogError(err, "failed clearing login time")
	}

	ctx.Sessions.Remove(userInfo.ID)

	w.WriteJSON(http.StatusNoContent, nil, nil, "")
}

func SendPasswordReset(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.SendPasswordResetOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.SendPasswordResetRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	account, err := ctx.DB.GetAccountLoginByEmail(opts.Email)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account == nil {
		w.WriteJSON(http.StatusBadRequest, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeUserNotFound))
		return
	}

	code, err := uuid.NewUUID()
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}
	err = ctx.DB.UpdateAccountRememberToken(account.ID, code.String())
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	go func(ctx *config.AppContext, account *models.Account, code string) {
		ed := &helpers.EmailData{
			EmailTo:      account.Email,
			NameTo:       account.Firstname,
			EmailFrom:    ctx.Config.Mail.EmailFrom,
			NameFrom:     ctx.Config.Mail.NameFrom,
			Subject:      ctx.Config.Mail.PasswordRecover.Subject,
			TemplatePath: fmt.Sprintf("%s%s/%s", ctx.Config.Mail.Folder, ctx.Config.Mail.Path, ctx.Config.Mail.PasswordRecover.Template),
			SMTP:         ctx.SMTP,
		}

		err = ed.SendEmail(map[string]interface{}{
			"Firstname": account.Firstname,
			"Lastname":  account.Lastname,
			"Code":      code,
		})
		if err != nil {
			w.LogError(err, "failed sending email")
			return
		}
		w.LogInfo(nil, "success sending email")
	}(ctx, account, code.String())

	w.WriteJSON(http.StatusNoContent, nil, nil, "")
}

func ConfirmPasswordReset(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	var opts models.ConfirmPasswordResetOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.ConfirmPasswordResetRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	account, err := ctx.DB.GetAccountByRememberToken(opts.Code)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account == nil {
		w.WriteJSON(http.StatusBadRequest, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeInvalidCredential))
		return
	}

	password, err := helpers.HashPassword(opts.Password)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	err = ctx.DB.UpdateAccountPassword(account.ID, password)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusNoContent, nil, nil, "")
}

func ChangePassword(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.GetRequestLanguage(r)

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	var opts models.ChangePasswordOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.ChangePasswordRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	if opts.NewPassword != opts.ConfirmPassword {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "The passwords do not match. Please try again.")
		return
	}

	account, err := ctx.DB.GetAccountLoginByEmail(userInfo.Email)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if account == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.AccountNotFound)
		return
	}

	if !helpers.AuthenticateHashedPassword(account.Password, opts.CurrentPassword) {
		w.WriteJSON(http.StatusUnauthorized, nil, nil, middlewares.AuthErrorMessage(middlewares.AuthCodeWrongPassword))
		return
	}

	password, err := helpers.HashPassword(opts.NewPassword)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	err = ctx.DB.UpdateAccountPassword(account.ID, password)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusNoContent, nil, nil, "")
}
