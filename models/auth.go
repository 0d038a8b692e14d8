package models

import (
	"github.com/thedevsaddam/govalidator"
)

type LoginOpts struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SendPasswordResetOpts struct {
	Email string `json:"email"`
}

type ConfirmPasswordResetOpts struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

var LoginRules = govalidator.MapData{
	"email":    []string{"required", "email"},
	"password": []string{"required"},
}

var SendPasswordResetRules = govalidator.MapData{
	"email": []string{"required", "email"},
}

var ConfirmPasswordResetRules = govalidator.MapData{
	"code":     []string{"required"},
	"password": []string{"required", "min:6"},
}
