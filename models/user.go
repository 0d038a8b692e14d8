package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

// Account statuses as stored in the account row. An empty status or
// "Unconfirmed" keeps the dashboard behind the pending-approval gate.
const (
	AccountStatusUnconfirmed = "Unconfirmed"
	AccountStatusActive      = "Active"
)

type SignUpOpts struct {
	Firstname       string `json:"firstname"`
	Lastname        string `json:"lastname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

var SignUpRules = govalidator.MapData{
	"firstname":        []string{"required"},
	"lastname":         []string{"required"},
	"email":            []string{"required", "email"},
	"phone":            []string{"required"},
	"password":         []string{"required", "min:6"},
	"confirm_password": []string{"required"},
}

type UpdateProfileOpts struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
}

var UpdateProfileRules = govalidator.MapData{
	"firstname": []string{"required"},
	"lastname":  []string{"required"},
	"phone":     []string{"required"},
}

type ChangePasswordOpts struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

var ChangePasswordRules = govalidator.MapData{
	"current_password": []string{"required"},
	"new_password":     []string{"required", "min:6"},
	"confirm_password": []string{"required"},
}

type InfoUser struct {
	ID    int
	Email string
	Roles []int
	Read  bool

	IsAdmin  bool
	IsClient bool
}

// Account is the profile snapshot mirrored into the dashboard: contact
// fields, the approval status flag and the uncleared-amount balance.
type Account struct {
	ID        int     `json:"id,omitempty"`
	Firstname string  `json:"firstname,omitempty"`
	Lastname  string  `json:"lastname,omitempty"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Password  string  `json:"-"`
	Status    string  `json:"status"`
	Uncleared float64 `json:"uncleared_amount"`

	Created time.Time `json:"created,omitempty"`
	Updated time.Time `json:"updated,omitempty"`
	Active  bool      `json:"active"`

	Token         string `json:"token,omitempty"`
	RememberToken string `json:"-"`
	Roles         []Role `json:"roles,omitempty"`
}

// PendingApproval reports whether the account is still behind the
// approval gate. Both the zero value and an explicit "Unconfirmed"
// flag block the dashboard.
func (account *Account) PendingApproval() bool {
	return account.Status == "" || account.Status == AccountStatusUnconfirmed
}

func (account *Account) HasRole(roleID int) bool {
	for _, role := range account.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

type Role struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}
