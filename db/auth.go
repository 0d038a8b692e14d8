package db

import (
	"database/sql"

	"bitbucket.org/skilr/backend/models"
)

type AuthStorage interface {
	GetAccountLoginByEmail(string) (*models.Account, error)
	GetAccountByRememberToken(string) (*models.Account, error)
	UpdateAccountRememberToken(int, string) error
}

const (
	getAccountLoginByEmail = `
	SELECT
		account.id,
		account.firstname,
		account.lastname,
		account.email,
		account.phone,
		account.password,
		account.status,
		account.uncleared_amount,
		account.created,
		account.updated,
		account.active,
		COALESCE(CONCAT('[',GROUP_CONCAT(JSON_OBJECT('id', role.id, 'name', role.name)),']'), '[]')
	FROM account
	INNER JOIN pivot_role_account ON (pivot_role_account.account_id = account.id)
	INNER JOIN role ON (role.id = pivot_role_account.role_id AND role.active = 1)
	WHERE account.email IN (:email)
	AND account.active = 1
	GROUP BY account.id
	`

	getAccountByRememberToken = `
	SELECT
		account.id,
		account.email
	FROM account
	WHERE account.active = 1
	AND account.remember_token = :remember_token
	`

	updateAccountRememberToken = `
	UPDATE
		account
	SET
		remember_token = :token
	WHERE
		id = :account_id
	`
)

func (db *DB) GetAccountLoginByEmail(email string) (*models.Account, error) {
	stmt, err := db.PrepareNamed(getAccountLoginByEmail)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"email": email,
	}

	row := stmt.QueryRow(args)

	var account models.Account
	var status sql.NullString
	var rolesBytes []byte

	if err := row.Scan(
		&account.ID,
		&account.Firstname,
		&account.Lastname,
		&account.Email,
		&account.Phone,
		&account.Password,
		&status,
		&account.Uncleared,
		&account.Created,
		&account.Updated,
		&account.Active,
		&rolesBytes,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	account.Status = status.String

	if err := scanAccountRoles(rolesBytes, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (db *DB) GetAccountByRememberToken(token string) (*models.Account, error) {
	stmt, err := db.PrepareNamed(getAccountByRememberToken)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"remember_token": token,
	}

	row := stmt.QueryRow(args)

	var account models.Account

	if err := row.Scan(
		&account.ID,
		&account.Email,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (db *DB) UpdateAccountRememberToken(accountID int, token string) error {
	stmt, err := db.PrepareNamed(updateAccountRememberToken)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"token":      token,
		"account_id": accountID,
	}

	_, err = stmt.Exec(args)
	if err != nil {
		return err
	}

	return nil
}
