package db

import (
	"database/sql"
	"encoding/json"

	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
)

type AccountStorage interface {
	InsertAccount(opts *models.SignUpOpts) (int, error)
	GetAccountByID(accountID int) (*models.Account, error)
	CountAccountsByEmail(email string) (int, error)
	UpdateProfile(accountID int, opts *models.UpdateProfileOpts) error
	UpdateAccountPassword(accountID int, password string) error
	ReduceUnclearedAmount(accountID int, amount float64) error
}

const (
	insertAccount = `
	INSERT
		account
	SET
		firstname = :firstname,
		lastname = :lastname,
		email = :email,
		phone = :phone,
		password = :password,
		status = :status,
		uncleared_amount = 0,
		active = 1
	`

	insertAccountRole = `
	INSERT
		pivot_role_account
	SET
		account_id = :account_id,
		role_id = :role_id
	`

	getAccountByID = `
	SELECT
		account.id,
		account.firstname,
		account.lastname,
		account.email,
		account.phone,
		account.status,
		account.uncleared_amount,
		account.created,
		account.updated,
		account.active
	FROM
		account
	WHERE
		account.active = 1 AND
		account.id = :account_id
	`

	countAccountsByEmail = `
	SELECT
		COUNT(id)
	FROM
		account
	WHERE
		account.email = :email
	`

	updateProfile = `
	UPDATE
		account
	SET
		firstname = :firstname,
		lastname = :lastname,
		phone = :phone,
		updated = current_timestamp()
	WHERE
		id = :account_id
	`

	updateAccountPassword = `
	UPDATE
		account
	SET
		password = :password,
		remember_token = NULL,
		updated = current_timestamp()
	WHERE
		id = :account_id
	`

	reduceUnclearedAmount = `
	UPDATE
		account
	SET
		uncleared_amount = GREATEST(uncleared_amount - :amount, 0),
		updated = current_timestamp()
	WHERE
		id = :account_id
	`
)

func (db *DB) InsertAccount(opts *models.SignUpOpts) (int, error) {
	tx, err := db.NewTx()
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	id, newErr := db.insertAccountTx(tx, opts)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return id, nil
}

func (db *DB) insertAccountTx(tx Tx, opts *models.SignUpOpts) (int, error) {
	stmt, err := tx.PrepareNamed(insertAccount)
	if err != nil {
		return 0, err
	}

	args := map[string]interface{}{
		"firstname": opts.Firstname,
		"lastname":  opts.Lastname,
		"email":     opts.Email,
		"phone":     opts.Phone,
		"password":  opts.Password,
		"status":    models.AccountStatusUnconfirmed,
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	roleStmt, err := tx.PrepareNamed(insertAccountRole)
	if err != nil {
		return 0, err
	}

	if _, err := roleStmt.Exec(map[string]interface{}{
		"account_id": id,
		"role_id":    ConstRoles.Client,
	}); err != nil {
		return 0, err
	}

	return int(id), nil
}

func (db *DB) GetAccountByID(accountID int) (*models.Account, error) {
	stmt, err := db.PrepareNamed(getAccountByID)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"account_id": accountID,
	}

	var account models.Account
	var status sql.NullString

	row := stmt.QueryRow(args)
	if err := row.Scan(
		&account.ID,
		&account.Firstname,
		&account.Lastname,
		&account.Email,
		&account.Phone,
		&status,
		&account.Uncleared,
		&account.Created,
		&account.Updated,
		&account.Active,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	account.Status = status.String

	return &account, nil
}

func (db *DB) CountAccountsByEmail(email string) (int, error) {
	stmt, err := db.PrepareNamed(countAccountsByEmail)
	if err != nil {
		return 0, err
	}

	var counter int
	if err := stmt.QueryRow(map[string]interface{}{"email": email}).Scan(&counter); err != nil {
		return 0, err
	}

	return counter, nil
}

func (db *DB) UpdateProfile(accountID int, opts *models.UpdateProfileOpts) error {
	stmt, err := db.PrepareNamed(updateProfile)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"account_id": accountID,
		"firstname":  opts.Firstname,
		"lastname":   opts.Lastname,
		"phone":      opts.Phone,
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if int(rowsAffected) != 1 {
		return errors.Errorf("expected %d and updated %d", 1, rowsAffected)
	}

	return nil
}

func (db *DB) UpdateAccountPassword(accountID int, password string) error {
	stmt, err := db.PrepareNamed(updateAccountPassword)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"account_id": accountID,
		"password":   password,
	}

	if _, err := stmt.Exec(args); err != nil {
		return err
	}

	return nil
}

// ReduceUnclearedAmount applies the balance reduction after a completed
// payment. Clamped at zero so a stale balance never goes negative.
func (db *DB) ReduceUnclearedAmount(accountID int, amount float64) error {
	stmt, err := db.PrepareNamed(reduceUnclearedAmount)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"account_id": accountID,
		"amount":     amount,
	}

	if _, err := stmt.Exec(args); err != nil {
		return err
	}

	return nil
}

func scanAccountRoles(rolesBytes []byte, account *models.Account) error {
	var roles []models.Role
	if err := json.Unmarshal(rolesBytes, &roles); err != nil {
		return err
	}
	account.Roles = roles
	return nil
}
