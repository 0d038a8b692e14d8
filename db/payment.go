package db

import (
	"database/sql"
	"fmt"
	"strings"

	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
)

type PaymentStorage interface {
	InsertPendingPayment(accountID int, amount float64, reference string) (int, error)
	UpdatePaymentStatus(paymentID int, status string, finalReference string) error
	GetPaymentByID(paymentID int) (*models.Payment, error)
	GetPaymentByReference(reference string) (*models.Payment, error)
	GetPaymentsByAccount(accountID int) ([]models.Payment, error)
	GetPayments(accountID int, opts *models.GetPaymentsOpts) (*models.PaymentsStruct, error)
}

const (
	insertPendingPayment = `
	INSERT
		payment
	SET
		account_id = :account_id,
		amount = :amount,
		status = :status,
		reference = :reference,
		date = :date,
		created = current_timestamp()
	`

	updatePaymentStatus = `
	UPDATE
		payment
	SET
		status = :status,
		reference = COALESCE(:reference, reference),
		updated = current_timestamp()
	WHERE
		id = :payment_id AND
		status = :pending
	`

	paymentColumns = `
		payment.id,
		payment.account_id,
		payment.amount,
		payment.status,
		payment.reference,
		payment.date,
		payment.created,
		payment.updated
	`

	getPaymentByID = `
	SELECT
		` + paymentColumns + `
	FROM
		payment
	WHERE
		payment.id = :payment_id
	`

	getPaymentByReference = `
	SELECT
		` + paymentColumns + `
	FROM
		payment
	WHERE
		payment.reference = :reference
	`

	// Newest first. Records written before the server timestamp existed
	// only carry the date string, so ordering falls back to it.
	getPaymentsByAccount = `
	SELECT
		` + paymentColumns + `
	FROM
		payment
	WHERE
		payment.account_id = :account_id
	ORDER BY
		COALESCE(payment.created, STR_TO_DATE(payment.date, '%Y-%m-%d')) DESC,
		payment.id DESC
	`

	getPayments = `
	SELECT
		` + paymentColumns + `
	FROM
		payment
	WHERE
		payment.account_id = :account_id
		#FILTERS#
	ORDER BY
		COALESCE(payment.created, STR_TO_DATE(payment.date, '%Y-%m-%d')) DESC,
		payment.id DESC
	LIMIT :limit_to OFFSET :limit_from
	`

	countPayments = `
	SELECT
		COUNT(id)
	FROM
		payment
	WHERE
		payment.account_id = :account_id
		#FILTERS#
	`
)

func (db *DB) InsertPendingPayment(accountID int, amount float64, reference string) (int, error) {
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

	id, newErr := db.insertPendingPaymentTx(tx, accountID, amount, reference)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return id, nil
}

func (db *DB) insertPendingPaymentTx(tx Tx, accountID int, amount float64, reference string) (int, error) {
	stmt, err := tx.PrepareNamed(insertPendingPayment)
	if err != nil {
		return 0, err
	}

	args := map[string]interface{}{
		"account_id": accountID,
		"amount":     amount,
		"status":     models.PaymentStatusPending,
		"reference":  reference,
		"date":       nowDateString(),
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if int(rowsAffected) != 1 {
		return 0, errors.Errorf("expected %d and inserted %d", 1, rowsAffected)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

// UpdatePaymentStatus moves a Pending record to its terminal status. The
// WHERE guard keeps the transition one-way: a record already Completed or
// Failed is never rewritten.
func (db *DB) UpdatePaymentStatus(paymentID int, status string, finalReference string) error {
	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	err = db.updatePaymentStatusTx(tx, paymentID, status, finalReference)
	if err != nil {
		return err
	}

	return nil
}

func (db *DB) updatePaymentStatusTx(tx Tx, paymentID int, status string, finalReference string) error {
	stmt, err := tx.PrepareNamed(updatePaymentStatus)
	if err != nil {
		return err
	}

	var reference interface{}
	if finalReference != "" {
		reference = finalReference
	}

	args := map[string]interface{}{
		"payment_id": paymentID,
		"status":     status,
		"reference":  reference,
		"pending":    models.PaymentStatusPending,
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

func (db *DB) GetPaymentByID(paymentID int) (*models.Payment, error) {
	return db.getPayment(getPaymentByID, map[string]interface{}{
		"payment_id": paymentID,
	})
}

func (db *DB) GetPaymentByReference(reference string) (*models.Payment, error) {
	return db.getPayment(getPaymentByReference, map[string]interface{}{
		"reference": reference,
	})
}

func (db *DB) getPayment(query string, args map[string]interface{}) (*models.Payment, error) {
	stmt, err := db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	var date sql.NullString
	var reference sql.NullString
	var created sql.NullTime
	var updated sql.NullTime

	row := stmt.QueryRow(args)
	if err := row.Scan(
		&payment.ID,
		&payment.AccountID,
		&payment.Amount,
		&payment.Status,
		&reference,
		&date,
		&created,
		&updated,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	payment.Reference = reference.String
	payment.Date = date.String
	if created.Valid {
		payment.Created = &created.Time
	}
	if updated.Valid {
		payment.Updated = &updated.Time
	}

	return &payment, nil
}

func (db *DB) GetPaymentsByAccount(accountID int) ([]models.Payment, error) {
	stmt, err := db.PrepareNamed(getPaymentsByAccount)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"account_id": accountID,
	}

	rows, err := stmt.Query(args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var payment models.Payment
		var date sql.NullString
		var reference sql.NullString
		var created sql.NullTime
		var updated sql.NullTime

		if err := rows.Scan(
			&payment.ID,
			&payment.AccountID,
			&payment.Amount,
			&payment.Status,
			&reference,
			&date,
			&created,
			&updated,
		); err != nil {
			return nil, err
		}

		payment.Reference = reference.String
		payment.Date = date.String
		if created.Valid {
			payment.Created = &created.Time
		}
		if updated.Valid {
			payment.Updated = &updated.Time
		}

		payments = append(payments, payment)
	}

	return payments, nil
}

func (db *DB) GetPayments(accountID int, opts *models.GetPaymentsOpts) (*models.PaymentsStruct, error) {
	var filters []string
	args := map[string]interface{}{
		"account_id": accountID,
	}

	if len(opts.Statuses) > 0 {
		var params []string
		for i, status := range opts.Statuses {
			param := fmt.Sprintf("status_%d", i)
			params = append(params, ":"+param)
			args[param] = status
		}
		filters = append(filters, fmt.Sprintf("payment.status IN (%s)", strings.Join(params, ",")))
	}

	filter := ""
	if len(filters) > 0 {
		filter = "AND " + strings.Join(filters, " AND ")
	}

	limitTo := opts.LimitTo
	if limitTo <= 0 {
		limitTo = 100
	}
	args["limit_from"] = opts.LimitFrom
	args["limit_to"] = limitTo

	stmt, err := db.PrepareNamed(strings.Replace(getPayments, "#FILTERS#", filter, 1))
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var payment models.Payment
		var date sql.NullString
		var reference sql.NullString
		var created sql.NullTime
		var updated sql.NullTime

		if err := rows.Scan(
			&payment.ID,
			&payment.AccountID,
			&payment.Amount,
			&payment.Status,
			&reference,
			&date,
			&created,
			&updated,
		); err != nil {
			return nil, err
		}

		payment.Reference = reference.String
		payment.Date = date.String
		if created.Valid {
			payment.Created = &created.Time
		}
		if updated.Valid {
			payment.Updated = &updated.Time
		}

		payments = append(payments, payment)
	}

	countStmt, err := db.PrepareNamed(strings.Replace(countPayments, "#FILTERS#", filter, 1))
	if err != nil {
		return nil, err
	}

	var total int
	if err := countStmt.QueryRow(args).Scan(&total); err != nil {
		return nil, err
	}

	return &models.PaymentsStruct{
		Payments: payments,
		Total:    total,
	}, nil
}
