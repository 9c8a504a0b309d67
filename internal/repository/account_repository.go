package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AccountStore is the write side for accounts, plus the owner lookups account
// creation needs inside the same transaction.
type AccountStore interface {
	WithTx(ctx context.Context, fn func(tx AccountStore) error) error
	GetAccountHolder(ctx context.Context, id int64) (*models.AccountHolder, error)
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id int64) (models.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance models.Money, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, status models.AccountStatus, at time.Time) error
	Delete(ctx context.Context, id int64) (primaryOwnerID int64, secondaryOwnerID *int64, err error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// AccountWriteRepository keeps every account variant in one accounts table,
// discriminated by account_type. Variant columns are NULL where unused.
type AccountWriteRepository struct {
	db *sql.DB
	q  querier
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db, q: db}
}

// WithTx runs fn against a repository bound to a single transaction. Nested
// calls reuse the outer transaction.
func (r *AccountWriteRepository) WithTx(ctx context.Context, fn func(tx AccountStore) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Internal("failed to begin transaction", err)
	}
	if err := fn(&AccountWriteRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.Internal("failed to commit transaction", err)
	}
	return nil
}

func (r *AccountWriteRepository) GetAccountHolder(ctx context.Context, id int64) (*models.AccountHolder, error) {
	return getAccountHolder(ctx, r.q, id)
}

// terms_currency denominates the penalty fee, minimum balance, maintenance fee
// and credit limit. It is fixed when the account opens; a balance override may
// move balance_currency away from it.
const accountColumns = `id, account_type, primary_owner_id, secondary_owner_id,
	balance_amount, balance_currency, penalty_fee, terms_currency, status, secret_key,
	minimum_balance, monthly_maintenance_fee, interest_rate, credit_limit,
	created_at, updated_at`

func (r *AccountWriteRepository) Create(ctx context.Context, account models.Account) error {
	query := `
		INSERT INTO accounts (account_type, primary_owner_id, secondary_owner_id,
			balance_amount, balance_currency, penalty_fee, terms_currency, status, secret_key,
			minimum_balance, monthly_maintenance_fee, interest_rate, credit_limit,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	base := account.Details()
	var minBalance, fee, rate, limit decimal.NullDecimal
	switch acc := account.(type) {
	case *models.Checking:
		minBalance = validDecimal(acc.MinimumBalance.Amount)
		fee = validDecimal(acc.MonthlyMaintenanceFee.Amount)
	case *models.Savings:
		minBalance = validDecimal(acc.MinimumBalance.Amount)
		rate = validDecimal(acc.InterestRate)
	case *models.CreditCard:
		limit = validDecimal(acc.CreditLimit.Amount)
		rate = validDecimal(acc.InterestRate)
	}

	err := r.q.QueryRowContext(ctx, query,
		string(account.Type()), base.PrimaryOwnerID, nullInt64(base.SecondaryOwnerID),
		base.Balance.Amount, base.Balance.Currency, base.PenaltyFee.Amount, base.PenaltyFee.Currency,
		string(base.Status),
		nullString(models.SecretKeyOf(account)),
		minBalance, fee, rate, limit,
		base.CreatedAt, base.UpdatedAt,
	).Scan(&base.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return apperror.NotFound("account owner not found")
		}
		return apperror.Internal("failed to create account", err)
	}
	return nil
}

func (r *AccountWriteRepository) GetByID(ctx context.Context, id int64) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("account %d not found", id)
	}
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("failed to get account %d", id), err)
	}
	return account, nil
}

func (r *AccountWriteRepository) UpdateBalance(ctx context.Context, id int64, balance models.Money, at time.Time) error {
	query := `
		UPDATE accounts
		SET balance_amount = $2, balance_currency = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, balance.Amount, balance.Currency, at)
	if err != nil {
		return apperror.Internal("failed to update balance", err)
	}
	return expectOneRow(result, id)
}

func (r *AccountWriteRepository) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus, at time.Time) error {
	query := `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return apperror.Internal("failed to update status", err)
	}
	return expectOneRow(result, id)
}

// Delete removes the row for good and returns the owners it referenced.
func (r *AccountWriteRepository) Delete(ctx context.Context, id int64) (int64, *int64, error) {
	query := `DELETE FROM accounts WHERE id = $1 RETURNING primary_owner_id, secondary_owner_id`
	var primary int64
	var secondary sql.NullInt64
	err := r.q.QueryRowContext(ctx, query, id).Scan(&primary, &secondary)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, apperror.NotFound("account %d not found", id)
	}
	if err != nil {
		return 0, nil, apperror.Internal("failed to delete account", err)
	}
	if secondary.Valid {
		return primary, &secondary.Int64, nil
	}
	return primary, nil, nil
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		base                models.AccountBase
		accountType, status string
		currency, terms     string
		secondary           sql.NullInt64
		amount, penalty     decimal.Decimal
		secretKey           sql.NullString
		minBalance, fee     decimal.NullDecimal
		rate, limit         decimal.NullDecimal
	)
	if err := row.Scan(
		&base.ID, &accountType, &base.PrimaryOwnerID, &secondary,
		&amount, &currency, &penalty, &terms, &status, &secretKey,
		&minBalance, &fee, &rate, &limit,
		&base.CreatedAt, &base.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if secondary.Valid {
		base.SecondaryOwnerID = &secondary.Int64
	}
	base.Balance = models.NewMoney(amount, currency)
	base.PenaltyFee = models.NewMoney(penalty, terms)
	base.Status = models.AccountStatus(status)

	switch models.AccountType(accountType) {
	case models.AccountTypeChecking:
		return &models.Checking{
			AccountBase:           base,
			SecretKey:             secretKey.String,
			MinimumBalance:        models.NewMoney(minBalance.Decimal, terms),
			MonthlyMaintenanceFee: models.NewMoney(fee.Decimal, terms),
		}, nil
	case models.AccountTypeStudentChecking:
		return &models.StudentChecking{AccountBase: base, SecretKey: secretKey.String}, nil
	case models.AccountTypeSavings:
		return &models.Savings{
			AccountBase:    base,
			SecretKey:      secretKey.String,
			MinimumBalance: models.NewMoney(minBalance.Decimal, terms),
			InterestRate:   rate.Decimal,
		}, nil
	case models.AccountTypeCreditCard:
		return &models.CreditCard{
			AccountBase:  base,
			SecretKey:    secretKey.String,
			CreditLimit:  models.NewMoney(limit.Decimal, terms),
			InterestRate: rate.Decimal,
		}, nil
	default:
		return nil, fmt.Errorf("unknown account type %q", accountType)
	}
}

func expectOneRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Internal("failed to check rows affected", err)
	}
	if rows == 0 {
		return apperror.NotFound("account %d not found", id)
	}
	return nil
}

func validDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
