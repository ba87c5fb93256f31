package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

const (
	uniqueViolationCode = "23505"
	numericOverflowCode = "22003"

	numberConstraint      = "accounts_number_key"
	holderTaxIDConstraint = "accounts_holder_tax_id_key"
)

const accountColumns = `id, number, branch_code, holder_name, holder_tax_id, opened_on, balance, active, kind, created_at, updated_at`

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (number, branch_code, holder_name, holder_tax_id, opened_on, balance, active, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		query,
		account.Number,
		account.BranchCode,
		account.HolderName,
		account.HolderTaxID,
		account.OpenedOn.Format(domain.DateLayout),
		account.Balance.StringFixed(domain.BalanceScale),
		account.Active,
		string(account.Kind),
		now,
		now,
	).Scan(&account.ID)

	if err != nil {
		code, constraint := sqlState(err)
		if code == numericOverflowCode {
			r.logger.Warn("Balance out of range", "number", account.Number, "balance", account.Balance)
			return errors.ErrBalanceLimitExceeded
		}
		if code == uniqueViolationCode {
			field := "number"
			if constraint == holderTaxIDConstraint {
				field = "holderTaxId"
			}
			r.logger.Warn("Duplicate account creation attempt", "number", account.Number, "constraint", constraint)
			return errors.Duplicate(field)
		}
		r.logger.Error("Failed to create account", "number", account.Number, "error", err)
		return errors.Internal("failed to create account", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created successfully", "account_id", account.ID)
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, errors.Internal("failed to list accounts", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, errors.Internal("failed to scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list accounts", err)
	}

	return accounts, nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)`, number)
}

func (r *accountRepository) ExistsByHolderTaxID(ctx context.Context, taxID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE holder_tax_id = $1)`, taxID)
}

func (r *accountRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account existence", "error", err)
		return false, errors.Internal("failed to check account existence", err)
	}
	return exists, nil
}

// SaveAccount updates the mutable fields of an existing account.
func (r *accountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, active = $2, updated_at = $3
		WHERE id = $4
	`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, account.Balance.StringFixed(domain.BalanceScale), account.Active, now, account.ID)
	if err != nil {
		if code, _ := sqlState(err); code == numericOverflowCode {
			r.logger.Warn("Balance out of range", "account_id", account.ID, "balance", account.Balance)
			return errors.ErrBalanceLimitExceeded
		}
		r.logger.Error("Failed to save account", "account_id", account.ID, "error", err)
		return errors.Internal("failed to save account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Internal("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to save", "account_id", account.ID)
		return errors.ErrAccountNotFound
	}

	account.UpdatedAt = now
	r.logger.Info("Account saved", "account_id", account.ID, "balance", account.Balance, "active", account.Active)
	return nil
}

func (r *accountRepository) scanAccount(ctx context.Context, query string, id int64) (*domain.Account, error) {
	account, err := scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_id", id)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, errors.Internal("failed to get account", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var balanceStr, kind string

	err := row.Scan(
		&account.ID,
		&account.Number,
		&account.BranchCode,
		&account.HolderName,
		&account.HolderTaxID,
		&account.OpenedOn,
		&balanceStr,
		&account.Active,
		&kind,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, err
	}

	account.Balance = balance
	account.Kind = domain.AccountKind(kind)
	return &account, nil
}

// sqlState extracts the SQLSTATE and constraint name from errors of both
// supported drivers.
func sqlState(err error) (code, constraint string) {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}

	return "", ""
}
