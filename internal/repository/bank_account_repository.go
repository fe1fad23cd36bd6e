package repository

import (
	"context"

	"tenant-onboarding-backend/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BankAccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBankAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *BankAccountRepository {
	return &BankAccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BankAccountRepository) Create(ctx context.Context, acc *models.BankAccount) error {
	query := squirrel.Insert("bank_accounts").
		Columns("id", "bank_name", "account_name", "account_number", "is_primary", "created_at").
		Values(acc.ID, acc.BankName, acc.AccountName, acc.AccountNumber, acc.IsPrimary, acc.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *BankAccountRepository) List(ctx context.Context) ([]*models.BankAccount, error) {
	query := squirrel.Select("id", "bank_name", "account_name", "account_number", "is_primary", "created_at").
		From("bank_accounts").
		OrderBy("is_primary DESC", "bank_name ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.BankAccount
	for rows.Next() {
		var acc models.BankAccount
		if err := rows.Scan(
			&acc.ID, &acc.BankName, &acc.AccountName, &acc.AccountNumber, &acc.IsPrimary, &acc.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, &acc)
	}

	return accounts, nil
}

func (r *BankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error) {
	query := squirrel.Select("id", "bank_name", "account_name", "account_number", "is_primary", "created_at").
		From("bank_accounts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var acc models.BankAccount
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&acc.ID, &acc.BankName, &acc.AccountName, &acc.AccountNumber, &acc.IsPrimary, &acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &acc, nil
}
