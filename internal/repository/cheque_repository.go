package repository

import (
	"context"

	"tenant-onboarding-backend/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ChequeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChequeRepository(db *pgxpool.Pool, logger *zap.Logger) *ChequeRepository {
	return &ChequeRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all finalized cheques of one submission. Any previous
// rows for the quotation are replaced so a resubmitted step does not
// duplicate cheques.
func (r *ChequeRepository) CreateBatch(ctx context.Context, quotationID uuid.UUID, cheques []*models.ChequeDetail) error {
	if len(cheques) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	delQuery := squirrel.Delete("cheque_details").
		Where(squirrel.Eq{"quotation_id": quotationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := delQuery.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	builder := squirrel.Insert("cheque_details").
		Columns("id", "quotation_id", "bank_account_id", "bank_name", "cheque_number", "amount", "cheque_date", "status", "created_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, c := range cheques {
		builder = builder.Values(c.ID, c.QuotationID, c.BankAccountID, c.BankName, c.ChequeNumber, c.Amount, c.ChequeDate, c.Status, c.CreatedAt)
	}

	sql, args, err = builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChequeRepository) ListByQuotationID(ctx context.Context, quotationID uuid.UUID) ([]*models.ChequeDetail, error) {
	query := squirrel.Select("id", "quotation_id", "bank_account_id", "bank_name", "cheque_number", "amount", "cheque_date", "status", "created_at").
		From("cheque_details").
		Where(squirrel.Eq{"quotation_id": quotationID}).
		OrderBy("cheque_date ASC").
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

	var cheques []*models.ChequeDetail
	for rows.Next() {
		var c models.ChequeDetail
		if err := rows.Scan(
			&c.ID, &c.QuotationID, &c.BankAccountID, &c.BankName, &c.ChequeNumber, &c.Amount, &c.ChequeDate, &c.Status, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		cheques = append(cheques, &c)
	}

	return cheques, nil
}
