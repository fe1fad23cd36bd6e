package repository

import (
	"context"

	"tenant-onboarding-backend/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type QuotationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewQuotationRepository(db *pgxpool.Pool, logger *zap.Logger) *QuotationRepository {
	return &QuotationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *QuotationRepository) Create(ctx context.Context, q *models.Quotation) error {
	query := squirrel.Insert("quotations").
		Columns("id", "tenant_name", "property_name", "annual_rent", "expected_cheque_count", "payment_method", "created_at", "updated_at").
		Values(q.ID, q.TenantName, q.PropertyName, q.AnnualRent, q.ExpectedChequeCount, q.PaymentMethod, q.CreatedAt, q.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	query := squirrel.Select("id", "tenant_name", "property_name", "annual_rent", "expected_cheque_count", "payment_method", "created_at", "updated_at").
		From("quotations").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var q models.Quotation
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&q.ID, &q.TenantName, &q.PropertyName, &q.AnnualRent, &q.ExpectedChequeCount, &q.PaymentMethod, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &q, nil
}
