package repository

import (
	"context"

	"tenant-onboarding-backend/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AgentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAgentRepository(db *pgxpool.Pool, logger *zap.Logger) *AgentRepository {
	return &AgentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	query := squirrel.Insert("agents").
		Columns("id", "full_name", "email", "password", "created_at", "updated_at").
		Values(agent.ID, agent.FullName, agent.Email, agent.Password, agent.CreatedAt, agent.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AgentRepository) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	query := squirrel.Select("id", "full_name", "email", "password", "created_at", "updated_at").
		From("agents").
		Where(squirrel.Eq{"email": email}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var agent models.Agent
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&agent.ID, &agent.FullName, &agent.Email, &agent.Password, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &agent, nil
}

func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	query := squirrel.Select("id", "full_name", "email", "password", "created_at", "updated_at").
		From("agents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var agent models.Agent
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&agent.ID, &agent.FullName, &agent.Email, &agent.Password, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &agent, nil
}
