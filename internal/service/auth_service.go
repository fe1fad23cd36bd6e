package service

import (
	"context"
	"errors"
	"time"

	"tenant-onboarding-backend/internal/dto"
	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/repository"
	"tenant-onboarding-backend/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAgentExists        = errors.New("agent already exists")
)

type AuthService struct {
	agentRepo  *repository.AgentRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(agentRepo *repository.AgentRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		agentRepo:  agentRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	// Check if agent exists
	existing, _ := s.agentRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrAgentExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	agent := &models.Agent{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(agent)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	agent, err := s.agentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(req.Password, agent.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.buildAuthResponse(agent)
}

func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error) {
	agentID, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	id, err := uuid.Parse(agentID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	agent, err := s.agentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAgentNotFound
	}

	return s.buildAuthResponse(agent)
}

func (s *AuthService) buildAuthResponse(agent *models.Agent) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(agent.ID.String(), agent.FullName, agent.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(agent.ID.String())
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		Agent: dto.AgentResponse{
			ID:       agent.ID.String(),
			FullName: agent.FullName,
			Email:    agent.Email,
		},
	}, nil
}
