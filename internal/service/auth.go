package service

import (
	"context"
	"fmt"
	"strings"

	"rifas/internal/auth"
	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/repository"
)

type AuthService struct {
	repos  *repository.Repositories
	tokens *auth.TokenService
}

func NewAuthService(repos *repository.Repositories, tokens *auth.TokenService) *AuthService {
	return &AuthService{repos: repos, tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, tenantID string, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, tenantID, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveUser
	}

	blocked, err := s.repos.Blocked.IsBlocked(ctx, tenantID, user.ID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check block list: %w", err)
	}
	if blocked {
		return nil, apperrors.ErrInactiveUser
	}

	return s.issue(user)
}

// Register creates a player and signs them in
func (s *AuthService) Register(ctx context.Context, tenantID string, req *models.RegisterRequest) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repos.Users.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		TenantID:      tenantID,
		Email:         email,
		Name:          strings.TrimSpace(req.Name),
		Phone:         req.Phone,
		PasswordHash:  hash,
		Role:          models.RolePlayer,
		IsActive:      true,
		WhatsappOptIn: req.WhatsappOptIn.Bool(),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx).Info("User registered", "user_id", user.ID, "tenant_id", tenantID)
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.MeResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, actor.TenantID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveUser
	}

	return &models.MeResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		TenantID: user.TenantID,
	}, nil
}

// ValidateToken exposes the token check to the auth middleware
func (s *AuthService) ValidateToken(token string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(token)
}

func (s *AuthService) issue(user *models.User) (*models.TokenResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.TenantID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}
