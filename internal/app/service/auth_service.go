package service

import (
	"context"
	"errors"
	"fmt"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/platform/identity"
)

type AuthService struct {
	userRepo repository.UserRepository
	sessions *identity.Provider
}

func NewAuthService(userRepo repository.UserRepository, sessions *identity.Provider) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User    *model.User       `json:"user"`
	Session *identity.Session `json:"session"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, err
	}

	session, err := s.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// account without a user document
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &AuthResponse{User: user, Session: session}, nil
}
