package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure"
	"tastyreply/reviews-service/internal/app/reviews/repository"
	"tastyreply/reviews-service/internal/app/reviews/util"
)

const DefaultStateTTL = 10 * time.Minute

// AuthService - вход через Google OAuth2 и выпуск JWT
type AuthService struct {
	provider   OAuthProvider
	userRepo   repository.UserRepository
	states     infrastructure.StateStore
	jwtManager *util.JWTManager
	stateTTL   time.Duration
}

func NewAuthService(
	provider OAuthProvider,
	userRepo repository.UserRepository,
	states infrastructure.StateStore,
	jwtManager *util.JWTManager,
	stateTTL time.Duration,
) *AuthService {
	if stateTTL <= 0 {
		stateTTL = DefaultStateTTL
	}
	return &AuthService{
		provider:   provider,
		userRepo:   userRepo,
		states:     states,
		jwtManager: jwtManager,
		stateTTL:   stateTTL,
	}
}

// LoginURL сохраняет одноразовый state и возвращает адрес consent-экрана
func (s *AuthService) LoginURL(ctx context.Context) (string, error) {
	state := util.GenerateState()
	if err := s.states.SaveState(ctx, state, s.stateTTL); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// HandleCallback завершает OAuth-вход
// 1. Проверяет и погашает state
// 2. Меняет код на токены, получает профиль
// 3. Создаёт или обновляет пользователя, выпускает JWT
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}
	ok, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		return "", fmt.Errorf("failed to check oauth state: %w", err)
	}
	if !ok {
		return "", ErrInvalidState
	}

	if code == "" {
		return "", fmt.Errorf("%w: authorization code is required", ErrValidation)
	}

	tokens, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange failed: %v", ErrUpstream, err)
	}

	profile, err := s.provider.FetchProfile(ctx, tokens)
	if err != nil {
		return "", fmt.Errorf("%w: profile fetch failed: %v", ErrUpstream, err)
	}

	user, err := s.userRepo.UpsertGoogleUser(ctx, &entity.User{
		GoogleID:     profile.ID,
		Email:        profile.Email,
		Name:         profile.Name,
		Picture:      profile.Picture,
		GoogleTokens: tokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}

	token, err := s.jwtManager.GenerateToken(user.ID.Hex(), user.GoogleID, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info().Str("user_id", user.ID.Hex()).Msg("User logged in with Google")
	return token, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
