package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/utils"
)

// IdentityResolver turns an opaque credential into a user id.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, credential string) (int, bool)
}

type AuthService interface {
	IdentityResolver
	SignIn(ctx context.Context, creds models.Credentials) (string, *models.User, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) SignIn(ctx context.Context, creds models.Credentials) (string, *models.User, error) {
	if creds.Username == "" || creds.Password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	user.PasswordHash = ""
	return token, user, nil
}

// ResolveUserID accepts "Bearer <jwt>" as well as the bare token.
func (s *authService) ResolveUserID(_ context.Context, credential string) (int, bool) {
	token := strings.TrimSpace(credential)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return 0, false
	}
	id, err := utils.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return 0, false
	}
	return id, true
}
