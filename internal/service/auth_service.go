package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/jwt"
	"github.com/xxxsen/griffin/internal/pkg/password"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type AuthService struct {
	users         *repo.UserRepo
	jwtSecret     []byte
	jwtTTL        time.Duration
	disableSignup bool
}

type UpdateMeInput struct {
	Name        *string
	OldPassword string
	NewPassword string
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration, disableSignup bool) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, disableSignup: disableSignup}
}

func (s *AuthService) Signup(ctx context.Context, email, plainPassword, name string) (*model.User, string, error) {
	if s.disableSignup {
		return nil, "", appErr.ErrForbidden
	}
	email = normalizeEmail(email)
	if !validEmail(email) || password.Validate(plainPassword) != nil {
		return nil, "", appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if !password.Match(user.PasswordHash, plainPassword) {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateMe(ctx context.Context, userID string, input UpdateMeInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	if input.NewPassword != "" {
		if password.Validate(input.NewPassword) != nil {
			return nil, appErr.ErrInvalid
		}
		if !password.Match(user.PasswordHash, input.OldPassword) {
			return nil, appErr.ErrForbidden
		}
		hash, err := password.Hash(input.NewPassword)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePassword(ctx, userID, hash, now); err != nil {
			return nil, err
		}
	}
	if input.Name != nil {
		if err := s.users.UpdateName(ctx, userID, strings.TrimSpace(*input.Name), now); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
