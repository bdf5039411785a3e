package service

import (
	"context"
	"strings"

	"homebroker/config"
	"homebroker/internal/auth"
	"homebroker/internal/domain"
	"homebroker/internal/models"
	"homebroker/internal/repository"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("role must be BUYER or SELLER")
	ErrUserNotFound = errors.New("user not found")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// Register creates a credentials account and returns it with an access
// token. Admins are only ever seeded, never registered.
func (s *AuthService) Register(ctx context.Context, email, name, password, role string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = domain.RoleBuyer
	}
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		return nil, "", ErrInvalidRole
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}
	u := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", err
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", errors.Wrap(err, "sign access token")
	}
	return u, access, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if u.PasswordHash == "" {
		return nil, "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", errors.Wrap(err, "sign access token")
	}
	return u, access, nil
}

// Me returns the account behind a session.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
