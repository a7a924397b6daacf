package admins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type adminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// LoginResult is returned on successful admin login.
type LoginResult struct {
	Token string        `json:"token"`
	Admin *models.Admin `json:"admin"`
}

// Service covers back-office operator accounts.
type Service interface {
	Bootstrap(ctx context.Context, cfg config.AdminConfig) (bool, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// ServiceParams bundles the admin service dependencies.
type ServiceParams struct {
	Repo   adminRepository
	Hasher *security.Hasher
	JWT    config.JWTConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo   adminRepository
	hasher *security.Hasher
	jwt    config.JWTConfig
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, hasher: params.Hasher, jwt: params.JWT, logg: params.Logger, now: now}, nil
}

// Bootstrap creates the configured operator on first start. It reports whether a row was
// written; an unset email or an existing admin is a no-op.
func (s *service) Bootstrap(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapEmail))
	if email == "" {
		return false, nil
	}
	if cfg.BootstrapPassword == "" {
		return false, fmt.Errorf("admin bootstrap password required for %s", email)
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !db.IsNotFound(err) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.hasher.Hash(cfg.BootstrapPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.repo.Create(ctx, &models.Admin{Email: email, PasswordHash: hash}); err != nil {
		if db.IsUniqueViolation(err, "ux_admins_email") {
			// another replica won the race
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "email", email), "bootstrap admin created")
	}
	return true, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin")
	}
	ok, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	admin.LastLoginAt = &now

	token, err := auth.MintAccessToken(s.jwt, now, auth.TokenPayload{
		Principal: auth.Principal{ID: admin.ID, Role: enums.RoleAdmin, Email: admin.Email},
		Verified:  true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResult{Token: token, Admin: admin}, nil
}
