package customers

import (
	"context"
	"errors"
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
	"github.com/angelmondragon/foodhaul-backend/pkg/geo"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/notify"
	"github.com/angelmondragon/foodhaul-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer, columns ...string) error
}

// Service handles customer accounts: sign-up, login, OTP verification and the profile.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Verify(ctx context.Context, principal auth.Principal, otp string) (*AuthResult, error)
	RequestOTP(ctx context.Context, principal auth.Principal) error
	Profile(ctx context.Context, principal auth.Principal) (*models.Customer, error)
	UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.Customer, error)
}

// ServiceParams bundles the account service dependencies.
type ServiceParams struct {
	Repo     customerRepository
	Hasher   *security.Hasher
	Notifier notify.Notifier
	JWT      config.JWTConfig
	OTP      config.OTPConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     customerRepository
	hasher   *security.Hasher
	notifier notify.Notifier
	jwt      config.JWTConfig
	otp      config.OTPConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		hasher:   params.Hasher,
		notifier: params.Notifier,
		jwt:      params.JWT,
		otp:      params.OTP,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a customer exists with this email")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	otp, err := security.GenerateOTP(s.otp.Length, s.otp.TTL, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	customer := &models.Customer{
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		OTP:          otp.Code,
		OTPExpiry:    &otp.ExpiresAt,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "ux_customers_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a customer exists with this email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	s.sendOTP(ctx, customer)
	return s.issue(customer)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	ok, err := s.hasher.Verify(password, customer.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(customer)
}

// Verify accepts the OTP while it is unexpired and marks the account verified.
func (s *service) Verify(ctx context.Context, principal auth.Principal, otp string) (*AuthResult, error) {
	customer, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !security.CheckOTP(strings.TrimSpace(otp), customer.OTP, customer.OTPExpiry, s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp invalid or expired")
	}
	customer.Verified = true
	customer.OTP = ""
	customer.OTPExpiry = nil
	if err := s.update(ctx, customer, "verified", "otp", "otp_expiry"); err != nil {
		return nil, err
	}
	return s.issue(customer)
}

func (s *service) RequestOTP(ctx context.Context, principal auth.Principal) error {
	customer, err := s.Profile(ctx, principal)
	if err != nil {
		return err
	}
	otp, err := security.GenerateOTP(s.otp.Length, s.otp.TTL, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	customer.OTP = otp.Code
	customer.OTPExpiry = &otp.ExpiresAt
	if err := s.update(ctx, customer, "otp", "otp_expiry"); err != nil {
		return err
	}
	s.sendOTP(ctx, customer)
	return nil
}

func (s *service) Profile(ctx context.Context, principal auth.Principal) (*models.Customer, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	customer, err := s.repo.FindByID(ctx, principal.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.Customer, error) {
	customer, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	var columns []string
	if input.FirstName != nil {
		customer.FirstName = strings.TrimSpace(*input.FirstName)
		columns = append(columns, "first_name")
	}
	if input.LastName != nil {
		customer.LastName = strings.TrimSpace(*input.LastName)
		columns = append(columns, "last_name")
	}
	if input.Address != nil {
		customer.Address = strings.TrimSpace(*input.Address)
		columns = append(columns, "address")
	}
	if input.Lat != nil || input.Lng != nil {
		point, ok := geo.FromNullable(input.Lat, input.Lng)
		if !ok || !point.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be given together and be in range")
		}
		customer.Lat, customer.Lng = &point.Lat, &point.Lng
		columns = append(columns, "lat", "lng")
	}
	if len(columns) == 0 {
		return customer, nil
	}
	if err := s.update(ctx, customer, columns...); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) issue(customer *models.Customer) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.TokenPayload{
		Principal: auth.Principal{ID: customer.ID, Role: enums.RoleCustomer, Email: customer.Email},
		Verified:  customer.Verified,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &AuthResult{Token: token, Verified: customer.Verified, Email: customer.Email}, nil
}

// sendOTP never fails the request; the customer can ask for a new code.
func (s *service) sendOTP(ctx context.Context, customer *models.Customer) {
	err := s.notifier.SendOTP(ctx, notify.OTPMessage{Phone: customer.Phone, Code: customer.OTP, Subject: string(enums.RoleCustomer)})
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "customer_id", customer.ID.String()), "otp dispatch failed: "+err.Error())
	}
}

func (s *service) update(ctx context.Context, customer *models.Customer, columns ...string) error {
	if err := s.repo.Update(ctx, customer, columns...); err != nil {
		if errors.Is(err, db.ErrStaleVersion) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "profile was modified concurrently, retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return nil
}
