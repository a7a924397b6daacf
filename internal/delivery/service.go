package delivery

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
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
	"github.com/angelmondragon/foodhaul-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service manages delivery partner accounts. Partners start unverified and unavailable; an
// admin verifies them and they opt in to the assignment pool with ChangeStatus.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, principal auth.Principal) (*models.DeliveryUser, error)
	UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.DeliveryUser, error)
	ChangeStatus(ctx context.Context, principal auth.Principal, input StatusInput) (*models.DeliveryUser, error)
	Orders(ctx context.Context, principal auth.Principal) ([]models.Order, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.DeliveryUser], error)
	Verify(ctx context.Context, principal auth.Principal, id uuid.UUID, verified bool) (*models.DeliveryUser, error)
}

// ServiceParams bundles the partner service dependencies.
type ServiceParams struct {
	Repo   *Repository
	Hasher *security.Hasher
	JWT    config.JWTConfig
	Now    func() time.Time
}

type service struct {
	repo   *Repository
	hasher *security.Hasher
	jwt    config.JWTConfig
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, hasher: params.Hasher, jwt: params.JWT, now: now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	pincode := strings.TrimSpace(input.Pincode)
	if pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a delivery partner exists with this email")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup delivery partner")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	user := &models.DeliveryUser{
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Address:      strings.TrimSpace(input.Address),
		Pincode:      pincode,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "ux_delivery_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a delivery partner exists with this email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery partner")
	}
	return s.authResult(user)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup delivery partner")
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.authResult(user)
}

func (s *service) authResult(user *models.DeliveryUser) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.TokenPayload{
		Principal: auth.Principal{ID: user.ID, Role: enums.RoleDelivery, Email: user.Email},
		Verified:  user.Verified,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &AuthResult{Token: token, Verified: user.Verified, Partner: user}, nil
}

func (s *service) Profile(ctx context.Context, principal auth.Principal) (*models.DeliveryUser, error) {
	if !principal.Is(enums.RoleDelivery) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery access required")
	}
	return s.load(ctx, principal.ID)
}

func (s *service) UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.DeliveryUser, error) {
	user, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	var columns []string
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
		columns = append(columns, "first_name")
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
		columns = append(columns, "last_name")
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
		columns = append(columns, "address")
	}
	if input.Pincode != nil {
		pincode := strings.TrimSpace(*input.Pincode)
		if pincode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode cannot be empty")
		}
		user.Pincode = pincode
		columns = append(columns, "pincode")
	}
	if len(columns) == 0 {
		return user, nil
	}
	return user, s.update(ctx, user, columns...)
}

// ChangeStatus flips the partner in or out of the assignment pool.
func (s *service) ChangeStatus(ctx context.Context, principal auth.Principal, input StatusInput) (*models.DeliveryUser, error) {
	user, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	columns := []string{"is_available"}
	user.IsAvailable = !user.IsAvailable
	if input.Lat != nil || input.Lng != nil {
		point, ok := geo.FromNullable(input.Lat, input.Lng)
		if !ok || !point.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be given together and be in range")
		}
		user.Lat, user.Lng = &point.Lat, &point.Lng
		columns = append(columns, "lat", "lng")
	}
	return user, s.update(ctx, user, columns...)
}

func (s *service) Orders(ctx context.Context, principal auth.Principal) ([]models.Order, error) {
	if !principal.Is(enums.RoleDelivery) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery access required")
	}
	orders, err := s.repo.ListAssignedOrders(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	return orders, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.DeliveryUser], error) {
	if !principal.Is(enums.RoleAdmin) {
		return pagination.Page[models.DeliveryUser]{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.DeliveryUser]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery partners")
	}
	return page, nil
}

// Verify sets the admin verification flag. Unverified partners are never assigned.
func (s *service) Verify(ctx context.Context, principal auth.Principal, id uuid.UUID, verified bool) (*models.DeliveryUser, error) {
	if !principal.Is(enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Verified == verified {
		return user, nil
	}
	user.Verified = verified
	return user, s.update(ctx, user, "verified")
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.DeliveryUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery partner")
	}
	return user, nil
}

func (s *service) update(ctx context.Context, user *models.DeliveryUser, columns ...string) error {
	if err := s.repo.Update(ctx, user, columns...); err != nil {
		if errors.Is(err, db.ErrStaleVersion) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery partner was modified concurrently, retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery partner")
	}
	return nil
}
