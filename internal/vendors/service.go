package vendors

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

type vendorRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindByEmail(ctx context.Context, email string) (*models.Vendor, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Vendor], error)
	Update(ctx context.Context, vendor *models.Vendor, columns ...string) error
}

// Service covers vendor onboarding, login and self-service profile management.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateVendorInput) (*models.Vendor, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Vendor], error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Vendor, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Profile(ctx context.Context, principal auth.Principal) (*models.Vendor, error)
	UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.Vendor, error)
	UpdateCoverImages(ctx context.Context, principal auth.Principal, images []string) (*models.Vendor, error)
	ToggleService(ctx context.Context, principal auth.Principal, input ServiceToggleInput) (*models.Vendor, error)
}

// ServiceParams bundles the vendor service dependencies.
type ServiceParams struct {
	Repo   vendorRepository
	Hasher *security.Hasher
	JWT    config.JWTConfig
	Now    func() time.Time
}

type service struct {
	repo   vendorRepository
	hasher *security.Hasher
	jwt    config.JWTConfig
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("vendor repository required")
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

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateVendorInput) (*models.Vendor, error) {
	if !principal.Is(enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vendor exists with this email")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	foodTypes := input.FoodTypes
	if foodTypes == nil {
		foodTypes = []string{}
	}
	vendor := &models.Vendor{
		Name:         strings.TrimSpace(input.Name),
		OwnerName:    strings.TrimSpace(input.OwnerName),
		FoodTypes:    foodTypes,
		Pincode:      strings.TrimSpace(input.Pincode),
		Address:      strings.TrimSpace(input.Address),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        email,
		PasswordHash: hash,
		CoverImages:  []string{},
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		if db.IsUniqueViolation(err, "ux_vendors_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vendor exists with this email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return vendor, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Vendor], error) {
	if !principal.Is(enums.RoleAdmin) {
		return pagination.Page[models.Vendor]{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Vendor]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Vendor, error) {
	if !principal.Is(enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return s.load(ctx, id)
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	vendor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}
	ok, err := s.hasher.Verify(password, vendor.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.TokenPayload{
		Principal: auth.Principal{ID: vendor.ID, Role: enums.RoleVendor, Email: vendor.Email},
		Verified:  true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &LoginResult{Token: token, Vendor: vendor}, nil
}

func (s *service) Profile(ctx context.Context, principal auth.Principal) (*models.Vendor, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	return s.load(ctx, principal.ID)
}

func (s *service) UpdateProfile(ctx context.Context, principal auth.Principal, input UpdateProfileInput) (*models.Vendor, error) {
	vendor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	var columns []string
	if input.Name != nil {
		vendor.Name = strings.TrimSpace(*input.Name)
		columns = append(columns, "name")
	}
	if input.Address != nil {
		vendor.Address = strings.TrimSpace(*input.Address)
		columns = append(columns, "address")
	}
	if input.Phone != nil {
		vendor.Phone = strings.TrimSpace(*input.Phone)
		columns = append(columns, "phone")
	}
	if input.FoodTypes != nil {
		vendor.FoodTypes = *input.FoodTypes
		columns = append(columns, "food_types")
	}
	if len(columns) == 0 {
		return vendor, nil
	}
	return vendor, s.update(ctx, vendor, columns...)
}

func (s *service) UpdateCoverImages(ctx context.Context, principal auth.Principal, images []string) (*models.Vendor, error) {
	vendor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []string{}
	}
	vendor.CoverImages = images
	return vendor, s.update(ctx, vendor, "cover_images")
}

func (s *service) ToggleService(ctx context.Context, principal auth.Principal, input ServiceToggleInput) (*models.Vendor, error) {
	vendor, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	columns := []string{"service_available"}
	vendor.ServiceAvailable = !vendor.ServiceAvailable
	if input.Lat != nil || input.Lng != nil {
		point, ok := geo.FromNullable(input.Lat, input.Lng)
		if !ok || !point.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be given together and be in range")
		}
		vendor.Lat, vendor.Lng = &point.Lat, &point.Lng
		columns = append(columns, "lat", "lng")
	}
	return vendor, s.update(ctx, vendor, columns...)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) update(ctx context.Context, vendor *models.Vendor, columns ...string) error {
	if err := s.repo.Update(ctx, vendor, columns...); err != nil {
		if errors.Is(err, db.ErrStaleVersion) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "vendor was modified concurrently, retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return nil
}
