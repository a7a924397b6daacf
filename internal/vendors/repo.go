package vendors

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

// Repository persists vendors.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindWithFoods loads a vendor together with its menu.
func (r *Repository) FindWithFoods(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Preload("Foods", func(tx *gorm.DB) *gorm.DB { return tx.Order("foods.name ASC") }).
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Vendor], error) {
	scope, err := pagination.Scope("vendors", params)
	if err != nil {
		return pagination.Page[models.Vendor]{}, err
	}
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&rows).Error; err != nil {
		return pagination.Page[models.Vendor]{}, err
	}
	return pagination.Build(rows, params, func(v models.Vendor) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	}), nil
}

// ListServiceable returns vendors in pincode that currently accept orders, best rated first.
// A positive limit caps the result.
func (r *Repository) ListServiceable(ctx context.Context, pincode string, withFoods bool, limit int) ([]models.Vendor, error) {
	q := r.db.WithContext(ctx).
		Where("pincode = ? AND service_available = ?", pincode, true).
		Order("rating DESC").
		Order("name ASC")
	if withFoods {
		q = q.Preload("Foods", func(tx *gorm.DB) *gorm.DB { return tx.Order("foods.name ASC") })
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var vendors []models.Vendor
	if err := q.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// Update writes columns under the vendor's version.
func (r *Repository) Update(ctx context.Context, vendor *models.Vendor, columns ...string) error {
	return db.UpdateVersioned(ctx, r.db, vendor, &vendor.Version, columns...)
}
