package foods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
)

// Repository reads and writes menu items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, food *models.Food) error {
	return r.db.WithContext(ctx).Create(food).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	var food models.Food
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&food).Error; err != nil {
		return nil, err
	}
	return &food, nil
}

// FindByIDs resolves every id it can in one query. Missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Food, error) {
	if len(ids) == 0 {
		return []models.Food{}, nil
	}
	var foods []models.Food
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Food, error) {
	var foods []models.Food
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&foods).Error
	if err != nil {
		return nil, err
	}
	return foods, nil
}

// ListByVendors returns the foods of every vendor in vendorIDs, optionally capped by ready time.
func (r *Repository) ListByVendors(ctx context.Context, vendorIDs []uuid.UUID, maxReadyTime int) ([]models.Food, error) {
	if len(vendorIDs) == 0 {
		return []models.Food{}, nil
	}
	q := r.db.WithContext(ctx).Where("vendor_id IN ?", vendorIDs)
	if maxReadyTime > 0 {
		q = q.Where("ready_time <= ?", maxReadyTime)
	}
	var foods []models.Food
	if err := q.Order("rating DESC").Order("name ASC").Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}
