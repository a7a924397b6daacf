package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

// Repository persists offers.
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

func (r *Repository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListForVendor returns GENERIC offers plus the ones scoped to vendorID. The vendor list is a
// JSON array, matched textually so the query runs on postgres and sqlite alike.
func (r *Repository) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("offer_type = ? OR CAST(vendor_ids AS TEXT) LIKE ?", enums.OfferTypeGeneric, "%"+vendorID.String()+"%").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, offer := range rows {
		if offer.AppliesToVendor(vendorID) {
			out = append(out, offer)
		}
	}
	return out, nil
}

// ListActiveByPincode returns active offers for pincode whose window contains now.
func (r *Repository) ListActiveByPincode(ctx context.Context, pincode string, now time.Time) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("pincode = ? AND is_active = ?", pincode, true).
		Where("start_validity IS NULL OR start_validity <= ?", now).
		Where("end_validity IS NULL OR end_validity >= ?", now).
		Order("offer_amount DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, offer *models.Offer, columns ...string) error {
	return db.UpdateVersioned(ctx, r.db, offer, &offer.Version, columns...)
}

// DeactivateExpired switches off every active offer whose window closed before now.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("is_active = ? AND end_validity IS NOT NULL AND end_validity < ?", true, now).
		Updates(map[string]any{
			"is_active":  false,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
