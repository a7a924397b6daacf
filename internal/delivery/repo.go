package delivery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

var closedStatuses = []enums.OrderStatus{
	enums.OrderStatusRejected,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
}

// Repository covers delivery partners plus the order columns assignment owns.
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

func (r *Repository) Create(ctx context.Context, user *models.DeliveryUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryUser, error) {
	var user models.DeliveryUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.DeliveryUser, error) {
	var user models.DeliveryUser
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Update(ctx context.Context, user *models.DeliveryUser, columns ...string) error {
	return db.UpdateVersioned(ctx, r.db, user, &user.Version, columns...)
}

func (r *Repository) List(ctx context.Context, params pagination.Params) (pagination.Page[models.DeliveryUser], error) {
	scope, err := pagination.Scope("delivery_users", params)
	if err != nil {
		return pagination.Page[models.DeliveryUser]{}, err
	}
	var rows []models.DeliveryUser
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&rows).Error; err != nil {
		return pagination.Page[models.DeliveryUser]{}, err
	}
	return pagination.Build(rows, params, func(u models.DeliveryUser) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	}), nil
}

// ListCandidates returns the verified, available partners serving pincode.
func (r *Repository) ListCandidates(ctx context.Context, pincode string) ([]models.DeliveryUser, error) {
	var users []models.DeliveryUser
	err := r.db.WithContext(ctx).
		Where("pincode = ? AND is_available = ? AND verified = ?", pincode, true, true).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Claim flips an available partner to busy. False means another assignment took them first.
func (r *Repository) Claim(ctx context.Context, user *models.DeliveryUser) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryUser{}).
		Where("id = ? AND version = ? AND is_available = ?", user.ID, user.Version, true).
		Updates(map[string]any{"is_available": false, "version": user.Version + 1})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	user.IsAvailable = false
	user.Version++
	return true, nil
}

// Release makes a partner available again once their order is finished.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryUser{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_available": true, "version": gorm.Expr("version + 1")}).Error
}

func (r *Repository) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// AttachToOrder sets the order's partner only while it has none and is still open.
func (r *Repository) AttachToOrder(ctx context.Context, orderID, deliveryID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND delivery_id IS NULL AND status NOT IN ?", orderID, closedStatuses).
		Updates(map[string]any{
			"delivery_id":         deliveryID,
			"assignment_attempts": gorm.Expr("assignment_attempts + 1"),
			"last_assignment_at":  at,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordFailedAttempt counts an assignment that found nobody so the retry job can pick it up.
func (r *Repository) RecordFailedAttempt(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND delivery_id IS NULL", orderID).
		Updates(map[string]any{
			"assignment_attempts": gorm.Expr("assignment_attempts + 1"),
			"last_assignment_at":  at,
		}).Error
}

// ListAssignedOrders returns the orders carried by deliveryID, newest first.
func (r *Repository) ListAssignedOrders(ctx context.Context, deliveryID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Food").
		Where("delivery_id = ?", deliveryID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
