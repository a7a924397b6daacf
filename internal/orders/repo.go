package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

var openStatuses = []enums.OrderStatus{
	enums.OrderStatusWaiting,
	enums.OrderStatusAccepted,
	enums.OrderStatusUnderProcess,
	enums.OrderStatusReady,
	enums.OrderStatusOnTheWay,
}

// Repository persists orders and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Food").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return r.list(ctx, r.db.Where("orders.customer_id = ?", customerID), params)
}

// ListOpenForVendor returns the vendor's orders that still need work, oldest first.
func (r *Repository) ListOpenForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Food").
		Where("vendor_id = ? AND status IN ?", vendorID, openStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAwaitingDelivery returns open orders without a partner whose last attempt is older than
// retryBefore and that have not exhausted maxAttempts. Orders created before since are left alone.
func (r *Repository) ListAwaitingDelivery(ctx context.Context, since, retryBefore time.Time, maxAttempts, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("delivery_id IS NULL AND status IN ? AND assignment_attempts < ?", openStatuses, maxAttempts).
		Where("created_at >= ?", since).
		Where("last_assignment_at IS NULL OR last_assignment_at < ?", retryBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Update applies a versioned update to the listed columns.
func (r *Repository) Update(ctx context.Context, order *models.Order, columns ...string) error {
	return db.UpdateVersioned(ctx, r.db, order, &order.Version, columns...)
}

func (r *Repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) (pagination.Page[models.Order], error) {
	scope, err := pagination.Scope("orders", params)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	var rows []models.Order
	if err := query.WithContext(ctx).Preload("Items.Food").Scopes(scope).Find(&rows).Error; err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.Build(rows, params, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}
