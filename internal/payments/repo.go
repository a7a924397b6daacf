package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

// Repository persists payment transactions.
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

func (r *Repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindForUpdate row-locks the transaction for the rest of the enclosing DB transaction.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Confirm moves an OPEN transaction to CONFIRMED and links it to the order. It reports false
// when the row was no longer OPEN at the expected version.
func (r *Repository) Confirm(ctx context.Context, txn *models.Transaction, vendorID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND version = ?", txn.ID, enums.TransactionStatusOpen, txn.Version).
		Updates(map[string]any{
			"status":    enums.TransactionStatusConfirmed,
			"vendor_id": vendorID,
			"order_id":  orderID,
			"version":   txn.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	txn.Status = enums.TransactionStatusConfirmed
	txn.VendorID = &vendorID
	txn.OrderID = &orderID
	txn.Version++
	return true, nil
}

// Fail marks an OPEN transaction FAILED under the same guard as Confirm.
func (r *Repository) Fail(ctx context.Context, txn *models.Transaction, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND version = ?", txn.ID, enums.TransactionStatusOpen, txn.Version).
		Updates(map[string]any{
			"status":           enums.TransactionStatusFailed,
			"payment_response": reason,
			"version":          txn.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	txn.Status = enums.TransactionStatusFailed
	txn.PaymentResponse = reason
	txn.Version++
	return true, nil
}

// HasRedeemed reports whether the customer already confirmed a transaction using offerID.
func (r *Repository) HasRedeemed(ctx context.Context, customerID, offerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("customer_id = ? AND offer_used = ? AND status = ?", customerID, offerID.String(), enums.TransactionStatusConfirmed).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Transaction], error) {
	scope, err := pagination.Scope("transactions", params)
	if err != nil {
		return pagination.Page[models.Transaction]{}, err
	}
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&rows).Error; err != nil {
		return pagination.Page[models.Transaction]{}, err
	}
	return pagination.Build(rows, params, func(t models.Transaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	}), nil
}

// ListStaleOpen returns OPEN transactions created before cutoff, oldest first.
func (r *Repository) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.TransactionStatusOpen, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
