package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

const transactionNotValid = "transaction not valid"

type transactionLoader interface {
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// Validator decides whether a transaction may fund an order. Only FAILED transactions are
// rejected; OPEN and CONFIRMED both pass, so a valid transaction is not necessarily paid.
type Validator struct {
	repo transactionLoader
}

func NewValidator(repo transactionLoader) (*Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	return &Validator{repo: repo}, nil
}

// WithTx returns a validator whose lookups run on tx, so the row lock lasts until tx ends.
func (v *Validator) WithTx(tx *gorm.DB) *Validator {
	if repo, ok := v.repo.(*Repository); ok {
		return &Validator{repo: repo.WithTx(tx)}
	}
	return v
}

func (v *Validator) Validate(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error) {
	txn, err := v.repo.FindForUpdate(ctx, txnID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, transactionNotValid)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.Status.IsFailed() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, transactionNotValid)
	}
	return txn, nil
}
