package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

func TestValidate(t *testing.T) {
	conn := dbtest.Open(t)
	validator, err := NewValidator(NewRepository(conn))
	require.NoError(t, err)

	seed := func(status enums.TransactionStatus) uuid.UUID {
		txn := &models.Transaction{CustomerID: uuid.New(), OrderValue: decimal.NewFromInt(1), OfferUsed: models.NoOfferUsed, Status: status, PaymentMode: enums.PaymentModeCOD}
		require.NoError(t, conn.Create(txn).Error)
		return txn.ID
	}

	cases := []struct {
		name   string
		id     uuid.UUID
		code   pkgerrors.Code
		passes bool
	}{
		{name: "open passes", id: seed(enums.TransactionStatusOpen), passes: true},
		{name: "confirmed passes", id: seed(enums.TransactionStatusConfirmed), passes: true},
		{name: "failed rejected", id: seed(enums.TransactionStatusFailed), code: pkgerrors.CodeStateConflict},
		{name: "lowercase failed rejected", id: seed("failed"), code: pkgerrors.CodeStateConflict},
		{name: "missing rejected", id: uuid.New(), code: pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txn, err := validator.Validate(context.Background(), tc.id)
			if tc.passes {
				require.NoError(t, err)
				assert.Equal(t, tc.id, txn.ID)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code))
			assert.Equal(t, "transaction not valid", pkgerrors.As(err).Message())
		})
	}
}

func TestValidatorWithTxUsesTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	validator, err := NewValidator(NewRepository(conn))
	require.NoError(t, err)

	txn := &models.Transaction{CustomerID: uuid.New(), OrderValue: decimal.NewFromInt(1), OfferUsed: models.NoOfferUsed, Status: enums.TransactionStatusOpen, PaymentMode: enums.PaymentModeCOD}
	require.NoError(t, conn.Create(txn).Error)

	tx := conn.Begin()
	defer tx.Rollback()
	got, err := validator.WithTx(tx).Validate(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
}
