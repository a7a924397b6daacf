package offers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	offer := &models.Offer{
		IsActive:      true,
		MinimumValue:  decimal.NewFromInt(200),
		OfferAmount:   decimal.NewFromInt(50),
		StartValidity: &start,
		EndValidity:   &end,
	}

	t.Run("applies discount", func(t *testing.T) {
		payable, err := Evaluate(offer, decimal.NewFromInt(250), now)
		require.NoError(t, err)
		assert.True(t, payable.Equal(decimal.NewFromInt(200)))
	})

	t.Run("exact minimum qualifies", func(t *testing.T) {
		payable, err := Evaluate(offer, decimal.NewFromInt(200), now)
		require.NoError(t, err)
		assert.True(t, payable.Equal(decimal.NewFromInt(150)))
	})

	t.Run("below minimum reports shortfall", func(t *testing.T) {
		_, err := Evaluate(offer, decimal.NewFromInt(150), now)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
		typed := pkgerrors.As(err)
		assert.Contains(t, typed.Message(), "Add order worth of Rs. 50.00")
		assert.Equal(t, map[string]any{"shortfall": "50.00"}, typed.Details())
	})

	t.Run("clamps at zero", func(t *testing.T) {
		big := *offer
		big.MinimumValue = decimal.Zero
		big.OfferAmount = decimal.NewFromInt(500)
		payable, err := Evaluate(&big, decimal.NewFromInt(100), now)
		require.NoError(t, err)
		assert.True(t, payable.IsZero())
	})

	t.Run("inactive", func(t *testing.T) {
		inactive := *offer
		inactive.IsActive = false
		_, err := Evaluate(&inactive, decimal.NewFromInt(250), now)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("outside window", func(t *testing.T) {
		_, err := Evaluate(offer, decimal.NewFromInt(250), end.Add(time.Second))
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
		_, err = Evaluate(offer, decimal.NewFromInt(250), start.Add(-time.Second))
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("no offer", func(t *testing.T) {
		payable, err := Evaluate(nil, decimal.NewFromInt(99), now)
		require.NoError(t, err)
		assert.True(t, payable.Equal(decimal.NewFromInt(99)))
	})
}
