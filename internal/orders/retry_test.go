package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

type recordingAssigner struct {
	calls []uuid.UUID
	fail  map[uuid.UUID]bool
}

func (r *recordingAssigner) Assign(_ context.Context, orderID, _ uuid.UUID) (delivery.AssignmentResult, error) {
	r.calls = append(r.calls, orderID)
	if r.fail[orderID] {
		return delivery.AssignmentResult{}, errors.New("boom")
	}
	id := uuid.New()
	return delivery.AssignmentResult{Outcome: enums.AssignmentAssigned, DeliveryID: &id, Reason: enums.AssignmentReasonClaimed}, nil
}

func TestRetryUnassignedPicksEligibleOrders(t *testing.T) {
	conn := dbtest.Open(t)
	vendor := uuid.New()

	eligible := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusAccepted)
	broken := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusWaiting)
	closed := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusCancelled)
	exhausted := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusWaiting)
	require.NoError(t, conn.Model(exhausted).Update("assignment_attempts", 5).Error)
	recent := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusWaiting)
	require.NoError(t, conn.Model(recent).Update("last_assignment_at", time.Now().Add(-10*time.Second)).Error)
	carried := insertOrder(t, conn, uuid.New(), vendor, enums.OrderStatusWaiting)
	require.NoError(t, conn.Model(carried).Update("delivery_id", uuid.New()).Error)

	assigner := &recordingAssigner{fail: map[uuid.UUID]bool{broken.ID: true}}
	retrier, err := NewAssignmentRetrier(RetryParams{
		Repo:        NewRepository(conn),
		Assigner:    assigner,
		Window:      24 * time.Hour,
		RetryAfter:  time.Minute,
		MaxAttempts: 5,
	})
	require.NoError(t, err)

	assigned, err := retrier.RetryUnassigned(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, assigned)
	assert.ElementsMatch(t, []uuid.UUID{eligible.ID, broken.ID}, assigner.calls)
	assert.NotContains(t, assigner.calls, closed.ID)
}

func TestNewAssignmentRetrierRequiresWindow(t *testing.T) {
	_, err := NewAssignmentRetrier(RetryParams{Repo: NewRepository(nil), Assigner: &recordingAssigner{}})
	assert.Error(t, err)
}
