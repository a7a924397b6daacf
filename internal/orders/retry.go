package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

const (
	retryBatch         = 50
	defaultRetryAfter  = time.Minute
	defaultMaxAttempts = 10
)

// RetryParams configures the background re-assignment of orders that found no partner.
type RetryParams struct {
	Repo        *Repository
	Assigner    deliveryAssigner
	Logger      *logger.Logger
	Window      time.Duration
	RetryAfter  time.Duration
	MaxAttempts int
	Now         func() time.Time
}

// AssignmentRetrier re-runs delivery assignment for open orders still waiting for a partner.
type AssignmentRetrier struct {
	repo        *Repository
	assigner    deliveryAssigner
	logg        *logger.Logger
	window      time.Duration
	retryAfter  time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewAssignmentRetrier(params RetryParams) (*AssignmentRetrier, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Assigner == nil {
		return nil, fmt.Errorf("delivery assigner required")
	}
	if params.Window <= 0 {
		return nil, fmt.Errorf("retry window must be positive")
	}
	r := &AssignmentRetrier{
		repo:        params.Repo,
		assigner:    params.Assigner,
		logg:        params.Logger,
		window:      params.Window,
		retryAfter:  params.RetryAfter,
		maxAttempts: params.MaxAttempts,
		now:         params.Now,
	}
	if r.retryAfter <= 0 {
		r.retryAfter = defaultRetryAfter
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// RetryUnassigned attempts one batch and reports how many orders got a partner.
func (r *AssignmentRetrier) RetryUnassigned(ctx context.Context) (int, error) {
	now := r.now()
	pending, err := r.repo.ListAwaitingDelivery(ctx, now.Add(-r.window), now.Add(-r.retryAfter), r.maxAttempts, retryBatch)
	if err != nil {
		return 0, fmt.Errorf("list orders awaiting delivery: %w", err)
	}

	assignedCount := 0
	var errs error
	for _, order := range pending {
		if err := ctx.Err(); err != nil {
			return assignedCount, multierr.Append(errs, err)
		}
		res, err := r.assigner.Assign(ctx, order.ID, order.VendorID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("assign order %s: %w", order.ID, err))
			continue
		}
		if res.Assigned() {
			assignedCount++
		}
	}
	if r.logg != nil && len(pending) > 0 {
		logCtx := r.logg.WithFields(ctx, map[string]any{"pending": len(pending), "assigned": assignedCount})
		r.logg.Info(logCtx, "delivery assignment retry finished")
	}
	return assignedCount, errs
}
