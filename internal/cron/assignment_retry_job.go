package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type assignmentRetrier interface {
	RetryUnassigned(ctx context.Context) (int, error)
}

// NewAssignmentRetryJob re-runs delivery assignment for recent orders still waiting on a
// partner.
func NewAssignmentRetryJob(logg *logger.Logger, retrier assignmentRetrier) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retrier == nil {
		return nil, fmt.Errorf("assignment retrier required")
	}
	return &assignmentRetryJob{logg: logg, retrier: retrier}, nil
}

type assignmentRetryJob struct {
	logg    *logger.Logger
	retrier assignmentRetrier
}

func (j *assignmentRetryJob) Name() string { return "delivery-assignment-retry" }

func (j *assignmentRetryJob) Run(ctx context.Context) error {
	assigned, err := j.retrier.RetryUnassigned(ctx)
	// partial progress is still worth logging before surfacing the error
	j.logg.Info(j.logg.WithField(ctx, "orders_assigned", assigned), "delivery assignment retry pass complete")
	if err != nil {
		return fmt.Errorf("assignment retry: %w", err)
	}
	return nil
}
