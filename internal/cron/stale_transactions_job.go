package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

const defaultStaleTransactionTTL = 2 * time.Hour

type staleTransactionFailer interface {
	FailStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewStaleTransactionsJob fails OPEN transactions nobody placed an order against within ttl.
func NewStaleTransactionsJob(logg *logger.Logger, payments staleTransactionFailer, ttl time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if ttl <= 0 {
		ttl = defaultStaleTransactionTTL
	}
	return &staleTransactionsJob{logg: logg, payments: payments, ttl: ttl}, nil
}

type staleTransactionsJob struct {
	logg     *logger.Logger
	payments staleTransactionFailer
	ttl      time.Duration
}

func (j *staleTransactionsJob) Name() string { return "stale-transactions" }

func (j *staleTransactionsJob) Run(ctx context.Context) error {
	failed, err := j.payments.FailStale(ctx, j.ttl)
	if err != nil {
		return fmt.Errorf("fail stale transactions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"ttl":                 j.ttl.String(),
		"transactions_failed": failed,
	})
	j.logg.Info(logCtx, "stale transaction sweep complete")
	return nil
}
