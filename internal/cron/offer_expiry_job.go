package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type offerExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

func NewOfferExpiryJob(logg *logger.Logger, offers offerExpirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer service required")
	}
	return &offerExpiryJob{logg: logg, offers: offers}, nil
}

type offerExpiryJob struct {
	logg   *logger.Logger
	offers offerExpirer
}

func (j *offerExpiryJob) Name() string { return "offer-expiry" }

func (j *offerExpiryJob) Run(ctx context.Context) error {
	expired, err := j.offers.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire offers: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "offers_expired", expired), "offer expiry complete")
	return nil
}
