package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type fakeOutboxRetentionRepo struct {
	cutoff time.Time
	calls  int
	rows   int64
	err    error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.rows, f.err
}

func TestOutboxRetentionJobUsesRetentionWindow(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{rows: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: repo,
		Retention:  3,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected 1 delete call, got %d", repo.calls)
	}
	if want := now.Add(-72 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}

func TestOutboxRetentionJobDefaultsAndErrors(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{err: errors.New("db down")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: repo,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected repository error to surface")
	}
	if want := now.Add(-outboxRetentionDays * 24 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected default cutoff %s, got %s", want, repo.cutoff)
	}
	if _, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Repository: repo}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
}
