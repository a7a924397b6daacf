package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type fakeRetrier struct {
	assigned int
	err      error
	calls    int
}

func (f *fakeRetrier) RetryUnassigned(context.Context) (int, error) {
	f.calls++
	return f.assigned, f.err
}

type fakePayments struct {
	olderThan time.Duration
	err       error
}

func (f *fakePayments) FailStale(_ context.Context, olderThan time.Duration) (int, error) {
	f.olderThan = olderThan
	return 2, f.err
}

type fakeOffers struct {
	calls int
}

func (f *fakeOffers) ExpireStale(context.Context) (int64, error) {
	f.calls++
	return 1, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestAssignmentRetryJobSurfacesErrors(t *testing.T) {
	retrier := &fakeRetrier{assigned: 1, err: errors.New("partial failure")}
	job, err := NewAssignmentRetryJob(testLogger(), retrier)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected retrier error to surface")
	}
	retrier.err = nil
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if retrier.calls != 2 {
		t.Fatalf("expected 2 retry passes, got %d", retrier.calls)
	}
	if _, err := NewAssignmentRetryJob(testLogger(), nil); err == nil {
		t.Fatal("expected missing retrier to fail")
	}
}

func TestStaleTransactionsJobDefaultsTTL(t *testing.T) {
	payments := &fakePayments{}
	job, err := NewStaleTransactionsJob(testLogger(), payments, 0)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if payments.olderThan != defaultStaleTransactionTTL {
		t.Fatalf("expected default ttl, got %s", payments.olderThan)
	}
	payments.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected payments error to surface")
	}
}

func TestOfferExpiryJobRuns(t *testing.T) {
	offers := &fakeOffers{}
	job, err := NewOfferExpiryJob(testLogger(), offers)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "offer-expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if offers.calls != 1 {
		t.Fatalf("expected one expiry call, got %d", offers.calls)
	}
}
