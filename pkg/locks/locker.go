package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

const (
	ScopeCustomer = "customer"

	defaultTTL   = 15 * time.Second
	defaultWait  = 2 * time.Second
	defaultRetry = 50 * time.Millisecond
)

// ErrBusy is returned when the scope stays locked for the whole wait budget.
var ErrBusy = pkgerrors.New(pkgerrors.CodeStateConflict, "customer busy, retry")

// Store is the redis surface the locker needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	LockKey(scope, id string) string
}

// Options tunes lock lifetime and how long callers queue for it.
type Options struct {
	TTL   time.Duration
	Wait  time.Duration
	Retry time.Duration
}

// Locker serializes work per entity across API replicas.
type Locker struct {
	store Store
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

// NewLocker builds a Locker backed by store.
func NewLocker(store Store, opts Options) (*Locker, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	l := &Locker{store: store, ttl: opts.TTL, wait: opts.Wait, retry: opts.Retry}
	if l.ttl <= 0 {
		l.ttl = defaultTTL
	}
	if l.wait < 0 {
		l.wait = 0
	} else if l.wait == 0 {
		l.wait = defaultWait
	}
	if l.retry <= 0 {
		l.retry = defaultRetry
	}
	return l, nil
}

// WithLock runs fn while holding the (scope, id) lock. The lock is released with an owner check,
// so an expired holder never frees a lock that someone else has since taken.
func (l *Locker) WithLock(ctx context.Context, scope string, id uuid.UUID, fn func(ctx context.Context) error) error {
	key := l.store.LockKey(scope, id.String())
	owner := uuid.NewString()

	if err := l.acquire(ctx, key, owner); err != nil {
		return err
	}
	defer func() {
		// the request context may already be cancelled; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = l.store.ReleaseIfOwner(releaseCtx, key, owner)
	}()

	return fn(ctx)
}

func (l *Locker) acquire(ctx context.Context, key, owner string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("acquire %s: %w", key, err), "lock unavailable")
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrBusy
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
