package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

const (
	codPaymentResponse = "Payment is Cash on Delivery"
	staleFailureReason = "payment window expired"
	staleSweepBatch    = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type offerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

// Service records payment attempts and manages their lifecycle outside order placement.
type Service interface {
	CreatePayment(ctx context.Context, principal auth.Principal, input CreatePaymentInput) (*models.Transaction, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Transaction], error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Transaction, error)
	FailStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// CreatePaymentInput is the customer's payment request.
type CreatePaymentInput struct {
	Amount      decimal.Decimal
	OfferID     *uuid.UUID
	PaymentMode enums.PaymentMode
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	DB     txRunner
	Repo   *Repository
	Offers offerLookup
	Outbox outbox.Emitter
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	db     txRunner
	repo   *Repository
	offers offerLookup
	outbox outbox.Emitter
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offer lookup required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		offers: params.Offers,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// CreatePayment prices the payment against an optional offer and records it as an OPEN
// cash-on-delivery transaction. No gateway is charged.
func (s *service) CreatePayment(ctx context.Context, principal auth.Principal, input CreatePaymentInput) (*models.Transaction, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	mode := input.PaymentMode
	if mode == "" {
		mode = enums.PaymentModeCOD
	}
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode")
	}

	payable := input.Amount.Round(2)
	offerUsed := models.NoOfferUsed
	if input.OfferID != nil {
		offer, err := s.offers.FindByID(ctx, *input.OfferID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if offer.PromoType.OncePerCustomer() {
			used, err := s.repo.HasRedeemed(ctx, principal.ID, offer.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check redemption")
			}
			if used {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offer already redeemed")
			}
		}
		payable, err = offers.Evaluate(offer, payable, s.now())
		if err != nil {
			return nil, err
		}
		offerUsed = offer.ID.String()
	}

	txn := &models.Transaction{
		CustomerID:      principal.ID,
		OrderValue:      payable,
		OfferUsed:       offerUsed,
		Status:          enums.TransactionStatusOpen,
		PaymentMode:     mode,
		PaymentResponse: codPaymentResponse,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Transaction], error) {
	if !principal.Is(enums.RoleAdmin) {
		return pagination.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Transaction]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Transaction, error) {
	if !principal.Is(enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

// FailStale fails OPEN transactions older than olderThan, one DB transaction per row so a
// concurrent order placement either wins the row or sees it FAILED.
func (s *service) FailStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	stale, err := s.repo.ListStaleOpen(ctx, now.Add(-olderThan), staleSweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale transactions")
	}

	failed := 0
	var errs error
	for i := range stale {
		txn := stale[i]
		marked := false
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.repo.WithTx(tx).Fail(ctx, &txn, staleFailureReason)
			if err != nil || !ok {
				return err
			}
			marked = true
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventTransactionFailed,
				AggregateType: enums.AggregateTransaction,
				AggregateID:   txn.ID,
				Data: payloads.TransactionFailedEvent{
					TransactionID: txn.ID,
					CustomerID:    txn.CustomerID,
					OrderValue:    txn.OrderValue,
					OpenedAt:      txn.CreatedAt,
					Reason:        staleFailureReason,
				},
				OccurredAt: now,
			})
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fail transaction %s: %w", txn.ID, err))
			continue
		}
		if marked {
			failed++
		}
	}
	if s.logg != nil && failed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "failed", failed), "stale transactions failed")
	}
	return failed, errs
}
