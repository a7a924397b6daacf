package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/geo"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox/payloads"
)

var errOrderTaken = errors.New("order no longer assignable")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AssignmentResult is the explicit outcome of one assignment attempt.
type AssignmentResult struct {
	Outcome    enums.AssignmentOutcome `json:"outcome"`
	DeliveryID *uuid.UUID              `json:"deliveryId,omitempty"`
	Reason     enums.AssignmentReason  `json:"reason,omitempty"`
}

// Assigned reports whether the order has a partner after the attempt.
func (r AssignmentResult) Assigned() bool {
	return r.Outcome == enums.AssignmentAssigned
}

func assigned(id uuid.UUID, reason enums.AssignmentReason) AssignmentResult {
	return AssignmentResult{Outcome: enums.AssignmentAssigned, DeliveryID: &id, Reason: reason}
}

func unassigned(reason enums.AssignmentReason) AssignmentResult {
	return AssignmentResult{Outcome: enums.AssignmentUnassigned, Reason: reason}
}

// AssignerParams bundles the assigner dependencies.
type AssignerParams struct {
	DB      txRunner
	Repo    *Repository
	Ranker  Ranker
	Outbox  outbox.Emitter
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// Assigner matches an order to one available partner in the vendor's pincode. A partner is
// claimed and the order attached in a single transaction, so two concurrent assignments can
// never share a partner and an order never gets two.
type Assigner struct {
	db      txRunner
	repo    *Repository
	ranker  Ranker
	outbox  outbox.Emitter
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewAssigner(params AssignerParams) (*Assigner, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	ranker := params.Ranker
	if ranker == nil {
		ranker = DistanceRanker{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Assigner{
		db:      params.DB,
		repo:    params.Repo,
		ranker:  ranker,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// Assign tries to give orderID a partner. Finding nobody is a normal outcome, not an error;
// errors are reserved for storage failures.
func (a *Assigner) Assign(ctx context.Context, orderID, vendorID uuid.UUID) (AssignmentResult, error) {
	result, err := a.assign(ctx, orderID, vendorID)
	if err != nil {
		a.metrics.IncAssignment(string(enums.AssignmentUnassigned), string(enums.AssignmentReasonError))
		return unassigned(enums.AssignmentReasonError), err
	}
	a.metrics.IncAssignment(string(result.Outcome), string(result.Reason))
	return result, nil
}

func (a *Assigner) assign(ctx context.Context, orderID, vendorID uuid.UUID) (AssignmentResult, error) {
	vendor, err := a.repo.FindVendor(ctx, vendorID)
	if err != nil {
		if db.IsNotFound(err) {
			return unassigned(enums.AssignmentReasonVendorNotFound), nil
		}
		return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	order, err := a.repo.FindOrder(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return unassigned(enums.AssignmentReasonOrderNotFound), nil
		}
		return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if settled, done := settledOutcome(order); done {
		return settled, nil
	}

	candidates, err := a.repo.ListCandidates(ctx, vendor.Pincode)
	if err != nil {
		return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery partners")
	}
	if origin, ok := geo.FromNullable(vendor.Lat, vendor.Lng); ok && len(candidates) > 1 {
		if candidates, err = a.ranker.Rank(ctx, origin, candidates); err != nil {
			return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank delivery partners")
		}
	}

	attempt := order.AssignmentAttempts + 1
	for i := range candidates {
		candidate := candidates[i]
		claimed := false
		err := a.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := a.repo.WithTx(tx)
			ok, err := repo.Claim(ctx, &candidate)
			if err != nil || !ok {
				return err
			}
			ok, err = repo.AttachToOrder(ctx, order.ID, candidate.ID, a.now())
			if err != nil {
				return err
			}
			if !ok {
				return errOrderTaken
			}
			claimed = true
			return a.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderDeliveryAssigned,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.DeliveryAssignedEvent{
					OrderID:    order.ID,
					VendorID:   order.VendorID,
					DeliveryID: candidate.ID,
					Attempt:    attempt,
				},
				OccurredAt: a.now(),
			})
		})
		switch {
		case errors.Is(err, errOrderTaken):
			// someone else settled the order while we held the partner; the claim rolled back
			current, err := a.repo.FindOrder(ctx, order.ID)
			if err != nil {
				return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			if settled, done := settledOutcome(current); done {
				return settled, nil
			}
			return AssignmentResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed during assignment, retry")
		case err != nil:
			return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim delivery partner")
		case claimed:
			if a.logg != nil {
				logCtx := a.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "delivery_id": candidate.ID.String()})
				a.logg.Info(logCtx, "delivery partner assigned")
			}
			return assigned(candidate.ID, enums.AssignmentReasonClaimed), nil
		}
	}

	err = a.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := a.repo.WithTx(tx).RecordFailedAttempt(ctx, order.ID, a.now()); err != nil {
			return err
		}
		return a.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeliveryUnassigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.DeliveryUnassignedEvent{
				OrderID:  order.ID,
				VendorID: order.VendorID,
				Reason:   enums.AssignmentReasonNoAvailablePartner,
				Attempt:  attempt,
			},
			OccurredAt: a.now(),
		})
	})
	if err != nil {
		return AssignmentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record assignment attempt")
	}
	return unassigned(enums.AssignmentReasonNoAvailablePartner), nil
}

func settledOutcome(order *models.Order) (AssignmentResult, bool) {
	if order.DeliveryID != nil {
		return assigned(*order.DeliveryID, enums.AssignmentReasonAlreadyAssigned), true
	}
	if order.Status.IsTerminal() {
		return unassigned(enums.AssignmentReasonOrderClosed), true
	}
	return AssignmentResult{}, false
}
