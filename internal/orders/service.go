package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
)

const orderNotFound = "order not found"

// ProcessInput is a vendor's status update. A nil ReadyTime keeps the current estimate.
type ProcessInput struct {
	Status    enums.OrderStatus
	Remarks   string
	ReadyTime *int
}

// Service exposes order reads for customers and vendors and the vendor-side workflow.
type Service interface {
	VendorOrders(ctx context.Context, principal auth.Principal) ([]models.Order, error)
	VendorOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Order, error)
	Process(ctx context.Context, principal auth.Principal, id uuid.UUID, input ProcessInput) (*models.Order, error)
	CustomerOrders(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Order], error)
	CustomerOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Order, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Partners *delivery.Repository
	Outbox   outbox.Emitter
	Now      func() time.Time
}

type service struct {
	db       txRunner
	repo     *Repository
	partners *delivery.Repository
	outbox   outbox.Emitter
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Partners == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{db: params.DB, repo: params.Repo, partners: params.Partners, outbox: params.Outbox, now: now}, nil
}

func (s *service) VendorOrders(ctx context.Context, principal auth.Principal) ([]models.Order, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	orders, err := s.repo.ListOpenForVendor(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return orders, nil
}

func (s *service) VendorOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Order, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	return s.owned(ctx, s.repo, id, func(o *models.Order) bool { return o.VendorID == principal.ID })
}

// Process moves an order along its status graph. Reaching a closing status frees the assigned
// delivery partner in the same transaction.
func (s *service) Process(ctx context.Context, principal auth.Principal, id uuid.UUID, input ProcessInput) (*models.Order, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	if !input.Status.IsValid() || input.Status == enums.OrderStatusWaiting {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.ReadyTime != nil && *input.ReadyTime <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ready time must be positive")
	}

	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.owned(ctx, repo, id, func(o *models.Order) bool { return o.VendorID == principal.ID })
		if err != nil {
			return err
		}
		from := order.Status
		if !from.CanTransitionTo(input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, input.Status).
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}

		order.Status = input.Status
		order.Remarks = strings.TrimSpace(input.Remarks)
		columns := []string{"status", "remarks"}
		if input.ReadyTime != nil {
			order.ReadyTime = *input.ReadyTime
			columns = append(columns, "ready_time")
		}
		if err := repo.Update(ctx, order, columns...); err != nil {
			if errors.Is(err, db.ErrStaleVersion) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if order.Status.ReleasesDelivery() && order.DeliveryID != nil {
			if err := s.partners.WithTx(tx).Release(ctx, *order.DeliveryID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release delivery partner")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ID: principal.ID, Role: principal.Role},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				VendorID:   order.VendorID,
				CustomerID: order.CustomerID,
				From:       from,
				To:         order.Status,
				Remarks:    order.Remarks,
				ReadyTime:  order.ReadyTime,
			},
			OccurredAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CustomerOrders(ctx context.Context, principal auth.Principal, params pagination.Params) (pagination.Page[models.Order], error) {
	if !principal.Is(enums.RoleCustomer) {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListForCustomer(ctx, principal.ID, params)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) CustomerOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Order, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	return s.owned(ctx, s.repo, id, func(o *models.Order) bool { return o.CustomerID == principal.ID })
}

// owned hides orders the caller does not own behind the same not-found as a missing row.
func (s *service) owned(ctx context.Context, repo *Repository, id uuid.UUID, owns func(*models.Order) bool) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, orderNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !owns(order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, orderNotFound)
	}
	return order, nil
}
