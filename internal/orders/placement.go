package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/customers"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/locks"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox/payloads"
)

const defaultReadyTimeMinutes = 45

var (
	errTransactionUsed   = pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already used")
	errOfferNotForVendor = pkgerrors.New(pkgerrors.CodeStateConflict, "offer does not apply to this restaurant")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Locker serializes work per customer across replicas.
type Locker interface {
	WithLock(ctx context.Context, scope string, id uuid.UUID, fn func(ctx context.Context) error) error
}

type orderNumbers interface {
	NextOrderNumber(ctx context.Context) (string, error)
}

type deliveryAssigner interface {
	Assign(ctx context.Context, orderID, vendorID uuid.UUID) (delivery.AssignmentResult, error)
}

// PlaceOrderInput names the funding transaction and the requested lines.
type PlaceOrderInput struct {
	TransactionID uuid.UUID
	Items         []CartLine
}

// PlacementResult is everything the caller needs after a successful placement. Assignment is
// always set; an unassigned outcome still means the order was placed.
type PlacementResult struct {
	Order       *models.Order             `json:"order"`
	Transaction *models.Transaction       `json:"transaction"`
	Assignment  delivery.AssignmentResult `json:"assignment"`
}

// PlacementParams bundles the placement dependencies.
type PlacementParams struct {
	DB               txRunner
	Orders           *Repository
	Transactions     *payments.Repository
	Offers           *offers.Repository
	Validator        *payments.Validator
	Assembler        *Assembler
	Carts            *customers.Repository
	Locker           Locker
	Numbers          orderNumbers
	Assigner         deliveryAssigner
	Outbox           outbox.Emitter
	Metrics          *metrics.OrderMetrics
	Logger           *logger.Logger
	DefaultReadyTime int
	Now              func() time.Time
}

// PlacementService turns a valid transaction plus requested lines into a persisted order and
// then tries to find it a delivery partner.
type PlacementService struct {
	db           txRunner
	orders       *Repository
	transactions *payments.Repository
	offers       *offers.Repository
	validator    *payments.Validator
	assembler    *Assembler
	carts        *customers.Repository
	locker       Locker
	numbers      orderNumbers
	assigner     deliveryAssigner
	outbox       outbox.Emitter
	metrics      *metrics.OrderMetrics
	logg         *logger.Logger
	readyTime    int
	now          func() time.Time
}

func NewPlacementService(params PlacementParams) (*PlacementService, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Transactions == nil:
		return nil, fmt.Errorf("transaction repository required")
	case params.Offers == nil:
		return nil, fmt.Errorf("offer repository required")
	case params.Validator == nil:
		return nil, fmt.Errorf("transaction validator required")
	case params.Assembler == nil:
		return nil, fmt.Errorf("order assembler required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case params.Numbers == nil:
		return nil, fmt.Errorf("order number source required")
	case params.Assigner == nil:
		return nil, fmt.Errorf("delivery assigner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	readyTime := params.DefaultReadyTime
	if readyTime <= 0 {
		readyTime = defaultReadyTimeMinutes
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &PlacementService{
		db:           params.DB,
		orders:       params.Orders,
		transactions: params.Transactions,
		offers:       params.Offers,
		validator:    params.Validator,
		assembler:    params.Assembler,
		carts:        params.Carts,
		locker:       params.Locker,
		numbers:      params.Numbers,
		assigner:     params.Assigner,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
		readyTime:    readyTime,
		now:          now,
	}, nil
}

// PlaceOrder validates the transaction, prices the lines, persists the order, clears the cart
// and confirms the transaction in one DB transaction. Delivery assignment runs after commit;
// its failure never undoes the order.
func (s *PlacementService) PlaceOrder(ctx context.Context, principal auth.Principal, input PlaceOrderInput) (*PlacementResult, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	if input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	var result *PlacementResult
	err := s.locker.WithLock(ctx, locks.ScopeCustomer, principal.ID, func(ctx context.Context) error {
		number, err := s.numbers.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		result, err = s.persist(ctx, principal, input, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncPlaced()

	assignment, err := s.assigner.Assign(ctx, result.Order.ID, result.Order.VendorID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_id", result.Order.ID.String()), "delivery assignment failed", err)
		}
		assignment = delivery.AssignmentResult{Outcome: enums.AssignmentUnassigned, Reason: enums.AssignmentReasonError}
	}
	result.Assignment = assignment
	if assignment.DeliveryID != nil {
		result.Order.DeliveryID = assignment.DeliveryID
	}
	return result, nil
}

func (s *PlacementService) persist(ctx context.Context, principal auth.Principal, input PlaceOrderInput, number string) (*PlacementResult, error) {
	var result *PlacementResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.validator.WithTx(tx).Validate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if txn.CustomerID != principal.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not valid")
		}
		if txn.Status != enums.TransactionStatusOpen {
			return errTransactionUsed
		}

		assembly, err := s.assembler.WithTx(tx).Assemble(ctx, input.Items)
		if err != nil {
			return err
		}
		if assembly.Empty() {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart has no orderable items")
		}
		if err := s.checkOfferScope(ctx, tx, txn, assembly.VendorID); err != nil {
			return err
		}

		now := s.now().UTC()
		order := &models.Order{
			OrderNumber:   number,
			CustomerID:    principal.ID,
			VendorID:      assembly.VendorID,
			TransactionID: txn.ID,
			TotalAmount:   assembly.Total,
			PaidAmount:    txn.OrderValue,
			OrderDate:     now,
			Status:        enums.OrderStatusWaiting,
			ReadyTime:     s.readyTime,
			Items:         make([]models.OrderItem, 0, len(assembly.Items)),
		}
		for _, item := range assembly.Items {
			order.Items = append(order.Items, models.OrderItem{
				FoodID:    item.Food.ID,
				Unit:      item.Unit,
				UnitPrice: item.UnitPrice,
			})
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "ux_orders_transaction") {
				return errTransactionUsed
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range order.Items {
			food := assembly.Items[i].Food
			order.Items[i].Food = &food
		}

		if err := s.carts.WithTx(tx).ClearCart(ctx, principal.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		confirmed, err := s.transactions.WithTx(tx).Confirm(ctx, txn, order.VendorID, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm transaction")
		}
		if !confirmed {
			return errTransactionUsed
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ID: principal.ID, Role: principal.Role},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerID:    order.CustomerID,
				VendorID:      order.VendorID,
				TransactionID: txn.ID,
				TotalAmount:   order.TotalAmount,
				PaidAmount:    order.PaidAmount,
				ItemCount:     len(order.Items),
			},
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		result = &PlacementResult{Order: order, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkOfferScope rejects a transaction whose offer is scoped to vendors other than vendorID.
func (s *PlacementService) checkOfferScope(ctx context.Context, tx *gorm.DB, txn *models.Transaction, vendorID uuid.UUID) error {
	if txn.OfferUsed == "" || txn.OfferUsed == models.NoOfferUsed {
		return nil
	}
	offerID, err := uuid.Parse(txn.OfferUsed)
	if err != nil {
		return errOfferNotForVendor
	}
	offer, err := s.offers.WithTx(tx).FindByID(ctx, offerID)
	if err != nil {
		if db.IsNotFound(err) {
			return errOfferNotForVendor
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if !offer.AppliesToVendor(vendorID) {
		return errOfferNotForVendor
	}
	return nil
}
