package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/customers"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/locks"
	"github.com/angelmondragon/foodhaul-backend/pkg/locks/lockstest"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type counter struct{ n atomic.Int64 }

func (c *counter) NextOrderNumber(context.Context) (string, error) {
	return fmt.Sprintf("%d", 10000+c.n.Add(1)), nil
}

type failingAssigner struct{}

func (failingAssigner) Assign(context.Context, uuid.UUID, uuid.UUID) (delivery.AssignmentResult, error) {
	return delivery.AssignmentResult{}, errors.New("redis gone")
}

type placementFixture struct {
	svc      *PlacementService
	conn     *gorm.DB
	store    *lockstest.MemoryStore
	reg      *prometheus.Registry
	customer auth.Principal
	vendor   *models.Vendor
	dosa     *models.Food
	idli     *models.Food
}

func newPlacementFixture(t *testing.T, assigner deliveryAssigner) placementFixture {
	t.Helper()
	client, conn := dbtest.Client(t)

	customer := &models.Customer{Email: "c@example.com", Phone: "9876543210", PasswordHash: "x"}
	require.NoError(t, conn.Create(customer).Error)
	vendor := &models.Vendor{Name: "Spice Hut", OwnerName: "Asha", Pincode: "560001", Phone: "1", Email: "v@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(vendor).Error)
	dosa := &models.Food{VendorID: vendor.ID, Name: "Dosa", FoodType: "veg", Price: decimal.NewFromInt(80)}
	idli := &models.Food{VendorID: vendor.ID, Name: "Idli", FoodType: "veg", Price: decimal.NewFromInt(45)}
	require.NoError(t, conn.Create(dosa).Error)
	require.NoError(t, conn.Create(idli).Error)

	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)
	if assigner == nil {
		a, err := delivery.NewAssigner(delivery.AssignerParams{
			DB:      client,
			Repo:    delivery.NewRepository(conn),
			Outbox:  emitter,
			Metrics: orderMetrics,
			Now:     func() time.Time { return fixedNow },
		})
		require.NoError(t, err)
		assigner = a
	}

	txnRepo := payments.NewRepository(conn)
	validator, err := payments.NewValidator(txnRepo)
	require.NoError(t, err)
	assembler, err := NewAssembler(foods.NewRepository(conn))
	require.NoError(t, err)
	store := lockstest.NewMemoryStore()
	locker, err := locks.NewLocker(store, locks.Options{Wait: 100 * time.Millisecond, Retry: 10 * time.Millisecond})
	require.NoError(t, err)

	svc, err := NewPlacementService(PlacementParams{
		DB:           client,
		Orders:       NewRepository(conn),
		Transactions: txnRepo,
		Offers:       offers.NewRepository(conn),
		Validator:    validator,
		Assembler:    assembler,
		Carts:        customers.NewRepository(conn),
		Locker:       locker,
		Numbers:      &counter{},
		Assigner:     assigner,
		Outbox:       emitter,
		Metrics:      orderMetrics,
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return placementFixture{
		svc:      svc,
		conn:     conn,
		store:    store,
		reg:      reg,
		customer: auth.Principal{ID: customer.ID, Role: enums.RoleCustomer},
		vendor:   vendor,
		dosa:     dosa,
		idli:     idli,
	}
}

func (f placementFixture) openTransaction(t *testing.T, value int64) *models.Transaction {
	t.Helper()
	txn := &models.Transaction{
		CustomerID:  f.customer.ID,
		OrderValue:  decimal.NewFromInt(value),
		OfferUsed:   models.NoOfferUsed,
		Status:      enums.TransactionStatusOpen,
		PaymentMode: enums.PaymentModeCOD,
	}
	require.NoError(t, f.conn.Create(txn).Error)
	return txn
}

func (f placementFixture) offerTransaction(t *testing.T, value int64, offerType enums.OfferType, vendorIDs ...uuid.UUID) *models.Transaction {
	t.Helper()
	offer := &models.Offer{
		OfferType:    offerType,
		VendorIDs:    vendorIDs,
		Title:        "Flat 50",
		MinimumValue: decimal.NewFromInt(50),
		OfferAmount:  decimal.NewFromInt(50),
		Promocode:    "FLAT50",
		PromoType:    enums.PromoTypeAll,
		Pincode:      f.vendor.Pincode,
		IsActive:     true,
	}
	require.NoError(t, f.conn.Create(offer).Error)
	txn := f.openTransaction(t, value)
	require.NoError(t, f.conn.Model(txn).Update("offer_used", offer.ID.String()).Error)
	txn.OfferUsed = offer.ID.String()
	return txn
}

func (f placementFixture) addPartner(t *testing.T) *models.DeliveryUser {
	t.Helper()
	partner := &models.DeliveryUser{
		Email:        uuid.NewString() + "@partner.test",
		Phone:        "9000000000",
		PasswordHash: "x",
		Pincode:      f.vendor.Pincode,
		IsAvailable:  true,
		Verified:     true,
	}
	require.NoError(t, f.conn.Create(partner).Error)
	return partner
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newPlacementFixture(t, nil)
	partner := f.addPartner(t)
	txn := f.openTransaction(t, 200)
	require.NoError(t, f.conn.Create(&models.CartItem{CustomerID: f.customer.ID, FoodID: f.dosa.ID, Unit: 2}).Error)

	res, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 2}, {FoodID: f.idli.ID, Unit: 1}},
	})
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, "10001", order.OrderNumber)
	assert.Equal(t, f.vendor.ID, order.VendorID)
	assert.Equal(t, enums.OrderStatusWaiting, order.Status)
	assert.Equal(t, 45, order.ReadyTime)
	assert.True(t, decimal.NewFromInt(205).Equal(order.TotalAmount))
	assert.True(t, decimal.NewFromInt(200).Equal(order.PaidAmount))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Dosa", order.Items[0].Food.Name)

	assert.Equal(t, enums.TransactionStatusConfirmed, res.Transaction.Status)
	require.NotNil(t, res.Transaction.OrderID)
	assert.Equal(t, order.ID, *res.Transaction.OrderID)

	assert.Equal(t, enums.AssignmentAssigned, res.Assignment.Outcome)
	require.NotNil(t, res.Assignment.DeliveryID)
	assert.Equal(t, partner.ID, *res.Assignment.DeliveryID)
	assert.Equal(t, partner.ID, *order.DeliveryID)

	var cartRows int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Where("customer_id = ?", f.customer.ID).Count(&cartRows).Error)
	assert.Zero(t, cartRows)

	var created int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderCreated).Count(&created).Error)
	assert.EqualValues(t, 1, created)

	placed, err := testutil.GatherAndCount(f.reg, "foodhaul_orders_placed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, placed)
}

func TestPlaceOrderWithoutPartnerStillSucceeds(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.openTransaction(t, 80)

	res, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentUnassigned, res.Assignment.Outcome)
	assert.Equal(t, enums.AssignmentReasonNoAvailablePartner, res.Assignment.Reason)
	assert.Nil(t, res.Order.DeliveryID)
}

func TestPlaceOrderAssignerErrorIsReportedNotFatal(t *testing.T) {
	f := newPlacementFixture(t, failingAssigner{})
	txn := f.openTransaction(t, 80)

	res, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentUnassigned, res.Assignment.Outcome)
	assert.Equal(t, enums.AssignmentReasonError, res.Assignment.Reason)
}

func TestPlaceOrderRejectsInvalidTransactions(t *testing.T) {
	f := newPlacementFixture(t, nil)
	items := []CartLine{{FoodID: f.dosa.ID, Unit: 1}}

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{TransactionID: uuid.New(), Items: items})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	failed := f.openTransaction(t, 80)
	require.NoError(t, f.conn.Model(failed).Update("status", enums.TransactionStatusFailed).Error)
	_, err = f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{TransactionID: failed.ID, Items: items})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	other := f.openTransaction(t, 80)
	stranger := auth.Principal{ID: uuid.New(), Role: enums.RoleCustomer}
	_, err = f.svc.PlaceOrder(context.Background(), stranger, PlaceOrderInput{TransactionID: other.ID, Items: items})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.PlaceOrder(context.Background(), auth.Principal{ID: uuid.New(), Role: enums.RoleVendor}, PlaceOrderInput{TransactionID: other.ID, Items: items})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestPlaceOrderFailedTransactionLeavesCart(t *testing.T) {
	f := newPlacementFixture(t, nil)
	require.NoError(t, f.conn.Create(&models.CartItem{CustomerID: f.customer.ID, FoodID: f.dosa.ID, Unit: 1}).Error)
	txn := f.openTransaction(t, 80)
	require.NoError(t, f.conn.Model(txn).Update("status", "failed").Error)

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 1}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var orders, cartRows int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	require.NoError(t, f.conn.Model(&models.CartItem{}).Where("customer_id = ?", f.customer.ID).Count(&cartRows).Error)
	assert.EqualValues(t, 1, cartRows)
}

func TestPlaceOrderRejectsOfferScopedToOtherVendor(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.offerTransaction(t, 30, enums.OfferTypeVendor, uuid.New())

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 1}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var stored models.Transaction
	require.NoError(t, f.conn.First(&stored, "id = ?", txn.ID).Error)
	assert.Equal(t, enums.TransactionStatusOpen, stored.Status)
	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestPlaceOrderAcceptsScopedAndGenericOffers(t *testing.T) {
	f := newPlacementFixture(t, nil)
	items := []CartLine{{FoodID: f.dosa.ID, Unit: 1}}

	scoped := f.offerTransaction(t, 30, enums.OfferTypeVendor, f.vendor.ID)
	res, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{TransactionID: scoped.ID, Items: items})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(res.Order.PaidAmount))

	generic := f.offerTransaction(t, 30, enums.OfferTypeGeneric)
	_, err = f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{TransactionID: generic.ID, Items: items})
	require.NoError(t, err)
}

func TestPlaceOrderEmptyCartRollsBack(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.openTransaction(t, 80)

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: uuid.New(), Unit: 1}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var stored models.Transaction
	require.NoError(t, f.conn.First(&stored, "id = ?", txn.ID).Error)
	assert.Equal(t, enums.TransactionStatusOpen, stored.Status)
}

func TestTransactionFundsOnlyOneOrder(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.openTransaction(t, 80)
	input := PlaceOrderInput{TransactionID: txn.ID, Items: []CartLine{{FoodID: f.dosa.ID, Unit: 1}}}

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, input)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), f.customer, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Where("transaction_id = ?", txn.ID).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}

func TestConcurrentPlacementsForOneTransaction(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.openTransaction(t, 80)
	input := PlaceOrderInput{TransactionID: txn.ID, Items: []CartLine{{FoodID: f.dosa.ID, Unit: 1}}}

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.PlaceOrder(context.Background(), f.customer, input); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, succeeded.Load())
}

func TestPlaceOrderBusyCustomer(t *testing.T) {
	f := newPlacementFixture(t, nil)
	txn := f.openTransaction(t, 80)
	release := f.store.Hold(locks.ScopeCustomer, f.customer.ID.String())
	defer release()

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, PlaceOrderInput{
		TransactionID: txn.ID,
		Items:         []CartLine{{FoodID: f.dosa.ID, Unit: 1}},
	})
	assert.ErrorIs(t, err, locks.ErrBusy)
}
