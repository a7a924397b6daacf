package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/customers"
	"github.com/angelmondragon/foodhaul-backend/internal/orders"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, principal auth.Principal, input orders.PlaceOrderInput) (*orders.PlacementResult, error)
}

type customerRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=12"`
	Password string `json:"password" validate:"required,min=6,max=12"`
}

type verifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,numeric,min=4,max=12"`
}

type customerProfileRequest struct {
	FirstName *string  `json:"firstName" validate:"omitempty,min=2,max=15"`
	LastName  *string  `json:"lastName" validate:"omitempty,min=2,max=15"`
	Address   *string  `json:"address" validate:"omitempty,min=4,max=20"`
	Lat       *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng       *float64 `json:"lng" validate:"omitempty,longitude"`
}

type cartLineRequest struct {
	FoodID uuid.UUID `json:"id" validate:"required"`
	Unit   int       `json:"unit" validate:"gte=0,lte=100"`
}

type createPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	OfferID     *uuid.UUID      `json:"offerId"`
	PaymentMode string          `json:"paymentMode" validate:"required"`
}

type createOrderRequest struct {
	TransactionID uuid.UUID         `json:"txnId" validate:"required"`
	Items         []cartLineRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

func CustomerRegister(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "customer service")
			return
		}
		var body customerRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Register(r.Context(), customers.RegisterInput{Email: body.Email, Phone: body.Phone, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

func CustomerLogin(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "customer service")
			return
		}
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerVerify(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Verify(r.Context(), p, body.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerRequestOTP(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		if err := svc.RequestOTP(r.Context(), p); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "OTP sent to your registered mobile number"})
	}
}

func CustomerProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		customer, err := svc.Profile(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerUpdateProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body customerProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.UpdateProfile(r.Context(), p, customers.UpdateProfileInput{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Address:   body.Address,
			Lat:       body.Lat,
			Lng:       body.Lng,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerSetCartLine(svc customers.CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body cartLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.Set(r.Context(), p, customers.CartLineInput{FoodID: body.FoodID, Unit: body.Unit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CustomerCart(svc customers.CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		cart, err := svc.Get(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CustomerClearCart(svc customers.CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), p); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CustomerCreatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body createPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParsePaymentMode(body.PaymentMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode").WithDetails(map[string]any{"field": "paymentMode"}))
			return
		}
		txn, err := svc.CreatePayment(r.Context(), p, payments.CreatePaymentInput{
			Amount:      body.Amount,
			OfferID:     body.OfferID,
			PaymentMode: mode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, txn)
	}
}

// CustomerCreateOrder answers 201 whenever the order was persisted, including when no delivery
// partner could be assigned; the assignment outcome travels in the body.
func CustomerCreateOrder(svc orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		if svc == nil {
			unavailable(w, r, logg, "order placement")
			return
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]orders.CartLine, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, orders.CartLine{FoodID: item.FoodID, Unit: item.Unit})
		}
		result, err := svc.PlaceOrder(r.Context(), p, orders.PlaceOrderInput{TransactionID: body.TransactionID, Items: lines})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil && !result.Assignment.Assigned() {
			logCtx := logg.WithFields(r.Context(), map[string]any{
				"order_id": result.Order.ID.String(),
				"reason":   string(result.Assignment.Reason),
			})
			logg.Warn(logCtx, "order placed without delivery partner")
		}
		responses.WriteCreated(w, result)
	}
}

func CustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.CustomerOrders(r.Context(), p, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CustomerOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CustomerOrder(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func (r *customerProfileRequest) Sanitize() {
	validators.SanitizeStringPtr(r.FirstName, 15)
	validators.SanitizeStringPtr(r.LastName, 15)
	validators.SanitizeStringPtr(r.Address, 20)
}
