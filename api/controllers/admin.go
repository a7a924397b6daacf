package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/admins"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type createVendorRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=60"`
	OwnerName string   `json:"ownerName" validate:"required,min=2,max=60"`
	FoodTypes []string `json:"foodType" validate:"required,min=1,dive,required"`
	Pincode   string   `json:"pincode" validate:"required,len=6,numeric"`
	Address   string   `json:"address" validate:"required,min=4,max=120"`
	Phone     string   `json:"phone" validate:"required,min=7,max=12"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6,max=12"`
}

type verifyDeliveryUserRequest struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Status *bool     `json:"status" validate:"required"`
}

func AdminLogin(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "admin service")
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

func AdminCreateVendor(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body createVendorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Create(r.Context(), p, vendors.CreateVendorInput{
			Name:      body.Name,
			OwnerName: body.OwnerName,
			FoodTypes: body.FoodTypes,
			Pincode:   body.Pincode,
			Address:   body.Address,
			Phone:     body.Phone,
			Email:     body.Email,
			Password:  body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, vendor)
	}
}

func AdminListVendors(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.List(r.Context(), p, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetVendor(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
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
		vendor, err := svc.Get(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func AdminListTransactions(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.List(r.Context(), p, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetTransaction(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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
		txn, err := svc.Get(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func AdminListDeliveryUsers(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.List(r.Context(), p, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminVerifyDeliveryUser(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body verifyDeliveryUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partner, err := svc.Verify(r.Context(), p, body.ID, *body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}

func (r *createVendorRequest) Sanitize() {
	r.Name = validators.SanitizeString(r.Name, 60)
	r.OwnerName = validators.SanitizeString(r.OwnerName, 60)
	r.Address = validators.SanitizeString(r.Address, 120)
}
