package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type deliveryRegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=12"`
	Password  string `json:"password" validate:"required,min=6,max=12"`
	FirstName string `json:"firstName" validate:"required,min=2,max=15"`
	LastName  string `json:"lastName" validate:"required,min=2,max=15"`
	Address   string `json:"address" validate:"required,min=6,max=25"`
	Pincode   string `json:"pincode" validate:"required,len=6,numeric"`
}

type deliveryProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=15"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=15"`
	Address   *string `json:"address" validate:"omitempty,min=6,max=25"`
	Pincode   *string `json:"pincode" validate:"omitempty,len=6,numeric"`
}

func DeliveryRegister(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery service")
			return
		}
		var body deliveryRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Register(r.Context(), delivery.RegisterInput{
			Email:     body.Email,
			Phone:     body.Phone,
			Password:  body.Password,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Address:   body.Address,
			Pincode:   body.Pincode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

func DeliveryLogin(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery service")
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

func DeliveryProfile(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		partner, err := svc.Profile(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}

func DeliveryUpdateProfile(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body deliveryProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partner, err := svc.UpdateProfile(r.Context(), p, delivery.UpdateProfileInput{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Address:   body.Address,
			Pincode:   body.Pincode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}

func DeliveryChangeStatus(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body locationRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		partner, err := svc.ChangeStatus(r.Context(), p, delivery.StatusInput{Lat: body.Lat, Lng: body.Lng})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}

func DeliveryOrders(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.Orders(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func (r *deliveryRegisterRequest) Sanitize() {
	r.FirstName = validators.SanitizeString(r.FirstName, 15)
	r.LastName = validators.SanitizeString(r.LastName, 15)
	r.Address = validators.SanitizeString(r.Address, 25)
}

func (r *deliveryProfileRequest) Sanitize() {
	validators.SanitizeStringPtr(r.FirstName, 15)
	validators.SanitizeStringPtr(r.LastName, 15)
	validators.SanitizeStringPtr(r.Address, 25)
}
