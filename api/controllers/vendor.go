package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/internal/orders"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type vendorProfileRequest struct {
	Name      *string   `json:"name" validate:"omitempty,min=2,max=60"`
	Address   *string   `json:"address" validate:"omitempty,min=4,max=120"`
	Phone     *string   `json:"phone" validate:"omitempty,min=7,max=12"`
	FoodTypes *[]string `json:"foodType" validate:"omitempty,min=1,dive,required"`
}

type coverImagesRequest struct {
	Images []string `json:"images" validate:"required,min=1,max=10,dive,required,max=512"`
}

type locationRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng *float64 `json:"lng" validate:"omitempty,longitude"`
}

type addFoodRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=60"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"required,max=40"`
	FoodType    string          `json:"foodType" validate:"required,max=40"`
	ReadyTime   int             `json:"readyTime" validate:"gte=0,lte=600"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images" validate:"omitempty,max=10,dive,required,max=512"`
}

type processOrderRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=200"`
	Time    *int   `json:"time"`
}

func VendorLogin(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
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

func VendorProfile(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		vendor, err := svc.Profile(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func VendorUpdateProfile(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body vendorProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.UpdateProfile(r.Context(), p, vendors.UpdateProfileInput{
			Name:      body.Name,
			Address:   body.Address,
			Phone:     body.Phone,
			FoodTypes: body.FoodTypes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func VendorCoverImages(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body coverImagesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.UpdateCoverImages(r.Context(), p, body.Images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func VendorToggleService(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
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
		vendor, err := svc.ToggleService(r.Context(), p, vendors.ServiceToggleInput{Lat: body.Lat, Lng: body.Lng})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func VendorAddFood(svc foods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body addFoodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		food, err := svc.AddFood(r.Context(), p, foods.AddFoodInput{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			FoodType:    body.FoodType,
			ReadyTime:   body.ReadyTime,
			Price:       body.Price,
			Images:      body.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, food)
	}
}

func VendorFoods(svc foods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.ListVendorFoods(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func VendorOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.VendorOrders(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func VendorOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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
		order, err := svc.VendorOrder(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func VendorProcessOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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
		var body processOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").WithDetails(map[string]any{"field": "status"}))
			return
		}
		order, err := svc.Process(r.Context(), p, id, orders.ProcessInput{
			Status:    status,
			Remarks:   body.Remarks,
			ReadyTime: body.Time,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func (r *vendorProfileRequest) Sanitize() {
	validators.SanitizeStringPtr(r.Name, 60)
	validators.SanitizeStringPtr(r.Address, 120)
}

func (r *addFoodRequest) Sanitize() {
	r.Name = validators.SanitizeString(r.Name, 60)
	r.Description = validators.SanitizeString(r.Description, 500)
	r.Category = validators.SanitizeString(r.Category, 40)
}

func (r *processOrderRequest) Sanitize() {
	r.Remarks = validators.SanitizeString(r.Remarks, 200)
}
