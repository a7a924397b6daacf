package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/shopping"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

// byPincode adapts a pincode-scoped shopping query into a handler.
func byPincode[T any](logg *logger.Logger, query func(ctx context.Context, pincode string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pincode, err := validators.PincodeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := query(r.Context(), pincode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ShoppingAvailability(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return byPincode(logg, svc.Availability)
}

func ShoppingTopRestaurants(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return byPincode(logg, svc.TopRestaurants)
}

func ShoppingFoodsIn30(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return byPincode(logg, svc.FoodsIn30)
}

func ShoppingSearch(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return byPincode(logg, svc.Search)
}

func ShoppingOffers(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return byPincode(logg, svc.Offers)
}

func ShoppingRestaurant(svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Restaurant(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}
