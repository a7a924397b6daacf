package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodhaul-backend/api/controllers"
	"github.com/angelmondragon/foodhaul-backend/api/middleware"
	"github.com/angelmondragon/foodhaul-backend/internal/admins"
	"github.com/angelmondragon/foodhaul-backend/internal/customers"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/orders"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/internal/shopping"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/redis"
)

// Deps is everything the router hands to controllers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Admins    admins.Service
	Vendors   vendors.Service
	Foods     foods.Service
	Offers    offers.Service
	Customers customers.Service
	Carts     customers.CartService
	Payments  payments.Service
	Orders    orders.Service
	Placement *orders.PlacementService
	Delivery  delivery.Service
	Shopping  shopping.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	passthrough := func(next http.Handler) http.Handler { return next }
	loginLimit, registerLimit, idempotent := passthrough, passthrough, passthrough
	if d.Redis != nil {
		loginLimit = middleware.AuthRateLimit(middleware.LoginRateLimit(cfg.AuthRateLimit), d.Redis, logg)
		registerLimit = middleware.AuthRateLimit(middleware.RegisterRateLimit(cfg.AuthRateLimit), d.Redis, logg)
		idempotent = middleware.Idempotency(d.Redis, cfg.Orders.IdempotencyTTL, logg)
	}
	authenticated := middleware.Auth(cfg.JWT, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, readinessRedis(d.Redis)))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.AdminLogin(d.Admins, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(enums.RoleAdmin, logg))
			r.Post("/vendor", controllers.AdminCreateVendor(d.Vendors, logg))
			r.Get("/vendor", controllers.AdminListVendors(d.Vendors, logg))
			r.Get("/vendor/{id}", controllers.AdminGetVendor(d.Vendors, logg))
			r.Get("/transactions", controllers.AdminListTransactions(d.Payments, logg))
			r.Get("/transaction/{id}", controllers.AdminGetTransaction(d.Payments, logg))
			r.Get("/delivery-users", controllers.AdminListDeliveryUsers(d.Delivery, logg))
			r.Put("/delivery-user/verify", controllers.AdminVerifyDeliveryUser(d.Delivery, logg))
			r.Post("/offer", controllers.AddOffer(d.Offers, logg))
		})
	})

	r.Route("/vendor", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.VendorLogin(d.Vendors, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(enums.RoleVendor, logg))
			r.Get("/profile", controllers.VendorProfile(d.Vendors, logg))
			r.Patch("/profile", controllers.VendorUpdateProfile(d.Vendors, logg))
			r.Patch("/coverimage", controllers.VendorCoverImages(d.Vendors, logg))
			r.Patch("/service", controllers.VendorToggleService(d.Vendors, logg))
			r.Post("/food", controllers.VendorAddFood(d.Foods, logg))
			r.Get("/foods", controllers.VendorFoods(d.Foods, logg))
			r.Get("/orders", controllers.VendorOrders(d.Orders, logg))
			r.Get("/order/{id}", controllers.VendorOrder(d.Orders, logg))
			r.Put("/order/{id}/process", controllers.VendorProcessOrder(d.Orders, logg))
			r.Get("/offers", controllers.VendorOffers(d.Offers, logg))
			r.Post("/offer", controllers.AddOffer(d.Offers, logg))
			r.Put("/offer/{id}", controllers.VendorEditOffer(d.Offers, logg))
		})
	})

	r.Route("/customer", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.CustomerRegister(d.Customers, logg))
		r.With(loginLimit).Post("/login", controllers.CustomerLogin(d.Customers, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(enums.RoleCustomer, logg))
			r.Patch("/verify", controllers.CustomerVerify(d.Customers, logg))
			r.Get("/otp", controllers.CustomerRequestOTP(d.Customers, logg))
			r.Get("/profile", controllers.CustomerProfile(d.Customers, logg))
			r.Patch("/profile", controllers.CustomerUpdateProfile(d.Customers, logg))
			r.Post("/cart", controllers.CustomerSetCartLine(d.Carts, logg))
			r.Get("/cart", controllers.CustomerCart(d.Carts, logg))
			r.Delete("/cart", controllers.CustomerClearCart(d.Carts, logg))
			r.Get("/offer/verify/{id}", controllers.CustomerVerifyOffer(d.Offers, logg))
			r.With(idempotent).Post("/create-payment", controllers.CustomerCreatePayment(d.Payments, logg))
			r.With(idempotent).Post("/create-order", controllers.CustomerCreateOrder(placer(d.Placement), logg))
			r.Get("/orders", controllers.CustomerOrders(d.Orders, logg))
			r.Get("/order/{id}", controllers.CustomerOrder(d.Orders, logg))
		})
	})

	r.Route("/delivery", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.DeliveryRegister(d.Delivery, logg))
		r.With(loginLimit).Post("/login", controllers.DeliveryLogin(d.Delivery, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(enums.RoleDelivery, logg))
			r.Get("/profile", controllers.DeliveryProfile(d.Delivery, logg))
			r.Patch("/profile", controllers.DeliveryUpdateProfile(d.Delivery, logg))
			r.Put("/change-status", controllers.DeliveryChangeStatus(d.Delivery, logg))
			r.Get("/orders", controllers.DeliveryOrders(d.Delivery, logg))
		})
	})

	if d.Shopping != nil {
		r.Route("/shopping", func(r chi.Router) {
			r.Get("/{pincode}", controllers.ShoppingAvailability(d.Shopping, logg))
			r.Get("/top-restaurants/{pincode}", controllers.ShoppingTopRestaurants(d.Shopping, logg))
			r.Get("/food-in-30/{pincode}", controllers.ShoppingFoodsIn30(d.Shopping, logg))
			r.Get("/search/{pincode}", controllers.ShoppingSearch(d.Shopping, logg))
			r.Get("/offers/{pincode}", controllers.ShoppingOffers(d.Shopping, logg))
			r.Get("/restaurant/{id}", controllers.ShoppingRestaurant(d.Shopping, logg))
		})
	}

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readinessRedis keeps a missing client a nil interface so the readiness check skips it.
func readinessRedis(c *redis.Client) pinger {
	if c == nil {
		return nil
	}
	return c
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, principal auth.Principal, input orders.PlaceOrderInput) (*orders.PlacementResult, error)
}

func placer(s *orders.PlacementService) orderPlacer {
	if s == nil {
		return nil
	}
	return s
}
