package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/locks"
)

type cartRepository interface {
	Cart(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	UpsertCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, customerID, foodID uuid.UUID) error
	ClearCart(ctx context.Context, customerID uuid.UUID) error
}

type foodLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Food, error)
}

// Locker serializes work per customer.
type Locker interface {
	WithLock(ctx context.Context, scope string, id uuid.UUID, fn func(ctx context.Context) error) error
}

// CartService mutates carts under the customer lock shared with order placement.
type CartService interface {
	Set(ctx context.Context, principal auth.Principal, line CartLineInput) ([]models.CartItem, error)
	Get(ctx context.Context, principal auth.Principal) ([]models.CartItem, error)
	Clear(ctx context.Context, principal auth.Principal) error
}

type cartService struct {
	repo   cartRepository
	foods  foodLookup
	locker Locker
}

func NewCartService(repo cartRepository, foods foodLookup, locker Locker) (CartService, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if foods == nil {
		return nil, fmt.Errorf("food lookup required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	return &cartService{repo: repo, foods: foods, locker: locker}, nil
}

// Set replaces the unit count for a food; unit zero drops the line.
func (s *cartService) Set(ctx context.Context, principal auth.Principal, line CartLineInput) ([]models.CartItem, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	if line.Unit < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cannot be negative")
	}
	if _, err := s.foods.FindByID(ctx, line.FoodID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "food not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load food")
	}

	var cart []models.CartItem
	err := s.locker.WithLock(ctx, locks.ScopeCustomer, principal.ID, func(ctx context.Context) error {
		var err error
		if line.Unit == 0 {
			err = s.repo.DeleteCartItem(ctx, principal.ID, line.FoodID)
		} else {
			err = s.repo.UpsertCartItem(ctx, &models.CartItem{CustomerID: principal.ID, FoodID: line.FoodID, Unit: line.Unit})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
		}
		cart, err = s.repo.Cart(ctx, principal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) Get(ctx context.Context, principal auth.Principal) ([]models.CartItem, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	cart, err := s.repo.Cart(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *cartService) Clear(ctx context.Context, principal auth.Principal) error {
	if !principal.Is(enums.RoleCustomer) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	return s.locker.WithLock(ctx, locks.ScopeCustomer, principal.ID, func(ctx context.Context) error {
		if err := s.repo.ClearCart(ctx, principal.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
}
