package foods

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

type foodRepository interface {
	Create(ctx context.Context, food *models.Food) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Food, error)
}

// Service exposes the vendor-facing menu operations.
type Service interface {
	AddFood(ctx context.Context, principal auth.Principal, input AddFoodInput) (*models.Food, error)
	ListVendorFoods(ctx context.Context, principal auth.Principal) ([]models.Food, error)
}

// AddFoodInput carries a new menu item. Images are names or URLs supplied by the caller.
type AddFoodInput struct {
	Name        string
	Description string
	Category    string
	FoodType    string
	ReadyTime   int
	Price       decimal.Decimal
	Images      []string
}

type service struct {
	repo foodRepository
}

func NewService(repo foodRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("food repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AddFood(ctx context.Context, principal auth.Principal, input AddFoodInput) (*models.Food, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.ReadyTime < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "readyTime cannot be negative")
	}
	images := input.Images
	if images == nil {
		images = []string{}
	}
	food := &models.Food{
		VendorID:    principal.ID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		FoodType:    strings.TrimSpace(input.FoodType),
		ReadyTime:   input.ReadyTime,
		Price:       input.Price.Round(2),
		Images:      images,
	}
	if err := s.repo.Create(ctx, food); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create food")
	}
	return food, nil
}

func (s *service) ListVendorFoods(ctx context.Context, principal auth.Principal) ([]models.Food, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	foods, err := s.repo.ListByVendor(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list foods")
	}
	return foods, nil
}
