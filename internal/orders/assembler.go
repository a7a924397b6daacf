package orders

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

type foodFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Food, error)
}

// CartLine is one requested food and how many units of it.
type CartLine struct {
	FoodID uuid.UUID
	Unit   int
}

// AssembledItem is a resolved line with the price captured at assembly time.
type AssembledItem struct {
	Food      models.Food
	Unit      int
	UnitPrice decimal.Decimal
}

// Assembly is the priced result of resolving cart lines against the food catalog.
type Assembly struct {
	VendorID uuid.UUID
	Items    []AssembledItem
	Total    decimal.Decimal
}

// Empty reports whether nothing in the request resolved to a food.
func (a Assembly) Empty() bool {
	return len(a.Items) == 0
}

// Assembler turns requested lines into priced order items. Lines naming unknown foods are
// dropped; the rest must all come from one vendor.
type Assembler struct {
	foods foodFinder
}

func NewAssembler(foods foodFinder) (*Assembler, error) {
	if foods == nil {
		return nil, fmt.Errorf("food lookup required")
	}
	return &Assembler{foods: foods}, nil
}

// WithTx returns an assembler whose catalog reads run on tx.
func (a *Assembler) WithTx(tx *gorm.DB) *Assembler {
	if repo, ok := a.foods.(*foods.Repository); ok {
		return &Assembler{foods: repo.WithTx(tx)}
	}
	return a
}

func (a *Assembler) Assemble(ctx context.Context, lines []CartLine) (Assembly, error) {
	assembly := Assembly{Total: decimal.Zero}

	units := make(map[uuid.UUID]int, len(lines))
	order := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Unit <= 0 {
			return assembly, pkgerrors.New(pkgerrors.CodeValidation, "unit must be positive").
				WithDetails(map[string]any{"foodId": line.FoodID.String()})
		}
		if _, seen := units[line.FoodID]; !seen {
			order = append(order, line.FoodID)
		}
		units[line.FoodID] += line.Unit
	}
	if len(order) == 0 {
		return assembly, nil
	}

	found, err := a.foods.FindByIDs(ctx, order)
	if err != nil {
		return assembly, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load foods")
	}
	byID := make(map[uuid.UUID]models.Food, len(found))
	vendors := map[uuid.UUID]struct{}{}
	for _, food := range found {
		byID[food.ID] = food
		vendors[food.VendorID] = struct{}{}
	}
	if len(vendors) > 1 {
		ids := make([]string, 0, len(vendors))
		for id := range vendors {
			ids = append(ids, id.String())
		}
		sort.Strings(ids)
		return assembly, pkgerrors.New(pkgerrors.CodeValidation, "cart items must come from a single vendor").
			WithDetails(map[string]any{"vendorIds": ids})
	}

	for _, id := range order {
		food, ok := byID[id]
		if !ok {
			continue
		}
		unit := units[id]
		assembly.Items = append(assembly.Items, AssembledItem{Food: food, Unit: unit, UnitPrice: food.Price})
		assembly.Total = assembly.Total.Add(food.Price.Mul(decimal.NewFromInt(int64(unit))))
		assembly.VendorID = food.VendorID
	}
	return assembly, nil
}
