package service

import (
	"math"
	"testing"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
)

func newRecipe(name string, yield float64, ingredients ...model.Ingredient) *model.Recipe {
	r := &model.Recipe{Name: name, YieldQuantity: yield, Ingredients: ingredients}
	r.ID = uuid.New()
	return r
}

func productLine(productID uuid.UUID, qty float64) model.Ingredient {
	return model.Ingredient{Kind: model.IngredientProduct, ReferenceID: productID, Quantity: qty}
}

func recipeLine(recipeID uuid.UUID, qty float64) model.Ingredient {
	return model.Ingredient{Kind: model.IngredientRecipe, ReferenceID: recipeID, Quantity: qty}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestResolveScalesByYield(t *testing.T) {
	milk := uuid.New()
	sugar := uuid.New()
	base := newRecipe("fior di latte base", 1000, productLine(milk, 600), productLine(sugar, 400))

	resolver := NewRequirementResolver(newFakeRecipeRepo(base))
	requirements := resolver.Resolve(base, 500, model.UnitGram)

	if len(requirements) != 2 {
		t.Fatalf("expected 2 requirement lines, got %d", len(requirements))
	}
	if !almostEqual(requirements[milk], 300) {
		t.Errorf("milk: expected 300, got %v", requirements[milk])
	}
	if !almostEqual(requirements[sugar], 200) {
		t.Errorf("sugar: expected 200, got %v", requirements[sugar])
	}
}

func TestResolveNestedRecipe(t *testing.T) {
	milk := uuid.New()
	strawberry := uuid.New()

	base := newRecipe("white base", 1000, productLine(milk, 800))
	flavour := newRecipe("strawberry", 1000,
		recipeLine(base.ID, 500),
		productLine(strawberry, 300),
	)

	resolver := NewRequirementResolver(newFakeRecipeRepo(base, flavour))
	requirements := resolver.Resolve(flavour, 2000, model.UnitGram)

	// 2000g of flavour = factor 2; 2 * 500g of base = 1 base batch,
	// which needs 800g of milk.
	if !almostEqual(requirements[milk], 800) {
		t.Errorf("milk: expected 800, got %v", requirements[milk])
	}
	if !almostEqual(requirements[strawberry], 600) {
		t.Errorf("strawberry: expected 600, got %v", requirements[strawberry])
	}
}

func TestResolveCountUnit(t *testing.T) {
	cone := uuid.New()
	recipe := newRecipe("cone batch", 50, productLine(cone, 1))

	resolver := NewRequirementResolver(newFakeRecipeRepo(recipe))
	requirements := resolver.Resolve(recipe, 3, model.UnitCount)

	// Count targets multiply per-unit quantities directly; yield does
	// not apply.
	if !almostEqual(requirements[cone], 3) {
		t.Errorf("cone: expected 3, got %v", requirements[cone])
	}
}

func TestResolveZeroYieldScalesByOne(t *testing.T) {
	milk := uuid.New()
	recipe := newRecipe("broken yield", 0, productLine(milk, 250))

	resolver := NewRequirementResolver(newFakeRecipeRepo(recipe))
	requirements := resolver.Resolve(recipe, 9999, model.UnitGram)

	if !almostEqual(requirements[milk], 250) {
		t.Errorf("milk: expected 250, got %v", requirements[milk])
	}
}

func TestResolveCycleTerminates(t *testing.T) {
	milk := uuid.New()
	cream := uuid.New()

	a := newRecipe("a", 1000)
	b := newRecipe("b", 1000)
	a.Ingredients = []model.Ingredient{productLine(milk, 100), recipeLine(b.ID, 500)}
	b.Ingredients = []model.Ingredient{productLine(cream, 200), recipeLine(a.ID, 500)}

	resolver := NewRequirementResolver(newFakeRecipeRepo(a, b))
	requirements := resolver.Resolve(a, 1000, model.UnitGram)

	// The cycle branch contributes nothing; the direct products remain.
	if !almostEqual(requirements[milk], 100) {
		t.Errorf("milk: expected 100, got %v", requirements[milk])
	}
	if !almostEqual(requirements[cream], 100) {
		t.Errorf("cream: expected 100, got %v", requirements[cream])
	}
	for id, qty := range requirements {
		if math.IsNaN(qty) || math.IsInf(qty, 0) {
			t.Errorf("non-finite requirement for %s: %v", id, qty)
		}
	}
}

func TestResolveSharedSubRecipeCountsPerBranch(t *testing.T) {
	milk := uuid.New()
	base := newRecipe("base", 1000, productLine(milk, 500))
	top := newRecipe("top", 1000,
		recipeLine(base.ID, 400),
		recipeLine(base.ID, 600),
	)

	resolver := NewRequirementResolver(newFakeRecipeRepo(base, top))
	requirements := resolver.Resolve(top, 1000, model.UnitGram)

	// Two branches into the same sub-recipe both count: 400/1000*500 +
	// 600/1000*500 = 500.
	if !almostEqual(requirements[milk], 500) {
		t.Errorf("milk: expected 500, got %v", requirements[milk])
	}
}

func TestResolveMissingSubRecipeSkipped(t *testing.T) {
	milk := uuid.New()
	recipe := newRecipe("partial", 1000,
		productLine(milk, 300),
		recipeLine(uuid.New(), 500), // dangling reference
	)

	resolver := NewRequirementResolver(newFakeRecipeRepo(recipe))
	requirements := resolver.Resolve(recipe, 1000, model.UnitGram)

	if len(requirements) != 1 {
		t.Fatalf("expected 1 requirement line, got %d", len(requirements))
	}
	if !almostEqual(requirements[milk], 300) {
		t.Errorf("milk: expected 300, got %v", requirements[milk])
	}
}

func TestResolveDropsNonPositiveLines(t *testing.T) {
	milk := uuid.New()
	recipe := newRecipe("cancels out", 1000,
		productLine(milk, 100),
		productLine(milk, -100), // bad data: sums to zero
	)

	resolver := NewRequirementResolver(newFakeRecipeRepo(recipe))
	requirements := resolver.Resolve(recipe, 1000, model.UnitGram)

	if len(requirements) != 0 {
		t.Errorf("expected zero-sum line to be dropped, got %v", requirements)
	}
}

func TestResolveNilRecipe(t *testing.T) {
	resolver := NewRequirementResolver(newFakeRecipeRepo())
	if requirements := resolver.Resolve(nil, 1000, model.UnitGram); len(requirements) != 0 {
		t.Errorf("expected empty requirements for nil recipe, got %v", requirements)
	}
}
