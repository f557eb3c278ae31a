package service

import (
	"log"
	"math"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"

	"github.com/google/uuid"
)

// RequirementResolver expands a recipe and target quantity into the
// flat base-product masses a production run actually needs, unfolding
// nested-recipe ingredients along the way.
type RequirementResolver interface {
	Resolve(recipe *model.Recipe, quantity float64, unit model.ProductUnit) map[uuid.UUID]float64
}

type requirementResolver struct {
	recipeRepo repository.RecipeRepository
}

func NewRequirementResolver(recipeRepo repository.RecipeRepository) RequirementResolver {
	return &requirementResolver{recipeRepo: recipeRepo}
}

// Resolve aggregates required mass per base product. For mass targets
// the batch factor is quantity/yield (yield <= 0 scales by 1, since
// scaling is undefined there); count targets use the requested count
// directly and are not mass-scaled.
func (r *requirementResolver) Resolve(recipe *model.Recipe, quantity float64, unit model.ProductUnit) map[uuid.UUID]float64 {
	requirements := make(map[uuid.UUID]float64)
	if recipe == nil {
		return requirements
	}

	factor := quantity
	if unit != model.UnitCount {
		if recipe.YieldQuantity > 0 {
			factor = quantity / recipe.YieldQuantity
		} else {
			factor = 1
		}
	}

	visited := map[uuid.UUID]bool{recipe.ID: true}
	r.expand(recipe, factor, visited, requirements)

	// Non-finite or non-positive accumulations carry no planning
	// meaning and are dropped.
	for id, qty := range requirements {
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
			delete(requirements, id)
		}
	}
	return requirements
}

// expand walks one recipe's ingredient list. visited holds the recipe
// ids on the current expansion path: a sub-recipe already on the path
// is a cycle and contributes zero, while the same sub-recipe reached
// through two separate branches still counts twice.
func (r *requirementResolver) expand(recipe *model.Recipe, factor float64, visited map[uuid.UUID]bool, acc map[uuid.UUID]float64) {
	for _, ing := range recipe.Ingredients {
		switch ing.Kind {
		case model.IngredientProduct:
			acc[ing.ReferenceID] += ing.Quantity * factor

		case model.IngredientRecipe:
			if visited[ing.ReferenceID] {
				log.Printf("requirement resolver: cycle via recipe %s in %s, skipping branch", ing.ReferenceID, recipe.ID)
				continue
			}
			sub, err := r.recipeRepo.FindByID(ing.ReferenceID)
			if err != nil {
				// Dangling reference: favor a partial result over
				// blocking the whole availability check.
				log.Printf("requirement resolver: sub-recipe %s not found: %v", ing.ReferenceID, err)
				continue
			}

			subFactor := factor
			if sub.YieldQuantity > 0 {
				subFactor = factor * ing.Quantity / sub.YieldQuantity
			}

			visited[ing.ReferenceID] = true
			r.expand(sub, subFactor, visited, acc)
			delete(visited, ing.ReferenceID)
		}
	}
}
