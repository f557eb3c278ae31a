package service

import (
	"errors"
	"fmt"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/ws"
	"go-gelato-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrSKUExists            = errors.New("SKU already exists")
	ErrProductNotFound      = errors.New("product not found")
	ErrRecipeSelfReference  = errors.New("recipe cannot reference itself as an ingredient")
	ErrIngredientRefMissing = errors.New("ingredient references a missing product or recipe")
)

// RecipeRequest is the write shape for creating/updating a recipe.
type RecipeRequest struct {
	Name          string              `json:"name" validate:"required"`
	YieldQuantity float64             `json:"yield_quantity" validate:"required,gt=0"`
	Ingredients   []IngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
}

type IngredientRequest struct {
	Kind        model.IngredientKind `json:"kind" validate:"required,oneof=product recipe"`
	ReferenceID uuid.UUID            `json:"reference_id" validate:"uuid_required"`
	Quantity    float64              `json:"quantity" validate:"required,gt=0"`
}

// CatalogService manages the product and recipe catalog the engine
// reads from.
type CatalogService interface {
	CreateProduct(req *model.Product, userID string) error
	UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error)
	GetAllProducts() ([]model.Product, error)

	CreateRecipe(req *RecipeRequest, userID string) (*model.Recipe, error)
	UpdateRecipe(id uuid.UUID, req *RecipeRequest, userID string) (*model.Recipe, error)
	GetAllRecipes() ([]model.Recipe, error)
	GetRecipeByID(id uuid.UUID) (*model.Recipe, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	recipeRepo  repository.RecipeRepository
	notifier    ws.Notifier
}

func NewCatalogService(productRepo repository.ProductRepository, recipeRepo repository.RecipeRepository, notifier ws.Notifier) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		recipeRepo:  recipeRepo,
		notifier:    notifier,
	}
}

func (s *catalogService) CreateProduct(req *model.Product, userID string) error {
	// 1. Validate struct
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Reject duplicate SKU
	existing, _ := s.productRepo.FindBySKU(req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return ErrSKUExists
	}

	if req.Unit == "" {
		req.Unit = model.UnitGram
	}
	req.CreatedBy = userID
	req.UpdatedBy = userID
	req.CreatedByUserID = &userID
	req.UpdatedByUserID = &userID

	if err := s.productRepo.Create(req); err != nil {
		return err
	}

	s.notifier.Notify(ws.Notification{
		Title:       "Product created",
		Message:     fmt.Sprintf("product '%s' added to the catalog", req.Name),
		Category:    "catalog",
		ReferenceID: req.ID.String(),
	})
	return nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	if req.Unit != "" {
		existing.Unit = req.Unit
	}
	existing.TrackStock = req.TrackStock
	existing.UpdatedBy = userID
	existing.UpdatedByUserID = &userID

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *catalogService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *catalogService) CreateRecipe(req *RecipeRequest, userID string) (*model.Recipe, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	recipe := &model.Recipe{
		Name:          req.Name,
		YieldQuantity: req.YieldQuantity,
	}
	recipe.CreatedBy = userID
	recipe.UpdatedBy = userID
	recipe.CreatedByUserID = &userID

	// 2. Validate ingredient references before persisting
	ingredients, err := s.buildIngredients(uuid.Nil, req.Ingredients)
	if err != nil {
		return nil, err
	}
	recipe.Ingredients = ingredients

	if err := s.recipeRepo.Create(recipe); err != nil {
		return nil, err
	}

	s.notifier.Notify(ws.Notification{
		Title:       "Recipe created",
		Message:     fmt.Sprintf("recipe '%s' (yield %.0fg) added", recipe.Name, recipe.YieldQuantity),
		Category:    "catalog",
		ReferenceID: recipe.ID.String(),
	})
	return recipe, nil
}

func (s *catalogService) UpdateRecipe(id uuid.UUID, req *RecipeRequest, userID string) (*model.Recipe, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	recipe, err := s.recipeRepo.FindByID(id)
	if err != nil {
		return nil, ErrRecipeNotFound
	}

	ingredients, err := s.buildIngredients(id, req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe.Name = req.Name
	recipe.YieldQuantity = req.YieldQuantity
	recipe.UpdatedBy = userID
	recipe.UpdatedByUserID = &userID
	recipe.Ingredients = nil
	if err := s.recipeRepo.Update(recipe); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.ReplaceIngredients(id, ingredients); err != nil {
		return nil, err
	}

	return s.recipeRepo.FindByID(id)
}

func (s *catalogService) GetAllRecipes() ([]model.Recipe, error) {
	return s.recipeRepo.FindAll()
}

func (s *catalogService) GetRecipeByID(id uuid.UUID) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(id)
	if err != nil {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

// buildIngredients checks every reference exists and rejects direct
// self-reference. Deeper cycles are neutralized by the resolver at
// read time rather than blocked at write time.
func (s *catalogService) buildIngredients(recipeID uuid.UUID, reqs []IngredientRequest) ([]model.Ingredient, error) {
	ingredients := make([]model.Ingredient, 0, len(reqs))
	for i, ing := range reqs {
		switch ing.Kind {
		case model.IngredientProduct:
			if _, err := s.productRepo.FindByID(ing.ReferenceID); err != nil {
				return nil, ErrIngredientRefMissing
			}
		case model.IngredientRecipe:
			if recipeID != uuid.Nil && ing.ReferenceID == recipeID {
				return nil, ErrRecipeSelfReference
			}
			if _, err := s.recipeRepo.FindByID(ing.ReferenceID); err != nil {
				return nil, ErrIngredientRefMissing
			}
		}
		ingredients = append(ingredients, model.Ingredient{
			Kind:        ing.Kind,
			ReferenceID: ing.ReferenceID,
			Quantity:    ing.Quantity,
			SortOrder:   i + 1,
		})
	}
	return ingredients, nil
}
