package repository

import (
	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecipeRepository interface {
	Create(recipe *model.Recipe) error
	FindAll() ([]model.Recipe, error)
	FindByID(id uuid.UUID) (*model.Recipe, error)
	Update(recipe *model.Recipe) error
	ReplaceIngredients(recipeID uuid.UUID, ingredients []model.Ingredient) error
}

type recipeRepo struct {
	db *gorm.DB
}

func NewRecipeRepo(db *gorm.DB) RecipeRepository {
	return &recipeRepo{db}
}

func (r *recipeRepo) Create(recipe *model.Recipe) error {
	return r.db.Create(recipe).Error
}

func (r *recipeRepo) FindAll() ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := r.db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Order("name ASC").Find(&recipes).Error
	return recipes, err
}

func (r *recipeRepo) FindByID(id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&recipe, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepo) Update(recipe *model.Recipe) error {
	return r.db.Save(recipe).Error
}

// ReplaceIngredients swaps the full ingredient list of a recipe in one
// transaction so readers never observe a half-edited recipe.
func (r *recipeRepo) ReplaceIngredients(recipeID uuid.UUID, ingredients []model.Ingredient) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}
		for i := range ingredients {
			ingredients[i].RecipeID = recipeID
			if err := tx.Create(&ingredients[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
