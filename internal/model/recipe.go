package model

import "github.com/google/uuid"

type IngredientKind string

const (
	IngredientProduct IngredientKind = "product"
	IngredientRecipe  IngredientKind = "recipe"
)

// Recipe describes how to produce YieldQuantity grams of a gelato base
// or flavour. Ingredients may reference base products or other recipes
// (a fruit base reused across flavours), so recipes form a graph that
// should be a DAG. The resolver tolerates cycles defensively.
type Recipe struct {
	BaseModel
	Name          string       `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	YieldQuantity float64      `gorm:"not null" json:"yield_quantity" validate:"required,gt=0"` // grams produced per batch of 1x
	Ingredients   []Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`

	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *string `gorm:"type:varchar(255)" json:"updated_by_user_id,omitempty"`
}

// Ingredient is one line of a recipe. Kind selects what ReferenceID
// points at: a Product row or another Recipe row.
type Ingredient struct {
	BaseModel
	RecipeID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"recipe_id"`
	Kind        IngredientKind `gorm:"type:varchar(10);not null" json:"kind" validate:"required,oneof=product recipe"`
	ReferenceID uuid.UUID      `gorm:"type:uuid;not null" json:"reference_id" validate:"uuid_required"`
	Quantity    float64        `gorm:"not null" json:"quantity" validate:"required,gt=0"` // grams per one recipe yield
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
}
