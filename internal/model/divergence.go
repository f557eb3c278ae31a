package model

import "github.com/google/uuid"

type DivergenceType string

const (
	DivergenceIngredientShortage DivergenceType = "ingredient_shortage"
)

type DivergenceSeverity string

const (
	SeverityLow    DivergenceSeverity = "low"
	SeverityMedium DivergenceSeverity = "medium"
	SeverityHigh   DivergenceSeverity = "high"
)

// Rank orders severities (low < medium < high) for comparisons.
func (s DivergenceSeverity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// ClassifyShortageSeverity derives severity from the missing/required
// ratio: high when >= 0.5, medium when >= 0.2, otherwise low. The
// ratio is undefined for required <= 0, which classifies as low.
func ClassifyShortageSeverity(required, missing float64) DivergenceSeverity {
	if required <= 0 {
		return SeverityLow
	}
	ratio := missing / required
	switch {
	case ratio >= 0.5:
		return SeverityHigh
	case ratio >= 0.2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type DivergenceStatus string

const (
	DivergenceOpen     DivergenceStatus = "open"
	DivergenceResolved DivergenceStatus = "resolved"
)

// Divergence records a shortfall discovered while executing a plan:
// how much of a product was expected versus actually consumed.
type Divergence struct {
	BaseModel
	PlanID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"plan_id"`
	ProductID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"product_id"`
	Type        DivergenceType     `gorm:"type:varchar(30);not null" json:"type"`
	Severity    DivergenceSeverity `gorm:"type:varchar(10);not null" json:"severity"`
	ExpectedQty float64            `json:"expected_qty"`
	ActualQty   float64            `json:"actual_qty"`
	Description string             `gorm:"type:text" json:"description"`
	Status      DivergenceStatus   `gorm:"type:varchar(10);default:'open'" json:"status"`
	ResolvedBy  string             `gorm:"type:varchar(255)" json:"resolved_by"`
}
