package model

import (
	"time"

	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanDraft      PlanStatus = "draft"
	PlanScheduled  PlanStatus = "scheduled"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanCancelled  PlanStatus = "cancelled"
)

// CanTransitionTo reports whether the status state machine allows
// moving from s to target. completed and cancelled are terminal.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	switch s {
	case PlanDraft:
		return target == PlanScheduled || target == PlanCancelled
	case PlanScheduled:
		return target == PlanInProgress || target == PlanCompleted || target == PlanCancelled
	case PlanInProgress:
		return target == PlanCompleted || target == PlanCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// ProductionPlan is one scheduled production run (a batch) of a recipe
// at a target quantity. RecipeName is denormalized so the plan stays
// readable after recipe edits.
type ProductionPlan struct {
	BaseModel
	RecipeID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"recipe_id" validate:"uuid_required"`
	RecipeName    string      `gorm:"type:varchar(255)" json:"recipe_name"`
	ScheduledDate time.Time   `gorm:"not null" json:"scheduled_date"`
	Quantity      float64     `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	Unit          ProductUnit `gorm:"type:varchar(10);default:'g'" json:"unit" validate:"omitempty,oneof=g unit"`
	Status        PlanStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestedBy   string      `gorm:"type:varchar(255)" json:"requested_by"`
	Archived      bool        `gorm:"default:false;index" json:"archived"`

	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ActualQuantity *float64   `json:"actual_quantity,omitempty"`
	EstimatedCost  *float64   `json:"estimated_cost,omitempty"`
	ActualCost     *float64   `json:"actual_cost,omitempty"`

	Stages []ProductionStage `gorm:"constraint:OnDelete:CASCADE" json:"stages,omitempty"`
}

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageCompleted StageStatus = "completed"
)

// ProductionStage is one step of the gelato workflow for a plan.
type ProductionStage struct {
	BaseModel
	PlanID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"plan_id"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Sequence    int         `gorm:"not null" json:"sequence"`
	Status      StageStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// DefaultStageNames is the standard gelato production workflow seeded
// onto every newly scheduled plan.
var DefaultStageNames = []string{"pasteurization", "maturation", "churning", "blast_freezing"}

// NewDefaultStages builds pending stages for a plan.
func NewDefaultStages() []ProductionStage {
	stages := make([]ProductionStage, len(DefaultStageNames))
	for i, name := range DefaultStageNames {
		stages[i] = ProductionStage{Name: name, Sequence: i + 1, Status: StagePending}
	}
	return stages
}
