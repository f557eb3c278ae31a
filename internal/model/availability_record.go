package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type AvailabilityRecordStatus string

const (
	AvailabilityPending    AvailabilityRecordStatus = "pending"
	AvailabilityFulfilled  AvailabilityRecordStatus = "fulfilled"  // executed with no missing quantity
	AvailabilityReconciled AvailabilityRecordStatus = "reconciled" // executed with some missing quantity
)

// ShortageLine is one per-product shortage captured when a plan was
// scheduled despite insufficient stock, or reconciled at completion.
type ShortageLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Required    float64   `json:"required"`
	Available   float64   `json:"available"`
	Shortage    float64   `json:"shortage"`
}

// ShortageLines is stored as a JSONB column.
type ShortageLines []ShortageLine

func (s ShortageLines) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *ShortageLines) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	default:
		return errors.New("unsupported type for ShortageLines")
	}
}

// PlanAvailabilityRecord is the audit snapshot created when a plan is
// scheduled despite a detected shortage. One per plan; updated by the
// execution engine when the plan completes.
type PlanAvailabilityRecord struct {
	BaseModel
	PlanID      uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex" json:"plan_id"`
	Status      AvailabilityRecordStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ConfirmedBy string                   `gorm:"type:varchar(255)" json:"confirmed_by"`

	Shortages     ShortageLines `gorm:"type:jsonb" json:"shortages"`
	TotalRequired float64       `json:"total_required"`
	TotalShortage float64       `json:"total_shortage"`
	EstimatedCost *float64      `json:"estimated_cost,omitempty"`

	// Filled in at completion time.
	ExecutionStartedAt *time.Time    `json:"execution_started_at,omitempty"`
	ExecutionEndedAt   *time.Time    `json:"execution_ended_at,omitempty"`
	ActualCost         *float64      `json:"actual_cost,omitempty"`
	ActualShortages    ShortageLines `gorm:"type:jsonb" json:"actual_shortages,omitempty"`
}
