package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockItem holds the physical on-hand quantity for one product. The
// app keeps at most one meaningful row per product; AvgUnitCost is the
// weighted average purchase cost per gram.
type StockItem struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"product_id" validate:"uuid_required"`
	Product      *Product  `json:"product,omitempty" validate:"-"`
	Quantity     float64   `gorm:"default:0" json:"quantity"`
	MinThreshold float64   `gorm:"default:0" json:"min_threshold"`
	AvgUnitCost  float64   `gorm:"default:0" json:"avg_unit_cost"`
}

// StockMovement is one append-only ledger entry per stock change.
// Never mutated after creation.
type StockMovement struct {
	BaseModel
	ProductID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product     `json:"product,omitempty" validate:"-"`
	StockItemID uuid.UUID    `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	Type        MovementType `gorm:"type:varchar(10);not null" json:"type" validate:"required,oneof=IN OUT"`
	Quantity    float64      `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	Balance     float64      `gorm:"not null" json:"balance"` // resulting on-hand quantity
	UnitCost    float64      `json:"unit_cost"`
	TotalCost   float64      `json:"total_cost"`
	PerformedBy string       `gorm:"type:varchar(255)" json:"performed_by"`
	Note        string       `json:"note"`
}
