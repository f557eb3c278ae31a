package model

type ProductUnit string

const (
	UnitGram  ProductUnit = "g"
	UnitMilli ProductUnit = "ml"
	UnitCount ProductUnit = "unit"
)

// Product is a base catalog item (milk, sugar, pistachio paste, ...).
// Stock accounting only applies when TrackStock is set.
type Product struct {
	BaseModel
	SKU        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name       string      `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit       ProductUnit `gorm:"type:varchar(10);default:'g'" json:"unit" validate:"omitempty,oneof=g ml unit"`
	TrackStock bool        `gorm:"default:true" json:"track_stock"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *string `gorm:"type:varchar(255)" json:"updated_by_user_id,omitempty"`
	CreatedByUser   *User   `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
	UpdatedByUser   *User   `gorm:"foreignKey:UpdatedByUserID;references:ID" json:"updated_by_user,omitempty"`
}
