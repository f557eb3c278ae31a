package repository

import (
	"errors"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityRecordRepository interface {
	Create(record *model.PlanAvailabilityRecord) error
	FindByPlanID(planID uuid.UUID) (*model.PlanAvailabilityRecord, error)
	Update(record *model.PlanAvailabilityRecord) error
}

type availabilityRecordRepo struct {
	db *gorm.DB
}

func NewAvailabilityRecordRepo(db *gorm.DB) AvailabilityRecordRepository {
	return &availabilityRecordRepo{db}
}

func (r *availabilityRecordRepo) Create(record *model.PlanAvailabilityRecord) error {
	return r.db.Create(record).Error
}

// FindByPlanID returns (nil, nil) when the plan never had a shortage
// snapshot; most plans won't.
func (r *availabilityRecordRepo) FindByPlanID(planID uuid.UUID) (*model.PlanAvailabilityRecord, error) {
	var record model.PlanAvailabilityRecord
	err := r.db.First(&record, "plan_id = ?", planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *availabilityRecordRepo) Update(record *model.PlanAvailabilityRecord) error {
	return r.db.Save(record).Error
}
