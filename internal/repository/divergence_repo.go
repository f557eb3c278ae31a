package repository

import (
	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DivergenceFilter narrows divergence listings.
type DivergenceFilter struct {
	PlanID *uuid.UUID
	Status model.DivergenceStatus
}

type DivergenceRepository interface {
	Create(divergence *model.Divergence) error
	FindAll(filter DivergenceFilter) ([]model.Divergence, error)
	FindByID(id uuid.UUID) (*model.Divergence, error)
	Resolve(id uuid.UUID, resolvedBy string) error
}

type divergenceRepo struct {
	db *gorm.DB
}

func NewDivergenceRepo(db *gorm.DB) DivergenceRepository {
	return &divergenceRepo{db}
}

func (r *divergenceRepo) Create(divergence *model.Divergence) error {
	return r.db.Create(divergence).Error
}

func (r *divergenceRepo) FindAll(filter DivergenceFilter) ([]model.Divergence, error) {
	var divergences []model.Divergence
	q := r.db.Order("created_at DESC")
	if filter.PlanID != nil {
		q = q.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.Find(&divergences).Error
	return divergences, err
}

func (r *divergenceRepo) FindByID(id uuid.UUID) (*model.Divergence, error) {
	var divergence model.Divergence
	err := r.db.First(&divergence, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &divergence, nil
}

func (r *divergenceRepo) Resolve(id uuid.UUID, resolvedBy string) error {
	return r.db.Model(&model.Divergence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.DivergenceResolved,
			"resolved_by": resolvedBy,
			"updated_by":  resolvedBy,
		}).Error
}
