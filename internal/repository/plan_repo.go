package repository

import (
	"time"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanFilter narrows plan listings.
type PlanFilter struct {
	Statuses        []model.PlanStatus
	IncludeArchived bool
}

// CompletionPatch carries the terminal write of the execution engine.
type CompletionPatch struct {
	CompletedAt    time.Time
	StartedAt      time.Time
	ActualQuantity float64
	ActualCost     float64
}

type PlanRepository interface {
	FindByID(id uuid.UUID) (*model.ProductionPlan, error)
	FindAll(filter PlanFilter) ([]model.ProductionPlan, error)
	FindActive(exclude *uuid.UUID) ([]model.ProductionPlan, error)
	Update(plan *model.ProductionPlan) error

	// ScheduleLocked persists a new plan (and its shortage record when
	// present) inside one transaction that first takes FOR UPDATE locks
	// on the stock rows of the given products. recheck runs after the
	// locks are held so competing schedules serialize on the same rows.
	ScheduleLocked(plan *model.ProductionPlan, lockProductIDs []uuid.UUID, recheck func() (*model.PlanAvailabilityRecord, error)) error

	// TransitionIf conditionally moves a plan between statuses. Returns
	// false when the plan was not in any of the from statuses.
	TransitionIf(id uuid.UUID, from []model.PlanStatus, to model.PlanStatus, updates map[string]interface{}) (bool, error)

	// CompleteIf performs the terminal completed write, guarded on the
	// plan still being scheduled or in progress.
	CompleteIf(id uuid.UUID, patch CompletionPatch) (bool, error)

	MarkStagesCompleted(planID uuid.UUID, at time.Time) error
	SetArchived(id uuid.UUID, archived bool, updatedBy string) error
}

type planRepo struct {
	db *gorm.DB
}

func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db}
}

func (r *planRepo) FindByID(id uuid.UUID) (*model.ProductionPlan, error) {
	var plan model.ProductionPlan
	err := r.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) FindAll(filter PlanFilter) ([]model.ProductionPlan, error) {
	var plans []model.ProductionPlan
	q := r.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Order("scheduled_date DESC")

	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if !filter.IncludeArchived {
		q = q.Where("archived = ?", false)
	}

	err := q.Find(&plans).Error
	return plans, err
}

// FindActive returns every plan currently holding a reservation:
// scheduled or in progress, not archived, minus the excluded one.
func (r *planRepo) FindActive(exclude *uuid.UUID) ([]model.ProductionPlan, error) {
	var plans []model.ProductionPlan
	q := r.db.Where("status IN ?", []model.PlanStatus{model.PlanScheduled, model.PlanInProgress}).
		Where("archived = ?", false)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	err := q.Find(&plans).Error
	return plans, err
}

func (r *planRepo) Update(plan *model.ProductionPlan) error {
	return r.db.Save(plan).Error
}

func (r *planRepo) ScheduleLocked(plan *model.ProductionPlan, lockProductIDs []uuid.UUID, recheck func() (*model.PlanAvailabilityRecord, error)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(lockProductIDs) > 0 {
			var locked []model.StockItem
			if err := lockForUpdate(tx).
				Where("product_id IN ?", lockProductIDs).
				Find(&locked).Error; err != nil {
				return err
			}
		}

		record, err := recheck()
		if err != nil {
			return err
		}

		if err := tx.Create(plan).Error; err != nil {
			return err
		}

		if record != nil {
			record.PlanID = plan.ID
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *planRepo) TransitionIf(id uuid.UUID, from []model.PlanStatus, to model.PlanStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := r.db.Model(&model.ProductionPlan{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *planRepo) CompleteIf(id uuid.UUID, patch CompletionPatch) (bool, error) {
	res := r.db.Model(&model.ProductionPlan{}).
		Where("id = ? AND status IN ?", id, []model.PlanStatus{model.PlanScheduled, model.PlanInProgress}).
		Updates(map[string]interface{}{
			"status":          model.PlanCompleted,
			"started_at":      patch.StartedAt,
			"completed_at":    patch.CompletedAt,
			"actual_quantity": patch.ActualQuantity,
			"actual_cost":     patch.ActualCost,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *planRepo) MarkStagesCompleted(planID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.ProductionStage{}).
		Where("plan_id = ? AND status <> ?", planID, model.StageCompleted).
		Updates(map[string]interface{}{
			"status":       model.StageCompleted,
			"completed_at": at,
		}).Error
}

func (r *planRepo) SetArchived(id uuid.UUID, archived bool, updatedBy string) error {
	return r.db.Model(&model.ProductionPlan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"archived":   archived,
			"updated_by": updatedBy,
		}).Error
}
