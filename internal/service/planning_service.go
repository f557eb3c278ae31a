package service

import (
	"errors"
	"fmt"
	"time"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/ws"
	"go-gelato-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound         = errors.New("production plan not found")
	ErrShortageNotConfirmed = errors.New("insufficient stock: scheduling requires explicit confirmation")
	ErrInvalidTransition    = errors.New("invalid plan status transition")
)

// SchedulePlanRequest is the input for scheduling a new production run.
type SchedulePlanRequest struct {
	RecipeID      uuid.UUID         `json:"recipe_id" validate:"uuid_required"`
	ScheduledDate time.Time         `json:"scheduled_date" validate:"required"`
	Quantity      float64           `json:"quantity" validate:"required,gt=0"`
	Unit          model.ProductUnit `json:"unit" validate:"omitempty,oneof=g unit"`
	Note          string            `json:"note"`
}

// ScheduleResult is what a successful schedule call returns: the
// persisted plan plus the shortage snapshot when one was taken.
type ScheduleResult struct {
	Plan               *model.ProductionPlan         `json:"plan"`
	AvailabilityRecord *model.PlanAvailabilityRecord `json:"availability_record,omitempty"`
	Availability       *AvailabilityResult           `json:"availability"`
}

// PlanningService orchestrates the scheduling workflow: availability
// checking, persisting plans, and the plan lifecycle actions around
// the execution engine.
type PlanningService interface {
	CheckAvailability(recipeID uuid.UUID, quantity float64, unit model.ProductUnit, excludePlanID *uuid.UUID) (*AvailabilityResult, error)

	// SchedulePlan persists a new scheduled plan. A plan whose
	// availability is insufficient is still persisted when confirmedBy
	// names who approved the override; the shortage snapshot is stored
	// alongside for later reconciliation.
	SchedulePlan(req *SchedulePlanRequest, requestedBy, confirmedBy string) (*ScheduleResult, error)

	StartPlan(planID uuid.UUID, startedBy string) (*model.ProductionPlan, error)
	CancelPlan(planID uuid.UUID, cancelledBy string) (*model.ProductionPlan, error)
	ArchivePlan(planID uuid.UUID, archivedBy string) error
	GetPlan(planID uuid.UUID) (*model.ProductionPlan, error)
	GetPlans(filter repository.PlanFilter) ([]model.ProductionPlan, error)
}

type planningService struct {
	availability AvailabilityService
	recipeRepo   repository.RecipeRepository
	planRepo     repository.PlanRepository
	notifier     ws.Notifier
}

func NewPlanningService(
	availability AvailabilityService,
	recipeRepo repository.RecipeRepository,
	planRepo repository.PlanRepository,
	notifier ws.Notifier,
) PlanningService {
	return &planningService{
		availability: availability,
		recipeRepo:   recipeRepo,
		planRepo:     planRepo,
		notifier:     notifier,
	}
}

func (s *planningService) CheckAvailability(recipeID uuid.UUID, quantity float64, unit model.ProductUnit, excludePlanID *uuid.UUID) (*AvailabilityResult, error) {
	if unit == "" {
		unit = model.UnitGram
	}
	return s.availability.CheckAvailability(recipeID, quantity, unit, excludePlanID)
}

func (s *planningService) SchedulePlan(req *SchedulePlanRequest, requestedBy, confirmedBy string) (*ScheduleResult, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.Unit == "" {
		req.Unit = model.UnitGram
	}

	// 2. Resolve the recipe (hard failure when missing)
	recipe, err := s.recipeRepo.FindByID(req.RecipeID)
	if err != nil {
		return nil, ErrRecipeNotFound
	}

	// 3. Build the plan shell
	plan := &model.ProductionPlan{
		RecipeID:      recipe.ID,
		RecipeName:    recipe.Name,
		ScheduledDate: req.ScheduledDate,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Status:        model.PlanScheduled,
		RequestedBy:   requestedBy,
		Stages:        model.NewDefaultStages(),
	}
	plan.CreatedBy = requestedBy
	plan.UpdatedBy = requestedBy

	// 4. Pre-check to learn which stock rows the persist must lock
	precheck, err := s.availability.CheckAvailability(recipe.ID, req.Quantity, req.Unit, nil)
	if err != nil {
		return nil, err
	}
	lockProducts := make([]uuid.UUID, 0, len(precheck.Items))
	for _, item := range precheck.Items {
		lockProducts = append(lockProducts, item.ProductID)
	}

	// 5. Persist under lock. The re-check runs while the stock rows of
	// every required product are held FOR UPDATE, so two schedules
	// competing for the same ingredients serialize instead of both
	// reading the same reservation snapshot.
	result := &ScheduleResult{Plan: plan}
	err = s.planRepo.ScheduleLocked(plan, lockProducts, func() (*model.PlanAvailabilityRecord, error) {
		availability, err := s.availability.CheckAvailability(recipe.ID, req.Quantity, req.Unit, nil)
		if err != nil {
			return nil, err
		}
		result.Availability = availability
		plan.EstimatedCost = availability.EstimatedCost

		if availability.Status == AvailabilitySufficient {
			return nil, nil
		}

		// Scheduling into a shortage is a deliberate, audited override.
		if confirmedBy == "" {
			return nil, ErrShortageNotConfirmed
		}

		record := &model.PlanAvailabilityRecord{
			Status:        model.AvailabilityPending,
			ConfirmedBy:   confirmedBy,
			Shortages:     shortageLines(availability),
			TotalRequired: availability.TotalRequired,
			TotalShortage: availability.TotalShortage,
			EstimatedCost: availability.EstimatedCost,
		}
		record.CreatedBy = confirmedBy
		result.AvailabilityRecord = record
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ws.Notification{
		Title:       "Production scheduled",
		Message:     fmt.Sprintf("%s scheduled %.0f%s of '%s'", requestedBy, plan.Quantity, plan.Unit, plan.RecipeName),
		Category:    "production",
		ReferenceID: plan.ID.String(),
	})
	if result.AvailabilityRecord != nil {
		s.notifier.Notify(ws.Notification{
			Title:       "Scheduled despite shortage",
			Message:     fmt.Sprintf("'%s' is short %.0fg across %d ingredient(s), confirmed by %s", plan.RecipeName, result.AvailabilityRecord.TotalShortage, len(result.AvailabilityRecord.Shortages), confirmedBy),
			Category:    "production",
			ReferenceID: plan.ID.String(),
		})
	}

	return result, nil
}

func (s *planningService) StartPlan(planID uuid.UUID, startedBy string) (*model.ProductionPlan, error) {
	now := time.Now()
	ok, err := s.planRepo.TransitionIf(planID, []model.PlanStatus{model.PlanScheduled}, model.PlanInProgress, map[string]interface{}{
		"started_at": now,
		"updated_by": startedBy,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.planRepo.FindByID(planID)
}

func (s *planningService) CancelPlan(planID uuid.UUID, cancelledBy string) (*model.ProductionPlan, error) {
	from := []model.PlanStatus{model.PlanDraft, model.PlanScheduled, model.PlanInProgress}
	ok, err := s.planRepo.TransitionIf(planID, from, model.PlanCancelled, map[string]interface{}{
		"updated_by": cancelledBy,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ws.Notification{
		Title:       "Production cancelled",
		Message:     fmt.Sprintf("%s cancelled batch '%s'", cancelledBy, plan.RecipeName),
		Category:    "production",
		ReferenceID: plan.ID.String(),
	})
	return plan, nil
}

func (s *planningService) ArchivePlan(planID uuid.UUID, archivedBy string) error {
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return ErrPlanNotFound
	}
	if !plan.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	return s.planRepo.SetArchived(planID, true, archivedBy)
}

func (s *planningService) GetPlan(planID uuid.UUID) (*model.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planningService) GetPlans(filter repository.PlanFilter) ([]model.ProductionPlan, error) {
	return s.planRepo.FindAll(filter)
}

// shortageLines converts an availability result into the snapshot rows
// stored on a PlanAvailabilityRecord.
func shortageLines(availability *AvailabilityResult) model.ShortageLines {
	lines := make(model.ShortageLines, 0, len(availability.Shortages))
	for _, item := range availability.Shortages {
		lines = append(lines, model.ShortageLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Required:    item.Required,
			Available:   item.Available,
			Shortage:    item.Shortage,
		})
	}
	return lines
}
