package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/ws"

	"github.com/google/uuid"
)

var ErrPlanNotExecutable = errors.New("plan is not in an executable status")

// CompletionResult is the outcome of executing a plan: the terminal
// plan state plus every ledger movement and divergence it produced.
type CompletionResult struct {
	Plan        *model.ProductionPlan `json:"plan"`
	Movements   []model.StockMovement `json:"movements"`
	Divergences []model.Divergence    `json:"divergences"`
}

// ExecutionService consumes stock against a plan's resolved
// requirements and drives the plan to its terminal state exactly once.
type ExecutionService interface {
	CompletePlanWithConsumption(planID uuid.UUID, performedBy string) (*CompletionResult, error)
	ResolveDivergence(divergenceID uuid.UUID, resolvedBy string) error
	GetDivergences(filter repository.DivergenceFilter) ([]model.Divergence, error)
}

type executionService struct {
	resolver   RequirementResolver
	recipeRepo repository.RecipeRepository
	planRepo   repository.PlanRepository
	stockRepo  repository.StockRepository
	availRepo  repository.AvailabilityRecordRepository
	divRepo    repository.DivergenceRepository
	notifier   ws.Notifier
}

func NewExecutionService(
	resolver RequirementResolver,
	recipeRepo repository.RecipeRepository,
	planRepo repository.PlanRepository,
	stockRepo repository.StockRepository,
	availRepo repository.AvailabilityRecordRepository,
	divRepo repository.DivergenceRepository,
	notifier ws.Notifier,
) ExecutionService {
	return &executionService{
		resolver:   resolver,
		recipeRepo: recipeRepo,
		planRepo:   planRepo,
		stockRepo:  stockRepo,
		availRepo:  availRepo,
		divRepo:    divRepo,
		notifier:   notifier,
	}
}

func (s *executionService) CompletePlanWithConsumption(planID uuid.UUID, performedBy string) (*CompletionResult, error) {
	// 1. Load the plan; a completed plan makes this call a no-op.
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, ErrPlanNotFound
	}
	if plan.Status == model.PlanCompleted {
		return &CompletionResult{Plan: plan}, nil
	}
	if plan.Status != model.PlanScheduled && plan.Status != model.PlanInProgress {
		return nil, ErrPlanNotExecutable
	}

	startedAt := time.Now()
	if plan.StartedAt != nil {
		startedAt = *plan.StartedAt
	}

	// 2. Re-resolve requirements from the current recipe, never from a
	// snapshot taken at scheduling time.
	recipe, err := s.recipeRepo.FindByID(plan.RecipeID)
	if err != nil {
		return nil, ErrRecipeNotFound
	}
	requirements := s.resolver.Resolve(recipe, plan.Quantity, plan.Unit)

	productIDs := make([]uuid.UUID, 0, len(requirements))
	for id := range requirements {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	// 3. Consume per product. Each product is independent: a failure
	// adjusting one counts as full shortage for it and consumption
	// continues for the rest.
	result := &CompletionResult{}
	var actualCost float64
	var worstRatio float64
	var actualShortages model.ShortageLines

	for _, productID := range productIDs {
		required := requirements[productID]

		consumed, missing, movements := s.consumeProduct(plan, productID, required, performedBy)
		for _, movement := range movements {
			result.Movements = append(result.Movements, movement)
			actualCost += movement.TotalCost
		}

		if missing > 0 {
			ratio := 0.0
			if required > 0 {
				ratio = missing / required
			}
			if ratio > worstRatio {
				worstRatio = ratio
			}

			divergence := &model.Divergence{
				PlanID:      plan.ID,
				ProductID:   productID,
				Type:        model.DivergenceIngredientShortage,
				Severity:    model.ClassifyShortageSeverity(required, missing),
				ExpectedQty: required,
				ActualQty:   consumed,
				Description: fmt.Sprintf("batch '%s': required %.2fg, consumed %.2fg, missing %.2fg", plan.RecipeName, required, consumed, missing),
				Status:      model.DivergenceOpen,
			}
			divergence.CreatedBy = performedBy
			if err := s.divRepo.Create(divergence); err != nil {
				log.Printf("completion: recording divergence for product %s failed: %v", productID, err)
			} else {
				result.Divergences = append(result.Divergences, *divergence)
			}

			actualShortages = append(actualShortages, model.ShortageLine{
				ProductID: productID,
				Required:  required,
				Available: consumed,
				Shortage:  missing,
			})
		}
	}

	// 4. Close out the workflow stages. Failures here are fatal: a
	// completed plan with dangling pending stages is inconsistent.
	completedAt := time.Now()
	if err := s.planRepo.MarkStagesCompleted(plan.ID, completedAt); err != nil {
		return nil, err
	}

	// 5. Single global derating from the worst-affected ingredient.
	actualQuantity := plan.Quantity * (1 - worstRatio)
	if actualQuantity < 0 {
		actualQuantity = 0
	}

	// 6. Terminal write, conditional on the plan still being active so
	// a concurrent duplicate collapses to a no-op.
	won, err := s.planRepo.CompleteIf(plan.ID, repository.CompletionPatch{
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		ActualQuantity: actualQuantity,
		ActualCost:     actualCost,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else finished first; report their terminal state.
		log.Printf("completion: plan %s already finalized concurrently", plan.ID)
		finished, err := s.planRepo.FindByID(plan.ID)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{Plan: finished}, nil
	}

	// 7. Reconcile the shortage snapshot taken at scheduling time.
	s.reconcileAvailabilityRecord(plan.ID, startedAt, completedAt, actualCost, actualShortages, performedBy)

	finalPlan, err := s.planRepo.FindByID(plan.ID)
	if err != nil {
		return nil, err
	}
	result.Plan = finalPlan

	// 8. Notifications are best effort and never roll anything back.
	s.notifier.Notify(ws.Notification{
		Title:       "Production completed",
		Message:     fmt.Sprintf("%s completed batch '%s' (%.0f of %.0f %s)", performedBy, plan.RecipeName, actualQuantity, plan.Quantity, plan.Unit),
		Category:    "production",
		ReferenceID: plan.ID.String(),
	})
	for _, divergence := range result.Divergences {
		s.notifier.Notify(ws.Notification{
			Title:       "Ingredient shortage",
			Message:     fmt.Sprintf("batch '%s': %s severity shortage, expected %.2fg got %.2fg", plan.RecipeName, divergence.Severity, divergence.ExpectedQty, divergence.ActualQty),
			Category:    "divergence",
			ReferenceID: divergence.ID.String(),
		})
	}

	return result, nil
}

// consumeProduct decrements stock for one requirement line, drawing
// across every row of the product the same way the availability
// checker sums them. Returns consumed and missing quantities plus the
// ledger movements written. A row that fails to adjust contributes
// nothing and the remaining rows are still tried.
func (s *executionService) consumeProduct(plan *model.ProductionPlan, productID uuid.UUID, required float64, performedBy string) (consumed, missing float64, movements []model.StockMovement) {
	items, err := s.stockRepo.FindItemsByProduct(productID)
	if err != nil || len(items) == 0 {
		if err != nil {
			log.Printf("completion: reading stock for product %s failed: %v", productID, err)
		}
		return 0, required, nil
	}

	remaining := required
	for _, item := range items {
		if remaining <= 0 {
			break
		}
		take := remaining
		if item.Quantity < take {
			take = item.Quantity
		}
		if take <= 0 {
			continue
		}

		movement, err := s.stockRepo.AdjustLevel(repository.AdjustStockInput{
			StockItemID: item.ID,
			Quantity:    take,
			Type:        model.MovementOut,
			PerformedBy: performedBy,
			Note:        fmt.Sprintf("production batch '%s' (%s)", plan.RecipeName, plan.ID),
		})
		if err != nil {
			log.Printf("completion: stock adjustment for product %s failed: %v", productID, err)
			continue
		}
		movements = append(movements, *movement)
		consumed += take
		remaining -= take
	}

	return consumed, required - consumed, movements
}

func (s *executionService) reconcileAvailabilityRecord(planID uuid.UUID, startedAt, endedAt time.Time, actualCost float64, actualShortages model.ShortageLines, performedBy string) {
	record, err := s.availRepo.FindByPlanID(planID)
	if err != nil {
		log.Printf("completion: loading availability record for plan %s failed: %v", planID, err)
		return
	}
	if record == nil {
		return
	}

	if len(actualShortages) == 0 {
		record.Status = model.AvailabilityFulfilled
	} else {
		record.Status = model.AvailabilityReconciled
	}
	record.ExecutionStartedAt = &startedAt
	record.ExecutionEndedAt = &endedAt
	record.ActualCost = &actualCost
	record.ActualShortages = actualShortages
	record.UpdatedBy = performedBy

	if err := s.availRepo.Update(record); err != nil {
		log.Printf("completion: updating availability record for plan %s failed: %v", planID, err)
	}
}

func (s *executionService) ResolveDivergence(divergenceID uuid.UUID, resolvedBy string) error {
	if _, err := s.divRepo.FindByID(divergenceID); err != nil {
		return errors.New("divergence not found")
	}
	return s.divRepo.Resolve(divergenceID, resolvedBy)
}

func (s *executionService) GetDivergences(filter repository.DivergenceFilter) ([]model.Divergence, error) {
	return s.divRepo.FindAll(filter)
}
