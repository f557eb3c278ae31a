package handler

import (
	"errors"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProductionHandler struct {
	planning  service.PlanningService
	execution service.ExecutionService
}

func NewProductionHandler(planning service.PlanningService, execution service.ExecutionService) *ProductionHandler {
	return &ProductionHandler{planning: planning, execution: execution}
}

// CheckAvailabilityRequest is the candidate batch to evaluate.
type CheckAvailabilityRequest struct {
	RecipeID      uuid.UUID         `json:"recipe_id"`
	Quantity      float64           `json:"quantity"`
	Unit          model.ProductUnit `json:"unit"`
	ExcludePlanID *uuid.UUID        `json:"exclude_plan_id,omitempty"`
}

// CheckAvailability runs the pure availability pipeline without
// persisting anything.
// POST /api/v1/production-plans/check-availability
func (h *ProductionHandler) CheckAvailability(c *fiber.Ctx) error {
	var req CheckAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.planning.CheckAvailability(req.RecipeID, req.Quantity, req.Unit, req.ExcludePlanID)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// SchedulePlan persists a new plan. When the availability check comes
// back insufficient, the caller must hold production:confirm_shortage
// and the override is recorded against their user id.
// POST /api/v1/production-plans
func (h *ProductionHandler) SchedulePlan(c *fiber.Ctx) error {
	var req service.SchedulePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	confirmedBy := ""
	if hasPrivilege(c, "production:confirm_shortage") {
		confirmedBy = getUserID(c)
	}

	result, err := h.planning.SchedulePlan(&req, getUserID(c), confirmedBy)
	if err != nil {
		if errors.Is(err, service.ErrShortageNotConfirmed) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrRecipeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Production plan scheduled", "data": result})
}

func (h *ProductionHandler) GetPlans(c *fiber.Ctx) error {
	filter := repository.PlanFilter{
		IncludeArchived: c.Query("include_archived") == "true",
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []model.PlanStatus{model.PlanStatus(status)}
	}

	plans, err := h.planning.GetPlans(filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(plans)
}

func (h *ProductionHandler) GetPlan(c *fiber.Ctx) error {
	planID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	plan, err := h.planning.GetPlan(planID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Production plan not found"})
	}
	return c.JSON(plan)
}

// POST /api/v1/production-plans/:id/start
func (h *ProductionHandler) StartPlan(c *fiber.Ctx) error {
	planID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	plan, err := h.planning.StartPlan(planID, getUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Production started", "data": plan})
}

// CompletePlan executes the batch: consumes stock, records movements
// and divergences, and finalizes the plan. Idempotent.
// POST /api/v1/production-plans/:id/complete
func (h *ProductionHandler) CompletePlan(c *fiber.Ctx) error {
	planID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	result, err := h.execution.CompletePlanWithConsumption(planID, getUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrPlanNotExecutable) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Production completed", "data": result})
}

// POST /api/v1/production-plans/:id/cancel
func (h *ProductionHandler) CancelPlan(c *fiber.Ctx) error {
	planID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	plan, err := h.planning.CancelPlan(planID, getUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Production cancelled", "data": plan})
}

// POST /api/v1/production-plans/:id/archive
func (h *ProductionHandler) ArchivePlan(c *fiber.Ctx) error {
	planID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	if err := h.planning.ArchivePlan(planID, getUserID(c)); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Status(409).JSON(fiber.Map{"error": "Only completed or cancelled plans can be archived"})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Production plan archived"})
}

func (h *ProductionHandler) GetDivergences(c *fiber.Ctx) error {
	filter := repository.DivergenceFilter{}
	if planParam := c.Query("plan_id"); planParam != "" {
		planID, err := parseUUID(planParam)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid plan ID"})
		}
		filter.PlanID = &planID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = model.DivergenceStatus(status)
	}

	divergences, err := h.execution.GetDivergences(filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(divergences)
}

// PUT /api/v1/divergences/:id/resolve
func (h *ProductionHandler) ResolveDivergence(c *fiber.Ctx) error {
	divergenceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid divergence ID"})
	}

	if err := h.execution.ResolveDivergence(divergenceID, getUserID(c)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Divergence resolved"})
}
