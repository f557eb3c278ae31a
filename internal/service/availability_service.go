package service

import (
	"errors"
	"log"
	"sort"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"

	"github.com/google/uuid"
)

var ErrRecipeNotFound = errors.New("recipe not found")

type AvailabilityStatus string

const (
	AvailabilitySufficient   AvailabilityStatus = "sufficient"
	AvailabilityInsufficient AvailabilityStatus = "insufficient"
)

// AvailabilityItem is the per-product outcome of an availability check.
type AvailabilityItem struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name,omitempty"`
	Required      float64   `json:"required"`
	Physical      float64   `json:"physical"`
	Reserved      float64   `json:"reserved"`
	Available     float64   `json:"available"`
	Shortage      float64   `json:"shortage"`
	MinThreshold  *float64  `json:"min_threshold,omitempty"`
	UnitCost      *float64  `json:"unit_cost,omitempty"`
	EstimatedCost *float64  `json:"estimated_cost,omitempty"`
}

// AvailabilityResult aggregates an availability check. EstimatedCost
// stays nil when no product had a cost basis, keeping "free" and
// "unknown" distinguishable.
type AvailabilityResult struct {
	Status        AvailabilityStatus `json:"status"`
	Items         []AvailabilityItem `json:"items"`
	Shortages     []AvailabilityItem `json:"shortages"`
	TotalRequired float64            `json:"total_required"`
	TotalShortage float64            `json:"total_shortage"`
	EstimatedCost *float64           `json:"estimated_cost,omitempty"`
}

// AvailabilityService computes what is truly free to use: physical
// stock minus what other active plans have already claimed.
type AvailabilityService interface {
	// CalculateReservations sums the resolved requirements of every
	// scheduled/in-progress plan except the excluded one.
	CalculateReservations(excludePlanID *uuid.UUID) map[uuid.UUID]float64

	// CheckAvailability runs the full resolve/reserve/compare pipeline
	// for a candidate plan. Pure read, safe to call repeatedly.
	CheckAvailability(recipeID uuid.UUID, quantity float64, unit model.ProductUnit, excludePlanID *uuid.UUID) (*AvailabilityResult, error)
}

type availabilityService struct {
	resolver    RequirementResolver
	recipeRepo  repository.RecipeRepository
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	planRepo    repository.PlanRepository
}

func NewAvailabilityService(
	resolver RequirementResolver,
	recipeRepo repository.RecipeRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	planRepo repository.PlanRepository,
) AvailabilityService {
	return &availabilityService{
		resolver:    resolver,
		recipeRepo:  recipeRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		planRepo:    planRepo,
	}
}

// CalculateReservations is deliberately recomputed from source recipes
// on every call rather than cached, trading throughput for correctness
// against concurrent recipe edits.
func (s *availabilityService) CalculateReservations(excludePlanID *uuid.UUID) map[uuid.UUID]float64 {
	reservations := make(map[uuid.UUID]float64)

	plans, err := s.planRepo.FindActive(excludePlanID)
	if err != nil {
		log.Printf("reservation pass: listing active plans failed: %v", err)
		return reservations
	}

	for _, plan := range plans {
		recipe, err := s.recipeRepo.FindByID(plan.RecipeID)
		if err != nil {
			// One bad plan must not block availability for the rest.
			log.Printf("reservation pass: recipe %s for plan %s not found: %v", plan.RecipeID, plan.ID, err)
			continue
		}
		for productID, qty := range s.resolver.Resolve(recipe, plan.Quantity, plan.Unit) {
			reservations[productID] += qty
		}
	}
	return reservations
}

func (s *availabilityService) CheckAvailability(recipeID uuid.UUID, quantity float64, unit model.ProductUnit, excludePlanID *uuid.UUID) (*AvailabilityResult, error) {
	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		return nil, ErrRecipeNotFound
	}

	requirements := s.resolver.Resolve(recipe, quantity, unit)
	reservations := s.CalculateReservations(excludePlanID)

	// Stable product order keeps responses and logs deterministic.
	productIDs := make([]uuid.UUID, 0, len(requirements))
	for id := range requirements {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	result := &AvailabilityResult{Status: AvailabilitySufficient}
	var totalCost float64
	var hasCost bool

	for _, productID := range productIDs {
		required := requirements[productID]

		items, err := s.stockRepo.FindItemsByProduct(productID)
		if err != nil {
			log.Printf("availability check: reading stock for product %s failed: %v", productID, err)
			items = nil
		}

		var physical float64
		var minThreshold *float64
		for _, item := range items {
			physical += item.Quantity
			if item.MinThreshold > 0 && minThreshold == nil {
				threshold := item.MinThreshold
				minThreshold = &threshold
			}
		}

		reserved := reservations[productID]
		available := physical - reserved
		if available < 0 {
			available = 0
		}
		shortage := required - available
		if shortage < 0 {
			shortage = 0
		}

		item := AvailabilityItem{
			ProductID:    productID,
			Required:     required,
			Physical:     physical,
			Reserved:     reserved,
			Available:    available,
			Shortage:     shortage,
			MinThreshold: minThreshold,
		}

		if product, err := s.productRepo.FindByID(productID); err == nil {
			item.ProductName = product.Name
		}

		if unitCost, ok := weightedUnitCost(items); ok {
			lineCost := unitCost * required
			item.UnitCost = &unitCost
			item.EstimatedCost = &lineCost
			totalCost += lineCost
			hasCost = true
		}

		result.Items = append(result.Items, item)
		result.TotalRequired += required
		if shortage > 0 {
			result.Shortages = append(result.Shortages, item)
			result.TotalShortage += shortage
			result.Status = AvailabilityInsufficient
		}
	}

	if hasCost {
		result.EstimatedCost = &totalCost
	}
	return result, nil
}

// weightedUnitCost averages unit cost over all stock rows weighted by
// their quantity. A zero AvgUnitCost means the row was never costed,
// not that the stock is free, so such rows carry no weight and do not
// drag the average down. When the weighted computation is degenerate
// (zero total quantity) it falls back to the highest stored average;
// no rows with a cost basis means no cost at all.
func weightedUnitCost(items []model.StockItem) (float64, bool) {
	var totalQty, weighted, highest float64
	var hasBasis bool

	for _, item := range items {
		if item.AvgUnitCost <= 0 {
			continue
		}
		hasBasis = true
		if item.AvgUnitCost > highest {
			highest = item.AvgUnitCost
		}
		if item.Quantity > 0 {
			totalQty += item.Quantity
			weighted += item.Quantity * item.AvgUnitCost
		}
	}

	if !hasBasis {
		return 0, false
	}
	if totalQty > 0 {
		return weighted / totalQty, true
	}
	return highest, true
}
