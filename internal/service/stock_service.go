package service

import (
	"errors"
	"fmt"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/ws"
	"go-gelato-ws/pkg/validator"

	"github.com/google/uuid"
)

var ErrStockItemExists = errors.New("stock item already exists for this product")

// AdjustStockRequest is the manual correction input (deliveries,
// spoilage write-offs). Production consumption goes through the
// execution engine instead.
type AdjustStockRequest struct {
	Quantity float64            `json:"quantity" validate:"required,gt=0"`
	Type     model.MovementType `json:"type" validate:"required,oneof=IN OUT"`
	UnitCost float64            `json:"unit_cost" validate:"omitempty,gte=0"`
	Note     string             `json:"note"`
}

type StockService interface {
	CreateStockItem(req *model.StockItem, userID string) error
	GetStockItems() ([]model.StockItem, error)
	AdjustStockLevel(stockItemID uuid.UUID, req *AdjustStockRequest, performedBy string) (*model.StockMovement, error)
	GetMovements(limit int) ([]model.StockMovement, error)
}

type stockService struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	notifier    ws.Notifier
}

func NewStockService(stockRepo repository.StockRepository, productRepo repository.ProductRepository, notifier ws.Notifier) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		notifier:    notifier,
	}
}

func (s *stockService) CreateStockItem(req *model.StockItem, userID string) error {
	// 1. Validate struct
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Product must exist and be stock-tracked
	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		return ErrProductNotFound
	}
	if !product.TrackStock {
		return errors.New("product does not track stock")
	}

	// 3. One meaningful row per product
	existing, err := s.stockRepo.FindItemsByProduct(req.ProductID)
	if err == nil && len(existing) > 0 {
		return ErrStockItemExists
	}

	req.CreatedBy = userID
	req.UpdatedBy = userID
	return s.stockRepo.CreateItem(req)
}

func (s *stockService) GetStockItems() ([]model.StockItem, error) {
	return s.stockRepo.FindItems()
}

func (s *stockService) AdjustStockLevel(stockItemID uuid.UUID, req *AdjustStockRequest, performedBy string) (*model.StockMovement, error) {
	// 1. Validate input
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Adjust under lock, ledger entry included
	movement, err := s.stockRepo.AdjustLevel(repository.AdjustStockInput{
		StockItemID: stockItemID,
		Quantity:    req.Quantity,
		Type:        req.Type,
		UnitCost:    req.UnitCost,
		PerformedBy: performedBy,
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}

	verb := "added"
	if req.Type == model.MovementOut {
		verb = "removed"
	}
	s.notifier.Notify(ws.Notification{
		Title:       "Stock adjusted",
		Message:     fmt.Sprintf("%s %s %.2fg (balance %.2fg)", performedBy, verb, movement.Quantity, movement.Balance),
		Category:    "stock",
		ReferenceID: movement.ID.String(),
	})

	// Low stock warning after manual decrements
	if req.Type == model.MovementOut {
		if item, err := s.stockRepo.FindItemByID(stockItemID); err == nil && item.MinThreshold > 0 && item.Quantity < item.MinThreshold {
			s.notifier.Notify(ws.Notification{
				Title:       "Low stock",
				Message:     fmt.Sprintf("stock at %.2fg, below minimum threshold %.2fg", item.Quantity, item.MinThreshold),
				Category:    "stock",
				ReferenceID: item.ID.String(),
			})
		}
	}

	return movement, nil
}

func (s *stockService) GetMovements(limit int) ([]model.StockMovement, error) {
	return s.stockRepo.FindMovements(limit)
}
