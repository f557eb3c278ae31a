package repository

import (
	"errors"
	"time"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrStockItemNotFound = errors.New("stock item not found")
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrInvalidAdjustment = errors.New("adjustment quantity must be positive")
)

// AdjustStockInput describes one stock level change.
type AdjustStockInput struct {
	StockItemID uuid.UUID
	Quantity    float64
	Type        model.MovementType
	UnitCost    float64 // purchase cost per gram, increments only
	PerformedBy string
	Note        string
}

// StockMovementData is one day of aggregated ledger activity for charts.
type StockMovementData struct {
	Date     string  `json:"date"`
	Inbound  float64 `json:"inbound"`
	Outbound float64 `json:"outbound"`
}

// DashboardStats is the overview block for the dashboard screen.
type DashboardStats struct {
	TotalProducts  int64   `json:"total_products"`
	LowStockCount  int64   `json:"low_stock_count"`
	TotalValuation float64 `json:"total_valuation"`
}

type StockRepository interface {
	CreateItem(item *model.StockItem) error
	FindItems() ([]model.StockItem, error)
	FindItemByID(id uuid.UUID) (*model.StockItem, error)
	FindItemsByProduct(productID uuid.UUID) ([]model.StockItem, error)
	UpdateItem(item *model.StockItem) error
	AdjustLevel(input AdjustStockInput) (*model.StockMovement, error)
	FindMovements(limit int) ([]model.StockMovement, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) CreateItem(item *model.StockItem) error {
	return r.db.Create(item).Error
}

func (r *stockRepo) FindItems() ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.Preload("Product").Find(&items).Error
	return items, err
}

func (r *stockRepo) FindItemByID(id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.Preload("Product").First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) FindItemsByProduct(productID uuid.UUID) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.Where("product_id = ?", productID).Find(&items).Error
	return items, err
}

func (r *stockRepo) UpdateItem(item *model.StockItem) error {
	return r.db.Save(item).Error
}

// AdjustLevel mutates one stock row under a pessimistic lock and
// appends the matching ledger movement in the same transaction.
// Increments fold the purchase cost into the weighted average unit
// cost; decrements fail if the row holds less than requested.
func (r *stockRepo) AdjustLevel(input AdjustStockInput) (*model.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidAdjustment
	}

	var movement *model.StockMovement
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var item model.StockItem
		if err := lockForUpdate(tx).First(&item, "id = ?", input.StockItemID).Error; err != nil {
			return ErrStockItemNotFound
		}

		newQuantity := item.Quantity
		unitCost := item.AvgUnitCost

		switch input.Type {
		case model.MovementIn:
			newQuantity += input.Quantity
			// Weighted average cost over the old balance and the new lot.
			if input.UnitCost > 0 && newQuantity > 0 {
				item.AvgUnitCost = (item.Quantity*item.AvgUnitCost + input.Quantity*input.UnitCost) / newQuantity
				unitCost = input.UnitCost
			}
		case model.MovementOut:
			if item.Quantity < input.Quantity {
				return ErrInsufficientStock
			}
			newQuantity -= input.Quantity
		default:
			return errors.New("unknown movement type")
		}

		item.Quantity = newQuantity
		if err := tx.Model(&model.StockItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"quantity":      item.Quantity,
				"avg_unit_cost": item.AvgUnitCost,
				"updated_by":    input.PerformedBy,
			}).Error; err != nil {
			return err
		}

		movement = &model.StockMovement{
			ProductID:   item.ProductID,
			StockItemID: item.ID,
			Type:        input.Type,
			Quantity:    input.Quantity,
			Balance:     newQuantity,
			UnitCost:    unitCost,
			TotalCost:   unitCost * input.Quantity,
			PerformedBy: input.PerformedBy,
			Note:        input.Note,
		}
		movement.CreatedBy = input.PerformedBy
		return tx.Create(movement).Error
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *stockRepo) FindMovements(limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := r.db.Preload("Product").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, err
}

func (r *stockRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

func (r *stockRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)

	// Rows below their own minimum threshold
	r.db.Model(&model.StockItem{}).Where("quantity < min_threshold").Count(&stats.LowStockCount)

	// Valuation = SUM(quantity * avg_unit_cost)
	r.db.Model(&model.StockItem{}).Select("COALESCE(SUM(quantity * avg_unit_cost), 0)").Scan(&stats.TotalValuation)

	return &stats, nil
}
