package service

import (
	"time"

	"go-gelato-ws/internal/repository"
)

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*repository.DashboardStats, error)
}

type dashboardService struct {
	stockRepo repository.StockRepository
}

func NewDashboardService(stockRepo repository.StockRepository) DashboardService {
	return &dashboardService{stockRepo: stockRepo}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.stockRepo.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*repository.DashboardStats, error) {
	return s.stockRepo.GetDashboardStats()
}
