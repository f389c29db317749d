package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

// StatsService provides the read-only aggregations behind the dashboard
// and the PDF reports.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService { return &StatsService{DB: db} }

type TopProduct struct {
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
}

type TopClient struct {
	Nom         string  `json:"nom"`
	SaleCount   int     `json:"sale_count"`
	TotalAmount float64 `json:"total_amount"`
}

type DashboardStats struct {
	ProductCount    int64                    `json:"product_count"`
	ClientCount     int64                    `json:"client_count"`
	SaleCount       int64                    `json:"sale_count"`
	Revenue         float64                  `json:"revenue"`
	UnitsSold       int                      `json:"units_sold"`
	LowStock        []models.Product         `json:"low_stock"`
	TopProducts     []TopProduct             `json:"top_products"`
	TopClients      []TopClient              `json:"top_clients"`
	SalesLast7Days  int64                    `json:"sales_last_7_days"`
	RevenueByDay    []PeriodRevenue          `json:"revenue_by_day"`
	RevenueByMonth  []PeriodRevenue          `json:"revenue_by_month"`
}

// PeriodRevenue is one bucket of the day/month revenue series.
type PeriodRevenue struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Dashboard assembles the full aggregate set in one call.
func (s *StatsService) Dashboard() (*DashboardStats, error) {
	stats := &DashboardStats{}
	if err := s.DB.Model(&models.Product{}).Count(&stats.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Client{}).Count(&stats.ClientCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Sale{}).Count(&stats.SaleCount).Error; err != nil {
		return nil, err
	}
	var revenue *float64
	if err := s.DB.Model(&models.Sale{}).Select("SUM(total)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}
	var units *int
	if err := s.DB.Model(&models.SaleLine{}).Select("SUM(quantity)").Scan(&units).Error; err != nil {
		return nil, err
	}
	if units != nil {
		stats.UnitsSold = *units
	}
	if err := s.DB.Where("stock <= alert_threshold").Order("stock asc").Find(&stats.LowStock).Error; err != nil {
		return nil, err
	}
	var err error
	if stats.TopProducts, err = s.TopProducts(5); err != nil {
		return nil, err
	}
	if stats.TopClients, err = s.TopClients(5); err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -7)
	if err := s.DB.Model(&models.Sale{}).Where("date >= ?", since).Count(&stats.SalesLast7Days).Error; err != nil {
		return nil, err
	}
	if stats.RevenueByDay, err = s.revenueByDay(7); err != nil {
		return nil, err
	}
	if stats.RevenueByMonth, err = s.revenueByMonth(12); err != nil {
		return nil, err
	}
	return stats, nil
}

// TopProducts returns the n best sellers by summed line quantity.
func (s *StatsService) TopProducts(n int) ([]TopProduct, error) {
	var out []TopProduct
	err := s.DB.Model(&models.SaleLine{}).
		Select("products.name AS name, SUM(sale_lines.quantity) AS total_quantity").
		Joins("JOIN products ON products.id = sale_lines.product_id").
		Group("products.id, products.name").
		Order("total_quantity DESC").
		Limit(n).
		Scan(&out).Error
	return out, err
}

// TopClients returns the n clients with the highest summed sale totals.
func (s *StatsService) TopClients(n int) ([]TopClient, error) {
	var out []TopClient
	err := s.DB.Model(&models.Sale{}).
		Select("clients.nom AS nom, COUNT(sales.id) AS sale_count, SUM(sales.total) AS total_amount").
		Joins("JOIN clients ON clients.id = sales.client_id").
		Where("sales.client_id IS NOT NULL").
		Group("clients.id, clients.nom").
		Order("total_amount DESC").
		Limit(n).
		Scan(&out).Error
	return out, err
}

// Buyer is a client with at least one sale, for the clients report.
type Buyer struct {
	ID          uint    `json:"id"`
	Nom         string  `json:"nom"`
	Telephone   string  `json:"telephone"`
	Email       string  `json:"email"`
	SaleCount   int     `json:"sale_count"`
	TotalAmount float64 `json:"total_amount"`
}

// Buyers lists every client that has purchased, biggest spender first.
func (s *StatsService) Buyers() ([]Buyer, error) {
	var out []Buyer
	err := s.DB.Model(&models.Client{}).
		Select("clients.id AS id, clients.nom AS nom, clients.telephone AS telephone, clients.email AS email, COUNT(sales.id) AS sale_count, SUM(sales.total) AS total_amount").
		Joins("JOIN sales ON sales.client_id = clients.id").
		Group("clients.id, clients.nom, clients.telephone, clients.email").
		Order("total_amount DESC").
		Scan(&out).Error
	return out, err
}

// Revenue buckets are computed in Go rather than SQL date functions so
// the same code runs on both sqlite and postgres.

func (s *StatsService) revenueByDay(days int) ([]PeriodRevenue, error) {
	var sales []models.Sale
	since := time.Now().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	if err := s.DB.Where("date >= ?", since).Find(&sales).Error; err != nil {
		return nil, err
	}
	buckets := make([]PeriodRevenue, days)
	index := map[string]int{}
	for i := 0; i < days; i++ {
		day := time.Now().AddDate(0, 0, -(days - 1 - i))
		label := day.Format("02/01")
		buckets[i] = PeriodRevenue{Label: label}
		index[day.Format("2006-01-02")] = i
	}
	for i := range sales {
		if pos, ok := index[sales[i].Date.Format("2006-01-02")]; ok {
			buckets[pos].Amount += sales[i].Total
		}
	}
	return buckets, nil
}

func (s *StatsService) revenueByMonth(months int) ([]PeriodRevenue, error) {
	var sales []models.Sale
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	if err := s.DB.Where("date >= ?", first).Find(&sales).Error; err != nil {
		return nil, err
	}
	buckets := make([]PeriodRevenue, months)
	index := map[string]int{}
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		buckets[i] = PeriodRevenue{Label: month.Format("Jan 2006")}
		index[month.Format("2006-01")] = i
	}
	for i := range sales {
		if pos, ok := index[sales[i].Date.Format("2006-01")]; ok {
			buckets[pos].Amount += sales[i].Total
		}
	}
	return buckets, nil
}
