package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

// SaleService runs the sale-creation workflow: validate stock for every
// requested line, then create the sale aggregate and decrement stock in
// one transaction. A decrement that fails between validation and commit
// (lost race against a concurrent sale) rolls the whole aggregate back.
type SaleService struct {
	DB *gorm.DB
}

func NewSaleService(db *gorm.DB) *SaleService { return &SaleService{DB: db} }

// LineRequest is one submitted line item. UnitPrice <= 0 means "use the
// product's current price".
type LineRequest struct {
	ProductID uint
	Quantity  int
	UnitPrice float64
}

// SaleRequest is the sale-creation input: a header plus ordered lines.
type SaleRequest struct {
	ClientID *uint
	Paid     bool
	Lines    []LineRequest
}

// LowStockWarning is surfaced to the caller after a successful commit
// for every sold product now at or below its alert threshold.
type LowStockWarning struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Stock     int     `json:"stock"`
	Threshold int     `json:"threshold"`
}

func (w LowStockWarning) String() string {
	return fmt.Sprintf("%s est en stock faible (%d restant)", w.Name, w.Stock)
}

// InsufficientStockError rejects a request pre-commit. It carries one
// message per short line; nothing has been persisted when it is returned.
type InsufficientStockError struct {
	Shortfalls []string
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		return e.Shortfalls[0]
	}
	return fmt.Sprintf("%d lignes en rupture de stock", len(e.Shortfalls))
}

// StockRaceError aborts the commit phase: a product passed validation
// but its decrement failed because a concurrent sale got there first.
// The transaction has been rolled back when it is returned.
type StockRaceError struct {
	ProductName string
}

func (e *StockRaceError) Error() string {
	return fmt.Sprintf("impossible de décrémenter le stock pour %s", e.ProductName)
}

var ErrClientNotFound = errors.New("client introuvable")

// Create runs the workflow. On success it returns the persisted sale
// (lines and total filled in) plus low-stock warnings, deduplicated by
// product. On rejection it returns *InsufficientStockError and nothing
// is persisted; on a commit race it returns *StockRaceError and the
// transaction has undone every line and decrement.
func (s *SaleService) Create(req SaleRequest) (*models.Sale, []LowStockWarning, error) {
	if req.ClientID != nil {
		var count int64
		if err := s.DB.Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&count).Error; err != nil {
			return nil, nil, err
		}
		if count == 0 {
			return nil, nil, ErrClientNotFound
		}
	}

	// Validation pass: drop malformed lines silently, check stock for
	// the rest and collect every shortfall before deciding anything.
	type pendingLine struct {
		product   models.Product
		quantity  int
		unitPrice float64
	}
	var shortfalls []string
	var pending []pendingLine
	for _, lr := range req.Lines {
		if lr.ProductID == 0 || lr.Quantity <= 0 {
			continue // treated as not submitted
		}
		var product models.Product
		if err := s.DB.First(&product, lr.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, nil, err
		}
		if !product.InStock(lr.Quantity) {
			shortfalls = append(shortfalls, fmt.Sprintf("%s: %d requested but only %d in stock",
				product.Name, lr.Quantity, product.Stock))
			continue
		}
		price := lr.UnitPrice
		if price <= 0 {
			price = product.UnitPrice
		}
		pending = append(pending, pendingLine{product: product, quantity: lr.Quantity, unitPrice: price})
	}
	if len(shortfalls) > 0 {
		return nil, nil, &InsufficientStockError{Shortfalls: shortfalls}
	}

	// Commit pass: the full aggregate is built in memory and persisted
	// together with the decrements inside one transaction. Each
	// decrement re-checks availability, so losing a race to a
	// concurrent sale aborts and rolls everything back.
	sale := models.Sale{ClientID: req.ClientID, Date: time.Now(), Paid: req.Paid}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		for _, pl := range pending {
			line := models.SaleLine{
				SaleID:    sale.ID,
				ProductID: pl.product.ID,
				Quantity:  pl.quantity,
				UnitPrice: pl.unitPrice,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			ok, err := DecrementStock(tx, pl.product.ID, pl.quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &StockRaceError{ProductName: pl.product.Name}
			}
			line.StockDeducted = true
			if err := tx.Model(&models.SaleLine{}).Where("id = ?", line.ID).
				UpdateColumn("stock_deducted", true).Error; err != nil {
				return err
			}
			line.Product = pl.product
			sale.Lines = append(sale.Lines, line)
		}
		sale.Total = sale.ComputeTotal()
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			UpdateColumn("total", sale.Total).Error
	})
	if err != nil {
		sale.Lines = nil
		return nil, nil, err
	}

	warnings, err := s.lowStockWarnings(sale.Lines)
	if err != nil {
		// The sale committed; a failed warning lookup is not fatal.
		return &sale, nil, nil
	}
	return &sale, warnings, nil
}

// lowStockWarnings re-reads each sold product and keeps one warning per
// product at or below its threshold, even when several lines sold it.
func (s *SaleService) lowStockWarnings(lines []models.SaleLine) ([]LowStockWarning, error) {
	seen := map[uint]bool{}
	var warnings []LowStockWarning
	for i := range lines {
		pid := lines[i].ProductID
		if seen[pid] {
			continue
		}
		seen[pid] = true
		var product models.Product
		if err := s.DB.First(&product, pid).Error; err != nil {
			return nil, err
		}
		if product.LowStock() {
			warnings = append(warnings, LowStockWarning{
				ProductID: product.ID,
				Name:      product.Name,
				Stock:     product.Stock,
				Threshold: product.AlertThreshold,
			})
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].ProductID < warnings[j].ProductID })
	return warnings, nil
}

// Cancel undoes a sale: every line whose stock was deducted is restored,
// then the sale is deleted (its lines follow by cascade).
func (s *SaleService) Cancel(saleID uint) error {
	var sale models.Sale
	if err := s.DB.Preload("Lines").First(&sale, saleID).Error; err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range sale.Lines {
			line := &sale.Lines[i]
			if !line.StockDeducted {
				continue
			}
			if err := RestoreStock(tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Sale{}, sale.ID).Error
	})
}
