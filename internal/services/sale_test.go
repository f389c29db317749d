package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

func countSales(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&n).Error)
	return n
}

func countLines(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.SaleLine{}).Count(&n).Error)
	return n
}

// Product A stock=10, threshold=5; qty=3 commits, stock=7, total=3×price,
// no warning.
func TestSaleCommitHappyPath(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 20, 10, 5)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{{ProductID: a.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.NotNil(t, sale)
	require.Equal(t, 60.0, sale.Total)
	require.Empty(t, warnings)
	require.Equal(t, 7, currentStock(t, db, a.ID))

	var persisted models.Sale
	require.NoError(t, db.Preload("Lines").First(&persisted, sale.ID).Error)
	require.Equal(t, 60.0, persisted.Total)
	require.Len(t, persisted.Lines, 1)
	require.True(t, persisted.Lines[0].StockDeducted)
	require.Equal(t, 20.0, persisted.Lines[0].UnitPrice)
	require.Equal(t, persisted.ComputeTotal(), persisted.Total)
}

// Product A stock=10; qty=15 is rejected with the exact shortfall
// message, stock untouched, nothing persisted.
func TestSaleRejectedOnShortfall(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 20, 10, 5)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{{ProductID: a.ID, Quantity: 15}},
	})
	require.Nil(t, sale)
	require.Empty(t, warnings)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, []string{"Produit A: 15 requested but only 10 in stock"}, insufficient.Shortfalls)

	require.Equal(t, 10, currentStock(t, db, a.ID))
	require.Zero(t, countSales(t, db))
	require.Zero(t, countLines(t, db))
}

// Product A stock=4, threshold=5; qty=2 commits, stock=2, warning raised.
func TestSaleCommitEmitsLowStockWarning(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 15, 4, 5)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{{ProductID: a.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 30.0, sale.Total)
	require.Equal(t, 2, currentStock(t, db, a.ID))
	require.Len(t, warnings, 1)
	require.Equal(t, a.ID, warnings[0].ProductID)
	require.Equal(t, 2, warnings[0].Stock)
	require.Equal(t, 5, warnings[0].Threshold)
}

// Two lines, one short: every line is checked before anything is
// persisted and the rejection lists only the shortfall.
func TestSaleRejectionChecksAllLinesFirst(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 10, 10, 2)
	b := createProduct(t, db, "Produit B", 5, 2, 1)

	sale, _, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: a.ID, Quantity: 5},
			{ProductID: b.ID, Quantity: 1000},
		},
	})
	require.Nil(t, sale)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, []string{"Produit B: 1000 requested but only 2 in stock"}, insufficient.Shortfalls)

	require.Equal(t, 10, currentStock(t, db, a.ID))
	require.Equal(t, 2, currentStock(t, db, b.ID))
	require.Zero(t, countSales(t, db))
	require.Zero(t, countLines(t, db))
}

// Two lines of the same product individually pass validation against
// the same snapshot, then the second decrement loses the race at commit
// time: the first line's decrement is undone and the sale is gone.
func TestSaleCommitRaceRollsBackEverything(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 10, 5, 1)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: a.ID, Quantity: 3},
		},
	})
	require.Nil(t, sale)
	require.Empty(t, warnings)

	var race *StockRaceError
	require.ErrorAs(t, err, &race)
	require.Equal(t, "Produit A", race.ProductName)

	require.Equal(t, 5, currentStock(t, db, a.ID))
	require.Zero(t, countSales(t, db))
	require.Zero(t, countLines(t, db))
}

// Malformed lines (no product, non-positive quantity, unknown product)
// are silently dropped, not errors.
func TestSaleMalformedLinesAreSkipped(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 8, 10, 2)

	sale, _, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: 0, Quantity: 2},
			{ProductID: a.ID, Quantity: 0},
			{ProductID: a.ID, Quantity: -3},
			{ProductID: 99999, Quantity: 1},
			{ProductID: a.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 16.0, sale.Total)
	require.Len(t, sale.Lines, 1)
	require.Equal(t, 8, currentStock(t, db, a.ID))
}

// A request whose lines are all malformed still commits an empty sale
// with total 0.
func TestSaleAllLinesMalformedCommitsEmptySale(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{{ProductID: 0, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Zero(t, sale.Total)
	require.Empty(t, sale.Lines)
	require.EqualValues(t, 1, countSales(t, db))
	require.Zero(t, countLines(t, db))
}

// Line unit price defaults to the product's current price only when
// unset.
func TestSaleLinePriceCapture(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 25, 10, 2)

	sale, _, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: a.ID, Quantity: 1, UnitPrice: 19.5},
			{ProductID: a.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 19.5, sale.Lines[0].UnitPrice)
	require.Equal(t, 25.0, sale.Lines[1].UnitPrice)
	require.Equal(t, 44.5, sale.Total)

	// price captured at sale time survives later catalogue changes
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", a.ID).UpdateColumn("unit_price", 99).Error)
	var persisted models.Sale
	require.NoError(t, db.Preload("Lines").First(&persisted, sale.ID).Error)
	require.Equal(t, 44.5, persisted.ComputeTotal())
}

// Warnings are deduplicated per product even when several lines sell it.
func TestSaleWarningsDedupedByProduct(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 5, 10, 8)

	sale, warnings, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: a.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 7, currentStock(t, db, a.ID))
	require.Len(t, sale.Lines, 2)
	require.Len(t, warnings, 1)
	require.Equal(t, 7, warnings[0].Stock)
}

func TestSaleUnknownClientRejected(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 5, 10, 2)

	missing := uint(12345)
	_, _, err := svc.Create(SaleRequest{
		ClientID: &missing,
		Lines:    []LineRequest{{ProductID: a.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrClientNotFound)
	require.Equal(t, 10, currentStock(t, db, a.ID))
	require.Zero(t, countSales(t, db))
}

func TestSaleCancelRestoresStock(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 12, 10, 2)
	b := createProduct(t, db, "Produit B", 7, 6, 2)

	sale, _, err := svc.Create(SaleRequest{
		Lines: []LineRequest{
			{ProductID: a.ID, Quantity: 4},
			{ProductID: b.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 6, currentStock(t, db, a.ID))
	require.Equal(t, 4, currentStock(t, db, b.ID))

	require.NoError(t, svc.Cancel(sale.ID))
	require.Equal(t, 10, currentStock(t, db, a.ID))
	require.Equal(t, 6, currentStock(t, db, b.ID))
	require.Zero(t, countSales(t, db))
	require.Zero(t, countLines(t, db))
}

// After any completed invocation, no product stock is negative.
func TestStockNeverNegativeAcrossWorkflows(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSaleService(db)
	a := createProduct(t, db, "Produit A", 3, 7, 2)

	requests := []SaleRequest{
		{Lines: []LineRequest{{ProductID: a.ID, Quantity: 4}}},
		{Lines: []LineRequest{{ProductID: a.ID, Quantity: 4}}},
		{Lines: []LineRequest{{ProductID: a.ID, Quantity: 2}, {ProductID: a.ID, Quantity: 2}}},
		{Lines: []LineRequest{{ProductID: a.ID, Quantity: 100}}},
	}
	for _, req := range requests {
		_, _, _ = svc.Create(req)
		require.GreaterOrEqual(t, currentStock(t, db, a.ID), 0)
	}
}
