package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

func seedStatsFixtures(t *testing.T, db *gorm.DB) (models.Client, models.Client, models.Product, models.Product) {
	t.Helper()
	alice := models.Client{Nom: "Alice SARL"}
	bob := models.Client{Nom: "Bob & Fils"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	kb := createProduct(t, db, "Clavier", 30, 50, 5)
	ms := createProduct(t, db, "Souris", 10, 2, 5) // already low
	svc := NewSaleService(db)

	mustSale := func(clientID *uint, lines ...LineRequest) {
		_, _, err := svc.Create(SaleRequest{ClientID: clientID, Lines: lines})
		require.NoError(t, err)
	}
	mustSale(&alice.ID, LineRequest{ProductID: kb.ID, Quantity: 3})
	mustSale(&alice.ID, LineRequest{ProductID: kb.ID, Quantity: 2})
	mustSale(&bob.ID, LineRequest{ProductID: ms.ID, Quantity: 1})
	mustSale(nil, LineRequest{ProductID: kb.ID, Quantity: 1})
	return alice, bob, kb, ms
}

func TestDashboardAggregates(t *testing.T) {
	db := setupServiceTestDB(t)
	seedStatsFixtures(t, db)
	stats, err := NewStatsService(db).Dashboard()
	require.NoError(t, err)

	require.EqualValues(t, 2, stats.ProductCount)
	require.EqualValues(t, 2, stats.ClientCount)
	require.EqualValues(t, 4, stats.SaleCount)
	require.Equal(t, 190.0, stats.Revenue) // 90+60+10+30
	require.Equal(t, 7, stats.UnitsSold)
	require.EqualValues(t, 4, stats.SalesLast7Days)
	require.Len(t, stats.RevenueByDay, 7)
	require.Len(t, stats.RevenueByMonth, 12)
	// every sale happened today, so the last bucket holds all revenue
	require.Equal(t, 190.0, stats.RevenueByDay[6].Amount)
	require.Equal(t, 190.0, stats.RevenueByMonth[11].Amount)
}

func TestDashboardLowStockList(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, ms := seedStatsFixtures(t, db)
	stats, err := NewStatsService(db).Dashboard()
	require.NoError(t, err)

	require.Len(t, stats.LowStock, 1)
	require.Equal(t, ms.ID, stats.LowStock[0].ID)
}

func TestTopProducts(t *testing.T) {
	db := setupServiceTestDB(t)
	seedStatsFixtures(t, db)
	top, err := NewStatsService(db).TopProducts(5)
	require.NoError(t, err)

	require.Len(t, top, 2)
	require.Equal(t, "Clavier", top[0].Name)
	require.Equal(t, 6, top[0].TotalQuantity)
	require.Equal(t, "Souris", top[1].Name)
	require.Equal(t, 1, top[1].TotalQuantity)
}

func TestTopClientsIgnoresAnonymousSales(t *testing.T) {
	db := setupServiceTestDB(t)
	seedStatsFixtures(t, db)
	top, err := NewStatsService(db).TopClients(5)
	require.NoError(t, err)

	require.Len(t, top, 2)
	require.Equal(t, "Alice SARL", top[0].Nom)
	require.Equal(t, 2, top[0].SaleCount)
	require.Equal(t, 150.0, top[0].TotalAmount)
	require.Equal(t, "Bob & Fils", top[1].Nom)
}

func TestBuyersOrderedByAmount(t *testing.T) {
	db := setupServiceTestDB(t)
	alice, bob, _, _ := seedStatsFixtures(t, db)
	// a client who never bought anything must not appear
	idle := models.Client{Nom: "Dormant SA"}
	require.NoError(t, db.Create(&idle).Error)

	buyers, err := NewStatsService(db).Buyers()
	require.NoError(t, err)
	require.Len(t, buyers, 2)
	require.Equal(t, alice.ID, buyers[0].ID)
	require.Equal(t, 150.0, buyers[0].TotalAmount)
	require.Equal(t, bob.ID, buyers[1].ID)
}

func TestRevenueBucketsIgnoreOldSales(t *testing.T) {
	db := setupServiceTestDB(t)
	old := models.Sale{Date: time.Now().AddDate(-2, 0, 0), Total: 1000}
	require.NoError(t, db.Create(&old).Error)

	stats, err := NewStatsService(db).Dashboard()
	require.NoError(t, err)
	for _, b := range stats.RevenueByDay {
		require.Zero(t, b.Amount)
	}
	for _, b := range stats.RevenueByMonth {
		require.Zero(t, b.Amount)
	}
	require.EqualValues(t, 0, stats.SalesLast7Days)
	require.Equal(t, 1000.0, stats.Revenue)
}
