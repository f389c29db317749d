package services

import (
	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
)

// Stock ledger. These two functions are the only code paths allowed to
// touch Product.Stock, which keeps the non-negative invariant in one
// place. Both accept a *gorm.DB so they work inside or outside a
// transaction.

// DecrementStock removes qty units from the product's stock. It returns
// false without mutating anything when qty is not positive or when the
// product does not have qty units available. The availability check and
// the write are a single guarded UPDATE, so a concurrent sale cannot
// drive the stock below zero between check and write.
func DecrementStock(db *gorm.DB, productID uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	res := db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock puts qty units back. No-op for non-positive quantities.
// Used to undo a prior decrement when a sale is cancelled.
func RestoreStock(db *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return nil
	}
	return db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
