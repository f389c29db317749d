package models

import "time"

// Product catalogue entry. Stock is mutated only through the stock
// ledger operations in services (DecrementStock / RestoreStock) so the
// non-negative invariant holds everywhere.
type Product struct {
	ID             uint    `gorm:"primaryKey"`
	Name           string  `gorm:"size:200;not null;index"`
	Description    string
	UnitPrice      float64 `gorm:"not null"`
	Stock          int     `gorm:"not null;default:0"`
	AlertThreshold int     `gorm:"not null;default:5"` // alerte stock faible
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InStock reports whether qty units are currently available.
func (p *Product) InStock(qty int) bool { return p.Stock >= qty }

// LowStock reports whether the product sits at or below its alert threshold.
func (p *Product) LowStock() bool { return p.Stock <= p.AlertThreshold }
