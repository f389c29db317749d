package models

import "time"

// Sale header plus its owned lines. Deleting a sale cascades to its
// lines; deleting the client keeps the sale and nulls the reference.
type Sale struct {
	ID        uint       `gorm:"primaryKey"`
	ClientID  *uint      `gorm:"index"`
	Client    *Client    `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
	Date      time.Time  `gorm:"not null;index"`
	Total     float64    `gorm:"not null;default:0"`
	Paid      bool       `gorm:"not null;default:false"`
	Lines     []SaleLine `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeTotal recomputes the header total from the lines. It is never
// maintained incrementally.
func (s *Sale) ComputeTotal() float64 {
	var total float64
	for i := range s.Lines {
		total += s.Lines[i].LineTotal()
	}
	return total
}

type SaleLine struct {
	ID        uint    `gorm:"primaryKey"`
	SaleID    uint    `gorm:"not null;index"`
	ProductID uint    `gorm:"not null;index"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"` // prix capturé au moment de la vente
	// StockDeducted marks that the decrement for this line went through;
	// it is only undone by an explicit restore on cancellation.
	StockDeducted bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *SaleLine) LineTotal() float64 { return float64(l.Quantity) * l.UnitPrice }
