package models

import "time"

// Client entity
type Client struct {
	ID        uint   `gorm:"primaryKey"`
	Nom       string `gorm:"size:150;not null;index"` // Raison sociale ou nom
	Email     string
	Telephone string `gorm:"size:30"`
	Adresse   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
