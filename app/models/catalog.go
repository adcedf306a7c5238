package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Manufacturer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Car struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null;uniqueIndex:idx_car_name_manufacturer" json:"name"`
	ManufacturerID uint            `gorm:"not null;uniqueIndex:idx_car_name_manufacturer" json:"manufacturer_id"`
	Manufacturer   *Manufacturer   `gorm:"constraint:OnDelete:CASCADE" json:"manufacturer,omitempty"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`
}
