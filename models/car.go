package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CarStatus 代表車輛在庫存中的狀態
type CarStatus string

const (
	CarStatusActive CarStatus = "active"
	// CarStatusSold 在車商確認成交前代表「待成交」
	CarStatusSold CarStatus = "sold"
)

// Car 代表車商刊登的車輛
// 庫存同步由外部系統處理，核心只讀取車輛識別、售價和所屬車商
type Car struct {
	gorm.Model

	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DealerID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Year            int        `gorm:"type:integer;not null"`
	Make            string     `gorm:"type:varchar(100);not null"`
	CarModel        string     `gorm:"type:varchar(100);not null;column:model"`
	VIN             string     `gorm:"type:varchar(17);not null"`
	SalePrice       float64    `gorm:"type:double precision;not null"`
	Status          CarStatus  `gorm:"type:varchar(20);not null;default:'active'"`
	StatusChangedAt *time.Time `gorm:"type:timestamp with time zone"`

	// 外鍵關聯
	Dealer *User `gorm:"foreignKey:DealerID"`
}

func (c *Car) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
