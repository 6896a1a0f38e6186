package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DealListStatus 代表買家選車清單的狀態
type DealListStatus string

const (
	// DealListStatusActive 清單開放中，買家可以繼續加入車輛
	DealListStatusActive DealListStatus = "active"
	// DealListStatusAccepted 清單中有報價被接受，在交易解決前禁止新的加入
	DealListStatusAccepted DealListStatus = "accepted"
	// DealListStatusCompleted 交易由外部流程完結
	DealListStatusCompleted DealListStatus = "completed"
)

// DealList 代表買家的一次選車清單(最多4台車)
// 同一買家同時間最多只能有一份 active 或 accepted 狀態的清單
type DealList struct {
	gorm.Model

	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID      `gorm:"type:uuid;not null;index;<-:create"`
	Status     DealListStatus `gorm:"type:varchar(20);not null;default:'active'"`

	// 外鍵關聯
	Customer     *User         `gorm:"foreignKey:CustomerID"`
	SelectedCars []SelectedCar `gorm:"foreignKey:DealListID"`
}

func (list *DealList) BeforeCreate(*gorm.DB) error {
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	return nil
}
