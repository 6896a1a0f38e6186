package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SelectedCarStatus 代表車輛在選車清單中的狀態
type SelectedCarStatus string

const (
	// SelectedCarStatusPending 等待車商報價或買家回應
	SelectedCarStatusPending SelectedCarStatus = "pending"
	// SelectedCarStatusCancelled 被任一方取消，或因報價全數被拒而自動取消
	SelectedCarStatusCancelled SelectedCarStatus = "cancelled"
	// SelectedCarStatusWon 買家接受了這台車的某個報價
	SelectedCarStatusWon SelectedCarStatus = "won"
)

// SelectedCar 代表一台車在選車清單中的成員資格
// 同一清單中同一台車最多只會有一列，取消後重新加入會沿用原本那一列
type SelectedCar struct {
	gorm.Model

	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	DealListID uuid.UUID         `gorm:"type:uuid;not null;index;<-:create"`
	CarID      uuid.UUID         `gorm:"type:uuid;not null;index;<-:create"`
	Status     SelectedCarStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	// OriginalPrice 加入清單當下的標價快照
	OriginalPrice float64 `gorm:"type:double precision;not null;<-:create"`
	// CurrentOfferPrice 所有未被拒絕報價中的最低價，初始值等於標價快照
	CurrentOfferPrice float64 `gorm:"type:double precision;not null"`
	NegotiationCount  int     `gorm:"type:integer;not null;default:0"`

	// 外鍵關聯
	DealList     *DealList     `gorm:"foreignKey:DealListID"`
	Car          *Car          `gorm:"foreignKey:CarID"`
	Negotiations []Negotiation `gorm:"foreignKey:SelectedCarID"`
}

func (sc *SelectedCar) BeforeCreate(*gorm.DB) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	return nil
}
