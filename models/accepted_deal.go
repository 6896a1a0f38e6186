package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AcceptedDeal 代表買家接受報價後產生的成交紀錄
// 同一 (customer, car) 組合同時間只能有一筆存活中(未作廢、未被買家取消)的紀錄，
// 由部分唯一索引在儲存層強制，防止重複接受的競態
type AcceptedDeal struct {
	gorm.Model

	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_accepted_deals_live,where:dead_deal = false AND cancelled_by_customer = false AND deleted_at IS NULL;<-:create"`
	CarID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_accepted_deals_live,where:dead_deal = false AND cancelled_by_customer = false AND deleted_at IS NULL;<-:create"`
	FinalPrice float64   `gorm:"type:double precision;not null"`
	// Sold 車商確認成交
	Sold bool `gorm:"not null;default:false"`
	// DeadDeal 車商判定交易失敗，車輛會釋放回庫存
	DeadDeal bool `gorm:"not null;default:false"`
	// CancelledByCustomer 買家在成交後反悔取消
	CancelledByCustomer bool `gorm:"not null;default:false"`
	CustomerShowedUp    bool `gorm:"not null;default:false"`
	// VerificationCode 買家到店出示的6位數核對碼
	VerificationCode string `gorm:"type:varchar(6);not null;<-:create"`

	// 外鍵關聯
	Customer  *User      `gorm:"foreignKey:CustomerID"`
	Car       *Car       `gorm:"foreignKey:CarID"`
	TestDrive *TestDrive `gorm:"foreignKey:AcceptedDealID"`
}

func (ad *AcceptedDeal) BeforeCreate(*gorm.DB) error {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	return nil
}

// Live 回傳這筆成交紀錄是否仍然有效
func (ad *AcceptedDeal) Live() bool {
	return !ad.DeadDeal && !ad.CancelledByCustomer
}
