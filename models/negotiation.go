package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NegotiationStatus 代表報價的狀態
type NegotiationStatus string

const (
	NegotiationStatusPending  NegotiationStatus = "pending"
	NegotiationStatusAccepted NegotiationStatus = "accepted"
	NegotiationStatusDeclined NegotiationStatus = "declined"
)

// Negotiation 代表車商針對清單中一台車提出的一次報價
// 同一個 (selected_car, dealer) 組合最多3筆，且同時間最多只能有一筆 pending
// pending 的唯一性由部分唯一索引在儲存層強制，避免並發提交穿過應用層檢查
type Negotiation struct {
	gorm.Model

	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SelectedCarID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_negotiations_one_pending,where:status = 'pending' AND deleted_at IS NULL;<-:create"`
	DealerID      uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_negotiations_one_pending,where:status = 'pending' AND deleted_at IS NULL;<-:create"`
	OfferedPrice  float64           `gorm:"type:double precision;not null;<-:create"`
	Status        NegotiationStatus `gorm:"type:varchar(20);not null;default:'pending'"`

	// 外鍵關聯
	SelectedCar *SelectedCar `gorm:"foreignKey:SelectedCarID"`
	Dealer      *User        `gorm:"foreignKey:DealerID"`
}

func (n *Negotiation) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
