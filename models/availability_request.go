package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilityRequestStatus 代表詢問單的處理狀態
type AvailabilityRequestStatus string

const (
	AvailabilityRequestStatusPending   AvailabilityRequestStatus = "pending"
	AvailabilityRequestStatusContacted AvailabilityRequestStatus = "contacted"
)

// AvailabilityRequest 代表買家對一台車送出的現車詢問
// 不需要登入也能送出，所以聯絡資訊直接存在這裡而不是關聯 User
type AvailabilityRequest struct {
	gorm.Model

	ID        uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	CarID     uuid.UUID                 `gorm:"type:uuid;not null;index;<-:create"`
	DealerID  uuid.UUID                 `gorm:"type:uuid;not null;index;<-:create"`
	FirstName string                    `gorm:"type:varchar(100);not null;<-:create"`
	LastName  string                    `gorm:"type:varchar(100);not null;<-:create"`
	Email     string                    `gorm:"type:varchar(255);not null;<-:create"`
	Phone     string                    `gorm:"type:varchar(50);not null;<-:create"`
	ZipCode   string                    `gorm:"type:varchar(20);not null;<-:create"`
	Comments  *string                   `gorm:"type:text;<-:create"`
	UserID    *uuid.UUID                `gorm:"type:uuid;<-:create"`
	Status    AvailabilityRequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`

	// 外鍵關聯
	Car    *Car  `gorm:"foreignKey:CarID"`
	Dealer *User `gorm:"foreignKey:DealerID"`
}

func (ar *AvailabilityRequest) BeforeCreate(*gorm.DB) error {
	if ar.ID == uuid.Nil {
		ar.ID = uuid.New()
	}
	return nil
}
