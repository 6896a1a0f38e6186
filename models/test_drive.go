package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestDriveStatus 代表試駕預約的狀態
type TestDriveStatus string

const (
	// TestDriveStatusRequested 買家已提出，日期時間還在協調中
	TestDriveStatusRequested TestDriveStatus = "requested"
	TestDriveStatusScheduled TestDriveStatus = "scheduled"
	TestDriveStatusCancelled TestDriveStatus = "cancelled"
)

// ScheduleTBD 日期或時間尚未確定時的佔位值
const ScheduleTBD = "TBD"

// TestDrive 代表附掛在成交紀錄上的試駕預約
// 一筆成交紀錄同時間最多只能有一個未取消的試駕，由部分唯一索引強制
type TestDrive struct {
	gorm.Model

	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	AcceptedDealID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_test_drives_active,where:status <> 'cancelled' AND deleted_at IS NULL;<-:create"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	DealerID       uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	// 日期時間以字串儲存，允許 "TBD" 佔位
	ScheduledDate string          `gorm:"type:varchar(50);not null;default:'TBD'"`
	ScheduledTime string          `gorm:"type:varchar(50);not null;default:'TBD'"`
	CustomerNotes *string         `gorm:"type:text"`
	Status        TestDriveStatus `gorm:"type:varchar(20);not null;default:'requested'"`

	// 外鍵關聯
	AcceptedDeal *AcceptedDeal `gorm:"foreignKey:AcceptedDealID"`
	Customer     *User         `gorm:"foreignKey:CustomerID"`
	Dealer       *User         `gorm:"foreignKey:DealerID"`
}

func (td *TestDrive) BeforeCreate(*gorm.DB) error {
	if td.ID == uuid.Nil {
		td.ID = uuid.New()
	}
	return nil
}
