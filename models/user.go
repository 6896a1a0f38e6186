package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType 區分買家和車商兩種角色
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeDealer   UserType = "dealer"
)

// User 代表平台上的使用者
// 身份驗證由外部系統處理，這裡只保留擁有權檢查和通知寄送需要的欄位
type User struct {
	gorm.Model

	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name              string    `gorm:"type:varchar(255);not null"`
	Email             string    `gorm:"type:varchar(255);not null"`
	UserType          UserType  `gorm:"type:varchar(20);not null;default:'customer'"`
	BusinessName      *string   `gorm:"type:varchar(255)"`
	NotificationEmail *string   `gorm:"type:varchar(255)"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName 優先使用商家名稱，沒有才用個人名稱
func (u *User) DisplayName() string {
	if u.BusinessName != nil && *u.BusinessName != "" {
		return *u.BusinessName
	}
	return u.Name
}

// ContactEmail 優先使用通知信箱，沒有才用登入信箱
func (u *User) ContactEmail() string {
	if u.NotificationEmail != nil && *u.NotificationEmail != "" {
		return *u.NotificationEmail
	}
	return u.Email
}
