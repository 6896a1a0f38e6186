package notify

import (
	"time"

	"github.com/google/uuid"
)

// EventType 代表通知事件的種類
type EventType string

const (
	// EventDealRequested 買家把車商的車加入選車清單，提醒車商出價
	EventDealRequested EventType = "dealRequested"
	// EventOfferSubmitted 車商送出新報價，提醒買家回應
	EventOfferSubmitted EventType = "offerSubmitted"
	// EventOfferDeclined 買家拒絕報價，提醒車商
	EventOfferDeclined EventType = "offerDeclined"
	// EventDealCancelledByBuyer 買家取消清單中的車
	EventDealCancelledByBuyer EventType = "dealCancelledByBuyer"
	// EventDealCancelledByDealer 車商取消清單中的車
	EventDealCancelledByDealer EventType = "dealCancelledByDealer"
	// EventDealAutoCancelled 車商的報價全數被拒，系統自動取消
	EventDealAutoCancelled EventType = "dealAutoCancelled"
	// EventAvailabilityRequested 買家詢問現車
	EventAvailabilityRequested EventType = "availabilityRequested"
)

// Recipient 代表通知的收件人
type Recipient struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// Event 代表一次要送出的通知
// Payload 只放給模板渲染用的人類可讀欄位，核心狀態不依賴它
type Event struct {
	Type       EventType
	Recipients []Recipient
	Payload    map[string]string
	CreatedAt  time.Time
}
