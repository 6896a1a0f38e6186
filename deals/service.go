package deals

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

const (
	// MaxCarsPerDealList 一份選車清單最多4台未取消的車
	MaxCarsPerDealList = 4
	// MaxOffersPerDealer 車商對同一台選車最多3次報價
	MaxOffersPerDealer = 3
)

// Actor 區分操作來自買家還是車商
type Actor string

const (
	ActorBuyer  Actor = "buyer"
	ActorDealer Actor = "dealer"
)

// Service 是交易協商核心的唯一變更入口
// SelectedCar和Negotiation會被買家和車商兩種角色變更，
// 所有變更都必須經過這裡的操作，以維持清單上限、報價上限等不變量
type Service struct {
	db         *gorm.DB
	catalog    IVehicleCatalog
	dispatcher notify.IDispatcher
	logger     *slog.Logger
	sanitizer  *bluemonday.Policy

	// 單節點內的逐鍵序列化：buyerLocks以買家為鍵保護清單上限，
	// offerLocks以(selectedCar, dealer)為鍵保護報價上限；
	// 跨節點時由交易內重查和部分唯一索引守住同樣的不變量
	buyerLocks keyedMutex
	offerLocks keyedMutex
}

type ServiceOption func(*Service)

// WithServiceLogger 設置日誌記錄器
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(db *gorm.DB, catalog IVehicleCatalog, dispatcher notify.IDispatcher, opts ...ServiceOption) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}

	service := &Service{
		db:         db,
		catalog:    catalog,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		sanitizer:  bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.logger = service.logger.With(slog.String("caller", "deals.Service"))

	return service, nil
}

// notify 送出通知事件，失敗只記錄，絕不影響已提交的核心狀態
func (s *Service) notify(event notify.Event) {
	if len(event.Recipients) == 0 {
		return
	}
	if err := s.dispatcher.Notify(event); err != nil {
		s.logger.Error("Fail to enqueue notification",
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}

// recipientForUser 將使用者轉成通知收件人
func recipientForUser(user *models.User) []notify.Recipient {
	if user == nil {
		return nil
	}
	return []notify.Recipient{{
		UserID: user.ID,
		Name:   user.DisplayName(),
		Email:  user.ContactEmail(),
	}}
}

// loadRecipients 依使用者ID載入通知收件人
func (s *Service) loadRecipients(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]notify.Recipient {
	const op = "loadRecipients"
	var users []models.User
	if result := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users); result.Error != nil {
		s.logger.Error("Fail to load notification recipients", slog.String("op", op), slog.Any("error", result.Error))
		return nil
	}
	recipients := make(map[uuid.UUID]notify.Recipient, len(users))
	for i := range users {
		recipients[users[i].ID] = recipientForUser(&users[i])[0]
	}
	return recipients
}

// carPayload 組出通知模板需要的人類可讀車輛欄位
func carPayload(car *models.Car) map[string]string {
	if car == nil {
		return map[string]string{}
	}
	return map[string]string{
		"year":  fmt.Sprintf("%d", car.Year),
		"make":  car.Make,
		"model": car.CarModel,
		"vin":   car.VIN,
	}
}

// keyedMutex 提供以字串為鍵的互斥鎖
type keyedMutex struct {
	locks sync.Map
}

// lock 取得指定鍵的鎖，回傳解鎖函數
func (k *keyedMutex) lock(key string) func() {
	value, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
