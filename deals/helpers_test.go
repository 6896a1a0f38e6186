package deals

import (
	"context"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

// recordingDispatcher 記錄所有事件，給測試斷言用
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Start() {}

func (d *recordingDispatcher) Notify(event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Close() {}

func (d *recordingDispatcher) eventsOfType(eventType notify.EventType) []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(d.events, func(event notify.Event, _ int) bool {
		return event.Type == eventType
	})
}

// setupService 在每個測試內建立獨立的記憶體資料庫和服務
func setupService(t *testing.T) (*Service, *gorm.DB, *recordingDispatcher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	dispatcher := &recordingDispatcher{}
	service, err := NewService(db, NewCatalog(db), dispatcher,
		WithServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	})
	return service, db, dispatcher
}

func seedCustomer(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name:     "Test Customer",
		Email:    "customer-" + uuid.NewString()[:8] + "@example.com",
		UserType: models.UserTypeCustomer,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedDealer(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name:         "Test Dealer",
		Email:        "dealer-" + uuid.NewString()[:8] + "@example.com",
		UserType:     models.UserTypeDealer,
		BusinessName: lo.ToPtr("Test Motors"),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCar(t *testing.T, db *gorm.DB, dealerID uuid.UUID, price float64) models.Car {
	t.Helper()
	car := models.Car{
		DealerID:  dealerID,
		Year:      2022,
		Make:      "Toyota",
		CarModel:  "Camry",
		VIN:       "JT2BF22K" + uuid.NewString()[:9],
		SalePrice: price,
		Status:    models.CarStatusActive,
	}
	require.NoError(t, db.Create(&car).Error)
	return car
}

// admitOne 直接把一台車加入買家清單，回傳建立的選車列
func admitOne(t *testing.T, service *Service, db *gorm.DB, buyerID, carID uuid.UUID) models.SelectedCar {
	t.Helper()
	_, err := service.AdmitVehicles(context.Background(), buyerID, []uuid.UUID{carID})
	require.NoError(t, err)

	var selectedCar models.SelectedCar
	require.NoError(t, db.Joins("JOIN deal_lists ON deal_lists.id = selected_cars.deal_list_id").
		Where("selected_cars.car_id = ? AND deal_lists.customer_id = ?", carID, buyerID).
		First(&selectedCar).Error)
	return selectedCar
}

// acceptPendingOffer 走完提出報價加接受的流程，回傳成交紀錄
func acceptPendingOffer(t *testing.T, service *Service, selectedCarID, dealerID, buyerID uuid.UUID, price float64) *models.AcceptedDeal {
	t.Helper()
	negotiation, err := service.SubmitOffer(context.Background(), selectedCarID, dealerID, price)
	require.NoError(t, err)
	deal, err := service.AcceptOffer(context.Background(), negotiation.ID, buyerID)
	require.NoError(t, err)
	return deal
}
