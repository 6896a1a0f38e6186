package deals

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

func TestAdmitVehicles(t *testing.T) {
	t.Run("creates list and notifies each dealer once", func(t *testing.T) {
		service, db, dispatcher := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		carA := seedCar(t, db, dealer.ID, 30000)
		carB := seedCar(t, db, dealer.ID, 25000)

		outcome, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{carA.ID, carB.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, outcome.Created)
		assert.Equal(t, 0, outcome.Reactivated)
		assert.Equal(t, 2, outcome.RemainingSlots)

		var list models.DealList
		require.NoError(t, db.First(&list, "id = ?", outcome.DealListID).Error)
		assert.Equal(t, buyer.ID, list.CustomerID)
		assert.Equal(t, models.DealListStatusActive, list.Status)

		// 兩台車同一車商，只通知一次
		events := dispatcher.eventsOfType(notify.EventDealRequested)
		require.Len(t, events, 1)
		assert.Equal(t, dealer.ID, events[0].Recipients[0].UserID)
		assert.Equal(t, "2", events[0].Payload["cars"])
	})

	t.Run("snapshots the list price at admission time", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)

		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)
		assert.Equal(t, float64(30000), selectedCar.OriginalPrice)
		assert.Equal(t, float64(30000), selectedCar.CurrentOfferPrice)
	})

	t.Run("deduplicates the requested ids", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)

		outcome, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{car.ID, car.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Created)
	})

	t.Run("empty request is rejected", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)

		_, err := service.AdmitVehicles(context.Background(), buyer.ID, nil)
		assert.ErrorIs(t, err, ErrNoVehiclesRequested)
	})

	t.Run("unknown vehicle rejects the whole request", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)

		_, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{car.ID, uuid.New()})
		assert.ErrorIs(t, err, ErrNotFound)

		// 另一台存在的車也不能偷跑進清單
		var count int64
		require.NoError(t, db.Model(&models.SelectedCar{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("duplicate takes precedence over slot limit", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		cars := lo.Times(6, func(_ int) models.Car { return seedCar(t, db, dealer.ID, 20000) })

		_, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{cars[0].ID, cars[1].ID, cars[2].ID})
		require.NoError(t, err)

		// 4台之中1台重複：就算總數會爆格，也要先回報重複
		_, err = service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{cars[0].ID, cars[3].ID, cars[4].ID, cars[5].ID})
		var dupErr *DuplicateInActiveDealError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, []uuid.UUID{cars[0].ID}, dupErr.CarIDs)
	})

	t.Run("slot limit is enforced", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		cars := lo.Times(5, func(_ int) models.Car { return seedCar(t, db, dealer.ID, 20000) })

		_, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{cars[0].ID, cars[1].ID, cars[2].ID})
		require.NoError(t, err)

		_, err = service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{cars[3].ID, cars[4].ID})
		var slotErr *SlotLimitError
		require.ErrorAs(t, err, &slotErr)
		assert.Equal(t, 3, slotErr.CurrentCount)
		assert.Equal(t, 2, slotErr.Requested)
		assert.Equal(t, MaxCarsPerDealList, slotErr.MaxCars)
	})

	t.Run("cancelled car is reactivated on the same row", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)

		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)
		require.NoError(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, buyer.ID, ActorBuyer))

		// 車商改標價後重新加入，快照必須維持第一次加入時的價格
		require.NoError(t, db.Model(&models.Car{}).Where("id = ?", car.ID).Update("sale_price", 28000).Error)

		outcome, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{car.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, outcome.Created)
		assert.Equal(t, 1, outcome.Reactivated)

		var rows []models.SelectedCar
		require.NoError(t, db.Where("car_id = ?", car.ID).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, selectedCar.ID, rows[0].ID)
		assert.Equal(t, models.SelectedCarStatusPending, rows[0].Status)
		assert.Equal(t, float64(30000), rows[0].OriginalPrice)
	})

	t.Run("accepted list blocks new admissions", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		other := seedCar(t, db, dealer.ID, 22000)

		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)
		acceptPendingOffer(t, service, selectedCar.ID, dealer.ID, buyer.ID, 29000)

		_, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{other.ID})
		assert.ErrorIs(t, err, ErrConflictActiveDeal)
	})
}

func TestAdmitVehicles_Concurrent(t *testing.T) {
	// 兩個並發請求合計超過上限時，恰好一個要被擋下
	service, db, _ := setupService(t)
	buyer := seedCustomer(t, db)
	dealer := seedDealer(t, db)
	first := seedCar(t, db, dealer.ID, 20000)
	batchA := []uuid.UUID{seedCar(t, db, dealer.ID, 20000).ID, seedCar(t, db, dealer.ID, 20000).ID}
	batchB := []uuid.UUID{seedCar(t, db, dealer.ID, 20000).ID, seedCar(t, db, dealer.ID, 20000).ID}

	_, err := service.AdmitVehicles(context.Background(), buyer.ID, []uuid.UUID{first.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, batch := range [][]uuid.UUID{batchA, batchB} {
		wg.Add(1)
		go func(i int, batch []uuid.UUID) {
			defer wg.Done()
			_, errs[i] = service.AdmitVehicles(context.Background(), buyer.ID, batch)
		}(i, batch)
	}
	wg.Wait()

	failed := lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	require.Len(t, failed, 1)
	var slotErr *SlotLimitError
	assert.ErrorAs(t, failed[0], &slotErr)

	var count int64
	require.NoError(t, db.Model(&models.SelectedCar{}).
		Where("status <> ?", models.SelectedCarStatusCancelled).Count(&count).Error)
	assert.LessOrEqual(t, count, int64(MaxCarsPerDealList))
}

func TestCancelSelectedCar(t *testing.T) {
	t.Run("buyer cancel notifies the dealer", func(t *testing.T) {
		service, db, dispatcher := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)

		require.NoError(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, buyer.ID, ActorBuyer))

		var updated models.SelectedCar
		require.NoError(t, db.First(&updated, "id = ?", selectedCar.ID).Error)
		assert.Equal(t, models.SelectedCarStatusCancelled, updated.Status)

		events := dispatcher.eventsOfType(notify.EventDealCancelledByBuyer)
		require.Len(t, events, 1)
		assert.Equal(t, dealer.ID, events[0].Recipients[0].UserID)
	})

	t.Run("dealer cancel notifies the buyer", func(t *testing.T) {
		service, db, dispatcher := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)

		require.NoError(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, dealer.ID, ActorDealer))

		events := dispatcher.eventsOfType(notify.EventDealCancelledByDealer)
		require.Len(t, events, 1)
		assert.Equal(t, buyer.ID, events[0].Recipients[0].UserID)
	})

	t.Run("double cancel is rejected", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)

		require.NoError(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, buyer.ID, ActorBuyer))
		err := service.CancelSelectedCar(context.Background(), selectedCar.ID, buyer.ID, ActorBuyer)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("ownership is required", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		stranger := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		otherDealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)

		assert.ErrorIs(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, stranger.ID, ActorBuyer), ErrUnauthorized)
		assert.ErrorIs(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, otherDealer.ID, ActorDealer), ErrUnauthorized)
	})

	t.Run("unknown selected car", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)

		err := service.CancelSelectedCar(context.Background(), uuid.New(), buyer.ID, ActorBuyer)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("buyer cancel flags the live accepted deal", func(t *testing.T) {
		service, db, _ := setupService(t)
		buyer := seedCustomer(t, db)
		dealer := seedDealer(t, db)
		car := seedCar(t, db, dealer.ID, 30000)
		selectedCar := admitOne(t, service, db, buyer.ID, car.ID)
		deal := acceptPendingOffer(t, service, selectedCar.ID, dealer.ID, buyer.ID, 29000)

		require.NoError(t, service.CancelSelectedCar(context.Background(), selectedCar.ID, buyer.ID, ActorBuyer))

		var updated models.AcceptedDeal
		require.NoError(t, db.First(&updated, "id = ?", deal.ID).Error)
		assert.True(t, updated.CancelledByCustomer)
	})
}
