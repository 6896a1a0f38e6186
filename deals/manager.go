package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// AdmissionOutcome 回報一次加入清單的結果
type AdmissionOutcome struct {
	DealListID     uuid.UUID
	Created        int
	Reactivated    int
	RemainingSlots int
}

// AdmitVehicles 把最多4台車加入買家的選車清單
// 規則順序固定：先擋accepted清單(ConflictActiveDeal)，再擋重複車輛
// (DuplicateInActiveDeal)，最後才計算剩餘格數(SlotLimitExceeded)；
// 之前取消過的車會沿用原本那一列重新啟用，不會產生重複
func (s *Service) AdmitVehicles(ctx context.Context, buyerID uuid.UUID, vehicleIDs []uuid.UUID) (*AdmissionOutcome, error) {
	const op = "AdmitVehicles"
	if len(vehicleIDs) == 0 {
		return nil, ErrNoVehiclesRequested
	}
	requested := lo.Uniq(vehicleIDs)

	// 先對目錄解析所有車輛，任何一台不存在整個請求就失敗
	vehicles, err := s.catalog.GetVehicles(ctx, requested)
	if err != nil {
		return nil, err
	}

	// 同一買家的加入操作逐一序列化，搭配交易內的重查守住4格上限
	unlock := s.buyerLocks.lock(buyerID.String())
	defer unlock()

	var outcome AdmissionOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 找出買家進行中的清單，accepted狀態要等外部解決才能再加入
		var list models.DealList
		result := tx.Where("customer_id = ? AND status IN ?", buyerID, []models.DealListStatus{models.DealListStatusActive, models.DealListStatusAccepted}).First(&list)
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("[%s] Fail to find deal list, err=%w", op, result.Error)
		}
		if result.Error == nil && list.Status == models.DealListStatusAccepted {
			return ErrConflictActiveDeal
		}
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			list = models.DealList{CustomerID: buyerID, Status: models.DealListStatusActive}
			if result := tx.Create(&list); result.Error != nil {
				return fmt.Errorf("[%s] Fail to create deal list, err=%w", op, result.Error)
			}
		}

		// 把既有的選車分成未取消(占用格數)和已取消(可重新啟用)兩組
		var existing []models.SelectedCar
		if result := tx.Where("deal_list_id = ?", list.ID).Find(&existing); result.Error != nil {
			return fmt.Errorf("[%s] Fail to load selected cars, err=%w", op, result.Error)
		}
		nonCancelled := make(map[uuid.UUID]models.SelectedCar)
		cancelled := make(map[uuid.UUID]models.SelectedCar)
		for _, sc := range existing {
			if sc.Status == models.SelectedCarStatusCancelled {
				cancelled[sc.CarID] = sc
			} else {
				nonCancelled[sc.CarID] = sc
			}
		}

		// 重複車輛直接整包拒絕，重複的判定先於格數計算
		duplicates := lo.Filter(requested, func(id uuid.UUID, _ int) bool {
			_, ok := nonCancelled[id]
			return ok
		})
		if len(duplicates) > 0 {
			return &DuplicateInActiveDealError{CarIDs: duplicates}
		}

		toReactivate, toCreate := lo.FilterReject(requested, func(id uuid.UUID, _ int) bool {
			_, ok := cancelled[id]
			return ok
		})

		availableSlots := MaxCarsPerDealList - len(nonCancelled)
		if len(toReactivate)+len(toCreate) > availableSlots {
			return &SlotLimitError{
				CurrentCount: len(nonCancelled),
				Requested:    len(toReactivate) + len(toCreate),
				MaxCars:      MaxCarsPerDealList,
			}
		}

		// 重新啟用已取消的列，價格快照維持原樣
		for _, id := range toReactivate {
			row := cancelled[id]
			if result := tx.Model(&models.SelectedCar{}).Where("id = ?", row.ID).Update("status", models.SelectedCarStatusPending); result.Error != nil {
				return fmt.Errorf("[%s] Fail to reactivate selected car, err=%w", op, result.Error)
			}
		}

		// 新的車輛建列，快照目前的標價
		for _, id := range toCreate {
			vehicle := vehicles[id]
			selectedCar := models.SelectedCar{
				DealListID:        list.ID,
				CarID:             id,
				Status:            models.SelectedCarStatusPending,
				OriginalPrice:     vehicle.ListPrice,
				CurrentOfferPrice: vehicle.ListPrice,
			}
			if result := tx.Create(&selectedCar); result.Error != nil {
				return fmt.Errorf("[%s] Fail to create selected car, err=%w", op, result.Error)
			}
		}

		// 提交前在同一個交易內重新驗證上限，並發穿過前面檢查時在這裡中止
		var count int64
		if result := tx.Model(&models.SelectedCar{}).Where("deal_list_id = ? AND status <> ?", list.ID, models.SelectedCarStatusCancelled).Count(&count); result.Error != nil {
			return fmt.Errorf("[%s] Fail to recount selected cars, err=%w", op, result.Error)
		}
		if count > MaxCarsPerDealList {
			return &SlotLimitError{
				CurrentCount: len(nonCancelled),
				Requested:    len(toReactivate) + len(toCreate),
				MaxCars:      MaxCarsPerDealList,
			}
		}

		outcome = AdmissionOutcome{
			DealListID:     list.ID,
			Created:        len(toCreate),
			Reactivated:    len(toReactivate),
			RemainingSlots: MaxCarsPerDealList - int(count),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmission(ctx, requested, vehicles)
	return &outcome, nil
}

// notifyAdmission 通知每個被加入車輛的車商，同一車商只通知一次
func (s *Service) notifyAdmission(ctx context.Context, admitted []uuid.UUID, vehicles map[uuid.UUID]Vehicle) {
	dealerIDs := lo.Uniq(lo.Map(admitted, func(id uuid.UUID, _ int) uuid.UUID {
		return vehicles[id].DealerID
	}))
	recipients := s.loadRecipients(ctx, dealerIDs)
	for _, dealerID := range dealerIDs {
		recipient, ok := recipients[dealerID]
		if !ok {
			continue
		}
		cars := lo.Filter(admitted, func(id uuid.UUID, _ int) bool {
			return vehicles[id].DealerID == dealerID
		})
		descriptions := lo.Map(cars, func(id uuid.UUID, _ int) string {
			vehicle := vehicles[id]
			return fmt.Sprintf("%d %s %s", vehicle.Year, vehicle.Make, vehicle.Model)
		})
		s.notify(notify.Event{
			Type:       notify.EventDealRequested,
			Recipients: []notify.Recipient{recipient},
			Payload: map[string]string{
				"cars":  fmt.Sprintf("%d", len(cars)),
				"items": fmt.Sprintf("%v", descriptions),
			},
			CreatedAt: time.Now(),
		})
	}
}

// CancelSelectedCar 取消清單中的一台車
// 買家透過清單擁有權、車商透過車輛擁有權才能取消；重複取消會被拒絕；
// 買家取消時，若這台車已有存活中的成交紀錄會一併標記為買家取消
func (s *Service) CancelSelectedCar(ctx context.Context, selectedCarID, actorID uuid.UUID, actor Actor) error {
	const op = "CancelSelectedCar"

	var (
		counterpartID uuid.UUID
		eventType     notify.EventType
		payload       map[string]string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		selectedCar := models.SelectedCar{ID: selectedCarID}
		if result := tx.Preload("Car").Preload("DealList").First(&selectedCar); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("selected car %s: %w", selectedCarID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find selected car, err=%w", op, result.Error)
		}

		switch actor {
		case ActorBuyer:
			if selectedCar.DealList == nil || selectedCar.DealList.CustomerID != actorID {
				return ErrUnauthorized
			}
		case ActorDealer:
			if selectedCar.Car == nil || selectedCar.Car.DealerID != actorID {
				return ErrUnauthorized
			}
		default:
			return ErrUnauthorized
		}

		if selectedCar.Status == models.SelectedCarStatusCancelled {
			return ErrAlreadyCancelled
		}

		if result := tx.Model(&models.SelectedCar{}).Where("id = ?", selectedCar.ID).Update("status", models.SelectedCarStatusCancelled); result.Error != nil {
			return fmt.Errorf("[%s] Fail to cancel selected car, err=%w", op, result.Error)
		}

		// 買家取消時，連帶標記這台車存活中的成交紀錄
		if actor == ActorBuyer {
			result := tx.Model(&models.AcceptedDeal{}).
				Where("customer_id = ? AND car_id = ? AND dead_deal = false AND cancelled_by_customer = false", selectedCar.DealList.CustomerID, selectedCar.CarID).
				Update("cancelled_by_customer", true)
			if result.Error != nil {
				return fmt.Errorf("[%s] Fail to flag accepted deal, err=%w", op, result.Error)
			}
		}

		payload = carPayload(selectedCar.Car)
		if actor == ActorBuyer {
			counterpartID = selectedCar.Car.DealerID
			eventType = notify.EventDealCancelledByBuyer
		} else {
			counterpartID = selectedCar.DealList.CustomerID
			eventType = notify.EventDealCancelledByDealer
		}
		return nil
	})
	if err != nil {
		return err
	}

	recipients := s.loadRecipients(ctx, []uuid.UUID{counterpartID})
	if recipient, ok := recipients[counterpartID]; ok {
		s.notify(notify.Event{
			Type:       eventType,
			Recipients: []notify.Recipient{recipient},
			Payload:    payload,
			CreatedAt:  time.Now(),
		})
	}
	return nil
}
