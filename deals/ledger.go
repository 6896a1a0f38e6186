package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// SubmitOffer 車商對清單中的一台車提出報價
// 同一組(selectedCar, dealer)最多3次報價，且前一筆pending未被買家
// 回應前不能再提；被拒絕後在額度內允許再次報價，報價不可撤回
func (s *Service) SubmitOffer(ctx context.Context, selectedCarID, dealerID uuid.UUID, price float64) (*models.Negotiation, error) {
	const op = "SubmitOffer"
	if price <= 0 {
		return nil, ErrInvalidOfferPrice
	}

	// 同一組(selectedCar, dealer)的提交逐一序列化，
	// pending唯一性另有部分唯一索引在儲存層兜底
	unlock := s.offerLocks.lock(selectedCarID.String() + ":" + dealerID.String())
	defer unlock()

	var (
		negotiation models.Negotiation
		customerID  uuid.UUID
		payload     map[string]string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		selectedCar := models.SelectedCar{ID: selectedCarID}
		if result := tx.Preload("Car").Preload("DealList").First(&selectedCar); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("selected car %s: %w", selectedCarID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find selected car, err=%w", op, result.Error)
		}
		if selectedCar.Car == nil || selectedCar.Car.DealerID != dealerID {
			return ErrUnauthorized
		}
		if selectedCar.Status == models.SelectedCarStatusCancelled {
			return ErrDealCancelled
		}

		// 報價上限：不論狀態，同組合最多3筆
		var total int64
		if result := tx.Model(&models.Negotiation{}).Where("selected_car_id = ? AND dealer_id = ?", selectedCarID, dealerID).Count(&total); result.Error != nil {
			return fmt.Errorf("[%s] Fail to count negotiations, err=%w", op, result.Error)
		}
		if total >= MaxOffersPerDealer {
			return ErrMaxOffersReached
		}

		// pending排他：買家回應前不能再提
		var pending int64
		if result := tx.Model(&models.Negotiation{}).Where("selected_car_id = ? AND dealer_id = ? AND status = ?", selectedCarID, dealerID, models.NegotiationStatusPending).Count(&pending); result.Error != nil {
			return fmt.Errorf("[%s] Fail to count pending negotiations, err=%w", op, result.Error)
		}
		if pending > 0 {
			return ErrPendingOfferExists
		}

		negotiation = models.Negotiation{
			SelectedCarID: selectedCarID,
			DealerID:      dealerID,
			OfferedPrice:  price,
			Status:        models.NegotiationStatusPending,
		}
		if result := tx.Create(&negotiation); result.Error != nil {
			// 並發提交穿過上面的檢查時會撞到部分唯一索引
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return ErrPendingOfferExists
			}
			return fmt.Errorf("[%s] Fail to create negotiation, err=%w", op, result.Error)
		}

		// currentOfferPrice追蹤所有未拒絕報價的最低價
		updates := map[string]any{
			"negotiation_count": gorm.Expr("negotiation_count + 1"),
		}
		if price < selectedCar.CurrentOfferPrice {
			updates["current_offer_price"] = price
		}
		if result := tx.Model(&models.SelectedCar{}).Where("id = ?", selectedCar.ID).Updates(updates); result.Error != nil {
			return fmt.Errorf("[%s] Fail to update selected car, err=%w", op, result.Error)
		}

		if selectedCar.DealList != nil {
			customerID = selectedCar.DealList.CustomerID
		}
		payload = carPayload(selectedCar.Car)
		payload["offeredPrice"] = fmt.Sprintf("%.2f", price)
		return nil
	})
	if err != nil {
		return nil, err
	}

	recipients := s.loadRecipients(ctx, []uuid.UUID{customerID})
	if recipient, ok := recipients[customerID]; ok {
		s.notify(notify.Event{
			Type:       notify.EventOfferSubmitted,
			Recipients: []notify.Recipient{recipient},
			Payload:    payload,
			CreatedAt:  time.Now(),
		})
	}
	return &negotiation, nil
}

// DeclineOutcome 回報一次拒絕報價的結果
type DeclineOutcome struct {
	DealAutoCancelled bool
}

// DeclineOffer 買家拒絕一筆報價
// 拒絕後若該車商的報價已達3筆且全數被拒，這台選車會在同一個交易內
// 自動取消，讓買家不必空等一個已經用完報價額度的車商
func (s *Service) DeclineOffer(ctx context.Context, negotiationID, buyerID uuid.UUID) (*DeclineOutcome, error) {
	const op = "DeclineOffer"

	var (
		outcome  DeclineOutcome
		dealerID uuid.UUID
		payload  map[string]string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		negotiation := models.Negotiation{ID: negotiationID}
		if result := tx.Preload("SelectedCar.Car").Preload("SelectedCar.DealList").First(&negotiation); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("negotiation %s: %w", negotiationID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find negotiation, err=%w", op, result.Error)
		}
		if negotiation.SelectedCar == nil || negotiation.SelectedCar.DealList == nil || negotiation.SelectedCar.DealList.CustomerID != buyerID {
			return ErrUnauthorized
		}
		if negotiation.Status != models.NegotiationStatusPending {
			return ErrOfferAlreadyResolved
		}

		if result := tx.Model(&models.Negotiation{}).Where("id = ?", negotiation.ID).Update("status", models.NegotiationStatusDeclined); result.Error != nil {
			return fmt.Errorf("[%s] Fail to decline negotiation, err=%w", op, result.Error)
		}

		// 自動取消的重查必須跟拒絕寫入在同一個交易內，
		// 避免兩個並發拒絕都看到「還沒全拒」而沒人觸發取消
		var siblings []models.Negotiation
		if result := tx.Where("selected_car_id = ? AND dealer_id = ?", negotiation.SelectedCarID, negotiation.DealerID).Find(&siblings); result.Error != nil {
			return fmt.Errorf("[%s] Fail to load sibling negotiations, err=%w", op, result.Error)
		}
		allDeclined := len(siblings) >= MaxOffersPerDealer
		for _, sibling := range siblings {
			if sibling.ID != negotiation.ID && sibling.Status != models.NegotiationStatusDeclined {
				allDeclined = false
				break
			}
		}
		if allDeclined {
			if result := tx.Model(&models.SelectedCar{}).Where("id = ?", negotiation.SelectedCarID).Update("status", models.SelectedCarStatusCancelled); result.Error != nil {
				return fmt.Errorf("[%s] Fail to auto-cancel selected car, err=%w", op, result.Error)
			}
			outcome.DealAutoCancelled = true
		}

		dealerID = negotiation.DealerID
		payload = carPayload(negotiation.SelectedCar.Car)
		payload["offeredPrice"] = fmt.Sprintf("%.2f", negotiation.OfferedPrice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	recipients := s.loadRecipients(ctx, []uuid.UUID{dealerID})
	if recipient, ok := recipients[dealerID]; ok {
		s.notify(notify.Event{
			Type:       notify.EventOfferDeclined,
			Recipients: []notify.Recipient{recipient},
			Payload:    payload,
			CreatedAt:  time.Now(),
		})
		if outcome.DealAutoCancelled {
			s.notify(notify.Event{
				Type:       notify.EventDealAutoCancelled,
				Recipients: []notify.Recipient{recipient},
				Payload:    payload,
				CreatedAt:  time.Now(),
			})
		}
	}
	return &outcome, nil
}
