package deals

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// AcceptOffer 買家接受一筆報價，產生具約束力的成交紀錄
// 同一個交易內：報價轉accepted、選車轉won、車輛轉待成交、
// 清單轉accepted(鎖住新的加入)，並建立帶核對碼的AcceptedDeal；
// (customer, car)存活成交的唯一性由交易內檢查加部分唯一索引雙重把關
func (s *Service) AcceptOffer(ctx context.Context, negotiationID, buyerID uuid.UUID) (*models.AcceptedDeal, error) {
	const op = "AcceptOffer"

	var deal models.AcceptedDeal
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
		if negotiation.SelectedCar.Status == models.SelectedCarStatusCancelled {
			return ErrDealCancelled
		}

		// 重複接受的防線：同組合已有存活成交就拒絕
		var live int64
		if result := tx.Model(&models.AcceptedDeal{}).
			Where("customer_id = ? AND car_id = ? AND dead_deal = false AND cancelled_by_customer = false", buyerID, negotiation.SelectedCar.CarID).
			Count(&live); result.Error != nil {
			return fmt.Errorf("[%s] Fail to count live accepted deals, err=%w", op, result.Error)
		}
		if live > 0 {
			return ErrConflictActiveDeal
		}

		code, err := generateVerificationCode()
		if err != nil {
			return fmt.Errorf("[%s] Fail to generate verification code, err=%w", op, err)
		}
		deal = models.AcceptedDeal{
			CustomerID:       buyerID,
			CarID:            negotiation.SelectedCar.CarID,
			FinalPrice:       negotiation.OfferedPrice,
			VerificationCode: code,
		}
		if result := tx.Create(&deal); result.Error != nil {
			// 並發接受穿過上面的檢查時會撞到部分唯一索引
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return ErrConflictActiveDeal
			}
			return fmt.Errorf("[%s] Fail to create accepted deal, err=%w", op, result.Error)
		}

		if result := tx.Model(&models.Negotiation{}).Where("id = ?", negotiation.ID).Update("status", models.NegotiationStatusAccepted); result.Error != nil {
			return fmt.Errorf("[%s] Fail to accept negotiation, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.SelectedCar{}).Where("id = ?", negotiation.SelectedCarID).Update("status", models.SelectedCarStatusWon); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark selected car won, err=%w", op, result.Error)
		}
		// 車輛轉待成交，時間戳留給車商端的後續流程
		if result := tx.Model(&models.Car{}).Where("id = ?", negotiation.SelectedCar.CarID).Updates(map[string]any{
			"status":            models.CarStatusSold,
			"status_changed_at": time.Now(),
		}); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark car sold, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.DealList{}).Where("id = ?", negotiation.SelectedCar.DealListID).Update("status", models.DealListStatusAccepted); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark deal list accepted, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// TestDriveRequest 試駕預約的輸入
// 日期時間可以先不填，用TBD佔位等雙方協調
type TestDriveRequest struct {
	AcceptedDealID uuid.UUID
	CustomerID     uuid.UUID
	ScheduledDate  *string
	ScheduledTime  *string
	CustomerNotes  *string
}

// RequestTestDrive 在成交紀錄上建立試駕預約
// 同一筆成交同時間只能有一個未取消的試駕；日期時間都提供時
// 狀態是scheduled，否則是requested(表示還在協調)
func (s *Service) RequestTestDrive(ctx context.Context, req TestDriveRequest) (*models.TestDrive, error) {
	const op = "RequestTestDrive"

	var testDrive models.TestDrive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deal := models.AcceptedDeal{ID: req.AcceptedDealID}
		if result := tx.Preload("Car").First(&deal); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("accepted deal %s: %w", req.AcceptedDealID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find accepted deal, err=%w", op, result.Error)
		}
		if deal.CustomerID != req.CustomerID {
			return ErrUnauthorized
		}
		if !deal.Live() {
			return ErrDealCancelled
		}

		var active int64
		if result := tx.Model(&models.TestDrive{}).
			Where("accepted_deal_id = ? AND status <> ?", deal.ID, models.TestDriveStatusCancelled).
			Count(&active); result.Error != nil {
			return fmt.Errorf("[%s] Fail to count test drives, err=%w", op, result.Error)
		}
		if active > 0 {
			return ErrTestDriveAlreadyExists
		}

		scheduledDate, scheduledTime := models.ScheduleTBD, models.ScheduleTBD
		if req.ScheduledDate != nil && *req.ScheduledDate != "" {
			scheduledDate = *req.ScheduledDate
		}
		if req.ScheduledTime != nil && *req.ScheduledTime != "" {
			scheduledTime = *req.ScheduledTime
		}
		status := models.TestDriveStatusRequested
		if scheduledDate != models.ScheduleTBD && scheduledTime != models.ScheduleTBD {
			status = models.TestDriveStatusScheduled
		}

		var notes *string
		if req.CustomerNotes != nil && *req.CustomerNotes != "" {
			sanitized := s.sanitizer.Sanitize(*req.CustomerNotes)
			notes = &sanitized
		}

		testDrive = models.TestDrive{
			AcceptedDealID: deal.ID,
			CustomerID:     deal.CustomerID,
			DealerID:       deal.Car.DealerID,
			ScheduledDate:  scheduledDate,
			ScheduledTime:  scheduledTime,
			CustomerNotes:  notes,
			Status:         status,
		}
		if result := tx.Create(&testDrive); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return ErrTestDriveAlreadyExists
			}
			return fmt.Errorf("[%s] Fail to create test drive, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &testDrive, nil
}

// MarkSold 車商確認成交，可選擇性修正最終成交價
func (s *Service) MarkSold(ctx context.Context, acceptedDealID, dealerID uuid.UUID, finalPrice *float64) (*models.AcceptedDeal, error) {
	const op = "MarkSold"

	var deal models.AcceptedDeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deal = models.AcceptedDeal{ID: acceptedDealID}
		if result := tx.Preload("Car").First(&deal); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("accepted deal %s: %w", acceptedDealID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find accepted deal, err=%w", op, result.Error)
		}
		if deal.Car == nil || deal.Car.DealerID != dealerID {
			return ErrUnauthorized
		}
		if !deal.Live() {
			return ErrDealCancelled
		}

		updates := map[string]any{"sold": true}
		if finalPrice != nil {
			updates["final_price"] = *finalPrice
			deal.FinalPrice = *finalPrice
		}
		if result := tx.Model(&models.AcceptedDeal{}).Where("id = ?", deal.ID).Updates(updates); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark deal sold, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.Car{}).Where("id = ?", deal.CarID).Update("status", models.CarStatusSold); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark car sold, err=%w", op, result.Error)
		}
		deal.Sold = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// MarkDead 車商判定交易失敗
// 成交紀錄作廢、取消附掛的試駕、車輛釋放回庫存
func (s *Service) MarkDead(ctx context.Context, acceptedDealID, dealerID uuid.UUID) error {
	const op = "MarkDead"

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deal := models.AcceptedDeal{ID: acceptedDealID}
		if result := tx.Preload("Car").First(&deal); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("accepted deal %s: %w", acceptedDealID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find accepted deal, err=%w", op, result.Error)
		}
		if deal.Car == nil || deal.Car.DealerID != dealerID {
			return ErrUnauthorized
		}
		if deal.DeadDeal {
			return ErrAlreadyCancelled
		}

		if result := tx.Model(&models.TestDrive{}).
			Where("accepted_deal_id = ? AND status <> ?", deal.ID, models.TestDriveStatusCancelled).
			Update("status", models.TestDriveStatusCancelled); result.Error != nil {
			return fmt.Errorf("[%s] Fail to cancel test drive, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.AcceptedDeal{}).Where("id = ?", deal.ID).Updates(map[string]any{
			"dead_deal": true,
			"sold":      false,
		}); result.Error != nil {
			return fmt.Errorf("[%s] Fail to mark deal dead, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.Car{}).Where("id = ?", deal.CarID).Updates(map[string]any{
			"status":            models.CarStatusActive,
			"status_changed_at": time.Now(),
		}); result.Error != nil {
			return fmt.Errorf("[%s] Fail to release car, err=%w", op, result.Error)
		}
		return nil
	})
}

// CancelAcceptedDeal 買家在成交後取消
// 紀錄標記為買家取消、試駕一併取消、車輛釋放回庫存，並通知車商
func (s *Service) CancelAcceptedDeal(ctx context.Context, acceptedDealID, buyerID uuid.UUID) error {
	const op = "CancelAcceptedDeal"

	var (
		dealerID uuid.UUID
		payload  map[string]string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deal := models.AcceptedDeal{ID: acceptedDealID}
		if result := tx.Preload("Car").First(&deal); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("accepted deal %s: %w", acceptedDealID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find accepted deal, err=%w", op, result.Error)
		}
		if deal.CustomerID != buyerID {
			return ErrUnauthorized
		}
		if !deal.Live() {
			return ErrAlreadyCancelled
		}

		if result := tx.Model(&models.TestDrive{}).
			Where("accepted_deal_id = ? AND status <> ?", deal.ID, models.TestDriveStatusCancelled).
			Update("status", models.TestDriveStatusCancelled); result.Error != nil {
			return fmt.Errorf("[%s] Fail to cancel test drive, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.AcceptedDeal{}).Where("id = ?", deal.ID).Update("cancelled_by_customer", true); result.Error != nil {
			return fmt.Errorf("[%s] Fail to cancel accepted deal, err=%w", op, result.Error)
		}
		if result := tx.Model(&models.Car{}).Where("id = ?", deal.CarID).Updates(map[string]any{
			"status":            models.CarStatusActive,
			"status_changed_at": time.Now(),
		}); result.Error != nil {
			return fmt.Errorf("[%s] Fail to release car, err=%w", op, result.Error)
		}

		dealerID = deal.Car.DealerID
		payload = carPayload(deal.Car)
		return nil
	})
	if err != nil {
		return err
	}

	recipients := s.loadRecipients(ctx, []uuid.UUID{dealerID})
	if recipient, ok := recipients[dealerID]; ok {
		s.notify(notify.Event{
			Type:       notify.EventDealCancelledByBuyer,
			Recipients: []notify.Recipient{recipient},
			Payload:    payload,
			CreatedAt:  time.Now(),
		})
	}
	return nil
}

// UpdateTestDrive 車商確認或改期試駕
func (s *Service) UpdateTestDrive(ctx context.Context, testDriveID, dealerID uuid.UUID, scheduledDate, scheduledTime string) (*models.TestDrive, error) {
	const op = "UpdateTestDrive"

	var testDrive models.TestDrive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		testDrive = models.TestDrive{ID: testDriveID}
		if result := tx.First(&testDrive); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("test drive %s: %w", testDriveID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find test drive, err=%w", op, result.Error)
		}
		if testDrive.DealerID != dealerID {
			return ErrUnauthorized
		}
		if testDrive.Status == models.TestDriveStatusCancelled {
			return ErrAlreadyCancelled
		}

		if result := tx.Model(&models.TestDrive{}).Where("id = ?", testDrive.ID).Updates(map[string]any{
			"scheduled_date": scheduledDate,
			"scheduled_time": scheduledTime,
			"status":         models.TestDriveStatusScheduled,
		}); result.Error != nil {
			return fmt.Errorf("[%s] Fail to update test drive, err=%w", op, result.Error)
		}
		testDrive.ScheduledDate = scheduledDate
		testDrive.ScheduledTime = scheduledTime
		testDrive.Status = models.TestDriveStatusScheduled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &testDrive, nil
}

// CancelTestDrive 任一方取消試駕，成交紀錄本身不受影響
func (s *Service) CancelTestDrive(ctx context.Context, testDriveID, actorID uuid.UUID, actor Actor) error {
	const op = "CancelTestDrive"

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		testDrive := models.TestDrive{ID: testDriveID}
		if result := tx.First(&testDrive); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("test drive %s: %w", testDriveID, ErrNotFound)
			}
			return fmt.Errorf("[%s] Fail to find test drive, err=%w", op, result.Error)
		}
		switch actor {
		case ActorBuyer:
			if testDrive.CustomerID != actorID {
				return ErrUnauthorized
			}
		case ActorDealer:
			if testDrive.DealerID != actorID {
				return ErrUnauthorized
			}
		default:
			return ErrUnauthorized
		}
		if testDrive.Status == models.TestDriveStatusCancelled {
			return ErrAlreadyCancelled
		}

		if result := tx.Model(&models.TestDrive{}).Where("id = ?", testDrive.ID).Update("status", models.TestDriveStatusCancelled); result.Error != nil {
			return fmt.Errorf("[%s] Fail to cancel test drive, err=%w", op, result.Error)
		}
		return nil
	})
}

// generateVerificationCode 產生買家到店核對用的6位數字碼
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
