package deals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// ListDealsForBuyer 回傳買家的所有清單，已取消的選車預設過濾掉
func (s *Service) ListDealsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.DealList, error) {
	const op = "ListDealsForBuyer"

	var lists []models.DealList
	result := s.db.WithContext(ctx).
		Where("customer_id = ?", buyerID).
		Preload("SelectedCars", "status <> ?", models.SelectedCarStatusCancelled).
		Preload("SelectedCars.Car.Dealer").
		Preload("SelectedCars.Negotiations", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
		}).
		Preload("SelectedCars.Negotiations.Dealer").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&lists)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list deal lists, err=%w", op, result.Error)
	}
	return lists, nil
}

// ListDealsForDealer 回傳包含這個車商車輛的清單
// 只帶出這個車商自己的車和報價：車商之間看不到彼此的出價
func (s *Service) ListDealsForDealer(ctx context.Context, dealerID uuid.UUID) ([]models.DealList, error) {
	const op = "ListDealsForDealer"

	carIDs := s.db.Model(&models.Car{}).Select("id").Where("dealer_id = ?", dealerID)
	listIDs := s.db.Model(&models.SelectedCar{}).Select("deal_list_id").Where("car_id IN (?)", carIDs)

	var lists []models.DealList
	result := s.db.WithContext(ctx).
		Where("id IN (?)", listIDs).
		Preload("Customer").
		Preload("SelectedCars", "status <> ? AND car_id IN (?)", models.SelectedCarStatusCancelled, carIDs).
		Preload("SelectedCars.Car").
		Preload("SelectedCars.Negotiations", "dealer_id = ?", dealerID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&lists)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list deal lists, err=%w", op, result.Error)
	}
	return lists, nil
}

// ListRecentDeals 給後台用的總覽，回傳最近的清單
func (s *Service) ListRecentDeals(ctx context.Context, limit int) ([]models.DealList, error) {
	const op = "ListRecentDeals"
	if limit <= 0 {
		limit = 100
	}

	var lists []models.DealList
	result := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("SelectedCars", "status <> ?", models.SelectedCarStatusCancelled).
		Preload("SelectedCars.Car").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Limit(limit).
		Find(&lists)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list recent deal lists, err=%w", op, result.Error)
	}
	return lists, nil
}

// ListAcceptedDeals 回傳指定使用者相關的成交紀錄，含車輛和試駕資訊
func (s *Service) ListAcceptedDeals(ctx context.Context, userID uuid.UUID, actor Actor) ([]models.AcceptedDeal, error) {
	const op = "ListAcceptedDeals"

	query := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Car.Dealer").
		Preload("TestDrive").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	switch actor {
	case ActorBuyer:
		query = query.Where("customer_id = ?", userID)
	case ActorDealer:
		carIDs := s.db.Model(&models.Car{}).Select("id").Where("dealer_id = ?", userID)
		query = query.Where("car_id IN (?)", carIDs)
	default:
		return nil, ErrUnauthorized
	}

	var dealsFound []models.AcceptedDeal
	if result := query.Find(&dealsFound); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list accepted deals, err=%w", op, result.Error)
	}
	return dealsFound, nil
}

// DealStatusSummary 回報買家目前清單的占用狀況，給前端判斷還能加幾台車
type DealStatusSummary struct {
	HasActiveDeal  bool
	DealListStatus models.DealListStatus
	CurrentCount   int
	RemainingSlots int
	MaxCars        int
	CarIDsInDeal   []uuid.UUID
}

// DealStatus 回傳買家進行中清單的格數狀況
// accepted狀態的清單剩餘格數一律是0，要先解決那筆交易
func (s *Service) DealStatus(ctx context.Context, buyerID uuid.UUID) (*DealStatusSummary, error) {
	const op = "DealStatus"

	var list models.DealList
	result := s.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", buyerID, []models.DealListStatus{models.DealListStatusActive, models.DealListStatusAccepted}).
		Preload("SelectedCars", "status <> ?", models.SelectedCarStatusCancelled).
		First(&list)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return &DealStatusSummary{
			RemainingSlots: MaxCarsPerDealList,
			MaxCars:        MaxCarsPerDealList,
			CarIDsInDeal:   []uuid.UUID{},
		}, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find deal list, err=%w", op, result.Error)
	}

	summary := &DealStatusSummary{
		HasActiveDeal:  true,
		DealListStatus: list.Status,
		CurrentCount:   len(list.SelectedCars),
		MaxCars:        MaxCarsPerDealList,
		CarIDsInDeal: lo.Map(list.SelectedCars, func(sc models.SelectedCar, _ int) uuid.UUID {
			return sc.CarID
		}),
	}
	if list.Status == models.DealListStatusAccepted {
		summary.RemainingSlots = 0
	} else {
		summary.RemainingSlots = MaxCarsPerDealList - summary.CurrentCount
	}
	return summary, nil
}
