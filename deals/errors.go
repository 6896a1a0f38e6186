package deals

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// 業務規則錯誤都是呼叫端可修正的具名錯誤，同步回傳給呼叫端，
// 由表現層對應到4xx回應；只有儲存層異常屬於可重試的基礎設施錯誤，
// 會以包裝過的opaque error向上傳遞
var (
	// ErrNotFound 參照的entity不存在(車輛、報價、選車、成交紀錄)
	ErrNotFound = errors.New("entity not found")
	// ErrUnauthorized 操作者不擁有要變更的資源
	ErrUnauthorized = errors.New("actor does not own this resource")
	// ErrConflictActiveDeal 買家已有accepted狀態的交易，解決前不能有新的動作
	ErrConflictActiveDeal = errors.New("an accepted deal is already in progress")
	// ErrDealCancelled 目標選車已被取消
	ErrDealCancelled = errors.New("this deal has been cancelled")
	// ErrMaxOffersReached 車商對同一台車的報價已達上限
	ErrMaxOffersReached = errors.New("maximum 3 offers per car allowed")
	// ErrPendingOfferExists 車商已有等待買家回應的報價
	ErrPendingOfferExists = errors.New("a pending offer already exists, wait for the buyer to respond")
	// ErrAlreadyCancelled 重複取消會被拒絕而不是默默接受，呼叫端才能顯示準確的訊息
	ErrAlreadyCancelled = errors.New("already cancelled")
	// ErrOfferAlreadyResolved 報價已被接受或拒絕，不可再變更
	ErrOfferAlreadyResolved = errors.New("this offer has already been accepted or declined")
	// ErrTestDriveAlreadyExists 這筆成交紀錄已有未取消的試駕預約
	ErrTestDriveAlreadyExists = errors.New("a test drive is already scheduled for this deal")
	// ErrInvalidOfferPrice 報價金額必須大於零
	ErrInvalidOfferPrice = errors.New("offer price must be greater than zero")
	// ErrNoVehiclesRequested 加入清單的車輛清單不能為空
	ErrNoVehiclesRequested = errors.New("at least one vehicle is required")
	// ErrInvalidContact 詢問單的聯絡資訊缺漏或格式錯誤
	ErrInvalidContact = errors.New("contact information is missing or invalid")
)

// SlotLimitError 選車清單4格上限不足以容納本次請求
// 帶上目前數量和上限，讓表現層能顯示具體可行的訊息
type SlotLimitError struct {
	CurrentCount int
	Requested    int
	MaxCars      int
}

func (e *SlotLimitError) Error() string {
	return fmt.Sprintf("deal list holds %d of %d cars, cannot admit %d more", e.CurrentCount, e.MaxCars, e.Requested)
}

// DuplicateInActiveDealError 請求的車輛已在清單中且未被取消
// 整個請求會被拒絕，不做部分成功
type DuplicateInActiveDealError struct {
	CarIDs []uuid.UUID
}

func (e *DuplicateInActiveDealError) Error() string {
	return fmt.Sprintf("%d of the requested vehicles are already in the active deal list", len(e.CarIDs))
}
