package deals

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AvailabilityInput 現車詢問的輸入，不需要登入所以聯絡資訊必填
type AvailabilityInput struct {
	CarID     uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	ZipCode   string
	Comments  *string
	UserID    *uuid.UUID
}

// RequestAvailability 買家對一台車送出現車詢問並通知車商
func (s *Service) RequestAvailability(ctx context.Context, input AvailabilityInput) (*models.AvailabilityRequest, error) {
	const op = "RequestAvailability"

	if input.FirstName == "" || input.LastName == "" || input.Phone == "" || input.ZipCode == "" {
		return nil, ErrInvalidContact
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, ErrInvalidContact
	}

	vehicle, err := s.catalog.GetVehicle(ctx, input.CarID)
	if err != nil {
		return nil, err
	}

	var comments *string
	if input.Comments != nil && *input.Comments != "" {
		sanitized := s.sanitizer.Sanitize(*input.Comments)
		comments = &sanitized
	}

	request := models.AvailabilityRequest{
		CarID:     vehicle.ID,
		DealerID:  vehicle.DealerID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		ZipCode:   input.ZipCode,
		Comments:  comments,
		UserID:    input.UserID,
		Status:    models.AvailabilityRequestStatusPending,
	}
	if result := s.db.WithContext(ctx).Create(&request); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to create availability request, err=%w", op, result.Error)
	}

	recipients := s.loadRecipients(ctx, []uuid.UUID{vehicle.DealerID})
	if recipient, ok := recipients[vehicle.DealerID]; ok {
		s.notify(notify.Event{
			Type:       notify.EventAvailabilityRequested,
			Recipients: []notify.Recipient{recipient},
			Payload: map[string]string{
				"year":    fmt.Sprintf("%d", vehicle.Year),
				"make":    vehicle.Make,
				"model":   vehicle.Model,
				"vin":     vehicle.VIN,
				"contact": fmt.Sprintf("%s %s <%s>", input.FirstName, input.LastName, input.Email),
			},
			CreatedAt: time.Now(),
		})
	}
	return &request, nil
}

// ListAvailabilityRequests 回傳車商收到的詢問單，新的在前
func (s *Service) ListAvailabilityRequests(ctx context.Context, dealerID uuid.UUID) ([]models.AvailabilityRequest, error) {
	const op = "ListAvailabilityRequests"

	var requests []models.AvailabilityRequest
	result := s.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Preload("Car").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&requests)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list availability requests, err=%w", op, result.Error)
	}
	return requests, nil
}
