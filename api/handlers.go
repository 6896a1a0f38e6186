package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/deals"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// Submit up to 4 vehicles into the customer's deal list
// (POST /api/customer/deal-request)
func (impl *ServerImpl) PostDealRequest(c *gin.Context) {
	var body struct {
		CustomerID uuid.UUID   `json:"customerId" binding:"required"`
		CarIDs     []uuid.UUID `json:"carIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	outcome, err := impl.service.AdmitVehicles(c.Request.Context(), body.CustomerID, body.CarIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"dealListId":     outcome.DealListID,
		"created":        outcome.Created,
		"reactivated":    outcome.Reactivated,
		"remainingSlots": outcome.RemainingSlots,
	})
}

// List the customer's deal lists with offers
// (GET /api/customer/deal-request)
func (impl *ServerImpl) GetCustomerDeals(c *gin.Context) {
	customerID, ok := queryUUID(c, "customerId")
	if !ok {
		return
	}
	lists, err := impl.service.ListDealsForBuyer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dealLists": lo.Map(lists, func(list models.DealList, _ int) dealListView {
		return newDealListView(list)
	})})
}

// Report slot occupancy of the customer's ongoing deal
// (GET /api/customer/deal-status)
func (impl *ServerImpl) GetDealStatus(c *gin.Context) {
	customerID, ok := queryUUID(c, "customerId")
	if !ok {
		return
	}
	summary, err := impl.service.DealStatus(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hasActiveDeal":  summary.HasActiveDeal,
		"dealListStatus": summary.DealListStatus,
		"currentCount":   summary.CurrentCount,
		"remainingSlots": summary.RemainingSlots,
		"maxCars":        summary.MaxCars,
		"carIdsInDeal":   summary.CarIDsInDeal,
	})
}

// (GET /api/customer/accepted-deals)
func (impl *ServerImpl) GetCustomerAcceptedDeals(c *gin.Context) {
	customerID, ok := queryUUID(c, "customerId")
	if !ok {
		return
	}
	impl.listAcceptedDeals(c, customerID, deals.ActorBuyer)
}

// Withdraw a vehicle from the customer's deal list
// (POST /api/customer/cancel-deal)
func (impl *ServerImpl) PostCustomerCancelDeal(c *gin.Context) {
	var body struct {
		SelectedCarID uuid.UUID `json:"selectedCarId" binding:"required"`
		CustomerID    uuid.UUID `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := impl.service.CancelSelectedCar(c.Request.Context(), body.SelectedCarID, body.CustomerID, deals.ActorBuyer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deal cancelled successfully"})
}

// Decline a dealer's offer
// (POST /api/customer/decline-offer)
func (impl *ServerImpl) PostDeclineOffer(c *gin.Context) {
	var body struct {
		NegotiationID uuid.UUID `json:"negotiationId" binding:"required"`
		CustomerID    uuid.UUID `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	outcome, err := impl.service.DeclineOffer(c.Request.Context(), body.NegotiationID, body.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Offer declined",
		"dealAutoCancelled": outcome.DealAutoCancelled,
	})
}

// Accept a dealer's offer, creating the binding deal
// (POST /api/customer/accept-offer)
func (impl *ServerImpl) PostAcceptOffer(c *gin.Context) {
	var body struct {
		NegotiationID uuid.UUID `json:"negotiationId" binding:"required"`
		CustomerID    uuid.UUID `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	deal, err := impl.service.AcceptOffer(c.Request.Context(), body.NegotiationID, body.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"acceptedDeal": newAcceptedDealView(*deal)})
}

// Request a test drive on an accepted deal
// (POST /api/customer/schedule-test-drive)
func (impl *ServerImpl) PostScheduleTestDrive(c *gin.Context) {
	var body struct {
		AcceptedDealID uuid.UUID `json:"acceptedDealId" binding:"required"`
		CustomerID     uuid.UUID `json:"customerId" binding:"required"`
		ScheduledDate  *string   `json:"scheduledDate"`
		ScheduledTime  *string   `json:"scheduledTime"`
		CustomerNotes  *string   `json:"customerNotes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	testDrive, err := impl.service.RequestTestDrive(c.Request.Context(), deals.TestDriveRequest{
		AcceptedDealID: body.AcceptedDealID,
		CustomerID:     body.CustomerID,
		ScheduledDate:  body.ScheduledDate,
		ScheduledTime:  body.ScheduledTime,
		CustomerNotes:  body.CustomerNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"testDrive": newTestDriveView(*testDrive)})
}

// (POST /api/customer/cancel-accepted-deal)
func (impl *ServerImpl) PostCancelAcceptedDeal(c *gin.Context) {
	var body struct {
		AcceptedDealID uuid.UUID `json:"acceptedDealId" binding:"required"`
		CustomerID     uuid.UUID `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := impl.service.CancelAcceptedDeal(c.Request.Context(), body.AcceptedDealID, body.CustomerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deal cancelled successfully"})
}

// (POST /api/customer/cancel-test-drive)
func (impl *ServerImpl) PostCustomerCancelTestDrive(c *gin.Context) {
	impl.cancelTestDrive(c, "customerId", deals.ActorBuyer)
}

// Submit an offer on a selected car
// (POST /api/dealer/submit-offer)
func (impl *ServerImpl) PostSubmitOffer(c *gin.Context) {
	var body struct {
		SelectedCarID uuid.UUID `json:"selectedCarId" binding:"required"`
		DealerID      uuid.UUID `json:"dealerId" binding:"required"`
		OfferPrice    float64   `json:"offerPrice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	negotiation, err := impl.service.SubmitOffer(c.Request.Context(), body.SelectedCarID, body.DealerID, body.OfferPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"negotiation": newNegotiationView(*negotiation)})
}

// List deal lists containing this dealer's vehicles
// (GET /api/dealer/deal-requests)
func (impl *ServerImpl) GetDealerDeals(c *gin.Context) {
	dealerID, ok := queryUUID(c, "dealerId")
	if !ok {
		return
	}
	lists, err := impl.service.ListDealsForDealer(c.Request.Context(), dealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dealLists": lo.Map(lists, func(list models.DealList, _ int) dealListView {
		return newDealListView(list)
	})})
}

// (GET /api/dealer/accepted-deals)
func (impl *ServerImpl) GetDealerAcceptedDeals(c *gin.Context) {
	dealerID, ok := queryUUID(c, "dealerId")
	if !ok {
		return
	}
	impl.listAcceptedDeals(c, dealerID, deals.ActorDealer)
}

// (GET /api/dealer/availability-requests)
func (impl *ServerImpl) GetAvailabilityRequests(c *gin.Context) {
	dealerID, ok := queryUUID(c, "dealerId")
	if !ok {
		return
	}
	requests, err := impl.service.ListAvailabilityRequests(c.Request.Context(), dealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilityRequests": lo.Map(requests, func(request models.AvailabilityRequest, _ int) availabilityView {
		return newAvailabilityView(request)
	})})
}

// Withdraw a selected car from the dealer side
// (POST /api/dealer/cancel-deal)
func (impl *ServerImpl) PostDealerCancelDeal(c *gin.Context) {
	var body struct {
		SelectedCarID uuid.UUID `json:"selectedCarId" binding:"required"`
		DealerID      uuid.UUID `json:"dealerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := impl.service.CancelSelectedCar(c.Request.Context(), body.SelectedCarID, body.DealerID, deals.ActorDealer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deal cancelled successfully"})
}

// Confirm the accepted deal as a completed sale
// (POST /api/dealer/mark-as-sold)
func (impl *ServerImpl) PostMarkAsSold(c *gin.Context) {
	var body struct {
		AcceptedDealID uuid.UUID `json:"acceptedDealId" binding:"required"`
		DealerID       uuid.UUID `json:"dealerId" binding:"required"`
		FinalPrice     *float64  `json:"finalPrice"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	deal, err := impl.service.MarkSold(c.Request.Context(), body.AcceptedDealID, body.DealerID, body.FinalPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acceptedDeal": newAcceptedDealView(*deal)})
}

// Mark the accepted deal as fallen through, releasing the car
// (POST /api/dealer/dead-deal)
func (impl *ServerImpl) PostDeadDeal(c *gin.Context) {
	var body struct {
		AcceptedDealID uuid.UUID `json:"acceptedDealId" binding:"required"`
		DealerID       uuid.UUID `json:"dealerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := impl.service.MarkDead(c.Request.Context(), body.AcceptedDealID, body.DealerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deal marked as dead"})
}

// Confirm the schedule of a requested test drive
// (POST /api/dealer/update-test-drive)
func (impl *ServerImpl) PostUpdateTestDrive(c *gin.Context) {
	var body struct {
		TestDriveID   uuid.UUID `json:"testDriveId" binding:"required"`
		DealerID      uuid.UUID `json:"dealerId" binding:"required"`
		ScheduledDate string    `json:"scheduledDate" binding:"required"`
		ScheduledTime string    `json:"scheduledTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	testDrive, err := impl.service.UpdateTestDrive(c.Request.Context(), body.TestDriveID, body.DealerID, body.ScheduledDate, body.ScheduledTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"testDrive": newTestDriveView(*testDrive)})
}

// (POST /api/dealer/cancel-test-drive)
func (impl *ServerImpl) PostDealerCancelTestDrive(c *gin.Context) {
	impl.cancelTestDrive(c, "dealerId", deals.ActorDealer)
}

// Ask a dealer whether a vehicle is still available, no login required
// (POST /api/availability-request)
func (impl *ServerImpl) PostAvailabilityRequest(c *gin.Context) {
	var body struct {
		CarID     uuid.UUID  `json:"carId" binding:"required"`
		FirstName string     `json:"firstName"`
		LastName  string     `json:"lastName"`
		Email     string     `json:"email"`
		Phone     string     `json:"phone"`
		ZipCode   string     `json:"zipCode"`
		Comments  *string    `json:"comments"`
		UserID    *uuid.UUID `json:"userId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	request, err := impl.service.RequestAvailability(c.Request.Context(), deals.AvailabilityInput{
		CarID:     body.CarID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Phone:     body.Phone,
		ZipCode:   body.ZipCode,
		Comments:  body.Comments,
		UserID:    body.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"availabilityRequest": newAvailabilityView(*request)})
}

// Recent deal lists across all customers, allow-listed admins only
// (GET /api/admin/deal-requests)
func (impl *ServerImpl) GetAdminDeals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	lists, err := impl.service.ListRecentDeals(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dealLists": lo.Map(lists, func(list models.DealList, _ int) dealListView {
		return newDealListView(list)
	})})
}

func (impl *ServerImpl) listAcceptedDeals(c *gin.Context, userID uuid.UUID, actor deals.Actor) {
	found, err := impl.service.ListAcceptedDeals(c.Request.Context(), userID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acceptedDeals": lo.Map(found, func(deal models.AcceptedDeal, _ int) acceptedDealView {
		return newAcceptedDealView(deal)
	})})
}

func (impl *ServerImpl) cancelTestDrive(c *gin.Context, actorField string, actor deals.Actor) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	testDriveID, err := uuid.Parse(body["testDriveId"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid testDriveId"})
		return
	}
	actorID, err := uuid.Parse(body[actorField])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + actorField})
		return
	}
	if err := impl.service.CancelTestDrive(c.Request.Context(), testDriveID, actorID, actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test drive cancelled"})
}

func queryUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// respondError 把核心層的錯誤對應成HTTP回應
// 業務規則擋下的請求回4xx並附上原因，其他一律視為伺服器錯誤
func respondError(c *gin.Context, err error) {
	var slotErr *deals.SlotLimitError
	var dupErr *deals.DuplicateInActiveDealError
	switch {
	case errors.As(err, &slotErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message":      "Deal list slot limit exceeded",
			"currentCount": slotErr.CurrentCount,
			"requested":    slotErr.Requested,
			"maxCars":      slotErr.MaxCars,
		})
	case errors.As(err, &dupErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Some vehicles are already in your active deal",
			"carIds":  dupErr.CarIDs,
		})
	case errors.Is(err, deals.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, deals.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	case errors.Is(err, deals.ErrConflictActiveDeal):
		c.JSON(http.StatusConflict, gin.H{"message": "An active deal already exists"})
	case errors.Is(err, deals.ErrPendingOfferExists):
		c.JSON(http.StatusConflict, gin.H{"message": "A pending offer already exists for this vehicle"})
	case errors.Is(err, deals.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"message": "Already cancelled"})
	case errors.Is(err, deals.ErrOfferAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"message": "Offer has already been resolved"})
	case errors.Is(err, deals.ErrTestDriveAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "A test drive is already booked for this deal"})
	case errors.Is(err, deals.ErrMaxOffersReached):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Offer limit reached for this vehicle"})
	case errors.Is(err, deals.ErrDealCancelled):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Deal has been cancelled"})
	case errors.Is(err, deals.ErrInvalidOfferPrice):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Offer price must be positive"})
	case errors.Is(err, deals.ErrNoVehiclesRequested):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No vehicles requested"})
	case errors.Is(err, deals.ErrInvalidContact):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid contact information"})
	default:
		slog.Error("Unhandled error on request", slog.String("path", c.FullPath()), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

type carView struct {
	ID        uuid.UUID `json:"id"`
	Year      int       `json:"year"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	VIN       string    `json:"vin"`
	SalePrice float64   `json:"salePrice"`
	Status    string    `json:"status"`
	DealerID  uuid.UUID `json:"dealerId"`
	Dealer    *string   `json:"dealerName,omitempty"`
}

func newCarView(car models.Car) carView {
	view := carView{
		ID:        car.ID,
		Year:      car.Year,
		Make:      car.Make,
		Model:     car.CarModel,
		VIN:       car.VIN,
		SalePrice: car.SalePrice,
		Status:    string(car.Status),
		DealerID:  car.DealerID,
	}
	if car.Dealer != nil {
		view.Dealer = lo.ToPtr(car.Dealer.DisplayName())
	}
	return view
}

type negotiationView struct {
	ID            uuid.UUID `json:"id"`
	SelectedCarID uuid.UUID `json:"selectedCarId"`
	DealerID      uuid.UUID `json:"dealerId"`
	OfferedPrice  float64   `json:"offeredPrice"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newNegotiationView(negotiation models.Negotiation) negotiationView {
	return negotiationView{
		ID:            negotiation.ID,
		SelectedCarID: negotiation.SelectedCarID,
		DealerID:      negotiation.DealerID,
		OfferedPrice:  negotiation.OfferedPrice,
		Status:        string(negotiation.Status),
		CreatedAt:     negotiation.CreatedAt,
	}
}

type selectedCarView struct {
	ID                uuid.UUID         `json:"id"`
	CarID             uuid.UUID         `json:"carId"`
	Status            string            `json:"status"`
	OriginalPrice     float64           `json:"originalPrice"`
	CurrentOfferPrice float64           `json:"currentOfferPrice"`
	NegotiationCount  int               `json:"negotiationCount"`
	Car               *carView          `json:"car,omitempty"`
	Negotiations      []negotiationView `json:"negotiations"`
}

func newSelectedCarView(selected models.SelectedCar) selectedCarView {
	view := selectedCarView{
		ID:                selected.ID,
		CarID:             selected.CarID,
		Status:            string(selected.Status),
		OriginalPrice:     selected.OriginalPrice,
		CurrentOfferPrice: selected.CurrentOfferPrice,
		NegotiationCount:  selected.NegotiationCount,
		Negotiations: lo.Map(selected.Negotiations, func(negotiation models.Negotiation, _ int) negotiationView {
			return newNegotiationView(negotiation)
		}),
	}
	if selected.Car != nil {
		view.Car = lo.ToPtr(newCarView(*selected.Car))
	}
	return view
}

type dealListView struct {
	ID           uuid.UUID         `json:"id"`
	CustomerID   uuid.UUID         `json:"customerId"`
	CustomerName *string           `json:"customerName,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	SelectedCars []selectedCarView `json:"selectedCars"`
}

func newDealListView(list models.DealList) dealListView {
	view := dealListView{
		ID:         list.ID,
		CustomerID: list.CustomerID,
		Status:     string(list.Status),
		CreatedAt:  list.CreatedAt,
		SelectedCars: lo.Map(list.SelectedCars, func(selected models.SelectedCar, _ int) selectedCarView {
			return newSelectedCarView(selected)
		}),
	}
	if list.Customer != nil {
		view.CustomerName = lo.ToPtr(list.Customer.DisplayName())
	}
	return view
}

type testDriveView struct {
	ID             uuid.UUID `json:"id"`
	AcceptedDealID uuid.UUID `json:"acceptedDealId"`
	ScheduledDate  string    `json:"scheduledDate"`
	ScheduledTime  string    `json:"scheduledTime"`
	CustomerNotes  *string   `json:"customerNotes,omitempty"`
	Status         string    `json:"status"`
}

func newTestDriveView(testDrive models.TestDrive) testDriveView {
	return testDriveView{
		ID:             testDrive.ID,
		AcceptedDealID: testDrive.AcceptedDealID,
		ScheduledDate:  testDrive.ScheduledDate,
		ScheduledTime:  testDrive.ScheduledTime,
		CustomerNotes:  testDrive.CustomerNotes,
		Status:         string(testDrive.Status),
	}
}

type acceptedDealView struct {
	ID                  uuid.UUID      `json:"id"`
	CustomerID          uuid.UUID      `json:"customerId"`
	CarID               uuid.UUID      `json:"carId"`
	FinalPrice          float64        `json:"finalPrice"`
	VerificationCode    string         `json:"verificationCode"`
	Sold                bool           `json:"sold"`
	DeadDeal            bool           `json:"deadDeal"`
	CancelledByCustomer bool           `json:"cancelledByCustomer"`
	CreatedAt           time.Time      `json:"createdAt"`
	Car                 *carView       `json:"car,omitempty"`
	TestDrive           *testDriveView `json:"testDrive,omitempty"`
}

func newAcceptedDealView(deal models.AcceptedDeal) acceptedDealView {
	view := acceptedDealView{
		ID:                  deal.ID,
		CustomerID:          deal.CustomerID,
		CarID:               deal.CarID,
		FinalPrice:          deal.FinalPrice,
		VerificationCode:    deal.VerificationCode,
		Sold:                deal.Sold,
		DeadDeal:            deal.DeadDeal,
		CancelledByCustomer: deal.CancelledByCustomer,
		CreatedAt:           deal.CreatedAt,
	}
	if deal.Car != nil {
		view.Car = lo.ToPtr(newCarView(*deal.Car))
	}
	if deal.TestDrive != nil {
		view.TestDrive = lo.ToPtr(newTestDriveView(*deal.TestDrive))
	}
	return view
}

type availabilityView struct {
	ID        uuid.UUID `json:"id"`
	CarID     uuid.UUID `json:"carId"`
	DealerID  uuid.UUID `json:"dealerId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	ZipCode   string    `json:"zipCode"`
	Comments  *string   `json:"comments,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func newAvailabilityView(request models.AvailabilityRequest) availabilityView {
	return availabilityView{
		ID:        request.ID,
		CarID:     request.CarID,
		DealerID:  request.DealerID,
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     request.Email,
		Phone:     request.Phone,
		ZipCode:   request.ZipCode,
		Comments:  request.Comments,
		Status:    string(request.Status),
		CreatedAt: request.CreatedAt,
	}
}
