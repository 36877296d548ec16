package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "marea/internal/bookings/errors"
	"marea/internal/bookings/repository"
	"marea/internal/bookings/validator"
	"marea/internal/events"
	"marea/internal/payments"
	productrepo "marea/internal/products/repository"
	stockrepo "marea/internal/stock/repository"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
	"marea/pkg/sanitizer"
	"marea/pkg/token"
)

type BookingService interface {
	// Reserve runs the reservation transaction: capacity checks for every
	// (day, product) cell, link consumption when the booking came through a
	// shareable link, the booking insert and the reserved-counter increments,
	// all atomically. Rejections leave no partial state.
	Reserve(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*model.Booking, error)

	ConfirmPayment(ctx context.Context, id string, req *model.PaymentRequest, actor string) error
	SubmitSignature(ctx context.Context, accessToken string, req *model.SignatureRequest) error
	Cancel(ctx context.Context, id string, reason string, actor string) error
	Refund(ctx context.Context, id string, req *model.RefundRequest, actor string) error
	Delete(ctx context.Context, id string, actor string) error

	// Release returns the booking's reserved units to the stock ledger.
	// Idempotent: a second call is a silent no-op.
	Release(ctx context.Context, id string, actor string) error

	SweepExpired(ctx context.Context) (*SweepResult, error)
}

type bookingService struct {
	repo        repository.BookingRepository
	linkRepo    repository.LinkRepository
	stockRepo   stockrepo.StockRepository
	productRepo productrepo.ProductRepository
	validator   *validator.BookingValidator
	gateway     payments.Gateway
	events      events.Publisher
	cfg         *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	linkRepo repository.LinkRepository,
	stockRepo stockrepo.StockRepository,
	productRepo productrepo.ProductRepository,
	validator *validator.BookingValidator,
	gateway payments.Gateway,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		linkRepo:    linkRepo,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		validator:   validator,
		gateway:     gateway,
		events:      publisher,
		cfg:         cfg,
	}
}

func (s *bookingService) Reserve(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.sanitize(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	booking, err := s.buildBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	days := booking.Days()
	productOrder, quantities, names := aggregateItems(booking.Items)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if req.LinkToken != "" {
			link, err := s.consumeLink(sessCtx, req.LinkToken)
			if err != nil {
				return err
			}
			if booking.PartnerID == "" {
				booking.PartnerID = link.PartnerID
			}
		}

		// Cells are checked in item submission order; the first failing cell
		// decides the rejection message.
		for _, productID := range productOrder {
			qty := quantities[productID]
			for _, day := range days {
				cell, err := s.stockRepo.FindCell(sessCtx, day, productID)
				if err != nil {
					return apperrors.Internal("Failed to read stock", err)
				}
				free := cell.FreeUnits()
				if free <= 0 {
					noStock := &bookingserrors.NoStockError{
						ProductName: names[productID],
						Date:        day.Format(model.DayFormat),
					}
					return apperrors.Conflict(noStock.Error()).WithDetails(map[string]any{
						"product_id": productID,
						"date":       noStock.Date,
					})
				}
				if qty > free {
					insufficient := &bookingserrors.InsufficientStockError{
						ProductName: names[productID],
						Date:        day.Format(model.DayFormat),
						Requested:   qty,
						Free:        free,
					}
					return apperrors.Conflict(insufficient.Error()).WithDetails(map[string]any{
						"product_id": productID,
						"date":       insufficient.Date,
						"requested":  qty,
						"free":       free,
					})
				}
			}
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		for _, productID := range productOrder {
			for _, day := range days {
				if err := s.stockRepo.IncrementReserved(sessCtx, day, productID, quantities[productID], req.CreatedBy); err != nil {
					return apperrors.Internal("Failed to reserve stock", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Reservation failed", "channel", req.Channel, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking reserved",
		"id", booking.ID,
		"channel", booking.Channel,
		"start_date", booking.StartDate.Format(model.DayFormat),
		"end_date", booking.EndDate.Format(model.DayFormat),
		"status", booking.Status,
		"total_price", booking.TotalPrice,
	)
	s.publish(ctx, events.EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return s.expireIfLapsed(ctx, booking), nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for i, b := range bookings {
		bookings[i] = s.expireIfLapsed(ctx, b)
	}
	return bookings, count, nil
}

func (s *bookingService) GetByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if partnerID == "" {
		return nil, 0, apperrors.InvalidInput("Partner ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByPartner(ctx, partnerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count partner bookings", "partner_id", partnerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByPartner(ctx, partnerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list partner bookings", "partner_id", partnerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for i, b := range bookings {
		bookings[i] = s.expireIfLapsed(ctx, b)
	}
	return bookings, count, nil
}

func (s *bookingService) GetByAccessToken(ctx context.Context, accessToken string) (*model.Booking, error) {
	if accessToken == "" {
		return nil, apperrors.InvalidInput("Access token cannot be empty")
	}

	booking, err := s.repo.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return s.expireIfLapsed(ctx, booking), nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, id string, req *model.PaymentRequest, actor string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidatePayment(req); err != nil {
		return apperrors.Validation("Invalid payment", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}
	if booking.Paid {
		return apperrors.Conflict("Booking is already paid")
	}
	if booking.Status == model.StatusCancelled || booking.Status == model.StatusExpired {
		return apperrors.Conflict("Cannot confirm payment for a " + booking.Status + " booking")
	}

	if err := s.repo.SetPayment(ctx, id, req.Method, req.Reference, time.Now().UTC()); err != nil {
		s.cfg.Log.Error("Failed to confirm payment", "id", id, "error", err)
		return apperrors.Internal("Failed to confirm payment", err)
	}

	s.cfg.Log.Info("Payment confirmed", "id", id, "method", req.Method, "actor", actor)

	booking.Paid = true
	booking.Status = model.StatusConfirmed
	s.publish(ctx, events.EventBookingConfirmed, booking)
	return nil
}

func (s *bookingService) SubmitSignature(ctx context.Context, accessToken string, req *model.SignatureRequest) error {
	if accessToken == "" {
		return apperrors.InvalidInput("Access token cannot be empty")
	}
	if err := s.validator.ValidateSignature(req); err != nil {
		return apperrors.Validation("Invalid signature", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFound("Booking")
		}
		return apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking.Signed {
		return apperrors.Conflict(bookingserrors.ErrAlreadySigned.Error())
	}
	if booking.Status == model.StatusCancelled || booking.Status == model.StatusExpired {
		return apperrors.Conflict("Cannot sign a " + booking.Status + " booking")
	}

	// Signing terminates the hold: the sweep skips signed bookings. The
	// status itself only changes on payment.
	if err := s.repo.SetSignature(ctx, booking.ID, req.SignatureData, req.TermsAccepted, time.Now().UTC()); err != nil {
		s.cfg.Log.Error("Failed to store signature", "id", booking.ID, "error", err)
		return apperrors.Internal("Failed to store signature", err)
	}

	s.cfg.Log.Info("Contract signed", "id", booking.ID)

	booking.Signed = true
	s.publish(ctx, events.EventBookingSigned, booking)
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, reason string, actor string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		booking, err = s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapLookupError(err, id)
		}
		if booking.Status == model.StatusCancelled {
			return apperrors.Conflict(bookingserrors.ErrAlreadyCancelled.Error())
		}

		if err := s.repo.SetCancelled(sessCtx, id, reason); err != nil {
			return apperrors.Internal("Failed to cancel booking", err)
		}
		return s.releaseInTx(sessCtx, booking, actor)
	})
	if err != nil {
		s.cfg.Log.Error("Cancellation failed", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "reason", reason, "actor", actor)

	booking.Status = model.StatusCancelled
	booking.CancelReason = reason
	s.publish(ctx, events.EventBookingCancelled, booking)
	return nil
}

func (s *bookingService) Refund(ctx context.Context, id string, req *model.RefundRequest, actor string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateRefund(req); err != nil {
		return apperrors.Validation("Invalid refund", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}
	if booking.Refunded {
		return apperrors.Conflict(bookingserrors.ErrAlreadyRefunded.Error())
	}

	// Gateway first: a rejected monetary refund leaves the booking untouched.
	reference := ""
	if s.isGatewayPaid(booking) {
		result, err := s.gateway.Refund(ctx, booking.PaymentReference, req.Amount)
		if err != nil {
			s.cfg.Log.Error("Refund gateway call failed", "id", id, "error", err)
			return err
		}
		if !result.Succeeded {
			return apperrors.Gateway("Refund was rejected by the payment gateway", nil)
		}
		reference = result.Reference
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapLookupError(err, id)
		}
		if err := s.repo.SetRefund(sessCtx, id, req.Amount, req.Method, reference, req.Reason, time.Now().UTC()); err != nil {
			return apperrors.Internal("Failed to record refund", err)
		}
		return s.releaseInTx(sessCtx, current, actor)
	})
	if err != nil {
		// The monetary refund already went through; the booking record is
		// behind until this is retried.
		s.cfg.Log.Error("Refund recorded at gateway but booking update failed",
			"id", id,
			"gateway_reference", reference,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Booking refunded", "id", id, "amount", req.Amount, "method", req.Method, "actor", actor)

	booking.Refunded = true
	booking.RefundAmount = req.Amount
	s.publish(ctx, events.EventBookingRefunded, booking)
	return nil
}

func (s *bookingService) Delete(ctx context.Context, id string, actor string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapLookupError(err, id)
		}
		if err := s.releaseInTx(sessCtx, booking, actor); err != nil {
			return err
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to delete booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Booking deleted", "id", id, "actor", actor)
	return nil
}

func (s *bookingService) Release(ctx context.Context, id string, actor string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapLookupError(err, id)
		}
		return s.releaseInTx(sessCtx, booking, actor)
	})
	if err != nil {
		s.cfg.Log.Error("Release failed", "id", id, "error", err)
		return err
	}

	return nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.BookingRequest) error {
	req.ClientName = sanitizer.SanitizeName(req.ClientName)
	req.ClientEmail = sanitizer.SanitizeEmail(req.ClientEmail)

	phone := sanitizer.SanitizePhone(req.ClientPhone)
	if phone == "" && strings.TrimSpace(req.ClientPhone) != "" {
		return apperrors.Validation("Booking validation failed", map[string]any{
			"client_phone": "not a valid phone number",
		})
	}
	req.ClientPhone = phone
	return nil
}

// buildBooking snapshots product names, prices and commission percentages
// onto the booking and computes its hold expiry.
func (s *bookingService) buildBooking(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	uniqueIDs := make([]string, 0, len(req.Items))
	seen := make(map[string]bool)
	for _, item := range req.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			uniqueIDs = append(uniqueIDs, item.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, uniqueIDs)
	if err != nil {
		if errors.Is(err, productrepo.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid product ID format")
		}
		return nil, apperrors.Internal("Failed to load products", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	rentalDays := len(model.DaysBetween(req.StartDate, req.EndDate))
	items := make([]model.BookingItem, 0, len(req.Items))
	total := decimal.Zero
	commission := decimal.Zero
	mixedBasis := false

	for _, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, apperrors.NotFoundWithID("Product", item.ProductID)
		}
		if !product.Active {
			return nil, apperrors.Conflict("Product " + product.Name + " is not available for rental")
		}

		unitPrice := product.PricePerDay
		if item.RentalType == model.RentalTypeHour {
			unitPrice = product.PricePerHour
			mixedBasis = true
		}

		price := decimal.NewFromFloat(unitPrice).
			Mul(decimal.NewFromInt(int64(item.Quantity))).
			Mul(decimal.NewFromInt(int64(item.Duration)))
		total = total.Add(price)

		pct := decimal.NewFromFloat(product.CommissionPct).Div(decimal.NewFromInt(100))
		units := int64(item.Duration)
		if s.cfg.CommissionBasis == config.CommissionBasisBookingDays {
			units = int64(rentalDays)
		}
		commission = commission.Add(
			decimal.NewFromFloat(unitPrice).
				Mul(decimal.NewFromInt(int64(item.Quantity))).
				Mul(decimal.NewFromInt(units)).
				Mul(pct),
		)

		items = append(items, model.BookingItem{
			ProductID:     item.ProductID,
			ProductName:   product.Name,
			Quantity:      item.Quantity,
			RentalType:    item.RentalType,
			Duration:      item.Duration,
			UnitPrice:     unitPrice,
			CommissionPct: product.CommissionPct,
		})
	}

	if mixedBasis && s.cfg.CommissionBasis == config.CommissionBasisBookingDays {
		// Flagged ambiguity: hourly items under the booking-days basis use
		// the day count, not their own duration. Awaiting product-owner
		// clarification; see COMMISSION_BASIS to switch.
		s.cfg.Log.Warn("Hourly items priced with booking-days commission basis",
			"basis", s.cfg.CommissionBasis,
		)
	}

	accessToken, err := token.New()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate access token", err)
	}

	booking := &model.Booking{
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		ClientEmail:     req.ClientEmail,
		StartDate:       model.Midnight(req.StartDate),
		EndDate:         model.Midnight(req.EndDate),
		Items:           items,
		TotalPrice:      total.InexactFloat64(),
		Channel:         req.Channel,
		CreatedBy:       req.CreatedBy,
		PartnerID:       req.PartnerID,
		LinkToken:       req.LinkToken,
		AccessToken:     accessToken,
		CommissionTotal: commission.InexactFloat64(),
	}

	if req.BypassPayment {
		booking.Status = model.StatusConfirmed
	} else {
		booking.Status = model.StatusPending
		expiry := time.Now().UTC().Add(s.holdDuration(req.StartDate))
		booking.HoldExpiresAt = &expiry
	}

	return booking, nil
}

// holdDuration gives far-future bookings a long hold and imminent ones a
// short one: a start date at least HoldFarThresholdDays calendar days away
// gets HoldFarDuration, anything nearer gets HoldNearDuration.
func (s *bookingService) holdDuration(start time.Time) time.Duration {
	daysUntil := int(model.Midnight(start).Sub(model.Midnight(time.Now())).Hours() / 24)
	if daysUntil >= s.cfg.HoldFarThresholdDays {
		return s.cfg.HoldFarDuration
	}
	return s.cfg.HoldNearDuration
}

func (s *bookingService) consumeLink(sessCtx mongo.SessionContext, linkToken string) (*model.BookingLink, error) {
	link, err := s.linkRepo.FindByToken(sessCtx, linkToken)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrLinkNotFound) {
			return nil, apperrors.Conflict(bookingserrors.ErrLinkNotFound.Error())
		}
		return nil, apperrors.Internal("Failed to read booking link", err)
	}
	if !link.Active {
		return nil, apperrors.Conflict(bookingserrors.ErrLinkInactive.Error())
	}
	if link.SingleUse && link.Used {
		return nil, apperrors.Conflict(bookingserrors.ErrLinkUsed.Error())
	}

	if err := s.linkRepo.RecordReservation(sessCtx, linkToken, link.SingleUse); err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrLinkUsed):
			return nil, apperrors.Conflict(bookingserrors.ErrLinkUsed.Error())
		case errors.Is(err, bookingserrors.ErrLinkInactive):
			return nil, apperrors.Conflict(bookingserrors.ErrLinkInactive.Error())
		case errors.Is(err, bookingserrors.ErrLinkNotFound):
			return nil, apperrors.Conflict(bookingserrors.ErrLinkNotFound.Error())
		}
		return nil, apperrors.Internal("Failed to consume booking link", err)
	}

	return link, nil
}

// releaseInTx returns the booking's units to every touched cell and flips the
// stockReleased guard, all inside the caller's transaction. Short-circuits
// when the guard is already set.
func (s *bookingService) releaseInTx(sessCtx mongo.SessionContext, booking *model.Booking, actor string) error {
	if booking.StockReleased {
		return nil
	}

	days := booking.Days()
	productOrder, quantities, _ := aggregateItems(booking.Items)

	for _, productID := range productOrder {
		for _, day := range days {
			if err := s.stockRepo.IncrementReserved(sessCtx, day, productID, -quantities[productID], actor); err != nil {
				return apperrors.Internal("Failed to return stock", err)
			}
		}
	}

	if err := s.repo.MarkStockReleased(sessCtx, booking.ID, actor, time.Now().UTC()); err != nil {
		return apperrors.Internal("Failed to mark stock released", err)
	}

	booking.StockReleased = true
	return nil
}

// expireIfLapsed runs the sweep's lapse rule opportunistically on a booking
// that was just read. Best-effort: failures are logged and the stored state
// is returned unchanged.
func (s *bookingService) expireIfLapsed(ctx context.Context, booking *model.Booking) *model.Booking {
	if !holdLapsed(booking, time.Now().UTC()) {
		return booking
	}

	if _, err := s.expireOne(ctx, booking.ID); err != nil {
		if !errors.Is(err, errNoLongerCandidate) {
			s.cfg.Log.Warn("Opportunistic expiry failed", "id", booking.ID, "error", err)
		}
		return booking
	}

	booking.Status = model.StatusExpired
	booking.Expired = true
	booking.StockReleased = true
	s.publish(ctx, events.EventBookingExpired, booking)
	return booking
}

func (s *bookingService) isGatewayPaid(booking *model.Booking) bool {
	if !booking.Paid || booking.PaymentReference == "" {
		return false
	}
	return booking.PaymentMethod == "stripe" || booking.PaymentMethod == "card"
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if err := s.events.BookingEvent(ctx, eventType, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "event_type", eventType, "id", booking.ID, "error", err)
	}
}

// aggregateItems sums quantities per product in item submission order.
// Quantities for the same product across line items add up on every shared
// day.
func aggregateItems(items []model.BookingItem) ([]string, map[string]int, map[string]string) {
	order := make([]string, 0, len(items))
	quantities := make(map[string]int, len(items))
	names := make(map[string]string, len(items))

	for _, item := range items {
		if _, ok := quantities[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
		names[item.ProductID] = item.ProductName
	}

	return order, quantities, names
}

func holdLapsed(b *model.Booking, now time.Time) bool {
	return b.Status == model.StatusPending &&
		!b.Expired &&
		!b.Paid &&
		!b.Signed &&
		b.HoldExpiresAt != nil &&
		now.After(*b.HoldExpiresAt)
}
