package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	bookingserrors "marea/internal/bookings/errors"
	"marea/internal/bookings/validator"
	"marea/internal/events"
	"marea/internal/payments"
	"marea/pkg/config"
	mongotx "marea/pkg/db/mongo"
	apperrors "marea/pkg/errors"
	"marea/pkg/logger"
	"marea/pkg/model"
)

const (
	productF5   = "665f000000000000000000a1"
	productF5SR = "665f000000000000000000a2"
)

type fakeBookingRepo struct {
	seq  int
	byID map[string]*model.Booking

	markExpiredFn           func(id string) error
	findExpiredCandidatesFn func(now time.Time) ([]*model.Booking, error)
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{byID: map[string]*model.Booking{}}
}

func (m *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	m.seq++
	booking.ID = fmt.Sprintf("%024d", m.seq)
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	m.byID[booking.ID] = &stored
	return nil
}

func (m *fakeBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *fakeBookingRepo) FindByAccessToken(_ context.Context, token string) (*model.Booking, error) {
	for _, b := range m.byID {
		if b.AccessToken == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *fakeBookingRepo) FindAll(_ context.Context, _ int, _ int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.byID {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *fakeBookingRepo) FindByPartner(_ context.Context, partnerID string, _ int, _ int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.byID {
		if b.PartnerID == partnerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *fakeBookingRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *fakeBookingRepo) CountByPartner(_ context.Context, partnerID string) (int64, error) {
	var n int64
	for _, b := range m.byID {
		if b.PartnerID == partnerID {
			n++
		}
	}
	return n, nil
}

func (m *fakeBookingRepo) FindExpiredCandidates(_ context.Context, now time.Time) ([]*model.Booking, error) {
	if m.findExpiredCandidatesFn != nil {
		return m.findExpiredCandidatesFn(now)
	}
	var out []*model.Booking
	for _, b := range m.byID {
		if b.Status == model.StatusPending && !b.Expired && !b.Paid && !b.Signed &&
			b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *fakeBookingRepo) MarkExpired(_ context.Context, id string) error {
	if m.markExpiredFn != nil {
		return m.markExpiredFn(id)
	}
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = model.StatusExpired
	b.Expired = true
	return nil
}

func (m *fakeBookingRepo) MarkStockReleased(_ context.Context, id string, actor string, at time.Time) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.StockReleased = true
	b.StockReleasedBy = actor
	b.StockReleasedAt = &at
	return nil
}

func (m *fakeBookingRepo) SetPayment(_ context.Context, id string, method, reference string, at time.Time) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Paid = true
	b.PaymentMethod = method
	b.PaymentReference = reference
	b.PaidAt = &at
	b.Status = model.StatusConfirmed
	return nil
}

func (m *fakeBookingRepo) SetSignature(_ context.Context, id string, signatureData string, termsAccepted bool, at time.Time) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Signed = true
	b.SignatureData = signatureData
	b.TermsAccepted = termsAccepted
	b.SignedAt = &at
	return nil
}

func (m *fakeBookingRepo) SetCancelled(_ context.Context, id string, reason string) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = model.StatusCancelled
	b.CancelReason = reason
	return nil
}

func (m *fakeBookingRepo) SetRefund(_ context.Context, id string, amount float64, method, reference, reason string, at time.Time) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Refunded = true
	b.RefundAmount = amount
	b.RefundMethod = method
	b.RefundReference = reference
	b.RefundReason = reason
	b.RefundedAt = &at
	return nil
}

func (m *fakeBookingRepo) IncrementCommissionPaid(_ context.Context, id string, amount float64) error {
	b, ok := m.byID[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.CommissionPaid += amount
	return nil
}

func (m *fakeBookingRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *fakeBookingRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type fakeStockRepo struct {
	cells map[string]*model.StockCell

	incrementReservedFn func(day time.Time, productID string, delta int) error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{cells: map[string]*model.StockCell{}}
}

func (m *fakeStockRepo) seed(day time.Time, productID string, available int) {
	id := model.StockCellID(day, productID)
	m.cells[id] = &model.StockCell{
		ID:        id,
		Date:      model.Midnight(day).Format(model.DayFormat),
		ProductID: productID,
		Available: available,
	}
}

func (m *fakeStockRepo) seedRange(start, end time.Time, productID string, available int) {
	for _, day := range model.DaysBetween(start, end) {
		m.seed(day, productID, available)
	}
}

func (m *fakeStockRepo) reserved(day time.Time, productID string) int {
	cell, ok := m.cells[model.StockCellID(day, productID)]
	if !ok {
		return 0
	}
	return cell.Reserved
}

func (m *fakeStockRepo) FindCell(_ context.Context, day time.Time, productID string) (*model.StockCell, error) {
	id := model.StockCellID(day, productID)
	if cell, ok := m.cells[id]; ok {
		cp := *cell
		return &cp, nil
	}
	return &model.StockCell{
		ID:        id,
		Date:      model.Midnight(day).Format(model.DayFormat),
		ProductID: productID,
	}, nil
}

func (m *fakeStockRepo) IncrementReserved(_ context.Context, day time.Time, productID string, delta int, actor string) error {
	if m.incrementReservedFn != nil {
		if err := m.incrementReservedFn(day, productID, delta); err != nil {
			return err
		}
	}
	id := model.StockCellID(day, productID)
	cell, ok := m.cells[id]
	if !ok {
		cell = &model.StockCell{
			ID:        id,
			Date:      model.Midnight(day).Format(model.DayFormat),
			ProductID: productID,
		}
		m.cells[id] = cell
	}
	cell.Reserved += delta
	cell.UpdatedBy = actor
	return nil
}

func (m *fakeStockRepo) SetAvailable(_ context.Context, day time.Time, productID string, value int, actor string) error {
	id := model.StockCellID(day, productID)
	cell, ok := m.cells[id]
	if !ok {
		m.seed(day, productID, value)
		return nil
	}
	cell.Available = value
	cell.UpdatedBy = actor
	return nil
}

func (m *fakeStockRepo) FindRange(_ context.Context, _, _ time.Time, _ []string) ([]*model.StockCell, error) {
	return nil, nil
}

func (m *fakeStockRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type fakeLinkRepo struct {
	byToken map[string]*model.BookingLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{byToken: map[string]*model.BookingLink{}}
}

func (m *fakeLinkRepo) Create(_ context.Context, link *model.BookingLink) error {
	link.ID = strings.Repeat("c", 24)
	link.CreatedAt = time.Now().UTC()
	stored := *link
	m.byToken[link.Token] = &stored
	return nil
}

func (m *fakeLinkRepo) FindByToken(_ context.Context, token string) (*model.BookingLink, error) {
	link, ok := m.byToken[token]
	if !ok {
		return nil, bookingserrors.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (m *fakeLinkRepo) FindAll(_ context.Context, _ int, _ int64) ([]*model.BookingLink, error) {
	var out []*model.BookingLink
	for _, link := range m.byToken {
		cp := *link
		out = append(out, &cp)
	}
	return out, nil
}

func (m *fakeLinkRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.byToken)), nil
}

func (m *fakeLinkRepo) SetActive(_ context.Context, id string, active bool) error {
	for _, link := range m.byToken {
		if link.ID == id {
			link.Active = active
			return nil
		}
	}
	return bookingserrors.ErrLinkNotFound
}

func (m *fakeLinkRepo) IncrementVisits(_ context.Context, token string) error {
	link, ok := m.byToken[token]
	if !ok {
		return bookingserrors.ErrLinkNotFound
	}
	link.Visits++
	return nil
}

func (m *fakeLinkRepo) RecordReservation(_ context.Context, token string, singleUse bool) error {
	link, ok := m.byToken[token]
	if !ok {
		return bookingserrors.ErrLinkNotFound
	}
	if !link.Active {
		return bookingserrors.ErrLinkInactive
	}
	if singleUse && link.Used {
		return bookingserrors.ErrLinkUsed
	}
	link.ReservationsCreated++
	if singleUse {
		link.Used = true
	}
	return nil
}

type fakeProductRepo struct {
	byID map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: map[string]*model.Product{}}
}

func (m *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	m.byID[product.ID] = product
	return nil
}

func (m *fakeProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return p, nil
}

func (m *fakeProductRepo) FindByIDs(_ context.Context, ids []string) ([]*model.Product, error) {
	var out []*model.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *fakeProductRepo) FindAll(_ context.Context, _ int, _ int64) ([]*model.Product, error) {
	return nil, nil
}

func (m *fakeProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *fakeProductRepo) Update(_ context.Context, _ string, _ *model.Product) error {
	return nil
}

func (m *fakeProductRepo) Delete(_ context.Context, _ string) error {
	return nil
}

type fakeGateway struct {
	calls    int
	refundFn func(ctx context.Context, reference string, amount float64) (*payments.RefundResult, error)
}

func (m *fakeGateway) Refund(ctx context.Context, reference string, amount float64) (*payments.RefundResult, error) {
	m.calls++
	if m.refundFn != nil {
		return m.refundFn(ctx, reference, amount)
	}
	return &payments.RefundResult{Succeeded: true, Reference: "re_test"}, nil
}

type testEnv struct {
	repo     *fakeBookingRepo
	links    *fakeLinkRepo
	stock    *fakeStockRepo
	products *fakeProductRepo
	gateway  *fakeGateway
	svc      BookingService
}

func testConfig() *config.Config {
	return &config.Config{
		HoldFarThresholdDays: 7,
		HoldFarDuration:      24 * time.Hour,
		HoldNearDuration:     time.Hour,
		CommissionBasis:      config.CommissionBasisBookingDays,
		Log:                  logger.New(logger.Config{Level: "error", Format: logger.JSON}),
	}
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	env := &testEnv{
		repo:     newFakeBookingRepo(),
		links:    newFakeLinkRepo(),
		stock:    newFakeStockRepo(),
		products: newFakeProductRepo(),
		gateway:  &fakeGateway{},
	}
	env.products.byID[productF5] = &model.Product{
		ID: productF5, Name: "SeaBob F5", PricePerDay: 100, PricePerHour: 30, CommissionPct: 10, Active: true,
	}
	env.products.byID[productF5SR] = &model.Product{
		ID: productF5SR, Name: "SeaBob F5 SR", PricePerDay: 150, PricePerHour: 45, CommissionPct: 20, Active: true,
	}
	env.svc = NewBookingService(
		env.repo,
		env.links,
		env.stock,
		env.products,
		validator.NewBookingValidator(cfg.Log),
		env.gateway,
		events.NewNoopPublisher(),
		cfg,
	)
	return env
}

// future returns midnight UTC n calendar days from now.
func future(n int) time.Time {
	return model.Midnight(time.Now()).AddDate(0, 0, n)
}

func validRequest(start, end time.Time) *model.BookingRequest {
	return &model.BookingRequest{
		ClientName:  "Laura Sanz",
		ClientPhone: "+34600111222",
		StartDate:   start,
		EndDate:     end,
		Items: []model.BookingItemRequest{
			{ProductID: productF5, Quantity: 2, RentalType: model.RentalTypeDay, Duration: 3},
		},
		Channel:   model.ChannelStaff,
		CreatedBy: "ana",
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected an AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func TestReserve(t *testing.T) {
	t.Run("reserves every day in the range", func(t *testing.T) {
		env := newTestEnv()
		start, end := future(30), future(32)
		env.stock.seedRange(start, end, productF5, 4)

		booking, err := env.svc.Reserve(context.Background(), validRequest(start, end))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if booking.Status != model.StatusPending {
			t.Errorf("expected status %s, got %s", model.StatusPending, booking.Status)
		}
		if booking.AccessToken == "" {
			t.Error("expected an access token")
		}
		if booking.TotalPrice != 600 {
			t.Errorf("expected total price 600, got %v", booking.TotalPrice)
		}
		if booking.CommissionTotal != 60 {
			t.Errorf("expected commission total 60, got %v", booking.CommissionTotal)
		}
		for _, day := range model.DaysBetween(start, end) {
			if got := env.stock.reserved(day, productF5); got != 2 {
				t.Errorf("expected 2 reserved on %s, got %d", day.Format(model.DayFormat), got)
			}
		}
	})

	t.Run("far-future bookings get the long hold", func(t *testing.T) {
		env := newTestEnv()
		start := future(30)
		env.stock.seedRange(start, start, productF5, 4)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		booking, err := env.svc.Reserve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if booking.HoldExpiresAt == nil {
			t.Fatal("expected a hold expiry")
		}
		remaining := time.Until(*booking.HoldExpiresAt)
		if remaining < 23*time.Hour || remaining > 24*time.Hour {
			t.Errorf("expected a ~24h hold, got %s", remaining)
		}
	})

	t.Run("threshold day still counts as far", func(t *testing.T) {
		env := newTestEnv()
		start := future(7)
		env.stock.seedRange(start, start, productF5, 4)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		booking, err := env.svc.Reserve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		remaining := time.Until(*booking.HoldExpiresAt)
		if remaining < 23*time.Hour {
			t.Errorf("expected the long hold at the threshold, got %s", remaining)
		}
	})

	t.Run("imminent bookings get the short hold", func(t *testing.T) {
		env := newTestEnv()
		start := future(2)
		env.stock.seedRange(start, start, productF5, 4)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		booking, err := env.svc.Reserve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		remaining := time.Until(*booking.HoldExpiresAt)
		if remaining > time.Hour {
			t.Errorf("expected a <=1h hold, got %s", remaining)
		}
	})

	t.Run("bypass payment confirms immediately without a hold", func(t *testing.T) {
		env := newTestEnv()
		start := future(10)
		env.stock.seedRange(start, start, productF5, 4)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		req.BypassPayment = true
		booking, err := env.svc.Reserve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if booking.Status != model.StatusConfirmed {
			t.Errorf("expected status %s, got %s", model.StatusConfirmed, booking.Status)
		}
		if booking.HoldExpiresAt != nil {
			t.Error("expected no hold expiry for a bypassed booking")
		}
	})

	t.Run("rejects when a day is sold out", func(t *testing.T) {
		env := newTestEnv()
		start, end := future(30), future(32)
		env.stock.seedRange(start, end, productF5, 4)
		soldOut := future(31)
		env.stock.seed(soldOut, productF5, 0)

		_, err := env.svc.Reserve(context.Background(), validRequest(start, end))
		assertCode(t, err, apperrors.CodeConflict)

		want := "no stock available for SeaBob F5 on " + soldOut.Format(model.DayFormat)
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %q", want, err.Error())
		}
		if len(env.repo.byID) != 0 {
			t.Error("expected no booking to be created")
		}
		if got := env.stock.reserved(start, productF5); got != 0 {
			t.Errorf("expected no partial reservation, got %d reserved", got)
		}
	})

	t.Run("rejects when fewer units than requested are free", func(t *testing.T) {
		env := newTestEnv()
		start, end := future(30), future(32)
		env.stock.seedRange(start, end, productF5, 4)
		short := future(31)
		env.stock.seed(short, productF5, 2)

		req := validRequest(start, end)
		req.Items[0].Quantity = 3
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeConflict)

		want := "only 2 of 3 units of SeaBob F5 available on " + short.Format(model.DayFormat)
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %q", want, err.Error())
		}
		if len(env.repo.byID) != 0 {
			t.Error("expected no booking to be created")
		}
	})

	t.Run("sums quantities across line items for the same product", func(t *testing.T) {
		env := newTestEnv()
		start := future(30)
		env.stock.seed(start, productF5, 2)

		req := validRequest(start, start)
		req.Items = []model.BookingItemRequest{
			{ProductID: productF5, Quantity: 2, RentalType: model.RentalTypeDay, Duration: 1},
			{ProductID: productF5, Quantity: 1, RentalType: model.RentalTypeHour, Duration: 2},
		}
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeConflict)

		if !strings.Contains(err.Error(), "only 2 of 3 units") {
			t.Errorf("expected the summed quantity in the rejection, got %q", err.Error())
		}
	})

	t.Run("rejects inactive products", func(t *testing.T) {
		env := newTestEnv()
		env.products.byID[productF5].Active = false
		start := future(30)
		env.stock.seed(start, productF5, 4)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("rejects unknown products", func(t *testing.T) {
		env := newTestEnv()
		start := future(30)

		req := validRequest(start, start)
		req.Items[0].ProductID = strings.Repeat("0", 24)
		req.Items[0].Duration = 1
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		env := newTestEnv()
		req := validRequest(future(30), future(31))
		req.ClientName = "X"
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeValidation)
	})

	t.Run("rejects phone numbers that cannot be normalized", func(t *testing.T) {
		env := newTestEnv()
		req := validRequest(future(30), future(31))
		req.ClientPhone = "not-a-phone"
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeValidation)
		if len(env.repo.byID) != 0 {
			t.Error("no booking must be created for an invalid phone")
		}
	})
}

func TestReserveWithLink(t *testing.T) {
	const linkToken = "tok_0123456789abcdef"

	setup := func(singleUse bool) *testEnv {
		env := newTestEnv()
		env.links.byToken[linkToken] = &model.BookingLink{
			ID:        strings.Repeat("c", 24),
			Token:     linkToken,
			PartnerID: "beach-club",
			Active:    true,
			SingleUse: singleUse,
		}
		return env
	}

	t.Run("adopts the link's partner and consumes single-use links", func(t *testing.T) {
		env := setup(true)
		start := future(14)
		env.stock.seedRange(start, start, productF5, 6)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		req.Channel = model.ChannelPublicLink
		req.LinkToken = linkToken
		booking, err := env.svc.Reserve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if booking.PartnerID != "beach-club" {
			t.Errorf("expected partner beach-club, got %q", booking.PartnerID)
		}
		link := env.links.byToken[linkToken]
		if !link.Used {
			t.Error("expected the link to be marked used")
		}
		if link.ReservationsCreated != 1 {
			t.Errorf("expected 1 reservation on the link, got %d", link.ReservationsCreated)
		}
	})

	t.Run("rejects a second use of a single-use link", func(t *testing.T) {
		env := setup(true)
		start := future(14)
		env.stock.seedRange(start, start, productF5, 6)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		req.LinkToken = linkToken
		if _, err := env.svc.Reserve(context.Background(), req); err != nil {
			t.Fatalf("first reservation failed: %v", err)
		}

		again := validRequest(start, start)
		again.Items[0].Duration = 1
		again.LinkToken = linkToken
		_, err := env.svc.Reserve(context.Background(), again)
		assertCode(t, err, apperrors.CodeConflict)
		if !strings.Contains(err.Error(), bookingserrors.ErrLinkUsed.Error()) {
			t.Errorf("expected the used-link message, got %q", err.Error())
		}

		if got := env.stock.reserved(start, productF5); got != 2 {
			t.Errorf("expected reserved to stay at 2 after the rejection, got %d", got)
		}
	})

	t.Run("multi-use links survive repeated reservations", func(t *testing.T) {
		env := setup(false)
		start := future(14)
		env.stock.seedRange(start, start, productF5, 6)

		for i := 0; i < 2; i++ {
			req := validRequest(start, start)
			req.Items[0].Duration = 1
			req.LinkToken = linkToken
			if _, err := env.svc.Reserve(context.Background(), req); err != nil {
				t.Fatalf("reservation %d failed: %v", i+1, err)
			}
		}

		link := env.links.byToken[linkToken]
		if link.Used {
			t.Error("multi-use link must not be marked used")
		}
		if link.ReservationsCreated != 2 {
			t.Errorf("expected 2 reservations on the link, got %d", link.ReservationsCreated)
		}
	})

	t.Run("rejects deactivated links", func(t *testing.T) {
		env := setup(false)
		env.links.byToken[linkToken].Active = false
		start := future(14)
		env.stock.seedRange(start, start, productF5, 6)

		req := validRequest(start, start)
		req.Items[0].Duration = 1
		req.LinkToken = linkToken
		_, err := env.svc.Reserve(context.Background(), req)
		assertCode(t, err, apperrors.CodeConflict)
	})
}

func reserveOne(t *testing.T, env *testEnv, start, end time.Time) *model.Booking {
	t.Helper()
	env.stock.seedRange(start, end, productF5, 4)
	req := validRequest(start, end)
	req.Items[0].Duration = len(model.DaysBetween(start, end))
	booking, err := env.svc.Reserve(context.Background(), req)
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}
	return booking
}

func TestRelease(t *testing.T) {
	t.Run("returns stock exactly once", func(t *testing.T) {
		env := newTestEnv()
		start, end := future(20), future(21)
		booking := reserveOne(t, env, start, end)

		if err := env.svc.Release(context.Background(), booking.ID, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, day := range model.DaysBetween(start, end) {
			if got := env.stock.reserved(day, productF5); got != 0 {
				t.Errorf("expected 0 reserved on %s, got %d", day.Format(model.DayFormat), got)
			}
		}

		stored := env.repo.byID[booking.ID]
		if !stored.StockReleased {
			t.Error("expected the stock-released guard to be set")
		}

		// Second release is a silent no-op: counters must not go negative.
		if err := env.svc.Release(context.Background(), booking.ID, "ana"); err != nil {
			t.Fatalf("second release must be a no-op, got: %v", err)
		}
		for _, day := range model.DaysBetween(start, end) {
			if got := env.stock.reserved(day, productF5); got != 0 {
				t.Errorf("double release drove reserved to %d on %s", got, day.Format(model.DayFormat))
			}
		}
	})
}

func TestCancel(t *testing.T) {
	t.Run("cancels and releases stock", func(t *testing.T) {
		env := newTestEnv()
		start := future(20)
		booking := reserveOne(t, env, start, start)

		if err := env.svc.Cancel(context.Background(), booking.ID, "client no-show", "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored := env.repo.byID[booking.ID]
		if stored.Status != model.StatusCancelled {
			t.Errorf("expected status %s, got %s", model.StatusCancelled, stored.Status)
		}
		if stored.CancelReason != "client no-show" {
			t.Errorf("unexpected cancel reason %q", stored.CancelReason)
		}
		if got := env.stock.reserved(start, productF5); got != 0 {
			t.Errorf("expected stock returned on cancel, got %d reserved", got)
		}
	})

	t.Run("rejects cancelling twice", func(t *testing.T) {
		env := newTestEnv()
		start := future(20)
		booking := reserveOne(t, env, start, start)

		if err := env.svc.Cancel(context.Background(), booking.ID, "", "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := env.svc.Cancel(context.Background(), booking.ID, "", "ana")
		assertCode(t, err, apperrors.CodeConflict)
	})
}

func TestConfirmPayment(t *testing.T) {
	t.Run("marks the booking paid and confirmed", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))

		err := env.svc.ConfirmPayment(context.Background(), booking.ID, &model.PaymentRequest{Method: "cash"}, "ana")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored := env.repo.byID[booking.ID]
		if !stored.Paid {
			t.Error("expected the booking to be paid")
		}
		if stored.Status != model.StatusConfirmed {
			t.Errorf("expected status %s, got %s", model.StatusConfirmed, stored.Status)
		}
	})

	t.Run("rejects paying twice", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))

		pay := &model.PaymentRequest{Method: "cash"}
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, pay, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := env.svc.ConfirmPayment(context.Background(), booking.ID, pay, "ana")
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("rejects paying a cancelled booking", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))

		if err := env.svc.Cancel(context.Background(), booking.ID, "", "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := env.svc.ConfirmPayment(context.Background(), booking.ID, &model.PaymentRequest{Method: "cash"}, "ana")
		assertCode(t, err, apperrors.CodeConflict)
	})
}

func TestSubmitSignature(t *testing.T) {
	sig := &model.SignatureRequest{SignatureData: "data:image/png;base64,abc", TermsAccepted: true}

	t.Run("stores the signature once", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))

		if err := env.svc.SubmitSignature(context.Background(), booking.AccessToken, sig); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored := env.repo.byID[booking.ID]
		if !stored.Signed {
			t.Error("expected the booking to be signed")
		}

		err := env.svc.SubmitSignature(context.Background(), booking.AccessToken, sig)
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("rejects unknown access tokens", func(t *testing.T) {
		env := newTestEnv()
		err := env.svc.SubmitSignature(context.Background(), "nope", sig)
		assertCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("signing terminates the hold", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(2), future(2))

		if err := env.svc.SubmitSignature(context.Background(), booking.AccessToken, sig); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Lapse the hold; the signed booking must not expire.
		past := time.Now().UTC().Add(-time.Minute)
		env.repo.byID[booking.ID].HoldExpiresAt = &past

		result, err := env.svc.SweepExpired(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Expired != 0 {
			t.Errorf("signed booking expired by the sweep: %+v", result)
		}
	})
}

func TestRefund(t *testing.T) {
	refund := &model.RefundRequest{Amount: 100, Method: "cash", Reason: "bad weather"}

	t.Run("cash refunds skip the gateway", func(t *testing.T) {
		env := newTestEnv()
		start := future(20)
		booking := reserveOne(t, env, start, start)
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, &model.PaymentRequest{Method: "cash"}, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := env.svc.Refund(context.Background(), booking.ID, refund, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if env.gateway.calls != 0 {
			t.Errorf("cash refund must not call the gateway, got %d calls", env.gateway.calls)
		}
		stored := env.repo.byID[booking.ID]
		if !stored.Refunded || stored.RefundAmount != 100 {
			t.Errorf("refund not recorded: %+v", stored)
		}
		if got := env.stock.reserved(start, productF5); got != 0 {
			t.Errorf("expected stock returned on refund, got %d reserved", got)
		}
	})

	t.Run("card payments hit the gateway first", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))
		pay := &model.PaymentRequest{Method: "card", Reference: "pi_123"}
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, pay, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var gotReference string
		var gotAmount float64
		env.gateway.refundFn = func(_ context.Context, reference string, amount float64) (*payments.RefundResult, error) {
			gotReference = reference
			gotAmount = amount
			return &payments.RefundResult{Succeeded: true, Reference: "re_456"}, nil
		}

		if err := env.svc.Refund(context.Background(), booking.ID, refund, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if env.gateway.calls != 1 {
			t.Errorf("expected 1 gateway call, got %d", env.gateway.calls)
		}
		if gotReference != "pi_123" || gotAmount != 100 {
			t.Errorf("gateway called with %q/%v", gotReference, gotAmount)
		}
		if env.repo.byID[booking.ID].RefundReference != "re_456" {
			t.Error("expected the gateway reference on the booking")
		}
	})

	t.Run("gateway rejection leaves the booking untouched", func(t *testing.T) {
		env := newTestEnv()
		start := future(20)
		booking := reserveOne(t, env, start, start)
		pay := &model.PaymentRequest{Method: "card", Reference: "pi_123"}
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, pay, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		env.gateway.refundFn = func(context.Context, string, float64) (*payments.RefundResult, error) {
			return &payments.RefundResult{Succeeded: false}, nil
		}

		err := env.svc.Refund(context.Background(), booking.ID, refund, "ana")
		assertCode(t, err, apperrors.CodeGateway)

		stored := env.repo.byID[booking.ID]
		if stored.Refunded {
			t.Error("rejected refund must not mark the booking refunded")
		}
		if got := env.stock.reserved(start, productF5); got != 2 {
			t.Errorf("rejected refund must not touch stock, got %d reserved", got)
		}
	})

	t.Run("rejects refunding twice", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(20), future(20))
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, &model.PaymentRequest{Method: "cash"}, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := env.svc.Refund(context.Background(), booking.ID, refund, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := env.svc.Refund(context.Background(), booking.ID, refund, "ana")
		assertCode(t, err, apperrors.CodeConflict)
	})
}

func TestExpiryOnRead(t *testing.T) {
	t.Run("a lapsed pending booking reads back expired", func(t *testing.T) {
		env := newTestEnv()
		start := future(2)
		booking := reserveOne(t, env, start, start)

		past := time.Now().UTC().Add(-time.Minute)
		env.repo.byID[booking.ID].HoldExpiresAt = &past

		got, err := env.svc.GetByID(context.Background(), booking.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusExpired {
			t.Errorf("expected status %s, got %s", model.StatusExpired, got.Status)
		}
		if reserved := env.stock.reserved(start, productF5); reserved != 0 {
			t.Errorf("expected stock released on expiry, got %d reserved", reserved)
		}
	})

	t.Run("paid bookings never lapse", func(t *testing.T) {
		env := newTestEnv()
		booking := reserveOne(t, env, future(2), future(2))
		if err := env.svc.ConfirmPayment(context.Background(), booking.ID, &model.PaymentRequest{Method: "cash"}, "ana"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		past := time.Now().UTC().Add(-time.Minute)
		env.repo.byID[booking.ID].HoldExpiresAt = &past

		got, err := env.svc.GetByID(context.Background(), booking.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusConfirmed {
			t.Errorf("expected status %s, got %s", model.StatusConfirmed, got.Status)
		}
	})
}
