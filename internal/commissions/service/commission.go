package service

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "marea/internal/bookings/errors"
	bookingrepo "marea/internal/bookings/repository"
	"marea/internal/commissions/repository"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
)

type CommissionService interface {
	// RecordPayment writes the payout ledger entry and greedily fills each
	// listed booking's pending commission in order, all in one transaction.
	// comisionPagada never exceeds comisionTotal on any booking.
	RecordPayment(ctx context.Context, req *model.CommissionPaymentRequest, actor string) (*model.CommissionPayment, error)

	GetByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.CommissionPayment, int64, error)
}

type commissionService struct {
	repo        repository.PaymentRepository
	bookingRepo bookingrepo.BookingRepository
	validate    *validator.Validate
	cfg         *config.Config
}

func NewCommissionService(repo repository.PaymentRepository, bookingRepo bookingrepo.BookingRepository, cfg *config.Config) CommissionService {
	return &commissionService{
		repo:        repo,
		bookingRepo: bookingRepo,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

func (s *commissionService) RecordPayment(ctx context.Context, req *model.CommissionPaymentRequest, actor string) (*model.CommissionPayment, error) {
	if err := s.validate.Struct(req); err != nil {
		s.cfg.Log.Warn("Commission payment validation failed", "error", err)
		return nil, apperrors.Validation("Invalid commission payment", map[string]any{"error": err.Error()})
	}

	payment := &model.CommissionPayment{
		PartnerID:  req.PartnerID,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		BookingIDs: req.BookingIDs,
		CreatedBy:  actor,
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		remaining := decimal.NewFromFloat(req.Amount)

		for _, bookingID := range req.BookingIDs {
			booking, err := s.bookingRepo.FindByID(sessCtx, bookingID)
			if err != nil {
				if errors.Is(err, bookingserrors.ErrNotFound) {
					return apperrors.NotFoundWithID("Booking", bookingID)
				}
				if errors.Is(err, bookingserrors.ErrInvalidID) {
					return apperrors.InvalidInput("Invalid booking ID format: " + bookingID)
				}
				return apperrors.Internal("Failed to load booking", err)
			}
			if booking.PartnerID != req.PartnerID {
				return apperrors.Conflict("Booking " + bookingID + " does not belong to partner " + req.PartnerID)
			}

			if remaining.IsZero() {
				break
			}

			pending := decimal.NewFromFloat(booking.CommissionTotal).
				Sub(decimal.NewFromFloat(booking.CommissionPaid))
			if pending.IsNegative() || pending.IsZero() {
				continue
			}

			allocation := decimal.Min(pending, remaining)
			if err := s.bookingRepo.IncrementCommissionPaid(sessCtx, bookingID, allocation.InexactFloat64()); err != nil {
				return apperrors.Internal("Failed to allocate commission", err)
			}

			payment.Allocations = append(payment.Allocations, model.CommissionAllocation{
				BookingID: bookingID,
				Amount:    allocation.InexactFloat64(),
			})
			remaining = remaining.Sub(allocation)
		}

		payment.Unallocated = remaining.InexactFloat64()

		if err := s.repo.Create(sessCtx, payment); err != nil {
			return apperrors.Internal("Failed to record commission payment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Commission payment failed", "partner_id", req.PartnerID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Commission payment recorded",
		"id", payment.ID,
		"partner_id", payment.PartnerID,
		"amount", payment.Amount,
		"allocations", len(payment.Allocations),
		"unallocated", payment.Unallocated,
		"actor", actor,
	)
	return payment, nil
}

func (s *commissionService) GetByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.CommissionPayment, int64, error) {
	if partnerID == "" {
		return nil, 0, apperrors.InvalidInput("Partner ID cannot be empty")
	}

	var count int64
	var payments []*model.CommissionPayment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByPartner(ctx, partnerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count commission payments", "partner_id", partnerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count commission payments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		payments, errFind = s.repo.FindByPartner(ctx, partnerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list commission payments", "partner_id", partnerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve commission payments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return payments, count, nil
}
