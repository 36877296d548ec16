package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"marea/internal/events"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
)

// SweepResult reports one sweep run. Released can trail Expired when a
// candidate's stock was already returned by another path.
type SweepResult struct {
	Checked  int `json:"checked"`
	Expired  int `json:"expired"`
	Released int `json:"released"`
}

// errNoLongerCandidate means the booking stopped qualifying between the scan
// and the expiry transaction (paid, signed or expired by a concurrent run).
var errNoLongerCandidate = errors.New("booking is no longer an expiry candidate")

// SweepExpired finds pending bookings whose hold lapsed without payment or
// signature, marks them expired and releases their stock. Candidates are
// processed independently: one failure is logged and the sweep moves on.
func (s *bookingService) SweepExpired(ctx context.Context) (*SweepResult, error) {
	candidates, err := s.repo.FindExpiredCandidates(ctx, time.Now().UTC())
	if err != nil {
		s.cfg.Log.Error("Failed to scan for expired holds", "error", err)
		return nil, apperrors.Internal("Failed to scan for expired holds", err)
	}

	result := &SweepResult{}
	for _, candidate := range candidates {
		result.Checked++

		released, err := s.expireOne(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, errNoLongerCandidate) {
				continue
			}
			s.cfg.Log.Error("Failed to expire booking", "id", candidate.ID, "error", err)
			continue
		}

		result.Expired++
		if released {
			result.Released++
		}

		candidate.Status = model.StatusExpired
		candidate.Expired = true
		s.publish(ctx, events.EventBookingExpired, candidate)
	}

	s.cfg.Log.Info("Expiry sweep completed",
		"checked", result.Checked,
		"expired", result.Expired,
		"released", result.Released,
	)
	return result, nil
}

// expireOne re-reads the booking inside a transaction, re-checks the lapse
// rule and, if it still holds, marks it expired and releases its stock.
// Reports whether this call returned the stock (false when another path
// already had).
func (s *bookingService) expireOne(ctx context.Context, id string) (bool, error) {
	released := false

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapLookupError(err, id)
		}
		if !holdLapsed(booking, time.Now().UTC()) {
			return errNoLongerCandidate
		}

		if err := s.repo.MarkExpired(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to mark booking expired", err)
		}

		alreadyReleased := booking.StockReleased
		if err := s.releaseInTx(sessCtx, booking, "sweep"); err != nil {
			return err
		}
		released = !alreadyReleased
		return nil
	})
	if err != nil {
		return false, err
	}

	return released, nil
}
