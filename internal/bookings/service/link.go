package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "marea/internal/bookings/errors"
	"marea/internal/bookings/repository"
	"marea/internal/bookings/validator"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
	"marea/pkg/token"
)

type LinkService interface {
	Create(ctx context.Context, req *model.LinkRequest, actor string) (*model.BookingLink, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingLink, int64, error)
	Deactivate(ctx context.Context, id string) error

	// Visit resolves a link for the public booking page and counts the view.
	// Inactive and spent links are rejected so the page can show why.
	Visit(ctx context.Context, linkToken string) (*model.BookingLink, error)
}

type linkService struct {
	repo      repository.LinkRepository
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewLinkService(repo repository.LinkRepository, validator *validator.BookingValidator, cfg *config.Config) LinkService {
	return &linkService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *linkService) Create(ctx context.Context, req *model.LinkRequest, actor string) (*model.BookingLink, error) {
	if err := s.validator.ValidateLink(req); err != nil {
		return nil, apperrors.Validation("Invalid link request", map[string]any{"error": err.Error()})
	}

	linkToken, err := token.New()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate link token", err)
	}

	link := &model.BookingLink{
		Token:     linkToken,
		PartnerID: req.PartnerID,
		Active:    true,
		SingleUse: req.SingleUse,
		CreatedBy: actor,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		s.cfg.Log.Error("Failed to create booking link", "error", err)
		return nil, apperrors.Internal("Failed to create booking link", err)
	}

	s.cfg.Log.Info("Booking link created",
		"id", link.ID,
		"partner_id", link.PartnerID,
		"single_use", link.SingleUse,
		"created_by", actor,
	)
	return link, nil
}

func (s *linkService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingLink, int64, error) {
	var count int64
	var links []*model.BookingLink
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count booking links", "error", errCount)
			errCount = apperrors.Internal("Failed to count booking links", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		links, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list booking links", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve booking links", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return links, count, nil
}

func (s *linkService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Link ID cannot be empty")
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, bookingserrors.ErrLinkNotFound) {
			return apperrors.NotFoundWithID("Booking link", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid link ID format")
		}
		s.cfg.Log.Error("Failed to deactivate booking link", "id", id, "error", err)
		return apperrors.Internal("Failed to deactivate booking link", err)
	}

	s.cfg.Log.Info("Booking link deactivated", "id", id)
	return nil
}

func (s *linkService) Visit(ctx context.Context, linkToken string) (*model.BookingLink, error) {
	if linkToken == "" {
		return nil, apperrors.InvalidInput("Link token cannot be empty")
	}

	link, err := s.repo.FindByToken(ctx, linkToken)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrLinkNotFound) {
			return nil, apperrors.NotFound("Booking link")
		}
		return nil, apperrors.Internal("Failed to retrieve booking link", err)
	}
	if !link.Active {
		return nil, apperrors.Conflict(bookingserrors.ErrLinkInactive.Error())
	}
	if link.SingleUse && link.Used {
		return nil, apperrors.Conflict(bookingserrors.ErrLinkUsed.Error())
	}

	// The visit counter is informational; losing one is fine.
	if err := s.repo.IncrementVisits(ctx, linkToken); err != nil {
		s.cfg.Log.Warn("Failed to count link visit", "token", linkToken, "error", err)
	} else {
		link.Visits++
	}

	return link, nil
}
