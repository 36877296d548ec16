package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"marea/internal/events"
	stockerrors "marea/internal/stock/errors"
	"marea/internal/stock/repository"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
)

type StockService interface {
	// GetCalendar returns the stored cells for the inclusive date range,
	// optionally filtered by product. Days without a stored cell are absent
	// from the result; callers treat them as zero capacity.
	GetCalendar(ctx context.Context, from, to time.Time, productIDs []string) ([]*model.StockCell, error)

	GetCell(ctx context.Context, day time.Time, productID string) (*model.StockCell, error)

	SetAvailable(ctx context.Context, req *model.StockUpdateRequest, actor string) (*model.StockCell, error)

	Provision(ctx context.Context, req *model.ProvisionRequest, actor string) (*model.ProvisionResult, error)
}

type stockService struct {
	repo     repository.StockRepository
	events   events.Publisher
	validate *validator.Validate
	cfg      *config.Config
}

func NewStockService(repo repository.StockRepository, publisher events.Publisher, cfg *config.Config) StockService {
	return &stockService{
		repo:     repo,
		events:   publisher,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *stockService) GetCalendar(ctx context.Context, from, to time.Time, productIDs []string) ([]*model.StockCell, error) {
	if to.Before(from) {
		return nil, apperrors.InvalidInput(stockerrors.ErrInvalidDateRange.Error())
	}

	cells, err := s.repo.FindRange(ctx, from, to, productIDs)
	if err != nil {
		s.cfg.Log.Error("Failed to read stock calendar", "error", err)
		return nil, apperrors.Internal("Failed to retrieve stock calendar", err)
	}

	return cells, nil
}

func (s *stockService) GetCell(ctx context.Context, day time.Time, productID string) (*model.StockCell, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	cell, err := s.repo.FindCell(ctx, day, productID)
	if err != nil {
		s.cfg.Log.Error("Failed to read stock cell", "product_id", productID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve stock cell", err)
	}

	return cell, nil
}

func (s *stockService) SetAvailable(ctx context.Context, req *model.StockUpdateRequest, actor string) (*model.StockCell, error) {
	if err := s.validate.Struct(req); err != nil {
		s.cfg.Log.Warn("Stock update validation failed", "error", err)
		return nil, apperrors.Validation("Invalid stock update", map[string]any{"error": err.Error()})
	}

	day, err := time.Parse(model.DayFormat, req.Date)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid date: %s", req.Date))
	}

	if err := s.repo.SetAvailable(ctx, day, req.ProductID, req.Available, actor); err != nil {
		s.cfg.Log.Error("Failed to set stock capacity",
			"date", req.Date,
			"product_id", req.ProductID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update stock cell", err)
	}

	cell, err := s.repo.FindCell(ctx, day, req.ProductID)
	if err != nil {
		return nil, apperrors.Internal("Failed to read back stock cell", err)
	}

	// Capacity edits do not touch reserved, so a cut below current
	// reservations leaves free units negative until bookings drain.
	if cell.FreeUnits() < 0 {
		s.cfg.Log.Warn("Stock cell capacity set below reserved units",
			"cell", cell.ID,
			"available", cell.Available,
			"reserved", cell.Reserved,
		)
	}

	s.cfg.Log.Info("Stock capacity updated",
		"cell", cell.ID,
		"available", cell.Available,
		"updated_by", actor,
	)
	return cell, nil
}

func (s *stockService) Provision(ctx context.Context, req *model.ProvisionRequest, actor string) (*model.ProvisionResult, error) {
	if err := s.validate.Struct(req); err != nil {
		s.cfg.Log.Warn("Provisioning validation failed", "error", err)
		return nil, apperrors.Validation("Invalid provisioning request", map[string]any{"error": err.Error()})
	}

	start, err := time.Parse(model.DayFormat, req.StartDate)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid start_date: %s", req.StartDate))
	}
	end, err := time.Parse(model.DayFormat, req.EndDate)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid end_date: %s", req.EndDate))
	}
	if end.Before(start) {
		return nil, apperrors.InvalidInput(stockerrors.ErrInvalidDateRange.Error())
	}

	days := model.DaysBetween(start, end)
	attempted := len(days) * len(req.ProductIDs)
	if attempted > s.cfg.MaxProvisionCells {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"%s: %d cells requested, limit is %d",
			stockerrors.ErrBatchTooLarge.Error(), attempted, s.cfg.MaxProvisionCells,
		))
	}

	result := &model.ProvisionResult{Attempted: attempted}
	for _, day := range days {
		for _, productID := range req.ProductIDs {
			if err := s.repo.SetAvailable(ctx, day, productID, req.Available, actor); err != nil {
				s.cfg.Log.Error("Provisioning aborted",
					"date", day.Format(model.DayFormat),
					"product_id", productID,
					"attempted", result.Attempted,
					"succeeded", result.Succeeded,
					"error", err,
				)
				return result, apperrors.Internal(
					fmt.Sprintf("Provisioning failed after %d of %d cells", result.Succeeded, result.Attempted), err)
			}
			result.Succeeded++
		}
	}

	s.cfg.Log.Info("Stock provisioned",
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"products", len(req.ProductIDs),
		"cells", result.Succeeded,
		"available", req.Available,
		"updated_by", actor,
	)

	if err := s.events.StockProvisioned(ctx, req, result, actor); err != nil {
		s.cfg.Log.Warn("Failed to publish provisioning event", "error", err)
	}
	return result, nil
}
