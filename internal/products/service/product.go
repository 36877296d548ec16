package service

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"marea/internal/products/repository"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/model"
	"marea/pkg/sanitizer"
)

type ProductService interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Product, int64, error)
	Update(ctx context.Context, id string, product *model.Product) error
	Delete(ctx context.Context, id string) error
}

type productService struct {
	repo     repository.ProductRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewProductService(repo repository.ProductRepository, cfg *config.Config) ProductService {
	return &productService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *productService) Create(ctx context.Context, product *model.Product) error {
	product.Name = sanitizer.SanitizeName(product.Name)
	if err := s.validate.Struct(product); err != nil {
		s.cfg.Log.Warn("Product validation failed", "error", err)
		return apperrors.Validation("Invalid product", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.cfg.Log.Error("Failed to create product", "error", err)
		return apperrors.Internal("Failed to create product", err)
	}

	s.cfg.Log.Info("Product created", "id", product.ID, "name", product.Name)
	return nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid product ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve product", err)
	}

	return product, nil
}

func (s *productService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Product, int64, error) {
	var count int64
	var products []*model.Product
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count products", "error", errCount)
			errCount = apperrors.Internal("Failed to count products", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		products, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list products", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve products", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return products, count, nil
}

func (s *productService) Update(ctx context.Context, id string, product *model.Product) error {
	if id == "" {
		return apperrors.InvalidInput("Product ID cannot be empty")
	}

	product.Name = sanitizer.SanitizeName(product.Name)
	if err := s.validate.Struct(product); err != nil {
		s.cfg.Log.Warn("Product validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid product", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, repository.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid product ID format")
		}
		s.cfg.Log.Error("Failed to update product", "id", id, "error", err)
		return apperrors.Internal("Failed to update product", err)
	}

	s.cfg.Log.Info("Product updated", "id", id)
	return nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Product ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, repository.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid product ID format")
		}
		s.cfg.Log.Error("Failed to delete product", "id", id, "error", err)
		return apperrors.Internal("Failed to delete product", err)
	}

	s.cfg.Log.Info("Product deleted", "id", id)
	return nil
}
