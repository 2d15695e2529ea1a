package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/observability"
	"github.com/productapp/catalog-backend/internal/repository"
)

var ErrProductMissingFields = errors.New("please provide all fields")

type CreateProductInput struct {
	Name     string
	Price    float64
	Quantity int
	Category string
	Image    *ImageUpload
}

type UpdateProductInput struct {
	Name     string
	Price    float64
	Quantity int
	Category string
	Image    *ImageUpload
}

// CatalogServiceImpl orchestrates the product lifecycle so that every stored
// product keeps a resolvable image and no mutation leaves an orphaned asset
// behind.
type CatalogServiceImpl struct {
	repo  repository.ProductRepository
	store AssetStore
}

func NewCatalogService(repo repository.ProductRepository, store AssetStore) *CatalogServiceImpl {
	return &CatalogServiceImpl{repo: repo, store: store}
}

func (s *CatalogServiceImpl) List(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "list", outcome, time.Since(start)) }()

	products, err := s.repo.FindAll()
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *CatalogServiceImpl) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "create", outcome, time.Since(start)) }()

	if err := validateProductFields(input.Name, input.Price, input.Quantity, input.Category); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	image := domain.DefaultImage()
	if input.Image != nil {
		ref, err := s.store.Save(ctx, *input.Image)
		if err != nil {
			outcome = saveOutcome(err)
			return nil, err
		}
		image = ref
	}

	product := &domain.Product{
		Name:     strings.TrimSpace(input.Name),
		Price:    input.Price,
		Quantity: input.Quantity,
		Category: strings.TrimSpace(input.Category),
		Image:    image,
	}
	if err := s.repo.Create(product); err != nil {
		outcome = "error"
		s.discardAsset(ctx, image)
		return nil, err
	}
	return product, nil
}

func (s *CatalogServiceImpl) Update(ctx context.Context, id uint, input UpdateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "update", outcome, time.Since(start)) }()

	if err := validateProductFields(input.Name, input.Price, input.Quantity, input.Category); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	existing, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	image := existing.Image
	if input.Image != nil {
		ref, err := s.store.Save(ctx, *input.Image)
		if err != nil {
			outcome = saveOutcome(err)
			return nil, err
		}
		image = ref
	}

	updated, err := s.repo.UpdateByID(id, &domain.Product{
		Name:     strings.TrimSpace(input.Name),
		Price:    input.Price,
		Quantity: input.Quantity,
		Category: strings.TrimSpace(input.Category),
		Image:    image,
	})
	if err != nil {
		if input.Image != nil {
			s.discardAsset(ctx, image)
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	// The record now points at the new asset, so the previous one is
	// unreferenced and can go.
	if input.Image != nil && existing.Image.Path() != updated.Image.Path() {
		s.discardAsset(ctx, existing.Image)
	}
	return updated, nil
}

func (s *CatalogServiceImpl) DeleteByID(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "delete", outcome, time.Since(start)) }()

	deleted, err := s.repo.DeleteByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}

	// Record first, asset second. A failed asset delete leaves garbage,
	// never a dangling catalog entry.
	s.discardAsset(ctx, deleted.Image)
	return nil
}

// discardAsset removes an asset that no product references anymore. Failures
// are logged and swallowed: the catalog mutation already happened and stale
// files are preferable to surfacing an error for completed work.
func (s *CatalogServiceImpl) discardAsset(ctx context.Context, ref domain.ImageRef) {
	if ref.IsDefault() {
		return
	}
	if err := s.store.Delete(ctx, ref); err != nil {
		slog.WarnContext(ctx, "orphaned image left behind after failed delete",
			slog.String("image", ref.Path()),
			slog.String("error", err.Error()))
	}
}

func validateProductFields(name string, price float64, quantity int, category string) error {
	if strings.TrimSpace(name) == "" || price <= 0 || quantity <= 0 || strings.TrimSpace(category) == "" {
		return ErrProductMissingFields
	}
	return nil
}

func saveOutcome(err error) string {
	if errors.Is(err, ErrFileTooBig) || errors.Is(err, ErrInvalidFileType) {
		return "bad_request"
	}
	return "error"
}
