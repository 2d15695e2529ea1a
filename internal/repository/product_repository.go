package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/observability"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	Create(product *domain.Product) error
	FindByID(id uint) (*domain.Product, error)
	// FindAll returns the full catalog, newest first.
	FindAll() ([]domain.Product, error)
	// UpdateByID replaces every mutable field with the given record's
	// values and returns the stored result.
	UpdateByID(id uint, product *domain.Product) (*domain.Product, error)
	// DeleteByID removes the record and returns it, so callers can clean
	// up the referenced asset afterwards.
	DeleteByID(id uint) (*domain.Product, error)
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(product *domain.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "create", "success")
	return nil
}

func (r *GormProductRepository) FindByID(id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "not_found")
			return nil, ErrProductNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "success")
	return &product, nil
}

func (r *GormProductRepository) FindAll() ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := r.db.Order("created_at DESC, id DESC").Find(&products).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "find_all", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "find_all", "success")
	return products, nil
}

func (r *GormProductRepository) UpdateByID(id uint, product *domain.Product) (*domain.Product, error) {
	res := r.db.Model(&domain.Product{}).
		Where("id = ?", id).
		Select("name", "price", "quantity", "category", "image").
		Updates(map[string]any{
			"name":     product.Name,
			"price":    product.Price,
			"quantity": product.Quantity,
			"category": product.Category,
			"image":    product.Image,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "update_by_id", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "product", "update_by_id", "not_found")
		return nil, ErrProductNotFound
	}
	var stored domain.Product
	if err := r.db.First(&stored, id).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "update_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "update_by_id", "success")
	return &stored, nil
}

func (r *GormProductRepository) DeleteByID(id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "not_found")
			return nil, ErrProductNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "error")
		return nil, err
	}
	res := r.db.Delete(&domain.Product{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with a concurrent delete
		observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "not_found")
		return nil, ErrProductNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "success")
	return &product, nil
}
