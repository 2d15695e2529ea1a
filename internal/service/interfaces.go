package service

import (
	"context"

	"github.com/productapp/catalog-backend/internal/domain"
)

type CatalogServiceInterface interface {
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uint, input UpdateProductInput) (*domain.Product, error)
	DeleteByID(ctx context.Context, id uint) error
}

type AuthServiceInterface interface {
	Register(ctx context.Context, input RegisterInput) (*domain.UserSummary, error)
	Login(ctx context.Context, input LoginInput) (*domain.UserSummary, error)
}
