package catalog

import (
	"context"

	"github.com/inventa/inventory-api/internal/domain"
)

// Repository defines the interface for product data operations.
type Repository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// ProductFilter represents filter criteria for listing products.
type ProductFilter struct {
	Limit  int
	Offset int
}
