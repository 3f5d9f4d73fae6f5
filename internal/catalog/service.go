// Package catalog provides business logic for the product catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/inventa/inventory-api/internal/domain"
	"github.com/inventa/inventory-api/internal/pkg/ctxlog"
	"github.com/inventa/inventory-api/internal/pkg/validate"
	"github.com/shopspring/decimal"
)

// Pagination constants.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Price bounds matching the NUMERIC(12,2) column.
const (
	priceScale        = 2
	maxPriceIntDigits = 10
	minPriceExponent  = -20
)

// ProductInput holds fields for creating or updating a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"-"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}

// Service implements catalog business logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: validate.New(),
	}
}

// ListProducts returns products ordered by id.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListProducts(ctx, filter)
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// CreateProduct validates input and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	input, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	ctxlog.FromContext(ctx).Info("product created", "product_id", product.ID)
	return product, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	input, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
	}
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product and returns it as it was before deletion.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}

	ctxlog.FromContext(ctx).Info("product deleted", "product_id", id)
	return product, nil
}

func (s *Service) validateInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			input.Description = nil
		} else {
			input.Description = &desc
		}
	}

	if err := s.validator.Struct(input); err != nil {
		return input, fmt.Errorf("%w: %s", ErrInvalidInput, validate.Describe(err))
	}
	if err := checkPriceRange(input.Price); err != nil {
		return input, err
	}
	if input.Price.IsNegative() {
		return input, fmt.Errorf("%w: price must be greater than or equal to 0", ErrInvalidInput)
	}

	input.Price = input.Price.Round(priceScale)
	// Rounding can carry into a new integer digit, e.g. 9999999999.995.
	if err := checkPriceRange(input.Price); err != nil {
		return input, err
	}
	return input, nil
}

// checkPriceRange bounds the exponent and integer digits of d without
// rescaling it, so huge exponents are rejected before any arithmetic.
func checkPriceRange(d decimal.Decimal) error {
	exp := int(d.Exponent())
	if exp < minPriceExponent {
		return fmt.Errorf("%w: price has too many decimal places", ErrInvalidInput)
	}
	if exp > maxPriceIntDigits || d.NumDigits()+exp > maxPriceIntDigits {
		return fmt.Errorf("%w: price must be less than 10000000000", ErrInvalidInput)
	}
	return nil
}
