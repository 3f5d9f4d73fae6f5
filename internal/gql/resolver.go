package gql

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/inventa/inventory-api/internal/catalog"
	"github.com/inventa/inventory-api/internal/domain"
	"github.com/inventa/inventory-api/internal/identity"
	"github.com/shopspring/decimal"
)

// IdentityService is the subset of identity.Service used by the resolvers.
type IdentityService interface {
	Register(ctx context.Context, input identity.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input identity.LoginInput) (*identity.AuthResult, error)
	Me(ctx context.Context) (*domain.User, error)
}

// CatalogService is the subset of catalog.Service used by the resolvers.
type CatalogService interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input catalog.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// Resolver holds the services behind the schema.
type Resolver struct {
	identity IdentityService
	catalog  CatalogService
}

// NewResolver creates a new resolver.
func NewResolver(identityService IdentityService, catalogService CatalogService) *Resolver {
	return &Resolver{
		identity: identityService,
		catalog:  catalogService,
	}
}

// wrap converts domain errors returned by fn into coded GraphQL errors.
func (r *Resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		result, err := fn(p)
		if err != nil {
			return nil, toError(p.Context, err)
		}
		return result, nil
	}
}

func (r *Resolver) hello(graphql.ResolveParams) (interface{}, error) {
	return "Hello World", nil
}

func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.identity.Me(p.Context)
	if err != nil {
		return nil, err
	}
	return userToMap(user), nil
}

func (r *Resolver) register(p graphql.ResolveParams) (interface{}, error) {
	input := argMap(p, "input")
	user, err := r.identity.Register(p.Context, identity.RegisterInput{
		Username: stringField(input, "username"),
		Email:    stringField(input, "email"),
		Password: stringField(input, "password"),
	})
	if err != nil {
		return nil, err
	}
	return userToMap(user), nil
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	input := argMap(p, "input")
	result, err := r.identity.Login(p.Context, identity.LoginInput{
		Username: stringField(input, "username"),
		Password: stringField(input, "password"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"token": result.Token,
		"user":  userToMap(result.User),
	}, nil
}

func (r *Resolver) products(p graphql.ResolveParams) (interface{}, error) {
	filter := catalog.ProductFilter{}
	if limit, ok := p.Args["limit"].(int); ok {
		filter.Limit = limit
	}
	if offset, ok := p.Args["offset"].(int); ok {
		filter.Offset = offset
	}

	products, err := r.catalog.ListProducts(p.Context, filter)
	if err != nil {
		return nil, err
	}

	result := make([]interface{}, 0, len(products))
	for i := range products {
		result = append(result, productToMap(&products[i]))
	}
	return result, nil
}

func (r *Resolver) productByID(p graphql.ResolveParams) (interface{}, error) {
	product, err := r.catalog.GetProduct(p.Context, int64Arg(p, "id"))
	if err != nil {
		return nil, err
	}
	return productToMap(product), nil
}

func (r *Resolver) createProduct(p graphql.ResolveParams) (interface{}, error) {
	if _, err := identity.RequireUser(p.Context); err != nil {
		return nil, err
	}

	input, err := productInput(argMap(p, "input"))
	if err != nil {
		return nil, err
	}

	product, err := r.catalog.CreateProduct(p.Context, input)
	if err != nil {
		return nil, err
	}
	return productToMap(product), nil
}

func (r *Resolver) updateProduct(p graphql.ResolveParams) (interface{}, error) {
	if _, err := identity.RequireUser(p.Context); err != nil {
		return nil, err
	}

	input, err := productInput(argMap(p, "input"))
	if err != nil {
		return nil, err
	}

	product, err := r.catalog.UpdateProduct(p.Context, int64Arg(p, "id"), input)
	if err != nil {
		return nil, err
	}
	return productToMap(product), nil
}

func (r *Resolver) deleteProduct(p graphql.ResolveParams) (interface{}, error) {
	if _, err := identity.RequireUser(p.Context); err != nil {
		return nil, err
	}

	product, err := r.catalog.DeleteProduct(p.Context, int64Arg(p, "id"))
	if err != nil {
		return nil, err
	}
	return productToMap(product), nil
}

func argMap(p graphql.ResolveParams, name string) map[string]interface{} {
	if m, ok := p.Args[name].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func int64Arg(p graphql.ResolveParams, name string) int64 {
	switch v := p.Args[name].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func productInput(m map[string]interface{}) (catalog.ProductInput, error) {
	price, ok := m["price"].(decimal.Decimal)
	if !ok {
		return catalog.ProductInput{}, fmt.Errorf("%w: price must be a decimal number", catalog.ErrInvalidInput)
	}

	input := catalog.ProductInput{
		Name:  stringField(m, "name"),
		Price: price,
	}
	if desc, ok := m["description"].(string); ok {
		input.Description = &desc
	}
	if quantity, ok := m["quantity"].(int); ok {
		input.Quantity = quantity
	}
	return input, nil
}

func userToMap(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"role":      string(u.Role),
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func productToMap(p *domain.Product) map[string]interface{} {
	var description interface{}
	if p.Description != nil {
		description = *p.Description
	}
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": description,
		"price":       p.Price,
		"quantity":    p.Quantity,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}
