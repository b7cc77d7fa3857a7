package queries

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ListProductsQuery lists the products of a merchant.
type ListProductsQuery struct {
	Merchant sharedDomain.Address
}

// QueryName implements application.Query.
func (ListProductsQuery) QueryName() string { return "catalog.list_products" }

// ListProductsHandler handles the ListProductsQuery.
type ListProductsHandler struct {
	productRepo domain.Repository
}

// NewListProductsHandler creates a new ListProductsHandler.
func NewListProductsHandler(productRepo domain.Repository) *ListProductsHandler {
	return &ListProductsHandler{productRepo: productRepo}
}

// Handle executes the ListProductsQuery.
func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) ([]ProductDTO, error) {
	products, err := h.productRepo.FindByMerchant(ctx, q.Merchant)
	if err != nil {
		return nil, err
	}
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, ToProductDTO(p))
	}
	return dtos, nil
}
