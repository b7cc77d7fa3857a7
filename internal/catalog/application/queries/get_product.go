package queries

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// GetProductQuery looks a product up by hash.
type GetProductQuery struct {
	ProductHash sharedDomain.Hash
}

// QueryName implements application.Query.
func (GetProductQuery) QueryName() string { return "catalog.get_product" }

// GetProductHandler handles the GetProductQuery.
type GetProductHandler struct {
	productRepo domain.Repository
}

// NewGetProductHandler creates a new GetProductHandler.
func NewGetProductHandler(productRepo domain.Repository) *GetProductHandler {
	return &GetProductHandler{productRepo: productRepo}
}

// Handle executes the GetProductQuery.
func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (*ProductDTO, error) {
	product, err := h.productRepo.FindByHash(ctx, q.ProductHash)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	dto := ToProductDTO(product)
	return &dto, nil
}
