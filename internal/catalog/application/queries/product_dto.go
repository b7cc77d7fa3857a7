package queries

import (
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ProductDTO is the read model of a product.
type ProductDTO struct {
	ProductHash  sharedDomain.Hash    `json:"product_hash"`
	Merchant     sharedDomain.Address `json:"merchant"`
	MetadataHash sharedDomain.Hash    `json:"metadata_hash"`
	Token        sharedDomain.Address `json:"token"`
	Amount       sharedDomain.Amount  `json:"amount"`
	Period       uint64               `json:"period"`
	FreeTrial    uint64               `json:"free_trial_length"`
	Grace        uint64               `json:"payment_period"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ToProductDTO converts a product to its read model.
func ToProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ProductHash:  p.Hash(),
		Merchant:     p.Merchant(),
		MetadataHash: p.MetadataHash(),
		Token:        p.Token(),
		Amount:       p.Amount(),
		Period:       p.Period(),
		FreeTrial:    p.FreeTrial(),
		Grace:        p.Grace(),
		CreatedAt:    p.CreatedAt(),
	}
}
