package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

const aggregateType = "Product"

// ProductCreated is emitted the first time a product hash is registered.
type ProductCreated struct {
	sharedDomain.BaseEvent
	ProductHash  sharedDomain.Hash    `json:"product_hash"`
	Merchant     sharedDomain.Address `json:"merchant"`
	MetadataHash sharedDomain.Hash    `json:"metadata_hash"`
	Token        sharedDomain.Address `json:"token"`
	Amount       sharedDomain.Amount  `json:"amount"`
	Period       uint64               `json:"period"`
	FreeTrial    uint64               `json:"free_trial"`
	Grace        uint64               `json:"grace"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewProductCreated creates a ProductCreated event.
func NewProductCreated(p *Product) *ProductCreated {
	return &ProductCreated{
		BaseEvent:    sharedDomain.NewBaseEvent(p.Hash(), aggregateType, "catalog.product.created"),
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
