// Package domain holds the product registry: immutable recurring-charge plans
// addressed by the hash of their terms.
package domain

import (
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// Validation errors.
var (
	ErrZeroMerchant = fmt.Errorf("%w: merchant must be a non-zero address", sharedDomain.ErrInvalidParameters)
	ErrZeroToken    = fmt.Errorf("%w: token must be a non-zero address", sharedDomain.ErrInvalidParameters)
	ErrZeroAmount   = fmt.Errorf("%w: amount must be positive", sharedDomain.ErrInvalidParameters)
	ErrZeroPeriod   = fmt.Errorf("%w: period must be positive", sharedDomain.ErrInvalidParameters)
)

// ErrProductNotFound is returned when no product has the requested hash.
var ErrProductNotFound = fmt.Errorf("product %w", sharedDomain.ErrNotFound)

// ErrProductCollision is returned when a product hash resolves to different terms.
var ErrProductCollision = fmt.Errorf("%w: product hash collision", sharedDomain.ErrInconsistentState)

// Product is an immutable recurring-charge plan.
type Product struct {
	sharedDomain.BaseAggregateRoot
	hash      sharedDomain.Hash
	terms     sharedDomain.ProductTerms
	createdAt time.Time
}

// ValidateTerms checks the terms a product may be registered with.
func ValidateTerms(terms sharedDomain.ProductTerms) error {
	switch {
	case terms.Merchant.IsZero():
		return ErrZeroMerchant
	case terms.Token.IsZero():
		return ErrZeroToken
	case terms.Amount.IsZero():
		return ErrZeroAmount
	case terms.Period == 0:
		return ErrZeroPeriod
	}
	return nil
}

// NewProduct validates terms and creates a product, recording ProductCreated.
func NewProduct(terms sharedDomain.ProductTerms, createdAt time.Time) (*Product, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}
	p := &Product{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		hash:              sharedDomain.ProductHash(terms),
		terms:             terms,
		createdAt:         createdAt,
	}
	p.AddDomainEvent(NewProductCreated(p))
	return p, nil
}

// RehydrateProduct recreates a product from persisted state without generating events.
func RehydrateProduct(terms sharedDomain.ProductTerms, createdAt time.Time) *Product {
	return &Product{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(0),
		hash:              sharedDomain.ProductHash(terms),
		terms:             terms,
		createdAt:         createdAt,
	}
}

// Key implements sharedDomain.AggregateRoot.
func (p *Product) Key() sharedDomain.Hash { return p.hash }

func (p *Product) Hash() sharedDomain.Hash          { return p.hash }
func (p *Product) Terms() sharedDomain.ProductTerms { return p.terms }
func (p *Product) Merchant() sharedDomain.Address   { return p.terms.Merchant }
func (p *Product) MetadataHash() sharedDomain.Hash  { return p.terms.MetadataHash }
func (p *Product) Token() sharedDomain.Address      { return p.terms.Token }
func (p *Product) Amount() sharedDomain.Amount      { return p.terms.Amount }
func (p *Product) Period() uint64                   { return p.terms.Period }
func (p *Product) FreeTrial() uint64                { return p.terms.FreeTrial }
func (p *Product) Grace() uint64                    { return p.terms.Grace }
func (p *Product) CreatedAt() time.Time             { return p.createdAt }

// HasTerms reports whether the product was registered with exactly terms.
func (p *Product) HasTerms(terms sharedDomain.ProductTerms) bool {
	t := p.terms
	return t.Merchant == terms.Merchant &&
		t.MetadataHash == terms.MetadataHash &&
		t.Token == terms.Token &&
		t.Amount.Equal(terms.Amount) &&
		t.Period == terms.Period &&
		t.FreeTrial == terms.FreeTrial &&
		t.Grace == terms.Grace
}
