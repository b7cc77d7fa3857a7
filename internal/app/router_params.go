package app

import (
	"fmt"

	paymentsDomain "github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/pkg/config"
)

// RouterParams are the deployment parameters the router is created with.
type RouterParams struct {
	Owner            sharedDomain.Address `json:"owner"`
	DefaultInitiator sharedDomain.Address `json:"default_initiator"`
	Treasury         sharedDomain.Address `json:"treasury"`
	Custody          sharedDomain.Address `json:"custody"`
	FeeRate          sharedDomain.Amount  `json:"fee_rate"`
}

// ParseRouterParams reads and validates the router parameters in cfg.
func ParseRouterParams(cfg *config.Config) (RouterParams, error) {
	var (
		p   RouterParams
		err error
	)
	for _, f := range []struct {
		key string
		raw string
		dst *sharedDomain.Address
	}{
		{"ROUTER_OWNER", cfg.RouterOwner, &p.Owner},
		{"ROUTER_DEFAULT_INITIATOR", cfg.RouterDefaultInitiator, &p.DefaultInitiator},
		{"ROUTER_TREASURY", cfg.RouterTreasury, &p.Treasury},
		{"ROUTER_CUSTODY", cfg.RouterCustody, &p.Custody},
	} {
		if *f.dst, err = sharedDomain.ParseAddress(f.raw); err != nil {
			return RouterParams{}, fmt.Errorf("%s: %w", f.key, err)
		}
	}
	if p.FeeRate, err = sharedDomain.ParseAmount(cfg.RouterFeeRate); err != nil {
		return RouterParams{}, fmt.Errorf("ROUTER_FEE_RATE: %w", err)
	}

	if err := paymentsDomain.ValidateFeeRate(p.FeeRate); err != nil {
		return RouterParams{}, fmt.Errorf("ROUTER_FEE_RATE: %w", err)
	}
	if p.DefaultInitiator.IsZero() {
		return RouterParams{}, fmt.Errorf("%w: ROUTER_DEFAULT_INITIATOR must be set", sharedDomain.ErrInvalidParameters)
	}
	if p.Custody.IsZero() {
		return RouterParams{}, fmt.Errorf("%w: ROUTER_CUSTODY must be set", sharedDomain.ErrInvalidParameters)
	}
	if !p.FeeRate.IsZero() && p.Treasury.IsZero() {
		return RouterParams{}, fmt.Errorf("%w: ROUTER_TREASURY must be set when a fee is charged", sharedDomain.ErrInvalidParameters)
	}
	return p, nil
}
