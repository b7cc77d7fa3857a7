package domain

import (
	"fmt"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// FeeScale is the fixed-point denominator of a fee rate. A rate equal to
// FeeScale takes the whole charge.
var FeeScale = sharedDomain.MustParseAmount("1000000000000000000")

// ErrFeeRateTooHigh is returned for a fee rate above FeeScale.
var ErrFeeRateTooHigh = fmt.Errorf("%w: fee rate exceeds 1e18", sharedDomain.ErrInvalidParameters)

// Split is how one charge is divided between its recipients. The parts always
// sum to Amount.
type Split struct {
	Amount         sharedDomain.Amount `json:"amount"`
	MerchantAmount sharedDomain.Amount `json:"merchant_amount"`
	Compensation   sharedDomain.Amount `json:"compensation"`
	ProtocolFee    sharedDomain.Amount `json:"protocol_fee"`
}

// ValidateFeeRate checks that rate is within [0, FeeScale].
func ValidateFeeRate(rate sharedDomain.Amount) error {
	if rate.Cmp(FeeScale) > 0 {
		return ErrFeeRateTooHigh
	}
	return nil
}

// SplitCharge divides amount into the protocol fee (amount*feeRate/1e18,
// rounded down), the initiator's compensation and the merchant's remainder.
func SplitCharge(amount, compensation, feeRate sharedDomain.Amount) (Split, error) {
	if err := ValidateFeeRate(feeRate); err != nil {
		return Split{}, err
	}
	fee, err := amount.MulDiv(feeRate, FeeScale)
	if err != nil {
		return Split{}, err
	}
	deductions, err := compensation.Add(fee)
	if err != nil {
		return Split{}, err
	}
	if deductions.Cmp(amount) > 0 {
		return Split{}, fmt.Errorf("%w: compensation %s plus fee %s exceeds amount %s",
			sharedDomain.ErrInvalidCompensation, compensation, fee, amount)
	}
	merchant, err := amount.Sub(deductions)
	if err != nil {
		return Split{}, err
	}
	return Split{
		Amount:         amount,
		MerchantAmount: merchant,
		Compensation:   compensation,
		ProtocolFee:    fee,
	}, nil
}
