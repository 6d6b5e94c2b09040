package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("fee_not_found")
	ErrInvalidFeeKey       = errors.New("invalid_fee_key")
	ErrInvalidFeeAmount    = errors.New("invalid_fee_amount")
	ErrConflictingHSTFlags = errors.New("conflicting_hst_flags")
	ErrDuplicateFeeKey     = errors.New("duplicate_fee_key")
)
