package domain

import "errors"

var (
	ErrNotFound          = errors.New("unit_not_found")
	ErrPurchaserNotFound = errors.New("purchaser_not_found")
)
