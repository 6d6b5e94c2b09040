package domain

import "errors"

var (
	ErrNotFound          = errors.New("project_not_found")
	ErrFinancialsMissing = errors.New("project_financials_missing")
	ErrInvalidName       = errors.New("invalid_project_name")
	ErrSummaryNotFound   = errors.New("project_summary_not_found")
)
