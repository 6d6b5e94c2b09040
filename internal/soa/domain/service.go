package domain

import (
	"context"

	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/shopspring/decimal"
)

// UploadRequest carries the totals of a lawyer-prepared statement. The
// uploaded figures supersede the calculated ones until the next
// recalculation.
type UploadRequest struct {
	TotalVendorCredits    decimal.Decimal `json:"total_vendor_credits"`
	TotalPurchaserCredits decimal.Decimal `json:"total_purchaser_credits"`
	BalanceDueOnClosing   decimal.Decimal `json:"balance_due_on_closing"`
	CashRequiredToClose   decimal.Decimal `json:"cash_required_to_close"`
}

type Service interface {
	// Get returns the current statement for a unit, or ErrNotFound when
	// none has been calculated yet.
	Get(ctx context.Context, unitID string) (*Statement, error)

	// Recalculate recomputes the statement in place without attribution.
	// It leaves no version row; use it for previews and bulk refreshes.
	Recalculate(ctx context.Context, unitID string) (*Statement, error)

	// RecalculateAndRecord recomputes the statement and appends an
	// attributed version row in the same transaction.
	RecalculateAndRecord(ctx context.Context, unitID string, actor auditdomain.Actor) (*Statement, error)

	// Confirm registers one party's sign-off on the current figures.
	Confirm(ctx context.Context, unitID string, role ConfirmRole, actor auditdomain.Actor) (*Statement, error)

	// Lock freezes the statement. The second return is false when the
	// confirmations required for locking are not yet on record.
	Lock(ctx context.Context, unitID string, actor auditdomain.Actor) (*Statement, bool, error)

	// Unlock reopens a statement and clears both confirmations. The
	// reason lands in the audit trail; unlocking is always privileged.
	Unlock(ctx context.Context, unitID string, actor auditdomain.Actor, reason string) (*Statement, error)

	// RecordUpload stores lawyer-prepared totals as a new version.
	RecordUpload(ctx context.Context, unitID string, actor auditdomain.Actor, req UploadRequest) (*Statement, error)

	// ListVersions returns the unit's version history, newest first.
	ListVersions(ctx context.Context, unitID string) ([]StatementVersion, error)
}
