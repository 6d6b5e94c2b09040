package domain

import (
	"context"
	"errors"

	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
)

type Service interface {
	// Analyze runs the classifier against the unit's current statement,
	// calculating one first when none exists, and persists the outcome.
	// The unit's status and recommendation are updated in the same
	// transaction.
	Analyze(ctx context.Context, unitID string) (*Analysis, error)

	// Get returns the most recent analysis for a unit.
	Get(ctx context.Context, unitID string) (*Analysis, error)
}

var ErrNotFound = errors.New("analysis_not_found")

// StatusFor maps a scenario onto the unit's operational status.
func StatusFor(sc Scenario) unitdomain.UnitStatus {
	switch sc {
	case ScenarioProceed:
		return unitdomain.StatusReadyToClose
	case ScenarioCloseWithDiscount:
		return unitdomain.StatusNeedsDiscount
	case ScenarioVTBSecondMortgage, ScenarioVTBFirstMortgage:
		return unitdomain.StatusNeedsVTB
	case ScenarioMutualRelease:
		return unitdomain.StatusMutualRelease
	default:
		return unitdomain.StatusAtRisk
	}
}
