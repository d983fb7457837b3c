package session

import (
	"fmt"
	"math"

	"github.com/2beens/healthtracker/internal/plan"
)

// SkipAllowance is the share of skippable plan items a user may skip in one session.
const SkipAllowance = 0.25

// MaxSkips returns how many items may be skipped out of totalSkippable.
// Up to three skippable items nothing can be skipped.
func MaxSkips(totalSkippable int) int {
	return int(math.Floor(float64(totalSkippable) * SkipAllowance))
}

// ValidateReport checks the skip limit of a report against the plan.
// Meditation has no skip state and never counts toward the limit.
func ValidateReport(p *plan.Plan, report *Report) error {
	totalSkippable := p.Count(plan.CategoryPhysical) + p.Count(plan.CategoryYoga)
	if totalSkippable == 0 || report == nil {
		return nil
	}

	skipped := countStatus(report.Physical, StatusSkipped) + countStatus(report.Yoga, StatusSkipped)
	if maxSkips := MaxSkips(totalSkippable); skipped > maxSkips {
		return fmt.Errorf("%w: skipped %d of %d, allowed %d", ErrSkipLimitExceeded, skipped, totalSkippable, maxSkips)
	}

	return nil
}
