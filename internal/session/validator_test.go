package session

import (
	"errors"
	"testing"

	"github.com/2beens/healthtracker/internal/plan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(physical, yoga, meditation int) *plan.Plan {
	p := &plan.Plan{UserID: 1}
	for range physical {
		p.Items = append(p.Items, plan.Item{Name: "physical", Category: plan.CategoryPhysical, Value: 10, Unit: plan.UnitFrequency})
	}
	for range yoga {
		p.Items = append(p.Items, plan.Item{Name: "yoga", Category: plan.CategoryYoga, Value: 5, Unit: plan.UnitFrequency})
	}
	for range meditation {
		p.Items = append(p.Items, plan.Item{Name: "meditation", Category: plan.CategoryMeditation, Value: 10, Unit: plan.UnitMinutes})
	}
	return p
}

func items(completed, skipped int) []ItemReport {
	var out []ItemReport
	for range completed {
		out = append(out, ItemReport{Name: "done", Status: StatusCompleted})
	}
	for range skipped {
		out = append(out, ItemReport{Name: "skip", Status: StatusSkipped})
	}
	return out
}

func TestMaxSkips(t *testing.T) {
	for total, want := range map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 7: 1, 8: 2, 11: 2, 12: 3} {
		assert.Equal(t, want, MaxSkips(total), "total %d", total)
	}
}

func TestValidateReport_NothingSkippable(t *testing.T) {
	// only meditation in the plan, any report is accepted
	p := testPlan(0, 0, 1)
	for skipped := range 10 {
		report := &Report{Physical: items(0, skipped), Yoga: items(0, skipped)}
		assert.NoError(t, ValidateReport(p, report))
	}
	assert.NoError(t, ValidateReport(&plan.Plan{}, &Report{Physical: items(0, 3)}))
}

func TestValidateReport_SkipLimit(t *testing.T) {
	for physical := 0; physical <= 6; physical++ {
		for yoga := 0; yoga <= 6; yoga++ {
			total := physical + yoga
			if total == 0 {
				continue
			}
			p := testPlan(physical, yoga, 0)
			for skipped := 0; skipped <= total; skipped++ {
				skippedPhysical := min(skipped, physical)
				skippedYoga := skipped - skippedPhysical
				report := &Report{
					Physical: items(physical-skippedPhysical, skippedPhysical),
					Yoga:     items(yoga-skippedYoga, skippedYoga),
				}

				err := ValidateReport(p, report)
				if skipped > MaxSkips(total) {
					require.Error(t, err)
					assert.True(t, errors.Is(err, ErrSkipLimitExceeded))
				} else {
					assert.NoError(t, err)
				}
			}
		}
	}
}

func TestValidateReport_Cases(t *testing.T) {
	p := testPlan(4, 0, 0)
	assert.NoError(t, ValidateReport(p, &Report{Physical: items(3, 1)}))

	err := ValidateReport(p, &Report{Physical: items(2, 2)})
	assert.ErrorIs(t, err, ErrSkipLimitExceeded)
	reason, ok := RejectReason(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonSkipLimit, reason)

	// small plans allow no skip at all
	assert.ErrorIs(t, ValidateReport(testPlan(2, 1, 0), &Report{Yoga: items(0, 1)}), ErrSkipLimitExceeded)
}
