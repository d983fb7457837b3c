package progress

import (
	"testing"

	"github.com/2beens/healthtracker/internal/session"

	"github.com/stretchr/testify/assert"
)

func items(completed, other int) []session.ItemReport {
	var out []session.ItemReport
	for range completed {
		out = append(out, session.ItemReport{Name: "done", Status: session.StatusCompleted})
	}
	for range other {
		out = append(out, session.ItemReport{Name: "skipped", Status: session.StatusSkipped})
	}
	return out
}

func TestDisplayProgress(t *testing.T) {
	testCases := []struct {
		name   string
		report session.Report
		want   int
	}{
		{
			name: "empty report",
			want: 0,
		},
		{
			name:   "physical only",
			report: session.Report{Physical: items(3, 1)},
			want:   75,
		},
		{
			name:   "physical and yoga",
			report: session.Report{Physical: items(2, 0), Yoga: items(1, 1)},
			want:   75,
		},
		{
			name: "meditation completed counts fully",
			report: session.Report{
				Physical:   items(1, 1),
				Meditation: &session.MeditationReport{PlannedMinutes: 10, SpentMinutes: 10, Status: session.MeditationCompleted},
			},
			want: 75,
		},
		{
			name: "partial meditation counts as nothing",
			report: session.Report{
				Physical:   items(2, 0),
				Meditation: &session.MeditationReport{PlannedMinutes: 10, SpentMinutes: 9, Status: session.MeditationPartial},
			},
			want: 50,
		},
		{
			name: "not planned meditation is not active",
			report: session.Report{
				Physical:   items(2, 0),
				Meditation: &session.MeditationReport{Status: session.MeditationNotPlanned},
			},
			want: 100,
		},
		{
			name: "three categories all done",
			report: session.Report{
				Physical:   items(3, 0),
				Yoga:       items(2, 0),
				Meditation: &session.MeditationReport{Status: session.MeditationCompleted},
			},
			want: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayProgress(tc.report))
		})
	}
}

func TestDisplayProgress_DiffersFromSubmissionScore(t *testing.T) {
	// at submission the minutes ratio gives 95, the chart shows 50
	report := session.Report{
		Physical:   items(2, 0),
		Meditation: &session.MeditationReport{PlannedMinutes: 10, SpentMinutes: 9, Status: session.MeditationPartial},
	}
	assert.Equal(t, 50, DisplayProgress(report))
}
