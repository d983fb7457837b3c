package progress

import (
	"github.com/2beens/healthtracker/internal/session"
)

// DisplayProgress reconstructs the progress of a stored report for charts.
// Unlike session.Calculate it looks only at the report: a category is active
// when its section is present, and meditation counts as fully done or not
// done at all based on its stored status. Stored points are not trusted here.
func DisplayProgress(report session.Report) int {
	var (
		active int
		ratios []float64
	)

	if len(report.Physical) > 0 {
		active++
		ratios = append(ratios, completedShare(report.Physical))
	}
	if len(report.Yoga) > 0 {
		active++
		ratios = append(ratios, completedShare(report.Yoga))
	}
	if m := report.Meditation; m != nil && m.Status != session.MeditationNotPlanned {
		active++
		if m.Status == session.MeditationCompleted {
			ratios = append(ratios, 1)
		} else {
			ratios = append(ratios, 0)
		}
	}

	if active == 0 {
		return 0
	}

	weight := 100.0 / float64(active)
	total := 0.0
	for _, ratio := range ratios {
		total += weight * ratio
	}
	return session.FloorPercent(total)
}

func completedShare(items []session.ItemReport) float64 {
	completed := 0
	for _, item := range items {
		if item.Status == session.StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(items))
}
