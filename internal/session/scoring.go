package session

import (
	"math"

	"github.com/2beens/healthtracker/internal/plan"
)

const (
	// MinSaveProgress is the lowest progress a session can be saved with.
	MinSaveProgress = 50

	scoreEpsilon = 1e-9
)

type Score struct {
	Progress int `json:"progress"`
	Points   int `json:"points"`
}

// Saveable reports whether the score reaches the save threshold.
func (s Score) Saveable() bool {
	return s.Progress >= MinSaveProgress
}

// Calculate scores a validated report against the user's plan.
// Active categories come from the plan, never from the report, and each
// active category carries an equal weight. Meditation is scored by the
// ratio of spent to planned minutes.
func Calculate(p *plan.Plan, report *Report) Score {
	if report == nil {
		report = &Report{}
	}

	var active []plan.Category
	for _, c := range []plan.Category{plan.CategoryPhysical, plan.CategoryYoga, plan.CategoryMeditation} {
		if p.Count(c) > 0 {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return Score{}
	}

	weight := 100.0 / float64(len(active))
	total := 0.0
	for _, c := range active {
		switch c {
		case plan.CategoryPhysical:
			total += weight * completedRatio(report.Physical)
		case plan.CategoryYoga:
			total += weight * completedRatio(report.Yoga)
		case plan.CategoryMeditation:
			total += weight * MeditationRatio(report.Meditation)
		}
	}

	progress := FloorPercent(total)
	return Score{
		Progress: progress,
		Points:   progress,
	}
}

// completedRatio is measured against the report section, so an empty
// section of an active category contributes nothing.
func completedRatio(items []ItemReport) float64 {
	if len(items) == 0 {
		return 0
	}
	return float64(countStatus(items, StatusCompleted)) / float64(len(items))
}

// MeditationRatio returns spent/planned minutes clamped to [0, 1].
// Non-positive planned minutes yield 0.
func MeditationRatio(m *MeditationReport) float64 {
	if m == nil || m.PlannedMinutes <= 0 {
		return 0
	}
	ratio := float64(m.SpentMinutes) / float64(m.PlannedMinutes)
	return math.Max(0, math.Min(1, ratio))
}

// DeriveMeditationStatus computes the stored meditation status from the
// minutes ratio, so history never depends on a client supplied status.
func DeriveMeditationStatus(p *plan.Plan, m *MeditationReport) MeditationStatus {
	if p.Count(plan.CategoryMeditation) == 0 {
		return MeditationNotPlanned
	}
	ratio := MeditationRatio(m)
	switch {
	case ratio >= 1-scoreEpsilon:
		return MeditationCompleted
	case ratio > 0:
		return MeditationPartial
	default:
		return MeditationSkipped
	}
}

// FloorPercent floors v to an integer percentage in [0, 100]. The epsilon
// keeps values like 74.99999999 from losing a point to float noise.
func FloorPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	floored := int(math.Floor(v + scoreEpsilon))
	return max(0, min(100, floored))
}
