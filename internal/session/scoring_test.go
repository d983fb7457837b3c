package session

import (
	"testing"

	"github.com/2beens/healthtracker/internal/plan"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_Cases(t *testing.T) {
	// 4 physical items, 3 completed
	score := Calculate(testPlan(4, 0, 0), &Report{Physical: items(3, 1)})
	assert.Equal(t, Score{Progress: 75, Points: 75}, score)
	assert.True(t, score.Saveable())

	// physical + yoga + meditation, each weighs a third
	score = Calculate(testPlan(2, 2, 1), &Report{
		Physical:   items(2, 0),
		Yoga:       items(1, 1),
		Meditation: &MeditationReport{PlannedMinutes: 10, SpentMinutes: 5},
	})
	// 33.33 + 16.67 + 16.67 = 66.67
	assert.Equal(t, 66, score.Progress)
	assert.Equal(t, score.Progress, score.Points)

	// everything done in three categories must not lose a point to float noise
	score = Calculate(testPlan(3, 3, 1), &Report{
		Physical:   items(3, 0),
		Yoga:       items(3, 0),
		Meditation: &MeditationReport{PlannedMinutes: 10, SpentMinutes: 10},
	})
	assert.Equal(t, 100, score.Progress)
}

func TestCalculate_ActiveCategoriesFromPlan(t *testing.T) {
	// the report claims yoga, but the plan has none: physical weighs 100
	score := Calculate(testPlan(2, 0, 0), &Report{
		Physical: items(1, 1),
		Yoga:     items(5, 0),
	})
	assert.Equal(t, 50, score.Progress)

	// an empty section of an active category counts as nothing done
	score = Calculate(testPlan(2, 2, 0), &Report{Physical: items(2, 0)})
	assert.Equal(t, 50, score.Progress)
	assert.False(t, Score{Progress: 49}.Saveable())

	// no plan items at all
	assert.Equal(t, Score{}, Calculate(&plan.Plan{}, &Report{Physical: items(3, 0)}))
	assert.Equal(t, Score{}, Calculate(nil, nil))
}

func TestCalculate_Meditation(t *testing.T) {
	p := testPlan(0, 0, 1)
	for _, tc := range []struct {
		planned, spent Minutes
		want           int
	}{
		{10, 10, 100},
		{10, 25, 100},
		{10, 3, 30},
		{10, -5, 0},
		{0, 10, 0},
		{-1, 10, 0},
		{3, 1, 33},
	} {
		score := Calculate(p, &Report{Meditation: &MeditationReport{PlannedMinutes: tc.planned, SpentMinutes: tc.spent}})
		assert.Equal(t, tc.want, score.Progress, "planned %v spent %v", tc.planned, tc.spent)
	}

	assert.Equal(t, 0, Calculate(p, &Report{}).Progress)
}

func TestCalculate_ProgressAlwaysInRange(t *testing.T) {
	faker := gofakeit.New(42)
	for range 500 {
		p := testPlan(faker.Number(0, 6), faker.Number(0, 6), faker.Number(0, 1))
		report := &Report{
			Physical: items(faker.Number(0, 6), faker.Number(0, 6)),
			Yoga:     items(faker.Number(0, 6), faker.Number(0, 6)),
			Meditation: &MeditationReport{
				PlannedMinutes: Minutes(faker.Float64Range(-10, 60)),
				SpentMinutes:   Minutes(faker.Float64Range(-10, 120)),
			},
		}

		score := Calculate(p, report)
		assert.GreaterOrEqual(t, score.Progress, 0)
		assert.LessOrEqual(t, score.Progress, 100)
		assert.Equal(t, score.Progress, score.Points)
		if len(p.Items) == 0 {
			assert.Zero(t, score.Progress)
		}
	}
}

func TestDeriveMeditationStatus(t *testing.T) {
	withMeditation := testPlan(1, 0, 1)
	assert.Equal(t, MeditationCompleted, DeriveMeditationStatus(withMeditation, &MeditationReport{PlannedMinutes: 10, SpentMinutes: 12}))
	assert.Equal(t, MeditationPartial, DeriveMeditationStatus(withMeditation, &MeditationReport{PlannedMinutes: 10, SpentMinutes: 2}))
	assert.Equal(t, MeditationSkipped, DeriveMeditationStatus(withMeditation, &MeditationReport{PlannedMinutes: 10}))
	assert.Equal(t, MeditationSkipped, DeriveMeditationStatus(withMeditation, nil))
	assert.Equal(t, MeditationNotPlanned, DeriveMeditationStatus(testPlan(1, 0, 0), &MeditationReport{PlannedMinutes: 10, SpentMinutes: 10}))
}

func TestFloorPercent(t *testing.T) {
	assert.Equal(t, 75, FloorPercent(74.9999999999))
	assert.Equal(t, 74, FloorPercent(74.99))
	assert.Equal(t, 0, FloorPercent(-3))
	assert.Equal(t, 100, FloorPercent(100.4))
	assert.Equal(t, 33, FloorPercent(100.0/3))
}
