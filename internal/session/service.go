package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthtracker/internal/plan"
	"github.com/2beens/healthtracker/internal/telemetry/metrics"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	StatusSaved    = "saved"
	StatusRejected = "rejected"
)

type planGetter interface {
	Get(ctx context.Context, userID int64) (*plan.Plan, error)
}

// ChangeListener is notified after a save or delete changed the profile of a user.
type ChangeListener interface {
	SessionChanged(ctx context.Context, profile Profile)
}

type SubmitResult struct {
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Progress    int    `json:"progress"`
	PointsAdded int    `json:"points_added"`
	Streak      int    `json:"streak"`
	TotalPoints int    `json:"total_points"`
	Restart     bool   `json:"restart,omitempty"`
}

func (r SubmitResult) Saved() bool {
	return r.Status == StatusSaved
}

type ProfileView struct {
	Profile
	Today      string `json:"today"`
	SavedToday bool   `json:"savedToday"`
}

type ServiceParams struct {
	Store          Store
	Plans          planGetter
	Clock          Clock
	Location       *time.Location
	StreakRule     StreakRule
	SameDayPolicy  SameDayPolicy
	MetricsManager *metrics.Manager
}

type Service struct {
	store          Store
	plans          planGetter
	clock          Clock
	loc            *time.Location
	streakRule     StreakRule
	sameDayPolicy  SameDayPolicy
	metricsManager *metrics.Manager
	listeners      []ChangeListener
}

func NewService(params ServiceParams) *Service {
	s := &Service{
		store:          params.Store,
		plans:          params.Plans,
		clock:          params.Clock,
		loc:            params.Location,
		streakRule:     params.StreakRule,
		sameDayPolicy:  params.SameDayPolicy,
		metricsManager: params.MetricsManager,
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.streakRule == "" {
		s.streakRule = StreakRuleCalendar
	}
	if s.sameDayPolicy == "" {
		s.sameDayPolicy = SameDayRestart
	}
	return s
}

func (s *Service) AddListener(listener ChangeListener) {
	s.listeners = append(s.listeners, listener)
}

// Today returns the current civil day in the configured timezone.
func (s *Service) Today() time.Time {
	return DayIn(s.clock.Now(), s.loc)
}

// Submit validates and scores the report, then saves it as today's session.
// Rejections are returned as a result, only infrastructure failures as errors.
// clientPoints is never used for scoring.
func (s *Service) Submit(ctx context.Context, userID int64, report Report, clientPoints *int) (_ SubmitResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.session.submit")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	userPlan, err := s.plans.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return s.rejected(userID, ErrNoPlan, 0), nil
		}
		return SubmitResult{}, fmt.Errorf("get plan: %w", err)
	}

	if err := ValidateReport(userPlan, &report); err != nil {
		return s.rejected(userID, err, 0), nil
	}

	normalizeMeditation(userPlan, &report)
	score := Calculate(userPlan, &report)
	s.metricsManager.HistogramSessionProgress.Observe(float64(score.Progress))

	if clientPoints != nil && *clientPoints != score.Points {
		log.Warnf("user [%d] sent %d points, computed %d, client value ignored", userID, *clientPoints, score.Points)
		s.metricsManager.CounterClientPointsIgnored.Inc()
	}

	if !score.Saveable() {
		return s.rejected(userID, fmt.Errorf("%w: %d < %d", ErrProgressTooLow, score.Progress, MinSaveProgress), score.Progress), nil
	}

	now := s.clock.Now()
	today := DayIn(now, s.loc)
	span.SetAttributes(attribute.String("day", FormatDay(today)))

	var (
		result  SubmitResult
		profile *Profile
	)
	err = s.store.Update(ctx, userID, func(ctx context.Context, tx Tx) error {
		var err error
		profile, err = tx.Profile(ctx)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		previous, err := tx.GetRecord(ctx, today)
		if err != nil {
			if !errors.Is(err, ErrRecordNotFound) {
				return fmt.Errorf("get today record: %w", err)
			}
			previous = nil
		}

		if (previous != nil || profile.SavedOn(today)) && s.sameDayPolicy == SameDayReject {
			return ErrAlreadySaved
		}

		outcome := ApplySave(profile, previous, score.Points, now, today, s.streakRule)

		record := &Record{
			UserID:    userID,
			Day:       today,
			Report:    report,
			Points:    score.Points,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if previous != nil {
			record.CreatedAt = previous.CreatedAt
		}
		if err := tx.UpsertRecord(ctx, record); err != nil {
			return err
		}
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}

		result = SubmitResult{
			Status:      StatusSaved,
			Progress:    score.Progress,
			PointsAdded: score.Points,
			Streak:      profile.Streak,
			TotalPoints: profile.Points,
			Restart:     outcome.Restart,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			return s.rejected(userID, err, score.Progress), nil
		}
		return SubmitResult{}, fmt.Errorf("save session: %w", err)
	}

	s.metricsManager.CounterSessionsSaved.Inc()
	if result.Restart {
		s.metricsManager.CounterSessionsRestarted.Inc()
	}
	log.Debugf(
		"user [%d] saved session for %s: progress %d, streak %d, total points %d, restart %t",
		userID, FormatDay(today), result.Progress, result.Streak, result.TotalPoints, result.Restart,
	)

	s.notify(ctx, *profile)
	return result, nil
}

func (s *Service) rejected(userID int64, err error, progress int) SubmitResult {
	reason, _ := RejectReason(err)
	s.metricsManager.CounterSessionsRejected.WithLabelValues(reason).Inc()
	log.Debugf("user [%d] session rejected: %s", userID, err)
	return SubmitResult{
		Status:   StatusRejected,
		Reason:   reason,
		Progress: progress,
	}
}

// normalizeMeditation replaces the client supplied meditation status with
// the one derived from the minutes ratio.
func normalizeMeditation(p *plan.Plan, report *Report) {
	if p.Count(plan.CategoryMeditation) > 0 && report.Meditation == nil {
		report.Meditation = &MeditationReport{}
	}
	if report.Meditation != nil {
		report.Meditation.Status = DeriveMeditationStatus(p, report.Meditation)
	}
}

// Delete removes today's session of the user and reverses its contribution.
func (s *Service) Delete(ctx context.Context, userID int64) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.session.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	today := s.Today()

	var profile *Profile
	err = s.store.Update(ctx, userID, func(ctx context.Context, tx Tx) error {
		var err error
		profile, err = tx.Profile(ctx)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		record, err := tx.GetRecord(ctx, today)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNoSessionForDate, FormatDay(today))
			}
			return fmt.Errorf("get today record: %w", err)
		}

		if err := tx.DeleteRecord(ctx, today); err != nil {
			return err
		}

		latest, err := tx.LatestRecordBefore(ctx, today)
		if err != nil {
			if !errors.Is(err, ErrRecordNotFound) {
				return fmt.Errorf("get latest record: %w", err)
			}
			latest = nil
		}

		ApplyDelete(profile, record, latest)
		return tx.SaveProfile(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, ErrNoSessionForDate) {
			return nil, err
		}
		return nil, fmt.Errorf("delete session: %w", err)
	}

	s.metricsManager.CounterSessionsDeleted.Inc()
	log.Debugf("user [%d] deleted session for %s: streak %d, total points %d", userID, FormatDay(today), profile.Streak, profile.Points)

	s.notify(ctx, *profile)
	return profile, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (_ *ProfileView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.session.profile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	today := s.Today()
	return &ProfileView{
		Profile:    *profile,
		Today:      FormatDay(today),
		SavedToday: profile.SavedOn(today),
	}, nil
}

func (s *Service) notify(ctx context.Context, profile Profile) {
	for _, listener := range s.listeners {
		listener.SessionChanged(ctx, profile)
	}
}
