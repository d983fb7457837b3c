package progress

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/2beens/healthtracker/internal/session"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DailyEntries   = 30
	WeeklyEntries  = 12
	MonthlyEntries = 12

	// MaxWindowDays bounds how far back records are read.
	MaxWindowDays = 365

	maxDisplayPoints = 100
)

// Point is one chart entry. Date is the bucket start (a day, a week's Monday
// or the first of a month).
type Point struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Progress int    `json:"progress"`
	Points   int    `json:"points"`
}

type Series struct {
	Today   string  `json:"today"`
	Daily   []Point `json:"daily"`
	Weekly  []Point `json:"weekly"`
	Monthly []Point `json:"monthly"`
}

type recordLister interface {
	ListRecords(ctx context.Context, userID int64, from, to time.Time) ([]session.Record, error)
}

type Aggregator struct {
	records recordLister
	cache   *Cache
	today   func() time.Time
}

// NewAggregator creates an aggregator reading records through lister. cache may be nil.
func NewAggregator(lister recordLister, cache *Cache, today func() time.Time) *Aggregator {
	return &Aggregator{
		records: lister,
		cache:   cache,
		today:   today,
	}
}

// Series returns the daily, weekly and monthly series of the user ending today.
func (a *Aggregator) Series(ctx context.Context, userID int64) (_ *Series, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.series")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	today := a.today()
	if a.cache != nil {
		if series, ok := a.cache.Get(userID, today); ok {
			span.SetAttributes(attribute.Bool("cached", true))
			return series, nil
		}
	}

	var generation uint64
	if a.cache != nil {
		generation = a.cache.Generation(userID)
	}

	from, to := Window(today)
	records, err := a.records.ListRecords(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	log.Tracef("building progress series for user [%d] from %d records", userID, len(records))

	series := Build(records, today)
	if a.cache != nil {
		a.cache.Set(userID, generation, series)
	}
	return series, nil
}

// Window returns the range of days the series ending today need.
func Window(today time.Time) (time.Time, time.Time) {
	from := today.AddDate(0, 0, -(DailyEntries - 1))
	if weekly := weekStart(today).AddDate(0, 0, -7*(WeeklyEntries-1)); weekly.Before(from) {
		from = weekly
	}
	if monthly := monthStart(today).AddDate(0, -(MonthlyEntries - 1), 0); monthly.Before(from) {
		from = monthly
	}
	if limit := today.AddDate(0, 0, -MaxWindowDays); from.Before(limit) {
		from = limit
	}
	return from, today
}

type dayValue struct {
	progress int
	points   int
}

// Build buckets the records into fixed length series ending today, oldest
// first. Buckets without records are reported as zero entries.
func Build(records []session.Record, today time.Time) *Series {
	byDay := make(map[string]dayValue, len(records))
	for _, record := range records {
		if record.Day.After(today) {
			continue
		}
		byDay[session.FormatDay(record.Day)] = dayValue{
			progress: DisplayProgress(record.Report),
			points:   max(0, min(record.Points, maxDisplayPoints)),
		}
	}

	series := &Series{
		Today:   session.FormatDay(today),
		Daily:   make([]Point, 0, DailyEntries),
		Weekly:  make([]Point, 0, WeeklyEntries),
		Monthly: make([]Point, 0, MonthlyEntries),
	}

	for i := DailyEntries - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		v := byDay[session.FormatDay(d)]
		series.Daily = append(series.Daily, Point{
			Date:     session.FormatDay(d),
			Label:    d.Format("Jan 02"),
			Progress: v.progress,
			Points:   v.points,
		})
	}

	currentWeek := weekStart(today)
	for i := WeeklyEntries - 1; i >= 0; i-- {
		start := currentWeek.AddDate(0, 0, -7*i)
		point := bucket(byDay, start, start.AddDate(0, 0, 7))
		point.Date = session.FormatDay(start)
		point.Label = session.FormatDay(start)
		series.Weekly = append(series.Weekly, point)
	}

	currentMonth := monthStart(today)
	for i := MonthlyEntries - 1; i >= 0; i-- {
		start := currentMonth.AddDate(0, -i, 0)
		point := bucket(byDay, start, start.AddDate(0, 1, 0))
		point.Date = start.Format("2006-01")
		point.Label = start.Format("Jan 2006")
		series.Monthly = append(series.Monthly, point)
	}

	return series
}

// bucket aggregates the days in [start, end): average progress over the
// days with a record, and the sum of their points.
func bucket(byDay map[string]dayValue, start, end time.Time) Point {
	var (
		point         Point
		progressTotal int
		count         int
	)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		v, ok := byDay[session.FormatDay(d)]
		if !ok {
			continue
		}
		count++
		progressTotal += v.progress
		point.Points += v.points
	}
	if count > 0 {
		point.Progress = int(math.Round(float64(progressTotal) / float64(count)))
	}
	return point
}

// weekStart returns the Monday of the ISO week of day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}
