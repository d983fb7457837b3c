package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// PsqlStore keeps profiles and records in PostgreSQL. The per user atomic
// scope is a transaction holding the row lock of the user profile.
type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

func (s *PsqlStore) Update(ctx context.Context, userID int64, fn func(ctx context.Context, tx Tx) error) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// make sure the profile row exists, then lock it for the rest of the tx
	if _, err = tx.Exec(ctx, `
		INSERT INTO user_profile (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	profile, err := scanProfile(tx.QueryRow(ctx, `
		SELECT user_id, points, streak, last_activity, last_session_date
		FROM user_profile
		WHERE user_id = $1
		FOR UPDATE
	`, userID))
	if err != nil {
		return fmt.Errorf("lock profile: %w", err)
	}

	return fn(ctx, &psqlTx{
		tx:      tx,
		userID:  userID,
		profile: profile,
	})
}

func (s *PsqlStore) GetProfile(ctx context.Context, userID int64) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.get-profile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile, err := scanProfile(s.db.QueryRow(ctx, `
		SELECT user_id, points, streak, last_activity, last_session_date
		FROM user_profile
		WHERE user_id = $1
	`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *PsqlStore) GetRecord(ctx context.Context, userID int64, day time.Time) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.get-record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return getRecord(ctx, s.db, userID, day)
}

func (s *PsqlStore) ListRecords(ctx context.Context, userID int64, from, to time.Time) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.list-records")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("from", FormatDay(from)),
		attribute.String("to", FormatDay(to)),
	)

	rows, err := s.db.Query(ctx, `
		SELECT user_id, day, report, points, created_at, updated_at
		FROM session_record
		WHERE user_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *PsqlStore) ListProfiles(ctx context.Context) (_ []Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.list-profiles")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `
		SELECT user_id, points, streak, last_activity, last_session_date
		FROM user_profile
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

type psqlTx struct {
	tx      pgx.Tx
	userID  int64
	profile *Profile
}

func (t *psqlTx) Profile(_ context.Context) (*Profile, error) {
	cloned := cloneProfile(*t.profile)
	return &cloned, nil
}

func (t *psqlTx) SaveProfile(ctx context.Context, profile *Profile) error {
	if _, err := t.tx.Exec(ctx, `
		UPDATE user_profile
		SET points = $2, streak = $3, last_activity = $4, last_session_date = $5
		WHERE user_id = $1
	`, t.userID, profile.Points, profile.Streak, profile.LastActivity, profile.LastSessionDate); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	cloned := cloneProfile(*profile)
	cloned.UserID = t.userID
	t.profile = &cloned
	return nil
}

func (t *psqlTx) GetRecord(ctx context.Context, day time.Time) (*Record, error) {
	return getRecord(ctx, t.tx, t.userID, day)
}

func (t *psqlTx) LatestRecordBefore(ctx context.Context, day time.Time) (*Record, error) {
	record, err := scanRecord(t.tx.QueryRow(ctx, `
		SELECT user_id, day, report, points, created_at, updated_at
		FROM session_record
		WHERE user_id = $1 AND day < $2
		ORDER BY day DESC
		LIMIT 1
	`, t.userID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("latest record before %s: %w", FormatDay(day), err)
	}
	return record, nil
}

func (t *psqlTx) UpsertRecord(ctx context.Context, record *Record) error {
	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `
		INSERT INTO session_record (user_id, day, report, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO UPDATE
		SET report = EXCLUDED.report, points = EXCLUDED.points, updated_at = EXCLUDED.updated_at
	`, t.userID, record.Day, reportJSON, record.Points, record.CreatedAt, record.UpdatedAt); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (t *psqlTx) DeleteRecord(ctx context.Context, day time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM session_record WHERE user_id = $1 AND day = $2
	`, t.userID, day)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRecord(ctx context.Context, q querier, userID int64, day time.Time) (*Record, error) {
	record, err := scanRecord(q.QueryRow(ctx, `
		SELECT user_id, day, report, points, created_at, updated_at
		FROM session_record
		WHERE user_id = $1 AND day = $2
	`, userID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get record %s: %w", FormatDay(day), err)
	}
	return record, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		record     Record
		reportJSON []byte
	)
	if err := row.Scan(
		&record.UserID,
		&record.Day,
		&reportJSON,
		&record.Points,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(reportJSON, &record.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &record, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var profile Profile
	if err := row.Scan(
		&profile.UserID,
		&profile.Points,
		&profile.Streak,
		&profile.LastActivity,
		&profile.LastSessionDate,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
