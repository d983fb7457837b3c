package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, plan *Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", plan.UserID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
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

	err = tx.QueryRow(ctx, `
		INSERT INTO exercise_plan (user_id, created_at)
		VALUES ($1, $2)
		RETURNING created_at
	`, plan.UserID, plan.CreatedAt).Scan(&plan.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrPlanExists
		}
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	for i, item := range plan.Items {
		if _, err = tx.Exec(ctx, `
			INSERT INTO plan_item (user_id, position, name, category, value, unit)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, plan.UserID, i, item.Name, item.Category, item.Value, item.Unit); err != nil {
			return nil, fmt.Errorf("insert plan item [%s]: %w", item.Name, err)
		}
	}

	return plan, nil
}

func (r *Repo) Get(ctx context.Context, userID int64) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	plan := &Plan{UserID: userID}
	err = r.db.QueryRow(ctx, `
		SELECT created_at FROM exercise_plan WHERE user_id = $1
	`, userID).Scan(&plan.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT name, category, value, unit
		FROM plan_item
		WHERE user_id = $1
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Name, &item.Category, &item.Value, &item.Unit); err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		plan.Items = append(plan.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *Repo) Delete(ctx context.Context, userID int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// plan items are removed by the cascade
	tag, err := r.db.Exec(ctx, `DELETE FROM exercise_plan WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}
