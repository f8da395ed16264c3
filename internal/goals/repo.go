package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/pushuppal/internal/telemetry/tracing"

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

// Set stores the daily goal applying from the given start date. Setting a goal
// for a start date that already has one overwrites it.
func (r *Repo) Set(ctx context.Context, goal Goal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("goal.startDate", goal.StartDate),
		attribute.Int("goal.value", goal.Value),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO goal_history (user_id, start_date, value, changed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, start_date)
			DO UPDATE SET value = EXCLUDED.value, changed_at = EXCLUDED.changed_at;`,
		goal.UserID, goal.StartDate, goal.Value, goal.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}

	return nil
}

func (r *Repo) History(ctx context.Context, userID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, start_date, value, changed_at FROM goal_history WHERE user_id = $1 ORDER BY start_date;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2goals(rows)
}

func rows2goals(rows pgx.Rows) ([]Goal, error) {
	var history []Goal
	for rows.Next() {
		var goal Goal
		var startDate time.Time
		if err := rows.Scan(&goal.UserID, &startDate, &goal.Value, &goal.ChangedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		goal.StartDate = startDate.Format("2006-01-02")
		history = append(history, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
