package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/pushuppal/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ EarnedStore = (*EarnedRepo)(nil)

type EarnedRepo struct {
	db *pgxpool.Pool
}

func NewEarnedRepo(db *pgxpool.Pool) *EarnedRepo {
	return &EarnedRepo{
		db: db,
	}
}

func (r *EarnedRepo) ListEarned(ctx context.Context, userID string) (_ []Earned, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.listEarned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT badge_id, earned_at FROM earned_badge WHERE user_id = $1 ORDER BY earned_at;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2earned(rows)
}

func (r *EarnedRepo) UpsertEarned(ctx context.Context, userID, badgeID string, earnedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.upsertEarned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("badge.id", badgeID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO earned_badge (user_id, badge_id, earned_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, badge_id) DO NOTHING;`,
		userID, badgeID, earnedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert earned badge: %w", err)
	}
	return nil
}

func (r *EarnedRepo) DeleteEarned(ctx context.Context, userID, badgeID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.deleteEarned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("badge.id", badgeID))

	_, err = r.db.Exec(
		ctx,
		`DELETE FROM earned_badge WHERE user_id = $1 AND badge_id = $2;`,
		userID, badgeID,
	)
	if err != nil {
		return fmt.Errorf("delete earned badge: %w", err)
	}
	return nil
}

func rows2earned(rows pgx.Rows) ([]Earned, error) {
	var earned []Earned
	for rows.Next() {
		var e Earned
		if err := rows.Scan(&e.BadgeID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		earned = append(earned, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return earned, nil
}
