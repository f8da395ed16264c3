package prestige

import (
	"context"
	"errors"
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

// Get returns the stored prestige level of the user, MinLevel if none stored.
func (r *Repo) Get(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.prestige.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	var level int
	err = r.db.QueryRow(
		ctx,
		`SELECT level FROM prestige WHERE user_id = $1;`,
		userID,
	).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MinLevel, nil
		}
		return 0, err
	}

	return level, nil
}

func (r *Repo) Set(ctx context.Context, userID string, level int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.prestige.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("level", level),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO prestige (user_id, level, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id)
			DO UPDATE SET level = EXCLUDED.level, updated_at = EXCLUDED.updated_at;`,
		userID, level, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert prestige: %w", err)
	}

	return nil
}
