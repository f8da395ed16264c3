package logs

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

var ErrEntryNotFound = errors.New("log entry not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO pushup_log (id, user_id, count, created_at) VALUES ($1, $2, $3, $4);`,
		entry.ID, entry.UserID, entry.Count, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert log entry: %w", err)
	}

	span.SetAttributes(attribute.String("entry.id", entry.ID))
	return &entry, nil
}

func (r *Repo) ListAll(ctx context.Context, userID string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, count, created_at FROM pushup_log WHERE user_id = $1 ORDER BY created_at;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2entries(rows)
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM pushup_log WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// DeleteForDay removes all entries of the user that fall on the given local calendar day.
func (r *Repo) DeleteForDay(ctx context.Context, userID string, day time.Time) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.deleteForDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM pushup_log WHERE user_id = $1 AND created_at >= $2 AND created_at < $3;`,
		userID, dayStart, dayEnd,
	)
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func (r *Repo) Clear(ctx context.Context, userID string) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.clear")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM pushup_log WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func rows2entries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Count, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
