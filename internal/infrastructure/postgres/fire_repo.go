package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FireRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewFireRepository(pool *pgxpool.Pool, logger *slog.Logger) *FireRepository {
	return &FireRepository{pool: pool, logger: logger.With("component", "fire_repo")}
}

const fireColumns = `id, current_jittered_target, current_standard_target, next_jittered_target,
		       actual_fire_time, next_standard_target, skipped_slots, recorded_at`

// Record inserts a fire event. Re-delivering the same event is a no-op.
func (r *FireRepository) Record(ctx context.Context, ev domain.FireEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fire_events (
			id, current_jittered_target, current_standard_target, next_jittered_target,
			actual_fire_time, next_standard_target, skipped_slots
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.CurrentJitteredTarget, ev.CurrentStandardTarget, ev.NextJitteredTarget,
		ev.ActualFireTime, ev.NextStandardTarget, ev.SkippedSlots,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("fire event already recorded, skipping", "fire_id", ev.ID)
			return nil
		}
		return fmt.Errorf("record fire event: %w", err)
	}
	return nil
}

func (r *FireRepository) GetByID(ctx context.Context, id string) (*domain.FireRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fireColumns+` FROM fire_events WHERE id = $1`, id)
	return scanFire(row)
}

func (r *FireRepository) List(ctx context.Context, input repository.ListFiresInput) ([]*domain.FireRecord, error) {
	var args []any
	where := []string{"TRUE"}

	if input.Since != nil {
		args = append(args, *input.Since)
		where = append(where, fmt.Sprintf("actual_fire_time >= $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(actual_fire_time, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM fire_events
		WHERE %s
		ORDER BY actual_fire_time DESC, id DESC
		LIMIT $%d`,
		fireColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fire events: %w", err)
	}
	defer rows.Close()

	var fires []*domain.FireRecord
	for rows.Next() {
		f, err := scanFire(rows)
		if err != nil {
			return nil, err
		}
		fires = append(fires, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fire events: %w", err)
	}
	return fires, nil
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFire(row rowScanner) (*domain.FireRecord, error) {
	var f domain.FireRecord
	err := row.Scan(
		&f.ID, &f.CurrentJitteredTarget, &f.CurrentStandardTarget, &f.NextJitteredTarget,
		&f.ActualFireTime, &f.NextStandardTarget, &f.SkippedSlots, &f.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFireNotFound
		}
		return nil, fmt.Errorf("scan fire event: %w", err)
	}
	return &f, nil
}
