package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"harvest/internal/domain"
	"harvest/internal/ports"
)

type CollectorRepo struct {
	db *DB
}

const collectorColumns = `
	c.id, c.domain_id, d.name, c.type, c.status, c.enabled, c.stop_requested,
	c.started_at, c.finished_at, c.log`

func (r *CollectorRepo) Create(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO collectors (domain_id, type) VALUES ($1, $2)
		RETURNING id
	`, domainID, string(typ)).Scan(&id)
	if err != nil {
		return domain.Collector{}, err
	}
	return r.Get(ctx, id)
}

func (r *CollectorRepo) GetOrCreate(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, bool, error) {
	// The partial unique index on (domain_id, type) WHERE type = 'whois'
	// arbitrates the conflict; scraper inserts never hit it.
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO collectors (domain_id, type) VALUES ($1, $2)
		ON CONFLICT (domain_id, type) WHERE type = 'whois' DO NOTHING
		RETURNING id
	`, domainID, string(typ)).Scan(&id)
	if err == nil {
		col, err := r.Get(ctx, id)
		return col, true, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Collector{}, false, err
	}

	err = r.db.Pool.QueryRow(ctx, `
		SELECT c.id FROM collectors c
		WHERE c.domain_id = $1 AND c.type = $2
	`, domainID, string(typ)).Scan(&id)
	if err != nil {
		return domain.Collector{}, false, err
	}
	col, err := r.Get(ctx, id)
	return col, false, err
}

func (r *CollectorRepo) Get(ctx context.Context, id int64) (domain.Collector, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+collectorColumns+`
		FROM collectors c
		JOIN domains d ON d.id = c.domain_id
		WHERE c.id = $1
	`, id)
	return scanCollector(row)
}

func (r *CollectorRepo) MarkRunning(ctx context.Context, id int64) error {
	return r.exec(ctx, `
		UPDATE collectors
		SET status = 'running', started_at = now(), finished_at = NULL, stop_requested = FALSE
		WHERE id = $1
	`, id)
}

func (r *CollectorRepo) MarkFinished(ctx context.Context, id int64) error {
	return r.finalize(ctx, id, domain.StatusFinished)
}

func (r *CollectorRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.finalize(ctx, id, domain.StatusFailed)
}

func (r *CollectorRepo) MarkStopped(ctx context.Context, id int64) error {
	return r.finalize(ctx, id, domain.StatusStopped)
}

func (r *CollectorRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.exec(ctx, `UPDATE collectors SET enabled = $2 WHERE id = $1`, id, enabled)
}

func (r *CollectorRepo) RequestStop(ctx context.Context, id int64) error {
	// Optimistic stop: the stopped status lands before the engine exits.
	return r.exec(ctx, `
		UPDATE collectors SET stop_requested = TRUE, status = 'stopped' WHERE id = $1
	`, id)
}

func (r *CollectorRepo) AppendLog(ctx context.Context, id int64, message string) error {
	// Field-level atomic append; concurrent writers never lose lines.
	line := domain.LogLine(time.Now(), message)
	return r.exec(ctx, `UPDATE collectors SET log = log || $2 WHERE id = $1`, id, line)
}

func (r *CollectorRepo) List(ctx context.Context) ([]domain.Collector, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+collectorColumns+`
		FROM collectors c
		JOIN domains d ON d.id = c.domain_id
		ORDER BY c.started_at DESC NULLS FIRST, c.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Collector
	for rows.Next() {
		col, err := scanCollector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

func (r *CollectorRepo) AnyEnabled(ctx context.Context, typ domain.CollectorType) (bool, error) {
	var total, enabled int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE enabled)
		FROM collectors WHERE type = $1
	`, string(typ)).Scan(&total, &enabled)
	if err != nil {
		return false, err
	}
	return total == 0 || enabled > 0, nil
}

func (r *CollectorRepo) finalize(ctx context.Context, id int64, status domain.CollectorStatus) error {
	return r.exec(ctx, `
		UPDATE collectors SET status = $2, finished_at = now() WHERE id = $1
	`, id, string(status))
}

func (r *CollectorRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanCollector(row pgx.Row) (domain.Collector, error) {
	var c domain.Collector
	var typ, status string
	err := row.Scan(&c.ID, &c.DomainID, &c.DomainName, &typ, &status, &c.Enabled,
		&c.StopRequested, &c.StartedAt, &c.FinishedAt, &c.Log)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Collector{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Collector{}, err
	}
	c.Type = domain.CollectorType(typ)
	c.Status = domain.CollectorStatus(status)
	return c, nil
}
