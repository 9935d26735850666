package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"harvest/internal/domain"
)

type DomainRepo struct {
	db *DB
}

func (r *DomainRepo) GetOrCreate(ctx context.Context, name string) (domain.Domain, bool, error) {
	name = strings.ToLower(name)
	var d domain.Domain
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO domains (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, created_at
	`, name).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Domain{}, false, err
	}

	err = r.db.Pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM domains WHERE name = $1
	`, name).Scan(&d.ID, &d.Name, &d.CreatedAt)
	return d, false, err
}

type ContactRepo struct {
	db *DB
}

func (r *ContactRepo) GetOrCreate(ctx context.Context, c domain.Contact) error {
	return getOrCreateContact(ctx, r.db.Pool, c)
}

// SaveBatch runs get-or-create for every contact in one transaction, so a
// finished crawl persists all of its findings or none of them.
func (r *ContactRepo) SaveBatch(ctx context.Context, contacts []domain.Contact) (err error) {
	if len(contacts) == 0 {
		return nil
	}
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	for _, c := range contacts {
		if err = getOrCreateContact(ctx, tx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContactRepo) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, domain_id, email, phone, source_collector_id, created_at
		FROM contacts
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.DomainID, &c.Email, &c.Phone, &c.SourceCollectorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// getOrCreateContact inserts unless a row with the same
// (domain, email, phone, source_collector) tuple already exists. NULL-safe on
// every nullable column.
func getOrCreateContact(ctx context.Context, q querier, c domain.Contact) error {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contacts
			WHERE domain_id = $1
			  AND email IS NOT DISTINCT FROM $2
			  AND phone IS NOT DISTINCT FROM $3
			  AND source_collector_id IS NOT DISTINCT FROM $4
		)
	`, c.DomainID, c.Email, c.Phone, c.SourceCollectorID).Scan(&exists)
	if err != nil || exists {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO contacts (domain_id, email, phone, source_collector_id)
		VALUES ($1, $2, $3, $4)
	`, c.DomainID, c.Email, c.Phone, c.SourceCollectorID)
	return err
}
