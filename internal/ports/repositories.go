package ports

import (
	"context"

	"harvest/internal/domain"
)

// ErrNotFound is returned by any repository when the requested record does
// not exist.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

// DomainRepository stores target domains keyed by their normalized name.
type DomainRepository interface {
	GetOrCreate(ctx context.Context, name string) (dom domain.Domain, created bool, err error)
}

// CollectorRepository manages collector records and their lifecycle fields.
// Partial-field updates (the Mark*/Set*/Append* methods) must each be atomic
// with respect to one another; disjoint writers rely on that.
type CollectorRepository interface {
	Create(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error)
	// GetOrCreate reuses an existing (domain, type) record; backs the
	// single whois lineage per domain.
	GetOrCreate(ctx context.Context, domainID int64, typ domain.CollectorType) (col domain.Collector, created bool, err error)
	// Get returns the record with the owning domain's name preloaded.
	Get(ctx context.Context, id int64) (domain.Collector, error)

	// MarkRunning transitions to running in one update: stamps started_at,
	// clears finished_at and stop_requested.
	MarkRunning(ctx context.Context, id int64) error
	MarkFinished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	MarkStopped(ctx context.Context, id int64) error

	SetEnabled(ctx context.Context, id int64, enabled bool) error
	// RequestStop sets stop_requested and optimistically writes the stopped
	// status before the engine has actually exited.
	RequestStop(ctx context.Context, id int64) error

	// AppendLog appends one timestamped line; the append is atomic at the
	// field level.
	AppendLog(ctx context.Context, id int64, message string) error

	// List orders newest-started first, never-started first of all, ties by
	// descending id.
	List(ctx context.Context) ([]domain.Collector, error)
	// AnyEnabled reports whether collectors of the type may start: true when
	// none exist yet, else true iff at least one is enabled.
	AnyEnabled(ctx context.Context, typ domain.CollectorType) (bool, error)
}

// ContactRepository persists discovered contacts with get-or-create semantics
// keyed on (domain, email, phone, source_collector).
type ContactRepository interface {
	GetOrCreate(ctx context.Context, c domain.Contact) error
	// SaveBatch runs get-or-create for every contact inside a single
	// transaction.
	SaveBatch(ctx context.Context, contacts []domain.Contact) error
	// List orders newest-created first.
	List(ctx context.Context) ([]domain.Contact, error)
}
