package ports

import (
	"context"

	"harvest/internal/domain"
)

// SiteRegistrar accepts operator-supplied domain names and starts collection.
type SiteRegistrar interface {
	Register(ctx context.Context, raw string) (dom domain.Domain, created bool, err error)
}

// Dispatcher exposes the operator actions on collector records. Launches are
// fire-and-forget; completion is observable only through the record's status.
type Dispatcher interface {
	LaunchNew(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error)
	Relaunch(ctx context.Context, id int64) error
	ToggleEnabled(ctx context.Context, id int64) error
	RequestStop(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Collector, error)
}
