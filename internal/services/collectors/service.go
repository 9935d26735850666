// Package collectors is the dispatcher: the single entry point through which
// collector jobs are created, launched, enabled and stopped.
package collectors

import (
	"context"

	"github.com/rs/zerolog/log"

	"harvest/internal/domain"
	"harvest/internal/ports"
)

// Engine runs one collector to a terminal status. Implementations never
// return; outcomes surface only on the record.
type Engine interface {
	Run(ctx context.Context, collectorID int64)
}

type Service struct {
	// baseCtx outlives individual requests; spawned runs are tied to process
	// shutdown, not to the HTTP request that triggered them.
	baseCtx    context.Context
	collectors ports.CollectorRepository
	engines    map[domain.CollectorType]Engine
}

func New(baseCtx context.Context, collectors ports.CollectorRepository, scraperEngine, whoisEngine Engine) *Service {
	return &Service{
		baseCtx:    baseCtx,
		collectors: collectors,
		engines: map[domain.CollectorType]Engine{
			domain.TypeScraper: scraperEngine,
			domain.TypeWhois:   whoisEngine,
		},
	}
}

// LaunchNew creates (or, for whois, reuses) the collector record and starts
// its engine in the background. It returns immediately; completion is
// observable only by polling the record.
func (s *Service) LaunchNew(ctx context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error) {
	var col domain.Collector
	var err error

	if typ == domain.TypeWhois {
		// A domain keeps a single whois collector lineage.
		col, _, err = s.collectors.GetOrCreate(ctx, domainID, typ)
		if err != nil {
			return domain.Collector{}, err
		}
		if !col.Enabled {
			return col, nil
		}
	} else {
		col, err = s.collectors.Create(ctx, domainID, typ)
		if err != nil {
			return domain.Collector{}, err
		}
	}

	s.spawn(col)
	return col, nil
}

// Relaunch starts the engine against an existing record. No-op when the
// record is disabled.
func (s *Service) Relaunch(ctx context.Context, id int64) error {
	col, err := s.collectors.Get(ctx, id)
	if err != nil {
		return err
	}
	if !col.Enabled {
		return nil
	}
	s.spawn(col)
	return nil
}

// ToggleEnabled flips the enabled flag. Metadata only; it neither starts nor
// stops execution.
func (s *Service) ToggleEnabled(ctx context.Context, id int64) error {
	col, err := s.collectors.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.collectors.SetEnabled(ctx, id, !col.Enabled)
}

// RequestStop signals the running engine and optimistically marks the record
// stopped. A crawl notices the flag at its next iteration; a whois lookup in
// flight runs to completion regardless.
func (s *Service) RequestStop(ctx context.Context, id int64) error {
	return s.collectors.RequestStop(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Collector, error) {
	return s.collectors.List(ctx)
}

func (s *Service) spawn(col domain.Collector) {
	eng, ok := s.engines[col.Type]
	if !ok {
		log.Warn().Str("type", string(col.Type)).Int64("collector_id", col.ID).Msg("no engine for collector type")
		return
	}
	log.Info().Str("type", string(col.Type)).Int64("collector_id", col.ID).Str("domain", col.DomainName).Msg("collector launched")
	// Fire and forget. The record's own status field is the only tracking.
	go eng.Run(s.baseCtx, col.ID)
}
