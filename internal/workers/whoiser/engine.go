// Package whoiser drives a whois-type collector through a single registry
// lookup, normalizing the response's contact fields into stored contacts.
package whoiser

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"harvest/internal/domain"
	"harvest/internal/extract"
	"harvest/internal/ports"
)

type Engine struct {
	collectors ports.CollectorRepository
	contacts   ports.ContactRepository
	client     ports.WhoisClient
}

func New(collectors ports.CollectorRepository, contacts ports.ContactRepository, client ports.WhoisClient) *Engine {
	return &Engine{collectors: collectors, contacts: contacts, client: client}
}

// Run drives one collector to a terminal status. There is no retry and no
// cancellation point: the lookup runs to completion or failure regardless of
// a stop request.
func (e *Engine) Run(ctx context.Context, collectorID int64) {
	col, err := e.collectors.Get(ctx, collectorID)
	if err != nil {
		log.Error().Err(err).Int64("collector_id", collectorID).Msg("whois collector load failed")
		return
	}
	if !col.Enabled {
		return
	}

	if err := e.collectors.MarkRunning(ctx, collectorID); err != nil {
		log.Error().Err(err).Int64("collector_id", collectorID).Msg("whois collector could not start")
		return
	}

	name := strings.TrimSpace(col.DomainName)
	e.appendLog(ctx, collectorID, fmt.Sprintf("WHOIS collector started for %s", name))

	rec, err := e.client.Lookup(ctx, name)
	if err != nil {
		e.appendLog(ctx, collectorID, fmt.Sprintf("WHOIS lookup failed: %v", err))
		e.markFailed(ctx, collectorID)
		return
	}

	if err := e.process(ctx, col, rec); err != nil {
		// Distinct from the lookup-failure path: the query succeeded, the
		// handling of its result did not.
		e.appendLog(ctx, collectorID, fmt.Sprintf("WHOIS processing failed: %v", err))
		e.markFailed(ctx, collectorID)
	}
}

func (e *Engine) process(ctx context.Context, col domain.Collector, rec ports.WhoisRecord) error {
	emails := extract.Normalize(rec.Emails)
	phones := extract.Normalize(rec.Phones)

	e.appendLog(ctx, col.ID, fmt.Sprintf("WHOIS found %d emails and %d phones.", len(emails), len(phones)))

	for _, v := range emails {
		if err := e.contacts.GetOrCreate(ctx, domain.EmailContact(col.DomainID, v, col.ID)); err != nil {
			return err
		}
	}
	for _, v := range phones {
		if err := e.contacts.GetOrCreate(ctx, domain.PhoneContact(col.DomainID, v, col.ID)); err != nil {
			return err
		}
	}

	if err := e.collectors.MarkFinished(ctx, col.ID); err != nil {
		return err
	}
	e.appendLog(ctx, col.ID, "WHOIS collector finished successfully.")
	return nil
}

func (e *Engine) markFailed(ctx context.Context, id int64) {
	if err := e.collectors.MarkFailed(ctx, id); err != nil {
		log.Error().Err(err).Int64("collector_id", id).Msg("could not record whois failure")
	}
}

func (e *Engine) appendLog(ctx context.Context, id int64, message string) {
	if err := e.collectors.AppendLog(ctx, id, message); err != nil {
		log.Warn().Err(err).Int64("collector_id", id).Msg("could not append collector log")
	}
}
