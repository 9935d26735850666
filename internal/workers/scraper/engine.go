// Package scraper drives a scraper-type collector through a bounded BFS crawl
// of its domain, extracting contact candidates from every page it can reach.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"harvest/internal/domain"
	"harvest/internal/extract"
	"harvest/internal/ports"
)

const (
	// MaxPages caps the number of visited URLs so a crawl cannot run forever.
	MaxPages = 50
	// FetchTimeout bounds each page fetch.
	FetchTimeout = 5 * time.Second
)

type Engine struct {
	collectors ports.CollectorRepository
	contacts   ports.ContactRepository
	client     *http.Client
	userAgent  string
	maxPages   int
}

func New(collectors ports.CollectorRepository, contacts ports.ContactRepository, userAgent string) *Engine {
	return &Engine{
		collectors: collectors,
		contacts:   contacts,
		client:     &http.Client{Timeout: FetchTimeout},
		userAgent:  userAgent,
		maxPages:   MaxPages,
	}
}

// Run drives one collector to a terminal status. Failures are recorded on the
// record, never returned; callers observe the outcome by polling it.
func (e *Engine) Run(ctx context.Context, collectorID int64) {
	if err := e.run(ctx, collectorID); err != nil {
		log.Error().Err(err).Int64("collector_id", collectorID).Msg("scraper run failed")
		if merr := e.collectors.MarkFailed(ctx, collectorID); merr != nil {
			log.Error().Err(merr).Int64("collector_id", collectorID).Msg("could not record failure")
		}
		e.appendLog(ctx, collectorID, fmt.Sprintf("Scraper failed with error: %v", err))
	}
}

func (e *Engine) run(ctx context.Context, id int64) error {
	col, err := e.collectors.Get(ctx, id)
	if err != nil {
		return err
	}
	if !col.Enabled {
		// Disabled records exit silently without touching status.
		return nil
	}

	if err := e.collectors.MarkRunning(ctx, id); err != nil {
		return err
	}

	name := strings.TrimSpace(col.DomainName)
	e.appendLog(ctx, id, fmt.Sprintf("Scraper started for %s", name))

	visited := make(map[string]struct{})
	findings := make(map[domain.Finding]struct{})
	frontier := []string{"http://" + name, "https://" + name}

	for len(frontier) > 0 && len(visited) < e.maxPages {
		// Reload the record so an operator stop lands between pages.
		col, err = e.collectors.Get(ctx, id)
		if err != nil {
			return err
		}
		if col.StopRequested {
			e.appendLog(ctx, id, "Stop requested. Exiting scraper.")
			return e.collectors.MarkStopped(ctx, id)
		}

		pageURL := frontier[0]
		frontier = frontier[1:]
		if _, ok := visited[pageURL]; ok {
			continue
		}
		visited[pageURL] = struct{}{}

		e.appendLog(ctx, id, fmt.Sprintf("Fetching %s", pageURL))

		body, effectiveHost, err := e.fetch(ctx, pageURL)
		if err != nil {
			// Per-page soft failure; the rest of the site is still worth
			// visiting.
			e.appendLog(ctx, id, fmt.Sprintf("Request failed: %v", err))
			continue
		}

		// Stay inside the target domain. Substring match, so subdomains pass.
		if !strings.Contains(effectiveHost, name) {
			continue
		}

		for _, v := range extract.Emails(body) {
			findings[domain.Finding{Kind: domain.KindEmail, Value: v}] = struct{}{}
		}
		for _, v := range extract.Phones(body) {
			findings[domain.Finding{Kind: domain.KindPhone, Value: v}] = struct{}{}
		}

		for _, link := range links(pageURL, body) {
			if _, ok := visited[link]; !ok {
				frontier = append(frontier, link)
			}
		}
	}

	e.appendLog(ctx, id, fmt.Sprintf("Saving %d contacts to database.", len(findings)))

	batch := make([]domain.Contact, 0, len(findings))
	for f := range findings {
		if f.Value == "" {
			continue
		}
		batch = append(batch, f.Contact(col.DomainID, id))
	}
	if err := e.contacts.SaveBatch(ctx, batch); err != nil {
		return err
	}

	if err := e.collectors.MarkFinished(ctx, id); err != nil {
		return err
	}
	e.appendLog(ctx, id, "Scraper finished successfully.")
	return nil
}

// fetch returns the page body and the effective (post-redirect) host.
func (e *Engine) fetch(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(body), resp.Request.URL.Host, nil
}

// links resolves every anchor href in body against the page URL.
func links(pageURL, body string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var out []string
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tag, hasAttr := tokenizer.TagName()
		if string(tag) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := tokenizer.TagAttr()
			if string(key) == "href" {
				if ref, err := url.Parse(strings.TrimSpace(string(val))); err == nil {
					out = append(out, base.ResolveReference(ref).String())
				}
			}
			if !more {
				break
			}
		}
	}
}

func (e *Engine) appendLog(ctx context.Context, id int64, message string) {
	if err := e.collectors.AppendLog(ctx, id, message); err != nil {
		log.Warn().Err(err).Int64("collector_id", id).Msg("could not append collector log")
	}
}
