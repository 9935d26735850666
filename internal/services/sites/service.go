// Package sites accepts operator-supplied domain names, normalizes them and
// kicks off collection for newly registered domains.
package sites

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"harvest/internal/domain"
	"harvest/internal/ports"
)

var fqdnPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)

// ErrInvalidDomain is returned when the input does not normalize to an FQDN.
var ErrInvalidDomain = errors.New("invalid domain name")

// NormalizeDomainName strips a leading http/https scheme, truncates at the
// first slash, lowercases and validates against the FQDN pattern.
func NormalizeDomainName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "https://")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[:i]
	}
	if !fqdnPattern.MatchString(name) {
		return "", ErrInvalidDomain
	}
	return name, nil
}

type Service struct {
	domains    ports.DomainRepository
	collectors ports.CollectorRepository
	dispatch   ports.Dispatcher
}

func New(domains ports.DomainRepository, collectors ports.CollectorRepository, dispatch ports.Dispatcher) *Service {
	return &Service{domains: domains, collectors: collectors, dispatch: dispatch}
}

// Register stores the normalized domain. Collectors start only for a newly
// created domain, and per type only while that type is not globally disabled
// (a type with at least one collector, all disabled, is considered switched
// off by the operator).
func (s *Service) Register(ctx context.Context, raw string) (domain.Domain, bool, error) {
	name, err := NormalizeDomainName(raw)
	if err != nil {
		return domain.Domain{}, false, err
	}

	dom, created, err := s.domains.GetOrCreate(ctx, name)
	if err != nil {
		return domain.Domain{}, false, err
	}
	if !created {
		return dom, false, nil
	}

	for _, typ := range []domain.CollectorType{domain.TypeScraper, domain.TypeWhois} {
		allowed, err := s.collectors.AnyEnabled(ctx, typ)
		if err != nil {
			return dom, true, err
		}
		if !allowed {
			continue
		}
		if _, err := s.dispatch.LaunchNew(ctx, dom.ID, typ); err != nil {
			return dom, true, err
		}
	}
	return dom, true, nil
}
