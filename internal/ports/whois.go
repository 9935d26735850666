package ports

import "context"

// WhoisRecord carries the raw contact fields of a WHOIS response. Source
// fields may arrive as a scalar or a list; adapters flatten them here without
// normalizing.
type WhoisRecord struct {
	Emails []string
	Phones []string
}

// WhoisClient performs a single blocking WHOIS query. The query has no
// cancellation point; a stop request cannot interrupt it.
type WhoisClient interface {
	Lookup(ctx context.Context, domainName string) (WhoisRecord, error)
}
