// Package whoisx queries registry WHOIS and flattens the parsed contact
// blocks into the raw email/phone lists the whois engine normalizes.
package whoisx

import (
	"context"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"harvest/internal/ports"
)

type Client struct{}

func New() *Client { return &Client{} }

// Lookup performs one blocking WHOIS query. The underlying client has no
// context support; a stop request cannot interrupt a lookup in flight.
func (c *Client) Lookup(_ context.Context, domainName string) (ports.WhoisRecord, error) {
	raw, err := whois.Whois(domainName)
	if err != nil {
		return ports.WhoisRecord{}, err
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return ports.WhoisRecord{}, err
	}

	var rec ports.WhoisRecord
	for _, contact := range []*whoisparser.Contact{
		parsed.Registrar,
		parsed.Registrant,
		parsed.Administrative,
		parsed.Technical,
		parsed.Billing,
	} {
		if contact == nil {
			continue
		}
		if contact.Email != "" {
			rec.Emails = append(rec.Emails, contact.Email)
		}
		if contact.Phone != "" {
			rec.Phones = append(rec.Phones, contact.Phone)
		}
	}
	return rec, nil
}
