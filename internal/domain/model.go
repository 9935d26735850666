package domain

import (
	"fmt"
	"time"
)

// Core models shared by the services, workers and storage adapters.

type CollectorType string

const (
	TypeScraper CollectorType = "scraper"
	TypeWhois   CollectorType = "whois"
)

type CollectorStatus string

const (
	StatusPending  CollectorStatus = "pending"
	StatusRunning  CollectorStatus = "running"
	StatusFinished CollectorStatus = "finished"
	StatusFailed   CollectorStatus = "failed"
	StatusStopped  CollectorStatus = "stopped"
)

// Domain is a registered target host. Immutable once created.
type Domain struct {
	ID        int64
	Name      string // normalized lowercase FQDN, no scheme or path
	CreatedAt time.Time
}

// Collector is one background job instance. A domain may own many collectors,
// but at most one whois collector lineage.
type Collector struct {
	ID            int64
	DomainID      int64
	DomainName    string // preloaded join; every engine iteration needs it
	Type          CollectorType
	Status        CollectorStatus
	Enabled       bool
	StopRequested bool
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Log           string
}

// Contact is a discovered email or phone value. Exactly one of Email/Phone is
// set. SourceCollectorID is a weak back-reference, nulled when the collector
// goes away.
type Contact struct {
	ID                int64
	DomainID          int64
	Email             *string
	Phone             *string
	SourceCollectorID *int64
	CreatedAt         time.Time
}

type ContactKind string

const (
	KindEmail ContactKind = "email"
	KindPhone ContactKind = "phone"
)

// Finding is one extracted (kind, value) pair accumulated during a crawl.
type Finding struct {
	Kind  ContactKind
	Value string
}

func (f Finding) Contact(domainID, collectorID int64) Contact {
	if f.Kind == KindPhone {
		return PhoneContact(domainID, f.Value, collectorID)
	}
	return EmailContact(domainID, f.Value, collectorID)
}

func EmailContact(domainID int64, value string, collectorID int64) Contact {
	v, cid := value, collectorID
	return Contact{DomainID: domainID, Email: &v, SourceCollectorID: &cid}
}

func PhoneContact(domainID int64, value string, collectorID int64) Contact {
	v, cid := value, collectorID
	return Contact{DomainID: domainID, Phone: &v, SourceCollectorID: &cid}
}

// LogLine formats one collector audit log entry. The log is append-only;
// lines are never rewritten or truncated.
func LogLine(ts time.Time, message string) string {
	return fmt.Sprintf("[%s] %s\n", ts.Format("2006-01-02 15:04:05"), message)
}
