// Package memory implements the repository ports on in-process maps. It backs
// the test suites and DB-less local runs (STORE=memory).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"harvest/internal/domain"
	"harvest/internal/ports"
)

type Store struct {
	mu sync.Mutex

	domainSeq    int64
	collectorSeq int64
	contactSeq   int64

	domains      map[int64]*domain.Domain
	domainByName map[string]int64
	collectors   map[int64]*domain.Collector
	contacts     []*domain.Contact
}

func NewStore() *Store {
	return &Store{
		domains:      make(map[int64]*domain.Domain),
		domainByName: make(map[string]int64),
		collectors:   make(map[int64]*domain.Collector),
	}
}

func (s *Store) Domains() ports.DomainRepository       { return domainRepo{s} }
func (s *Store) Collectors() ports.CollectorRepository { return collectorRepo{s} }
func (s *Store) Contacts() ports.ContactRepository     { return contactRepo{s} }

type domainRepo struct{ s *Store }

func (r domainRepo) GetOrCreate(_ context.Context, name string) (domain.Domain, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.domainByName[name]; ok {
		return *r.s.domains[id], false, nil
	}
	r.s.domainSeq++
	d := &domain.Domain{ID: r.s.domainSeq, Name: name, CreatedAt: time.Now()}
	r.s.domains[d.ID] = d
	r.s.domainByName[name] = d.ID
	return *d, true, nil
}

type collectorRepo struct{ s *Store }

func (r collectorRepo) Create(_ context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createLocked(domainID, typ), nil
}

func (r collectorRepo) GetOrCreate(_ context.Context, domainID int64, typ domain.CollectorType) (domain.Collector, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.collectors {
		if c.DomainID == domainID && c.Type == typ {
			return r.s.withDomainName(c), false, nil
		}
	}
	return r.s.createLocked(domainID, typ), true, nil
}

func (r collectorRepo) Get(_ context.Context, id int64) (domain.Collector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.collectors[id]
	if !ok {
		return domain.Collector{}, ports.ErrNotFound
	}
	return r.s.withDomainName(c), nil
}

func (r collectorRepo) MarkRunning(_ context.Context, id int64) error {
	return r.update(id, func(c *domain.Collector) {
		now := time.Now()
		c.Status = domain.StatusRunning
		c.StartedAt = &now
		c.FinishedAt = nil
		c.StopRequested = false
	})
}

func (r collectorRepo) MarkFinished(_ context.Context, id int64) error {
	return r.finalize(id, domain.StatusFinished)
}

func (r collectorRepo) MarkFailed(_ context.Context, id int64) error {
	return r.finalize(id, domain.StatusFailed)
}

func (r collectorRepo) MarkStopped(_ context.Context, id int64) error {
	return r.finalize(id, domain.StatusStopped)
}

func (r collectorRepo) SetEnabled(_ context.Context, id int64, enabled bool) error {
	return r.update(id, func(c *domain.Collector) { c.Enabled = enabled })
}

func (r collectorRepo) RequestStop(_ context.Context, id int64) error {
	// Optimistic: the stopped status lands before the engine has exited.
	return r.update(id, func(c *domain.Collector) {
		c.StopRequested = true
		c.Status = domain.StatusStopped
	})
}

func (r collectorRepo) AppendLog(_ context.Context, id int64, message string) error {
	line := domain.LogLine(time.Now(), message)
	return r.update(id, func(c *domain.Collector) { c.Log += line })
}

func (r collectorRepo) List(_ context.Context) ([]domain.Collector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Collector, 0, len(r.s.collectors))
	for _, c := range r.s.collectors {
		out = append(out, r.s.withDomainName(c))
	}
	// Newest-started first; never-started records sort before all started
	// ones; ties broken by descending id.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartedAt == nil && b.StartedAt != nil:
			return true
		case a.StartedAt != nil && b.StartedAt == nil:
			return false
		case a.StartedAt != nil && !a.StartedAt.Equal(*b.StartedAt):
			return a.StartedAt.After(*b.StartedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (r collectorRepo) AnyEnabled(_ context.Context, typ domain.CollectorType) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	exists := false
	for _, c := range r.s.collectors {
		if c.Type != typ {
			continue
		}
		if c.Enabled {
			return true, nil
		}
		exists = true
	}
	return !exists, nil
}

func (r collectorRepo) update(id int64, fn func(*domain.Collector)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.collectors[id]
	if !ok {
		return ports.ErrNotFound
	}
	fn(c)
	return nil
}

func (r collectorRepo) finalize(id int64, status domain.CollectorStatus) error {
	return r.update(id, func(c *domain.Collector) {
		now := time.Now()
		c.Status = status
		c.FinishedAt = &now
	})
}

type contactRepo struct{ s *Store }

func (r contactRepo) GetOrCreate(_ context.Context, c domain.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.getOrCreateLocked(c)
	return nil
}

func (r contactRepo) SaveBatch(_ context.Context, contacts []domain.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range contacts {
		r.s.getOrCreateLocked(c)
	}
	return nil
}

func (r contactRepo) List(_ context.Context) ([]domain.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Contact, 0, len(r.s.contacts))
	for _, c := range r.s.contacts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) createLocked(domainID int64, typ domain.CollectorType) domain.Collector {
	s.collectorSeq++
	c := &domain.Collector{
		ID:       s.collectorSeq,
		DomainID: domainID,
		Type:     typ,
		Status:   domain.StatusPending,
		Enabled:  true,
	}
	s.collectors[c.ID] = c
	return s.withDomainName(c)
}

func (s *Store) withDomainName(c *domain.Collector) domain.Collector {
	out := *c
	if d, ok := s.domains[c.DomainID]; ok {
		out.DomainName = d.Name
	}
	return out
}

func (s *Store) getOrCreateLocked(c domain.Contact) {
	for _, existing := range s.contacts {
		if existing.DomainID == c.DomainID &&
			ptrEq(existing.Email, c.Email) &&
			ptrEq(existing.Phone, c.Phone) &&
			int64PtrEq(existing.SourceCollectorID, c.SourceCollectorID) {
			return
		}
	}
	s.contactSeq++
	stored := c
	stored.ID = s.contactSeq
	stored.CreatedAt = time.Now()
	s.contacts = append(s.contacts, &stored)
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
