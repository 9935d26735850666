// Package httpadapter is the operator surface: a small JSON API standing in
// for the original forms and list screens.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"harvest/internal/ports"
	"harvest/internal/services/sites"
)

type Server struct {
	sites      ports.SiteRegistrar
	collectors ports.Dispatcher
	contacts   ports.ContactRepository
}

func New(siteSvc ports.SiteRegistrar, dispatcher ports.Dispatcher, contacts ports.ContactRepository) *Server {
	return &Server{sites: siteSvc, collectors: dispatcher, contacts: contacts}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Post("/sites", s.addSite)
	r.Get("/collectors", s.listCollectors)
	r.Post("/collectors/{id}/toggle", s.collectorAction(s.collectors.ToggleEnabled))
	r.Post("/collectors/{id}/start", s.collectorAction(s.collectors.Relaunch))
	r.Post("/collectors/{id}/stop", s.collectorAction(s.collectors.RequestStop))
	r.Get("/contacts", s.listContacts)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type addSiteRequest struct {
	Domain string `json:"domain"`
}

type addSiteResponse struct {
	Domain  string `json:"domain"`
	Created bool   `json:"created"`
}

func (s *Server) addSite(w http.ResponseWriter, r *http.Request) {
	var req addSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dom, created, err := s.sites.Register(r.Context(), req.Domain)
	if errors.Is(err, sites.ErrInvalidDomain) {
		writeError(w, http.StatusUnprocessableEntity, "please enter a valid domain, for example: example.com")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, addSiteResponse{Domain: dom.Name, Created: created})
}

type collectorView struct {
	ID         int64      `json:"id"`
	Domain     string     `json:"domain"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Enabled    bool       `json:"enabled"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (s *Server) listCollectors(w http.ResponseWriter, r *http.Request) {
	list, err := s.collectors.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]collectorView, 0, len(list))
	for _, c := range list {
		out = append(out, collectorView{
			ID:         c.ID,
			Domain:     c.DomainName,
			Type:       string(c.Type),
			Status:     string(c.Status),
			Enabled:    c.Enabled,
			StartedAt:  c.StartedAt,
			FinishedAt: c.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type contactView struct {
	ID                int64     `json:"id"`
	DomainID          int64     `json:"domain_id"`
	Email             *string   `json:"email"`
	Phone             *string   `json:"phone"`
	SourceCollectorID *int64    `json:"source_collector_id"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.contacts.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]contactView, 0, len(list))
	for _, c := range list {
		out = append(out, contactView{
			ID:                c.ID,
			DomainID:          c.DomainID,
			Email:             c.Email,
			Phone:             c.Phone,
			SourceCollectorID: c.SourceCollectorID,
			CreatedAt:         c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) collectorAction(action func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid collector id")
			return
		}
		if err := action(r.Context(), id); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				writeError(w, http.StatusNotFound, "collector not found")
				return
			}
			s.internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("could not encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
