package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/service"
)

func eventQuery(r *http.Request) service.EventQuery {
	q := r.URL.Query()
	return service.EventQuery{
		Status:       model.EventStatus(q.Get("status")),
		Category:     model.EventCategory(q.Get("category")),
		SportID:      q.Get("sportId"),
		GenderPolicy: model.GenderPolicy(q.Get("genderPolicy")),
		Limit:        queryInt(r, "limit"),
	}
}

// ListEvents handles GET /api/events
// Returns upcoming published events with their occupancy.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events.ListPublic(r.Context(), eventQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Events.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListNews handles GET /api/news?limit=&offset=
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Content.PublishedNews(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// GetNews handles GET /api/news/{slug}
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Content.NewsBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// ListTokenPackages handles GET /api/token-packages
func (h *Handler) ListTokenPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.svc.Purchases.Packages(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": pkgs})
}

// SubmitContact handles POST /api/contact
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg, err := h.svc.Content.SubmitContact(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": msg.ID})
}
