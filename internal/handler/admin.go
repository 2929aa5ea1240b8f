package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
)

// AdminListEvents handles GET /api/admin/events?status=&category=&limit=
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events.ListAdmin(r.Context(), eventQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// AdminCreateEvent handles POST /api/admin/events
func (h *Handler) AdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	event, err := h.svc.Events.Create(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// AdminGetEvent handles GET /api/admin/events/{id}
func (h *Handler) AdminGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// AdminUpdateEvent handles PATCH /api/admin/events/{id}
func (h *Handler) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	event, err := h.svc.Events.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// AdminCancelEvent handles DELETE /api/admin/events/{id}
// Events are never deleted; the status moves to CANCELLED.
func (h *Handler) AdminCancelEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Events.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AdminListEventRSVPs handles GET /api/admin/events/{id}/rsvps
func (h *Handler) AdminListEventRSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := h.svc.RSVPs.ListForEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rsvps)
}

// AdminRSVPAction handles PATCH /api/admin/events/{id}/rsvps
// Applies remove, promote, mark_attended or mark_no_show to one RSVP.
func (h *Handler) AdminRSVPAction(w http.ResponseWriter, r *http.Request) {
	var req model.AdminRSVPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.RSVPs.Apply(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AdminStats handles GET /api/admin/stats
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats.Admin(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AdminListNews handles GET /api/admin/news
func (h *Handler) AdminListNews(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Content.AllNews(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// AdminCreateNews handles POST /api/admin/news
func (h *Handler) AdminCreateNews(w http.ResponseWriter, r *http.Request) {
	var req model.NewsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	post, err := h.svc.Content.CreateNews(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// AdminUpdateNews handles PATCH /api/admin/news/{id}
func (h *Handler) AdminUpdateNews(w http.ResponseWriter, r *http.Request) {
	var req model.NewsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	post, err := h.svc.Content.UpdateNews(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// AdminDeleteNews handles DELETE /api/admin/news/{id}
func (h *Handler) AdminDeleteNews(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.DeleteNews(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
