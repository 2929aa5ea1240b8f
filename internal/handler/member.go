package handler

import (
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
)

// Register handles POST /api/auth/register
// Creates the caller's user document. The uid in the body must match the
// verified token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Users.Register(r.Context(), id.UID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

// GetProfile handles GET /api/member/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Users.Profile(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/member/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Users.UpdateProfile(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// ListMyRSVPs handles GET /api/member/rsvps?status=&limit=
func (h *Handler) ListMyRSVPs(w http.ResponseWriter, r *http.Request) {
	status := model.RSVPStatus(r.URL.Query().Get("status"))
	rsvps, err := h.svc.RSVPs.ListForUser(r.Context(), userFrom(r.Context()).ID, status, queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rsvps": rsvps})
}

// CreateRSVP handles POST /api/member/rsvps
// Confirms a slot, debiting tokens, or joins the waitlist when full.
func (h *Handler) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var req model.RSVPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.RSVPs.Create(r.Context(), req.EventID, userFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"status":           res.Status,
		"waitlistPosition": res.WaitlistPosition,
	})
}

// CancelRSVP handles DELETE /api/member/rsvps?eventId=
func (h *Handler) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")
	if err := h.svc.RSVPs.Cancel(r.Context(), eventID, userFrom(r.Context()).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// MyCalendar handles GET /api/member/calendar?startDate=&endDate=
// Dates are RFC 3339 timestamps or YYYY-MM-DD days; a bare endDate covers
// the whole day.
func (h *Handler) MyCalendar(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "startDate", false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryDate(r, "endDate", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := h.svc.RSVPs.Calendar(r.Context(), userFrom(r.Context()).ID, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func queryDate(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperr.Validation("%s must be RFC 3339 or YYYY-MM-DD", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// MyTokens handles GET /api/member/tokens
func (h *Handler) MyTokens(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Tokens.Statement(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListMyPurchases handles GET /api/member/purchase
func (h *Handler) ListMyPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.svc.Purchases.ListForUser(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

// CreatePurchase handles POST /api/member/purchase
// Records a PENDING purchase; tokens are credited when a super-admin
// completes it.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req model.PurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	purchase, err := h.svc.Purchases.Create(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "purchase": purchase})
}
