package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
)

// ListUsers handles GET /api/superadmin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ChangeRole handles PATCH /api/superadmin/users/{id}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Users.ChangeRole(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// SetUserStatus handles PATCH /api/superadmin/users/{id}/status
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req model.SetStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Users.SetActive(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), req.IsActive)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// ListTokenTransactions handles GET /api/superadmin/tokens?userId=&limit=
func (h *Handler) ListTokenTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Tokens.History(r.Context(), r.URL.Query().Get("userId"), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

// CreditTokens handles POST /api/superadmin/tokens
func (h *Handler) CreditTokens(w http.ResponseWriter, r *http.Request) {
	var req model.AdjustTokensRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.svc.Tokens.Credit(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": entry})
}

// DebitTokens handles DELETE /api/superadmin/tokens
// The body carries the same payload as a credit.
func (h *Handler) DebitTokens(w http.ResponseWriter, r *http.Request) {
	var req model.AdjustTokensRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.svc.Tokens.Debit(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": entry})
}

// ReconcileTokens handles GET /api/superadmin/tokens/reconcile?userId=
func (h *Handler) ReconcileTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.fail(w, r, apperr.Validation("userId is required"))
		return
	}
	rec, err := h.svc.Tokens.Reconcile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListPurchases handles GET /api/superadmin/purchases?status=&limit=
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	status := model.PurchaseStatus(r.URL.Query().Get("status"))
	purchases, err := h.svc.Purchases.List(r.Context(), status, queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

// UpdatePurchase handles PATCH /api/superadmin/purchases/update
// Completing a pending purchase credits its tokens.
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	purchase, err := h.svc.Purchases.UpdateStatus(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "purchase": purchase})
}

// SuperAdminStats handles GET /api/superadmin/stats
func (h *Handler) SuperAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats.SuperAdmin(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AuditLog handles GET /api/superadmin/audit?limit=
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Users.AuditLog(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
