// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/service"
)

// Services bundles the service layer the handlers call into.
type Services struct {
	Users     *service.UserService
	Events    *service.EventService
	RSVPs     *service.RSVPService
	Tokens    *service.TokenService
	Purchases *service.PurchaseService
	Content   *service.ContentService
	Stats     *service.StatsService
}

// Handler holds all HTTP handlers for the club API.
type Handler struct {
	svc Services
	log *logrus.Logger
}

// New constructs a Handler.
func New(svc Services, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidState, apperr.KindInsufficientFunds, apperr.KindCapacityExceeded:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransactionConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Categorised errors carry their message and
// kind; anything else is logged and reported as a bare 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := statusFor(appErr.Kind)
		if status == http.StatusConflict {
			h.log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"path":       r.URL.Path,
			}).WithError(err).Warn("transaction conflict surfaced to client")
		}
		writeJSON(w, status, model.ErrorResponse{Error: appErr.Error(), Kind: string(appErr.Kind)})
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeBody decodes the request body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Kind:  string(apperr.KindValidation),
		})
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter, or 0 when absent or
// malformed.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
